// Command inbox is a terminal companion for a signed-in marketplace user.
// It prints the conversation list and featured providers, then keeps the
// unread message and pending booking badges live over the push channel.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vedran77/fixly/internal/config"
	"github.com/vedran77/fixly/internal/logger"
	"github.com/vedran77/fixly/pkg/api"
	"github.com/vedran77/fixly/pkg/inbox"
)

func main() {
	if err := run(); err != nil {
		slog.Error("inbox exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	token := cfg.Token
	if token == "" {
		session, err := api.NewClient(cfg.APIURL).Login(ctx, cfg.Email, cfg.Password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		token = session.Token
	}
	selfID, err := api.SubjectFromToken(token)
	if err != nil {
		return err
	}

	client := api.NewClient(cfg.APIURL, api.WithToken(token))
	in := inbox.New(client, inbox.Config{SelfID: selfID, Logger: log})

	in.Counters.Subscribe(func(c inbox.Counts) {
		fmt.Printf("unread messages: %d  pending bookings: %d\n", c.Messages, c.Bookings)
	})

	if err := in.Start(ctx); err != nil {
		log.Warn("inbox started with errors", "error", inbox.UserMessage(err))
	}
	printConversations(in)

	providers, err := in.Featured.Load(ctx)
	if err != nil {
		log.Warn("featured providers unavailable", "error", inbox.UserMessage(err))
	}
	for _, p := range providers {
		fmt.Printf("featured: %s (%.1f)\n", p.Name, p.Rating)
	}

	return listen(ctx, in, client, log)
}

func printConversations(in *inbox.Inbox) {
	for _, conv := range in.Conversations.List() {
		peer := inbox.ResolveOtherParty(conv, in.SelfID)
		line := inbox.DisplayName(peer)
		if conv.LastMessage != nil {
			line += ": " + conv.LastMessage.Text
		}
		if conv.UnreadCount > 0 {
			line += fmt.Sprintf(" (%d new)", conv.UnreadCount)
		}
		fmt.Println(line)
	}
}

// listen keeps the push channel open until ctx is done, reconnecting with
// exponential backoff. A connection that stayed up resets the backoff.
func listen(ctx context.Context, in *inbox.Inbox, client *api.Client, log *slog.Logger) error {
	listener, err := in.Listen(client, inbox.WithListenerLogger(log))
	if err != nil {
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.MaxInterval = time.Minute

	for {
		started := time.Now()
		err := listener.Run(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if time.Since(started) > time.Minute {
			b.Reset()
		}

		wait := b.NextBackOff()
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("push channel lost", "error", err, "retry_in", wait)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}
