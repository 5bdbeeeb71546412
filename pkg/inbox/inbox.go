// Package inbox keeps the client-side messaging state of a signed-in user:
// the conversation list, the open thread and the notification badges.
//
// All state is confirmed state. Nothing is shown before the backend has
// accepted it, and a failed operation leaves the stores as they were.
package inbox

import (
	"context"
	"log/slog"

	"github.com/vedran77/fixly/pkg/api"
)

// Backend is everything the inbox needs from the REST API. *api.Client
// satisfies it.
type Backend interface {
	ThreadAPI
	ConversationAPI
	CountAPI
	FeaturedAPI
}

// Inbox bundles the stores of one session. Construct one per signed-in
// user; nothing in this package is global.
type Inbox struct {
	SelfID        string
	Thread        *Thread
	Conversations *Conversations
	Counters      *Counters
	Featured      *FeaturedLoader
}

type Config struct {
	SelfID    string
	Confirmer Confirmer
	Alerter   Alerter
	Logger    *slog.Logger
	// IDValidator overrides the identifier check run before edits.
	IDValidator func(string) bool
}

func New(b Backend, cfg Config) *Inbox {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("user", cfg.SelfID)

	opts := []ThreadOption{WithThreadLogger(log)}
	if cfg.IDValidator != nil {
		opts = append(opts, WithIDValidator(cfg.IDValidator))
	}
	thread := NewThread(b, cfg.Confirmer, opts...)

	return &Inbox{
		SelfID:        cfg.SelfID,
		Thread:        thread,
		Conversations: NewConversations(b, thread, cfg.SelfID, cfg.Confirmer, log),
		Counters:      NewCounters(b, cfg.Alerter, log),
		Featured:      NewFeaturedLoader(b, log),
	}
}

// Start loads the badges and the conversation list. Badges that fail to
// load read zero.
func (in *Inbox) Start(ctx context.Context) error {
	countErr := in.Counters.Initialize(ctx, in.SelfID)
	if err := in.Conversations.Fetch(ctx); err != nil {
		return err
	}
	return countErr
}

// OpenMessages is called when the user views the inbox: the unread badge
// is cleared and the list refreshed.
func (in *Inbox) OpenMessages(ctx context.Context) error {
	in.Counters.Reset(MessageCounter)
	return in.Conversations.Fetch(ctx)
}

// OpenBookings clears the pending booking badge.
func (in *Inbox) OpenBookings() {
	in.Counters.Reset(BookingCounter)
}

// Listen builds the push listener for this session.
func (in *Inbox) Listen(client *api.Client, opts ...ListenerOption) (*Listener, error) {
	u, err := client.PushURL()
	if err != nil {
		return nil, err
	}
	return NewListener(u, in.Counters, opts...), nil
}
