package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vedran77/fixly/internal/config"
	"github.com/vedran77/fixly/internal/database"
	"github.com/vedran77/fixly/internal/logger"
	"github.com/vedran77/fixly/internal/metrics"
	postgresrepo "github.com/vedran77/fixly/internal/repository/postgres"
	"github.com/vedran77/fixly/internal/service"
	"github.com/vedran77/fixly/internal/transport/http/router"
	"github.com/vedran77/fixly/internal/transport/ws"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info("connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	bookingRepo := postgresrepo.NewBookingRepo(pool)

	m := metrics.New()
	hub := ws.NewHub(m)
	notifier := ws.NewHubNotifier(hub)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	messageService := service.NewMessageService(messageRepo, userRepo)
	messageService.SetNotifier(notifier)
	messageService.SetMetrics(m)
	bookingService := service.NewBookingService(bookingRepo, userRepo)
	bookingService.SetNotifier(notifier)
	bookingService.SetMetrics(m)
	providerService := service.NewProviderService(userRepo)

	srv := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router.New(router.Deps{
			Auth:           authService,
			Messages:       messageService,
			Bookings:       bookingService,
			Providers:      providerService,
			Hub:            hub,
			Metrics:        m,
			JWTSecret:      cfg.JWTSecret,
			CORSOrigins:    cfg.CORSOrigins,
			SendRatePerMin: cfg.SendRatePerMin,
			RequestLog:     true,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
