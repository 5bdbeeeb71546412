package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vedran77/fixly/internal/metrics"
	"github.com/vedran77/fixly/internal/service"
	"github.com/vedran77/fixly/internal/transport/http/handlers"
	"github.com/vedran77/fixly/internal/transport/http/middleware"
	"github.com/vedran77/fixly/internal/transport/ws"
)

type Deps struct {
	Auth      *service.AuthService
	Messages  *service.MessageService
	Bookings  *service.BookingService
	Providers *service.ProviderService
	Hub       *ws.Hub
	Metrics   *metrics.Metrics

	JWTSecret      string
	CORSOrigins    []string
	SendRatePerMin int
	// RequestLog turns on chi's request logger.
	RequestLog bool
}

func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Auth)
	messageHandler := handlers.NewMessageHandler(d.Messages)
	bookingHandler := handlers.NewBookingHandler(d.Bookings)
	providerHandler := handlers.NewProviderHandler(d.Providers)

	auth := middleware.Auth(d.JWTSecret)
	var onReject func()
	if d.Metrics != nil {
		onReject = d.Metrics.RateLimited.Inc
	}
	sendLimit := middleware.RateLimit(d.SendRatePerMin, onReject)

	r := chi.NewRouter()
	if d.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Public
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/providers/featured", providerHandler.Featured)
		r.Get("/ws", ws.ServeWS(d.Hub, d.JWTSecret, d.CORSOrigins))

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.Use(chimw.Timeout(30 * time.Second))

			r.Route("/messages", func(r chi.Router) {
				r.Get("/conversations", messageHandler.Conversations)
				r.Get("/unread-count", messageHandler.UnreadCount)
				r.Delete("/conversation/{peerId}", messageHandler.DeleteConversation)
				r.Get("/{id}", messageHandler.Thread)
				r.With(sendLimit).Post("/", messageHandler.Send)
				r.Put("/{id}", messageHandler.Edit)
				r.Delete("/{id}", messageHandler.Delete)
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", bookingHandler.List)
				r.Post("/", bookingHandler.Create)
				r.Get("/pending-count", bookingHandler.PendingCount)
				r.Patch("/{id}", bookingHandler.Update)
			})
		})
	})

	return r
}
