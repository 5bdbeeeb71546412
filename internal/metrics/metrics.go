package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the backend's collectors. Each instance owns its registry
// so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	MessagesSent    prometheus.Counter
	MessagesEdited  prometheus.Counter
	MessagesDeleted prometheus.Counter
	BookingsCreated prometheus.Counter
	PushDelivered   *prometheus.CounterVec
	PushDropped     prometheus.Counter
	PushConnections prometheus.Gauge
	RateLimited     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixly_messages_sent_total",
			Help: "Messages accepted by POST /messages.",
		}),
		MessagesEdited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixly_messages_edited_total",
			Help: "Messages edited by their sender.",
		}),
		MessagesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixly_messages_deleted_total",
			Help: "Messages deleted, including those removed with a conversation.",
		}),
		BookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixly_bookings_created_total",
			Help: "Bookings created by customers.",
		}),
		PushDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fixly_push_delivered_total",
			Help: "Push events queued to a connection, by event type.",
		}, []string{"type"}),
		PushDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixly_push_dropped_total",
			Help: "Push events dropped because a connection's buffer was full.",
		}),
		PushConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fixly_push_connections",
			Help: "Open push connections.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fixly_rate_limited_total",
			Help: "Requests rejected by the send rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.MessagesSent,
		m.MessagesEdited,
		m.MessagesDeleted,
		m.BookingsCreated,
		m.PushDelivered,
		m.PushDropped,
		m.PushConnections,
		m.RateLimited,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
