package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vedran77/fixly/internal/metrics"
)

// Hub manages all active WebSocket clients and routes events to users.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	// clients maps userID → connection id → client.
	clients map[string]map[uuid.UUID]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan *delivery
	online     chan onlineQuery
	stopped    chan struct{}

	metrics *metrics.Metrics
}

type delivery struct {
	userID    string
	eventType string
	data      []byte
}

type onlineQuery struct {
	userID string
	reply  chan int
}

func NewHub(m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[string]map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *delivery, 256),
		online:     make(chan onlineQuery),
		stopped:    make(chan struct{}),
		metrics:    m,
	}
}

// Run is the Hub's event loop. It returns when ctx is done, after closing
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range h.clients {
				for _, c := range conns {
					h.drop(c)
				}
			}
			return

		case c := <-h.register:
			conns, ok := h.clients[c.userID]
			if !ok {
				conns = make(map[uuid.UUID]*Client)
				h.clients[c.userID] = conns
			}
			conns[c.id] = c
			if h.metrics != nil {
				h.metrics.PushConnections.Inc()
			}
			slog.Debug("ws hub: connected", "user", c.userID, "conn", c.id, "devices", len(conns))

		case c := <-h.unregister:
			if _, ok := h.clients[c.userID][c.id]; ok {
				h.drop(c)
				slog.Debug("ws hub: disconnected", "user", c.userID, "conn", c.id)
			}

		case d := <-h.deliver:
			for _, c := range h.clients[d.userID] {
				select {
				case c.send <- d.data:
					if h.metrics != nil {
						h.metrics.PushDelivered.WithLabelValues(d.eventType).Inc()
					}
				default:
					// Client buffer full - disconnect
					h.drop(c)
					if h.metrics != nil {
						h.metrics.PushDropped.Inc()
					}
				}
			}

		case q := <-h.online:
			q.reply <- len(h.clients[q.userID])
		}
	}
}

func (h *Hub) drop(c *Client) {
	conns := h.clients[c.userID]
	delete(conns, c.id)
	if len(conns) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.done)
	if h.metrics != nil {
		h.metrics.PushConnections.Dec()
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.stopped:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.stopped:
	}
}

// SendToUser queues an event for every connection of userID. Users
// without a connection miss the event; the badge counts are refetched on
// the next session start.
func (h *Hub) SendToUser(userID string, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("ws hub: marshal error", "error", err)
		return
	}
	select {
	case h.deliver <- &delivery{userID: userID, eventType: event.Type, data: data}:
	case <-h.stopped:
	}
}

// Online returns the number of open connections of userID.
func (h *Hub) Online(userID string) int {
	q := onlineQuery{userID: userID, reply: make(chan int, 1)}
	select {
	case h.online <- q:
		return <-q.reply
	case <-h.stopped:
		return 0
	}
}
