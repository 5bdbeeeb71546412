package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"nhooyr.io/websocket"
)

// Push event types delivered by the backend.
const (
	EventNewMessage = "new-message"
	EventNewBooking = "new-booking"
)

const maxEventSize = 64 << 10

// Event is one push notification.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Listener feeds push events into Counters. Delivery may repeat an event;
// each delivery counts.
type Listener struct {
	url      string
	counters *Counters
	onEvent  func(Event)
	dialOpts *websocket.DialOptions
	log      *slog.Logger
}

type ListenerOption func(*Listener)

// WithEventHook calls fn after each event has been applied.
func WithEventHook(fn func(Event)) ListenerOption {
	return func(l *Listener) {
		l.onEvent = fn
	}
}

// WithDialOptions sets the websocket handshake options, for example an
// Authorization header in place of the token query parameter.
func WithDialOptions(opts *websocket.DialOptions) ListenerOption {
	return func(l *Listener) {
		l.dialOpts = opts
	}
}

func WithListenerLogger(log *slog.Logger) ListenerOption {
	return func(l *Listener) {
		l.log = log
	}
}

func NewListener(pushURL string, counters *Counters, opts ...ListenerOption) *Listener {
	l := &Listener{
		url:      pushURL,
		counters: counters,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run connects and applies events until the connection ends or ctx is
// done. A normal close returns nil. Reconnecting is up to the caller.
func (l *Listener) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, l.url, l.dialOpts)
	if err != nil {
		return fmt.Errorf("dial push channel: %w", err)
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxEventSize)

	l.log.Info("push channel connected")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read push event: %w", err)
		}

		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			l.log.Warn("malformed push event", "error", err)
			continue
		}
		l.Dispatch(evt)
	}
}

// Dispatch applies a single event.
func (l *Listener) Dispatch(evt Event) {
	switch evt.Type {
	case EventNewMessage:
		l.counters.Increment(MessageCounter)
	case EventNewBooking:
		l.counters.Increment(BookingCounter)
	default:
		l.log.Debug("ignoring push event", "type", evt.Type)
		return
	}
	if l.onEvent != nil {
		l.onEvent(evt)
	}
}
