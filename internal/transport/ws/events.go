package ws

import (
	"encoding/json"
	"time"

	"github.com/vedran77/fixly/internal/domain"
)

// Event types - Client → Server
const (
	EventTypePing = "ping"
)

// Event types - Server → Client
const (
	EventTypeNewMessage = "new-message"
	EventTypeNewBooking = "new-booking"
	EventTypePong       = "pong"
	EventTypeError      = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

// --- Server → Client payloads ---

type NewMessagePayload struct {
	ID       string          `json:"_id"`
	SenderID string          `json:"senderId"`
	Sender   *domain.Profile `json:"sender,omitempty"`
	Preview  string          `json:"preview"`
}

type NewBookingPayload struct {
	ID          string    `json:"_id"`
	CustomerID  string    `json:"customerId"`
	Service     string    `json:"service"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}
