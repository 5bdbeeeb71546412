package ws

import (
	"log/slog"

	"github.com/vedran77/fixly/internal/domain"
)

const previewLength = 80

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	evt, err := NewEvent(EventTypeNewMessage, NewMessagePayload{
		ID:       msg.ID,
		SenderID: msg.SenderID,
		Sender:   msg.Sender,
		Preview:  preview(msg.Text),
	})
	if err != nil {
		slog.Error("ws notifier: marshal error", "error", err)
		return
	}
	n.hub.SendToUser(msg.ReceiverID, evt)
}

func (n *HubNotifier) NotifyNewBooking(b *domain.Booking) {
	evt, err := NewEvent(EventTypeNewBooking, NewBookingPayload{
		ID:          b.ID,
		CustomerID:  b.CustomerID,
		Service:     b.Service,
		ScheduledAt: b.ScheduledAt,
	})
	if err != nil {
		slog.Error("ws notifier: marshal error", "error", err)
		return
	}
	n.hub.SendToUser(b.ProviderID, evt)
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= previewLength {
		return text
	}
	return string(r[:previewLength-1]) + "…"
}
