package domain

import (
	"encoding/json"
	"time"
)

type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"-"`
	ReceiverID string    `json:"-"`
	Text       string    `json:"text"`
	IsRead     bool      `json:"isRead"`
	IsEdited   bool      `json:"isEdited"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	// Joined fields
	Sender   *Profile `json:"-"`
	Receiver *Profile `json:"-"`
}

// MarshalJSON renders senderId and receiverId as the joined profile when
// one is loaded and as the bare id otherwise.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	return json.Marshal(struct {
		plain
		SenderID   any `json:"senderId"`
		ReceiverID any `json:"receiverId"`
	}{
		plain:      plain(m),
		SenderID:   userRef(m.SenderID, m.Sender),
		ReceiverID: userRef(m.ReceiverID, m.Receiver),
	})
}

func userRef(id string, p *Profile) any {
	if p != nil {
		return p
	}
	return id
}

// LastMessage is the newest message of a conversation.
type LastMessage struct {
	Text       string    `json:"text"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Conversation is one inbox row: the other participant, the newest
// message between the two users and how many of the peer's messages the
// owner has not read yet.
type Conversation struct {
	User        Profile      `json:"user"`
	LastMessage *LastMessage `json:"lastMessage,omitempty"`
	UnreadCount int          `json:"unreadCount"`
}
