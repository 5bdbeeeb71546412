// Package memory keeps repositories in process memory. Lookups return
// copies, so callers never alias stored records.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vedran77/fixly/internal/domain"
	"github.com/vedran77/fixly/internal/repository"
)

var (
	_ repository.UserRepository    = (*UserRepo)(nil)
	_ repository.MessageRepository = (*MessageRepo)(nil)
	_ repository.BookingRepository = (*BookingRepo)(nil)
)

type UserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func NewUserRepo(users ...domain.User) *UserRepo {
	m := &UserRepo{users: make(map[string]domain.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *UserRepo) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = *user
	return nil
}

func (m *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *UserRepo) ListFeatured(ctx context.Context, limit int) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if u.Role == domain.RoleProvider && u.Featured {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MessageRepo struct {
	mu       sync.Mutex
	users    *UserRepo
	messages []domain.Message
}

// NewMessageRepo joins sender and receiver profiles from users.
func NewMessageRepo(users *UserRepo) *MessageRepo {
	return &MessageRepo{users: users}
}

func (m *MessageRepo) populate(msg domain.Message) domain.Message {
	if u, _ := m.users.GetByID(context.Background(), msg.SenderID); u != nil {
		p := u.Profile()
		msg.Sender = &p
	}
	if u, _ := m.users.GetByID(context.Background(), msg.ReceiverID); u != nil {
		p := u.Profile()
		msg.Receiver = &p
	}
	return msg
}

func (m *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			full := m.populate(msg)
			return &full, nil
		}
	}
	return nil, nil
}

func between(msg domain.Message, a, b string) bool {
	return (msg.SenderID == a && msg.ReceiverID == b) || (msg.SenderID == b && msg.ReceiverID == a)
}

func (m *MessageRepo) ListThread(ctx context.Context, userID, peerID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Message
	for _, msg := range m.messages {
		if between(msg, userID, peerID) {
			out = append(out, m.populate(msg))
		}
	}
	return out, nil
}

func (m *MessageRepo) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byPeer := make(map[string]*domain.Conversation)
	var order []string
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		var peer string
		switch userID {
		case msg.SenderID:
			peer = msg.ReceiverID
		case msg.ReceiverID:
			peer = msg.SenderID
		default:
			continue
		}
		conv, ok := byPeer[peer]
		if !ok {
			u, _ := m.users.GetByID(ctx, peer)
			if u == nil {
				continue
			}
			conv = &domain.Conversation{
				User: u.Profile(),
				LastMessage: &domain.LastMessage{
					Text: msg.Text, SenderID: msg.SenderID, ReceiverID: msg.ReceiverID, CreatedAt: msg.CreatedAt,
				},
			}
			byPeer[peer] = conv
			order = append(order, peer)
		}
		if msg.ReceiverID == userID && !msg.IsRead {
			conv.UnreadCount++
		}
	}
	var out []domain.Conversation
	for _, peer := range order {
		out = append(out, *byPeer[peer])
	}
	return out, nil
}

func (m *MessageRepo) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ReceiverID == receiverID && msg.SenderID == senderID && !msg.IsRead {
			msg.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *MessageRepo) CountUnread(ctx context.Context, receiverID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.messages {
		if msg.ReceiverID == receiverID && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.messages {
		if m.messages[i].ID == msg.ID {
			m.messages[i].Text = msg.Text
			m.messages[i].IsEdited = msg.IsEdited
			m.messages[i].UpdatedAt = msg.UpdatedAt
		}
	}
	return nil
}

func (m *MessageRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = slices.DeleteFunc(m.messages, func(msg domain.Message) bool { return msg.ID == id })
	return nil
}

func (m *MessageRepo) DeleteConversation(ctx context.Context, userID, peerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.messages)
	m.messages = slices.DeleteFunc(m.messages, func(msg domain.Message) bool { return between(msg, userID, peerID) })
	return int64(before - len(m.messages)), nil
}

type BookingRepo struct {
	mu       sync.Mutex
	bookings []domain.Booking
}

func NewBookingRepo() *BookingRepo {
	return &BookingRepo{}
}

func (m *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = append(m.bookings, *b)
	return nil
}

func (m *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, nil
}

func (m *BookingRepo) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Booking
	for _, b := range m.bookings {
		if b.CustomerID == userID || b.ProviderID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *BookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			m.bookings[i].Status = status
			m.bookings[i].UpdatedAt = at
		}
	}
	return nil
}

func (m *BookingRepo) CountPending(ctx context.Context, providerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.ProviderID == providerID && b.Status == domain.BookingPending {
			n++
		}
	}
	return n, nil
}
