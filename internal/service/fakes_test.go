package service

import (
	"sync"
	"time"

	"github.com/vedran77/fixly/internal/domain"
	"github.com/vedran77/fixly/internal/repository/memory"
)

const (
	customerID = "65a1f0c2b3d4e5f6a7b8c901"
	providerID = "65a1f0c2b3d4e5f6a7b8c902"
	otherID    = "65a1f0c2b3d4e5f6a7b8c903"
	missingID  = "65a1f0c2b3d4e5f6a7b8c9ff"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// clock hands out strictly increasing timestamps.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock { return &clock{now: t0} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []*domain.Message
	bookings []*domain.Booking
}

func (n *recordingNotifier) NotifyNewMessage(msg *domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) NotifyNewBooking(b *domain.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, b)
}

func seedUsers() *memory.UserRepo {
	return memory.NewUserRepo(
		domain.User{ID: customerID, Email: "cara@example.com", Name: "Cara", Role: domain.RoleCustomer},
		domain.User{ID: providerID, Email: "pete@example.com", Name: "Pete", Role: domain.RoleProvider, Featured: true, Rating: 4.8, Services: []string{"plumbing"}},
		domain.User{ID: otherID, Email: "ana@example.com", Name: "Ana", Role: domain.RoleProvider, Rating: 4.9},
	)
}
