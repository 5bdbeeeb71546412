package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Counter names one of the notification badges.
type Counter string

const (
	MessageCounter Counter = "message"
	BookingCounter Counter = "booking"
)

// CountAPI fetches the authoritative badge values.
type CountAPI interface {
	UnreadCount(ctx context.Context) (int, error)
	PendingBookingCount(ctx context.Context) (int, error)
}

// Alerter plays the chime and haptic pulse for a new notification.
type Alerter interface {
	PlaySound() error
	Vibrate() error
}

// NopAlerter is an Alerter that does nothing.
type NopAlerter struct{}

func (NopAlerter) PlaySound() error { return nil }
func (NopAlerter) Vibrate() error   { return nil }

type Counts struct {
	Messages int
	Bookings int
}

// Counters tracks the unread message and pending booking badges for the
// lifetime of the process.
type Counters struct {
	api   CountAPI
	alert Alerter
	log   *slog.Logger

	mu       sync.Mutex
	messages int
	bookings int

	subs subscribers[Counts]
}

func NewCounters(a CountAPI, alert Alerter, log *slog.Logger) *Counters {
	if alert == nil {
		alert = NopAlerter{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Counters{api: a, alert: alert, log: log}
}

func (c *Counters) Subscribe(fn func(Counts)) (unsubscribe func()) {
	return c.subs.add(fn)
}

func (c *Counters) Counts() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Counts{Messages: c.messages, Bookings: c.bookings}
}

func (c *Counters) Count(kind Counter) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p := c.fieldLocked(kind); p != nil {
		return *p
	}
	return 0
}

// Increment adds one and alerts the user. Alert failures are ignored.
func (c *Counters) Increment(kind Counter) {
	if !c.update(kind, func(n int) int { return n + 1 }) {
		return
	}
	c.attempt("sound", c.alert.PlaySound)
	c.attempt("haptic", c.alert.Vibrate)
}

func (c *Counters) Decrement(kind Counter) {
	c.update(kind, func(n int) int { return max(0, n-1) })
}

// Reset clears kind, typically when its screen is opened.
func (c *Counters) Reset(kind Counter) {
	c.update(kind, func(int) int { return 0 })
}

func (c *Counters) Set(kind Counter, n int) {
	c.update(kind, func(int) int { return max(0, n) })
}

// Initialize loads both counts from the backend. A count that cannot be
// fetched is set to zero; the first error is returned.
func (c *Counters) Initialize(ctx context.Context, userID string) error {
	var messages, bookings int

	var g errgroup.Group
	g.Go(func() error {
		n, err := c.api.UnreadCount(ctx)
		if err != nil {
			c.log.Warn("unread count unavailable", "user", userID, "error", err)
			return fmt.Errorf("unread count: %w", err)
		}
		messages = n
		return nil
	})
	g.Go(func() error {
		n, err := c.api.PendingBookingCount(ctx)
		if err != nil {
			c.log.Warn("pending booking count unavailable", "user", userID, "error", err)
			return fmt.Errorf("pending booking count: %w", err)
		}
		bookings = n
		return nil
	})
	err := g.Wait()

	c.Set(MessageCounter, messages)
	c.Set(BookingCounter, bookings)

	if err != nil {
		return failed("initialize counts", err, "Could not load notifications.")
	}
	return nil
}

func (c *Counters) update(kind Counter, fn func(int) int) bool {
	c.mu.Lock()
	p := c.fieldLocked(kind)
	if p == nil {
		c.mu.Unlock()
		c.log.Warn("unknown counter", "kind", kind)
		return false
	}
	*p = fn(*p)
	snap := Counts{Messages: c.messages, Bookings: c.bookings}
	c.mu.Unlock()

	c.subs.publish(snap)
	return true
}

func (c *Counters) fieldLocked(kind Counter) *int {
	switch kind {
	case MessageCounter:
		return &c.messages
	case BookingCounter:
		return &c.bookings
	default:
		return nil
	}
}

// attempt runs an alert and swallows both errors and panics.
func (c *Counters) attempt(what string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Debug("alert panicked", "alert", what, "panic", r)
		}
	}()
	if err := fn(); err != nil {
		c.log.Debug("alert failed", "alert", what, "error", err)
	}
}
