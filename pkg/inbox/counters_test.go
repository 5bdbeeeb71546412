package inbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/fixly/pkg/api"
)

type recordingAlerter struct {
	mu      sync.Mutex
	sounds  int
	haptics int
	fail    bool
	panics  bool
}

func (a *recordingAlerter) PlaySound() error {
	a.mu.Lock()
	a.sounds++
	a.mu.Unlock()
	if a.panics {
		panic("audio device gone")
	}
	if a.fail {
		return errors.New("muted")
	}
	return nil
}

func (a *recordingAlerter) Vibrate() error {
	a.mu.Lock()
	a.haptics++
	a.mu.Unlock()
	if a.fail {
		return errors.New("no motor")
	}
	return nil
}

func TestCountersResetThenIncrement(t *testing.T) {
	alert := &recordingAlerter{}
	c := NewCounters(newFakeBackend(), alert, nil)
	c.Set(MessageCounter, 7)
	c.Set(BookingCounter, 3)

	c.Reset(MessageCounter)
	c.Increment(MessageCounter)
	assert.Equal(t, 1, c.Count(MessageCounter))
	assert.Equal(t, 3, c.Count(BookingCounter))

	c.Reset(BookingCounter)
	c.Increment(BookingCounter)
	assert.Equal(t, Counts{Messages: 1, Bookings: 1}, c.Counts())

	assert.Equal(t, 2, alert.sounds)
	assert.Equal(t, 2, alert.haptics)
}

func TestCountersDecrementFloorsAtZero(t *testing.T) {
	c := NewCounters(newFakeBackend(), nil, nil)
	c.Decrement(MessageCounter)
	c.Decrement(BookingCounter)
	assert.Equal(t, Counts{}, c.Counts())

	c.Set(BookingCounter, -4)
	assert.Zero(t, c.Count(BookingCounter))
}

func TestCountersAlertFailuresAreIgnored(t *testing.T) {
	for _, alert := range []*recordingAlerter{{fail: true}, {panics: true}} {
		c := NewCounters(newFakeBackend(), alert, nil)
		assert.NotPanics(t, func() { c.Increment(MessageCounter) })
		assert.Equal(t, 1, c.Count(MessageCounter))
		assert.Equal(t, 1, alert.sounds)
		assert.Equal(t, 1, alert.haptics)
	}
}

func TestCountersUnknownKind(t *testing.T) {
	alert := &recordingAlerter{}
	c := NewCounters(newFakeBackend(), alert, nil)
	c.Increment(Counter("review"))
	assert.Equal(t, Counts{}, c.Counts())
	assert.Zero(t, alert.sounds)
}

func TestCountersInitialize(t *testing.T) {
	b := newFakeBackend()
	b.unread, b.pending = 4, 2
	c := NewCounters(b, nil, nil)

	require.NoError(t, c.Initialize(context.Background(), selfID))
	assert.Equal(t, Counts{Messages: 4, Bookings: 2}, c.Counts())
}

func TestCountersInitializeFailureFallsBackToZero(t *testing.T) {
	b := newFakeBackend()
	b.unreadErr = errUnavailable
	b.pending = 5
	c := NewCounters(b, nil, nil)
	c.Set(MessageCounter, 9)

	err := c.Initialize(context.Background(), selfID)
	require.Error(t, err)
	assert.Equal(t, Counts{Messages: 0, Bookings: 5}, c.Counts())
}

func TestCountersSubscribe(t *testing.T) {
	c := NewCounters(newFakeBackend(), nil, nil)
	var got []Counts
	unsubscribe := c.Subscribe(func(n Counts) { got = append(got, n) })

	c.Increment(BookingCounter)
	unsubscribe()
	c.Increment(BookingCounter)

	assert.Equal(t, []Counts{{Bookings: 1}}, got)
}

func TestListenerDispatch(t *testing.T) {
	c := NewCounters(newFakeBackend(), nil, nil)
	var hooked []string
	l := NewListener("ws://unused", c, WithEventHook(func(e Event) { hooked = append(hooked, e.Type) }))

	l.Dispatch(Event{Type: EventNewMessage})
	l.Dispatch(Event{Type: EventNewMessage})
	l.Dispatch(Event{Type: EventNewBooking})
	l.Dispatch(Event{Type: "presence"})

	assert.Equal(t, Counts{Messages: 2, Bookings: 1}, c.Counts())
	assert.Equal(t, []string{EventNewMessage, EventNewMessage, EventNewBooking}, hooked)
}

func TestFeaturedLoaderRetries(t *testing.T) {
	b := newFakeBackend()
	b.featuredErr = []error{errUnavailable, errUnavailable}
	b.featured = []api.Provider{{ID: peerA, Name: "Pete"}}
	f := NewFeaturedLoader(b, nil)
	f.backOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	got, err := f.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, b.featured, got)
	assert.Equal(t, 3, b.count("featured"))
}

func TestFeaturedLoaderGivesUp(t *testing.T) {
	b := newFakeBackend()
	b.featuredErr = []error{errUnavailable, errUnavailable, errUnavailable, errUnavailable, errUnavailable}
	f := NewFeaturedLoader(b, nil)
	f.backOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }

	_, err := f.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, 4, b.count("featured"))
}

func TestFeaturedBackOffSchedule(t *testing.T) {
	b := featuredBackOff()
	b.Reset()
	var waits []time.Duration
	for range featuredRetries {
		waits = append(waits, b.NextBackOff())
	}
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, waits)
}
