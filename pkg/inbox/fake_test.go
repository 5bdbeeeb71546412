package inbox

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/vedran77/fixly/pkg/api"
)

const (
	selfID = "65a1f0c2b3d4e5f6a7b8c901"
	peerA  = "65a1f0c2b3d4e5f6a7b8c902"
	peerB  = "65a1f0c2b3d4e5f6a7b8c903"
	msgID1 = "65a1f0c2b3d4e5f6a7b8c9a1"
	msgID2 = "65a1f0c2b3d4e5f6a7b8c9a2"
	msgID3 = "65a1f0c2b3d4e5f6a7b8c9a3"
)

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

// fakeBackend records calls and returns canned responses.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int

	threads     map[string][]api.Message
	threadErr   error
	threadGate  map[string]chan struct{}
	sent        *api.Message
	sendErr     error
	edited      *api.EditedMessage
	editErr     error
	deleteErr   error
	convBody    []byte
	convErr     error
	delConvErr  error
	unread      int
	unreadErr   error
	pending     int
	pendingErr  error
	featured    []api.Provider
	featuredErr []error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:      map[string]int{},
		threads:    map[string][]api.Message{},
		threadGate: map[string]chan struct{}{},
	}
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
}

func (f *fakeBackend) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeBackend) Thread(ctx context.Context, peerID string) ([]api.Message, error) {
	f.record("thread")
	f.mu.Lock()
	gate := f.threadGate[peerID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.threadErr != nil {
		return nil, f.threadErr
	}
	return f.threads[peerID], nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, receiverID, text string) (*api.Message, error) {
	f.record("send")
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.sent, nil
}

func (f *fakeBackend) EditMessage(ctx context.Context, id, text string) (*api.EditedMessage, error) {
	f.record("edit")
	if f.editErr != nil {
		return nil, f.editErr
	}
	if f.edited == nil {
		return &api.EditedMessage{}, nil
	}
	return f.edited, nil
}

func (f *fakeBackend) DeleteMessage(ctx context.Context, id string) error {
	f.record("delete")
	return f.deleteErr
}

func (f *fakeBackend) Conversations(ctx context.Context) ([]byte, error) {
	f.record("conversations")
	return f.convBody, f.convErr
}

func (f *fakeBackend) DeleteConversation(ctx context.Context, peerID string) error {
	f.record("deleteConversation")
	return f.delConvErr
}

func (f *fakeBackend) UnreadCount(ctx context.Context) (int, error) {
	f.record("unread")
	return f.unread, f.unreadErr
}

func (f *fakeBackend) PendingBookingCount(ctx context.Context) (int, error) {
	f.record("pending")
	return f.pending, f.pendingErr
}

func (f *fakeBackend) FeaturedProviders(ctx context.Context) ([]api.Provider, error) {
	f.record("featured")
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.featuredErr) > 0 {
		err := f.featuredErr[0]
		f.featuredErr = f.featuredErr[1:]
		return nil, err
	}
	return f.featured, nil
}

func approve() Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return true })
}

func decline() Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return false })
}

func statusErr(status int, message string) error {
	return &api.Error{Status: status, Message: message}
}

var errUnavailable = statusErr(http.StatusServiceUnavailable, "")

func message(id, text, from, to string, at time.Time) api.Message {
	return api.Message{
		ID:         api.ID(id),
		SenderID:   api.RefID(from),
		ReceiverID: api.RefID(to),
		Text:       text,
		CreatedAt:  at,
	}
}
