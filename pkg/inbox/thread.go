package inbox

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vedran77/fixly/pkg/api"
	"github.com/vedran77/fixly/pkg/validator"
)

// ThreadAPI is the part of the backend a Thread talks to.
type ThreadAPI interface {
	Thread(ctx context.Context, peerID string) ([]api.Message, error)
	SendMessage(ctx context.Context, receiverID, text string) (*api.Message, error)
	EditMessage(ctx context.Context, id, text string) (*api.EditedMessage, error)
	DeleteMessage(ctx context.Context, id string) error
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// declineAll stands in for a missing Confirmer.
var declineAll = ConfirmFunc(func(context.Context, string) bool { return false })

type ThreadState int

const (
	ThreadEmpty ThreadState = iota
	ThreadLoading
	ThreadLoaded
)

func (s ThreadState) String() string {
	switch s {
	case ThreadEmpty:
		return "empty"
	case ThreadLoading:
		return "loading"
	case ThreadLoaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// ThreadSnapshot is an immutable view of a thread. Version grows with
// every change so late deliveries can be recognised.
type ThreadSnapshot struct {
	Version  uint64
	PeerID   string
	State    ThreadState
	Messages []api.Message
}

// Thread holds the ordered messages of the open conversation.
//
// Messages only change in four ways: the whole sequence is replaced by a
// fetch, one message is appended after a confirmed send, one message is
// replaced in place after an edit, or one message is filtered out after a
// delete. The backing slice is never written after it has been published,
// so snapshots stay valid forever.
type Thread struct {
	api     ThreadAPI
	confirm Confirmer
	validID func(string) bool
	now     func() time.Time
	log     *slog.Logger

	mu       sync.Mutex
	gen      uint64
	version  uint64
	peerID   string
	state    ThreadState
	messages []api.Message

	subs subscribers[ThreadSnapshot]
}

type ThreadOption func(*Thread)

// WithIDValidator replaces the identifier shape check run before edits.
// The default accepts 24 character hexadecimal object ids.
func WithIDValidator(fn func(string) bool) ThreadOption {
	return func(t *Thread) {
		t.validID = fn
	}
}

func WithThreadLogger(l *slog.Logger) ThreadOption {
	return func(t *Thread) {
		t.log = l
	}
}

func NewThread(a ThreadAPI, confirm Confirmer, opts ...ThreadOption) *Thread {
	if confirm == nil {
		confirm = declineAll
	}
	t := &Thread{
		api:     a,
		confirm: confirm,
		validID: validator.IsObjectID,
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers fn for every change of the thread.
func (t *Thread) Subscribe(fn func(ThreadSnapshot)) (unsubscribe func()) {
	return t.subs.add(fn)
}

func (t *Thread) Snapshot() ThreadSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Messages returns a copy of the current sequence.
func (t *Thread) Messages() []api.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.messages)
}

func (t *Thread) PeerID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peerID
}

func (t *Thread) snapshotLocked() ThreadSnapshot {
	return ThreadSnapshot{
		Version:  t.version,
		PeerID:   t.peerID,
		State:    t.state,
		Messages: t.messages,
	}
}

// commitLocked records a change and returns the snapshot to publish once
// the lock is released.
func (t *Thread) commitLocked() ThreadSnapshot {
	t.version++
	return t.snapshotLocked()
}

// Fetch opens the thread with peerID and loads it. A failed load leaves
// the thread empty. When another Fetch starts before this one returns,
// its result is dropped and ErrSuperseded is returned.
func (t *Thread) Fetch(ctx context.Context, peerID string) error {
	if peerID == "" {
		return invalid("fetch", ErrNoPeer, "No conversation selected.")
	}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.peerID = peerID
	t.state = ThreadLoading
	if len(t.messages) > 0 {
		t.messages = nil
	}
	snap := t.commitLocked()
	t.mu.Unlock()
	t.subs.publish(snap)

	messages, err := t.api.Thread(ctx, peerID)

	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		t.log.Debug("dropping stale thread response", "peer", peerID)
		return ErrSuperseded
	}
	t.state = ThreadLoaded
	if err != nil {
		t.messages = nil
	} else {
		t.messages = slices.Clip(messages)
	}
	snap = t.commitLocked()
	t.mu.Unlock()
	t.subs.publish(snap)

	if err != nil {
		return failed("fetch", err, "Could not load messages.")
	}
	return nil
}

// Send posts text to peerID and appends the confirmed message. Nothing is
// shown before the backend confirms. A confirmation without a message id
// is still appended and returned, together with a Contract error.
func (t *Thread) Send(ctx context.Context, peerID, text string) (*api.Message, error) {
	if validator.IsBlank(text) {
		return nil, invalid("send", ErrEmptyText, "Message cannot be empty.")
	}
	if peerID == "" {
		return nil, invalid("send", ErrNoPeer, "No conversation selected.")
	}

	msg, err := t.api.SendMessage(ctx, peerID, text)
	if err != nil {
		return nil, failed("send", err, "Could not send the message.")
	}
	var degraded error
	if msg.ID == "" {
		// Kept on screen anyway; dropping it would hide the user's message.
		t.log.Warn("send confirmed without message id", "peer", peerID)
		degraded = &Error{Kind: Contract, Op: "send", Message: "Message sent, but it cannot be edited or deleted until the conversation is reloaded.", Err: ErrMissingID}
	}

	t.mu.Lock()
	if t.peerID != peerID {
		t.mu.Unlock()
		return msg, degraded
	}
	t.messages = append(slices.Clip(t.messages), *msg)
	snap := t.commitLocked()
	t.mu.Unlock()
	t.subs.publish(snap)

	return msg, degraded
}

// Edit replaces the text of message id once the backend accepts it.
// Identifiers that cannot belong to the backend are refused locally.
func (t *Thread) Edit(ctx context.Context, id, text string) error {
	if validator.IsBlank(text) {
		return invalid("edit", ErrEmptyText, "Message cannot be empty.")
	}
	if id == "" {
		return invalid("edit", ErrMissingID, "This message cannot be edited.")
	}
	if !t.validID(id) {
		return invalid("edit", ErrInvalidID, "This message cannot be edited.")
	}

	edited, err := t.api.EditMessage(ctx, id, text)
	if err != nil {
		return editFailed(err)
	}

	updatedAt := t.now()
	if edited != nil && edited.UpdatedAt != nil {
		updatedAt = *edited.UpdatedAt
	}

	t.mu.Lock()
	i := t.indexLocked(id)
	if i < 0 {
		// Deleted or refetched away while the edit was in flight.
		t.mu.Unlock()
		t.log.Debug("edited message no longer in thread", "id", id)
		return nil
	}
	messages := slices.Clone(t.messages)
	m := messages[i]
	m.Text = text
	m.IsEdited = true
	m.UpdatedAt = &updatedAt
	messages[i] = m
	t.messages = messages
	snap := t.commitLocked()
	t.mu.Unlock()
	t.subs.publish(snap)

	return nil
}

// Delete removes message id after the user confirms. An empty id or a
// declined confirmation does nothing.
func (t *Thread) Delete(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if !t.confirm.Confirm(ctx, "Delete this message? This cannot be undone.") {
		return nil
	}

	if err := t.api.DeleteMessage(ctx, id); err != nil {
		return failed("delete", err, "Could not delete the message.")
	}

	t.mu.Lock()
	if t.indexLocked(id) < 0 {
		t.mu.Unlock()
		return nil
	}
	t.messages = slices.DeleteFunc(slices.Clone(t.messages), func(m api.Message) bool {
		return sameID(m.ID.String(), id)
	})
	snap := t.commitLocked()
	t.mu.Unlock()
	t.subs.publish(snap)

	return nil
}

func (t *Thread) indexLocked(id string) int {
	return slices.IndexFunc(t.messages, func(m api.Message) bool {
		return sameID(m.ID.String(), id)
	})
}

// sameID compares identifiers after string normalisation. Hex ids are
// case-insensitive.
func sameID(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
