package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/vedran77/fixly/pkg/api"
)

// ConversationAPI is the part of the backend the conversation list uses.
type ConversationAPI interface {
	Conversations(ctx context.Context) ([]byte, error)
	DeleteConversation(ctx context.Context, peerID string) error
}

// conversationPaths lists where the conversation array has been found in
// list responses, in the order they are tried. "" is the document itself.
var conversationPaths = []string{"", "conversations", "data.conversations", "data"}

// ParseConversations extracts the conversation list from a list response.
// A body with no array at any known location yields an empty list.
func ParseConversations(body []byte) ([]api.Conversation, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid json", ErrBadEnvelope)
	}

	doc := gjson.ParseBytes(body)
	for _, path := range conversationPaths {
		v := doc
		if path != "" {
			v = doc.Get(path)
		}
		if !v.IsArray() {
			continue
		}

		var convs []api.Conversation
		if err := json.Unmarshal([]byte(v.Raw), &convs); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadEnvelope, path, err)
		}
		if convs == nil {
			convs = []api.Conversation{}
		}
		return convs, nil
	}
	return []api.Conversation{}, nil
}

type ConversationsSnapshot struct {
	Version       uint64
	Conversations []api.Conversation
	Active        *api.Identity
}

// Conversations is the inbox list. Selecting an entry opens its thread.
type Conversations struct {
	api     ConversationAPI
	thread  *Thread
	confirm Confirmer
	selfID  string
	log     *slog.Logger

	mu      sync.Mutex
	version uint64
	items   []api.Conversation
	active  *api.Identity

	subs subscribers[ConversationsSnapshot]
}

func NewConversations(a ConversationAPI, thread *Thread, selfID string, confirm Confirmer, log *slog.Logger) *Conversations {
	if log == nil {
		log = slog.Default()
	}
	if confirm == nil {
		confirm = declineAll
	}
	return &Conversations{
		api:     a,
		thread:  thread,
		confirm: confirm,
		selfID:  selfID,
		log:     log,
	}
}

func (c *Conversations) Subscribe(fn func(ConversationsSnapshot)) (unsubscribe func()) {
	return c.subs.add(fn)
}

func (c *Conversations) Snapshot() ConversationsSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Conversations) List() []api.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.items)
}

// Active is the partner of the open thread, or nil.
func (c *Conversations) Active() *api.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Conversations) snapshotLocked() ConversationsSnapshot {
	return ConversationsSnapshot{
		Version:       c.version,
		Conversations: c.items,
		Active:        c.active,
	}
}

// Fetch replaces the list with the backend's. On failure the current list
// is kept.
func (c *Conversations) Fetch(ctx context.Context) error {
	body, err := c.api.Conversations(ctx)
	if err != nil {
		return failed("conversations", err, "Could not load conversations.")
	}

	convs, err := ParseConversations(body)
	if err != nil {
		c.log.Warn("unusable conversation list", "error", err)
		return &Error{Kind: Contract, Op: "conversations", Message: "Could not load conversations.", Err: err}
	}

	c.mu.Lock()
	c.items = slices.Clip(convs)
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.subs.publish(snap)

	return nil
}

// Delete removes the whole conversation with peerID after the user
// confirms.
func (c *Conversations) Delete(ctx context.Context, peerID string) error {
	if peerID == "" {
		return nil
	}
	if !c.confirm.Confirm(ctx, "Delete this conversation? All messages will be removed.") {
		return nil
	}

	if err := c.api.DeleteConversation(ctx, peerID); err != nil {
		return failedWithReason("delete conversation", err, "Could not delete the conversation.")
	}

	c.mu.Lock()
	c.items = slices.DeleteFunc(slices.Clone(c.items), func(conv api.Conversation) bool {
		return sameID(otherPartyID(conv, c.selfID), peerID)
	})
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.subs.publish(snap)

	return nil
}

// Select makes conv the open thread and loads it.
func (c *Conversations) Select(ctx context.Context, conv api.Conversation) error {
	peer := ResolveOtherParty(conv, c.selfID)
	if peer == nil || peer.ID == "" {
		return invalid("select", ErrNoPeer, "This conversation cannot be opened.")
	}

	c.mu.Lock()
	c.active = peer
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.subs.publish(snap)

	return c.thread.Fetch(ctx, string(peer.ID))
}
