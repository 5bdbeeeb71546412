package inbox

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedran77/fixly/pkg/api"
)

const convJSON = `[
	{"user": {"_id": "65a1f0c2b3d4e5f6a7b8c902", "name": "Pete"}, "unreadCount": 2},
	{"lastMessage": {
		"text": "see you",
		"createdAt": "2026-03-01T10:00:00Z",
		"senderId": {"_id": "65a1f0c2b3d4e5f6a7b8c901", "name": "Me"},
		"receiverId": {"_id": "65a1f0c2b3d4e5f6a7b8c903", "name": "Ana"}
	}, "unreadCount": 0}
]`

func TestParseConversationsEnvelopes(t *testing.T) {
	want, err := ParseConversations([]byte(convJSON))
	require.NoError(t, err)
	require.Len(t, want, 2)

	for _, body := range []string{
		`{"success": true, "conversations": ` + convJSON + `}`,
		`{"success": true, "data": {"conversations": ` + convJSON + `}}`,
		`{"success": true, "data": ` + convJSON + `}`,
	} {
		got, err := ParseConversations([]byte(body))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseConversationsUnknownShape(t *testing.T) {
	got, err := ParseConversations([]byte(`{"success": true, "items": {}}`))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = ParseConversations([]byte(`not json`))
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func newConversations(b *fakeBackend, confirm Confirmer) (*Conversations, *Thread) {
	th := NewThread(b, confirm)
	return NewConversations(b, th, selfID, confirm, nil), th
}

func TestConversationsFetch(t *testing.T) {
	b := newFakeBackend()
	b.convBody = []byte(`{"success": true, "data": {"conversations": ` + convJSON + `}}`)
	c, _ := newConversations(b, approve())

	require.NoError(t, c.Fetch(context.Background()))
	list := c.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Pete", DisplayName(ResolveOtherParty(list[0], selfID)))
	assert.Equal(t, "Ana", DisplayName(ResolveOtherParty(list[1], selfID)))
}

func TestConversationsFetchFailureKeepsList(t *testing.T) {
	b := newFakeBackend()
	b.convBody = []byte(convJSON)
	c, _ := newConversations(b, approve())
	require.NoError(t, c.Fetch(context.Background()))

	b.convErr = errUnavailable
	require.Error(t, c.Fetch(context.Background()))
	assert.Len(t, c.List(), 2)
}

func TestConversationsDelete(t *testing.T) {
	b := newFakeBackend()
	b.convBody = []byte(convJSON)
	c, _ := newConversations(b, approve())
	require.NoError(t, c.Fetch(context.Background()))

	require.NoError(t, c.Delete(context.Background(), peerB))
	list := c.List()
	require.Len(t, list, 1)
	assert.Equal(t, api.ID(peerA), list[0].User.ID)
}

func TestConversationsDeleteMatchesIDCaseInsensitively(t *testing.T) {
	b := newFakeBackend()
	b.convBody = []byte(convJSON)
	c, _ := newConversations(b, approve())
	require.NoError(t, c.Fetch(context.Background()))

	require.NoError(t, c.Delete(context.Background(), strings.ToUpper(peerB)))
	assert.Equal(t, 1, b.count("deleteConversation"))
	list := c.List()
	require.Len(t, list, 1)
	assert.Equal(t, api.ID(peerA), list[0].User.ID)
}

func TestConversationsDeleteFailureSurfacesServerMessage(t *testing.T) {
	b := newFakeBackend()
	b.convBody = []byte(convJSON)
	c, _ := newConversations(b, approve())
	require.NoError(t, c.Fetch(context.Background()))

	b.delConvErr = statusErr(http.StatusForbidden, "Conversation is locked by an open booking")
	err := c.Delete(context.Background(), peerA)
	assert.Equal(t, "Conversation is locked by an open booking", UserMessage(err))
	assert.Len(t, c.List(), 2)

	b.delConvErr = statusErr(http.StatusInternalServerError, "")
	err = c.Delete(context.Background(), peerA)
	assert.Equal(t, "Could not delete the conversation.", UserMessage(err))
}

func TestConversationsDeleteNeedsConfirmation(t *testing.T) {
	b := newFakeBackend()
	b.convBody = []byte(convJSON)
	c, _ := newConversations(b, decline())
	require.NoError(t, c.Fetch(context.Background()))

	require.NoError(t, c.Delete(context.Background(), peerA))
	assert.Zero(t, b.count("deleteConversation"))
	assert.Len(t, c.List(), 2)
}

func TestConversationsSelectOpensThread(t *testing.T) {
	b := newFakeBackend()
	b.convBody = []byte(convJSON)
	b.threads[peerB] = []api.Message{message(msgID1, "see you", selfID, peerB, t0)}
	c, th := newConversations(b, approve())
	require.NoError(t, c.Fetch(context.Background()))

	require.NoError(t, c.Select(context.Background(), c.List()[1]))
	assert.Equal(t, api.ID(peerB), c.Active().ID)
	assert.Equal(t, peerB, th.PeerID())
	assert.Len(t, th.Messages(), 1)
}

func TestConversationsSelectUnresolvable(t *testing.T) {
	b := newFakeBackend()
	c, _ := newConversations(b, approve())

	err := c.Select(context.Background(), api.Conversation{})
	assert.ErrorIs(t, err, ErrNoPeer)
	assert.Zero(t, b.count("thread"))
}
