package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithToken("tok"))
}

func TestDoRequestRequiresSuccessTrue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"count": 3}`))
	})

	_, err := c.UnreadCount(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusOK, StatusOf(err))
	assert.False(t, IsTransport(err))
}

func TestDoRequestCarriesServerReason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success": false, "message": "text too long"}`))
	})

	_, err := c.EditMessage(context.Background(), "65a1f0c2b3d4e5f6a7b8c9d0", "x")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "text too long", apiErr.Message)
}

func TestTransportError(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: time.Second}))
	_, err := c.PendingBookingCount(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestSendMessageDecodesRefs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/messages", r.URL.Path)

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "hello", in["text"])

		w.Write([]byte(`{"success": true, "message": {
			"_id": {"$oid": "65a1f0c2b3d4e5f6a7b8c9d0"},
			"senderId": {"_id": "65a1f0c2b3d4e5f6a7b8c9d1", "name": "Ana"},
			"receiverId": "65a1f0c2b3d4e5f6a7b8c9d2",
			"text": "hello",
			"createdAt": "2026-01-02T15:04:05Z"
		}}`))
	})

	msg, err := c.SendMessage(context.Background(), "65a1f0c2b3d4e5f6a7b8c9d2", "hello")
	require.NoError(t, err)
	assert.Equal(t, ID("65a1f0c2b3d4e5f6a7b8c9d0"), msg.ID)
	assert.True(t, msg.SenderID.IsPopulated())
	assert.Equal(t, "Ana", msg.SenderID.Identity().Name)
	assert.Equal(t, "65a1f0c2b3d4e5f6a7b8c9d1", msg.SenderID.ID())
	assert.False(t, msg.ReceiverID.IsPopulated())
	assert.Equal(t, "65a1f0c2b3d4e5f6a7b8c9d2", msg.ReceiverID.ID())
}

func TestEditMessageWithoutMessageBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		w.Write([]byte(`{"success": true}`))
	})

	edited, err := c.EditMessage(context.Background(), "65a1f0c2b3d4e5f6a7b8c9d0", "x")
	require.NoError(t, err)
	assert.Nil(t, edited.UpdatedAt)
}

func TestRefRoundTrip(t *testing.T) {
	var r Ref
	require.NoError(t, json.Unmarshal([]byte(`{"$oid":"abc"}`), &r))
	assert.Equal(t, "abc", r.ID())
	assert.False(t, r.IsPopulated())

	require.NoError(t, json.Unmarshal([]byte(`null`), &r))
	assert.True(t, r.IsZero())

	out, err := json.Marshal(RefTo(Identity{ID: "u1", Name: "Ana"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"u1","name":"Ana"}`, string(out))
}

func TestPushURL(t *testing.T) {
	c := NewClient("https://fixly.example/api/", WithToken("a b"))
	u, err := c.PushURL()
	require.NoError(t, err)
	assert.Equal(t, "wss://fixly.example/api/ws?token=a+b", u)
}

func TestSubjectFromToken(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "65a1f0c2b3d4e5f6a7b8c9d1"})
	signed, err := token.SignedString([]byte("whatever"))
	require.NoError(t, err)

	sub, err := SubjectFromToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "65a1f0c2b3d4e5f6a7b8c9d1", sub)

	_, err = SubjectFromToken("garbage")
	assert.Error(t, err)
}
