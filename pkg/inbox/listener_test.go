package inbox

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
)

func TestListenerRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		conn, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		ctx := r.Context()
		for _, frame := range []string{
			`{"type":"new-message","payload":{"senderId":"x"}}`,
			`{"type":"new-message"}`,
			`not json`,
			`{"type":"new-booking"}`,
			`{"type":"typing"}`,
		} {
			if err := conn.Write(ctx, websocket.MessageText, []byte(frame)); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	c := NewCounters(newFakeBackend(), nil, nil)
	l := NewListener("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?token=tok", c)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.Equal(t, Counts{Messages: 2, Bookings: 1}, c.Counts())
}

func TestListenerDialOptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		conn.Write(r.Context(), websocket.MessageText, []byte(`{"type":"new-booking"}`))
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c := NewCounters(newFakeBackend(), nil, nil)
	assert.Error(t, NewListener(url, c).Run(ctx))

	l := NewListener(url, c, WithDialOptions(&websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer tok"}},
	}))
	require.NoError(t, l.Run(ctx))
	assert.Equal(t, 1, c.Count(BookingCounter))
}

func TestListenerDialFailure(t *testing.T) {
	c := NewCounters(newFakeBackend(), nil, nil)
	l := NewListener("ws://127.0.0.1:1/ws", c)
	assert.Error(t, l.Run(context.Background()))
}
