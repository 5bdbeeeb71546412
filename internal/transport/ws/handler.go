package ws

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/vedran77/fixly/internal/transport/http/middleware"
	"nhooyr.io/websocket"
)

// ServeWS returns an HTTP handler that upgrades to WebSocket.
// Browsers cannot set headers on the handshake, so the token comes from
// ?token=xxx. Other clients may send a bearer Authorization header instead.
func ServeWS(hub *Hub, jwtSecret string, origins []string) http.HandlerFunc {
	opts := &websocket.AcceptOptions{OriginPatterns: origins}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts = &websocket.AcceptOptions{InsecureSkipVerify: true}
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			tokenStr, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if tokenStr == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := middleware.ParseToken(tokenStr, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, opts)
		if err != nil {
			slog.Warn("ws: accept error", "error", err)
			return
		}

		client := NewClient(hub, conn, userID)
		if !hub.Register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		}

		go client.WritePump()
		client.ReadPump(r.Context())
	}
}
