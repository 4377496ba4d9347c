package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/prepview/interview-engine/internal/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleLiveWS upgrades the connection and hands it to the live protocol
// handler, which owns the socket until it closes.
func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	userID := UserIDFromContext(r.Context())
	client := live.NewClient(uuid.New().String(), conn)

	slog.Info("live websocket connected", "client", client.ID(), "user", userID)

	// Serve blocks until the connection drops. The request context carries
	// the router's 60s timeout, which must not apply to a long-lived socket.
	s.liveHandler.Serve(context.Background(), client)

	slog.Info("live websocket disconnected", "client", client.ID(), "user", userID)
}
