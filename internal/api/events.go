package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// API-key auth has already run; origin checks add nothing for a
	// token-authenticated endpoint
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleEventsWS streams the user's events over a websocket. Each
// frame is one JSON-encoded event; the connection closes when the
// client goes away or the server shuts down.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err, "user", user.ID)
		return
	}
	defer conn.Close()

	slog.Info("event stream opened", "user", user.ID, "remote_addr", r.RemoteAddr)

	eventCh, unsubscribe := s.broker.Subscribe(r.Context(), user.ID)
	defer unsubscribe()

	// Drain client frames so pong/close handling works; we never expect
	// meaningful input on this socket
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pinger := time.NewTicker(wsPingInterval)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			slog.Debug("event stream client disconnected", "user", user.ID)
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-eventCh:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("event stream write failed", "error", err, "user", user.ID)
				return
			}
		case <-pinger.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
