package server

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jpalmerr/pingboard/internal/query"
)

const wsWriteTimeout = 5 * time.Second

const (
	wsTypeSnapshot = "snapshot"
	wsTypeUpdate   = "update"
)

// wsUpgrader accepts same-origin browsers and non-browser clients.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		originHost := strings.ToLower(strings.TrimSpace(u.Host))
		return host == originHost
	},
}

// wsMessage is a frame pushed to WebSocket clients. A snapshot frame carries
// every stored verdict; an update frame carries one.
type wsMessage struct {
	Type     string                      `json:"type"`
	Statuses map[string]query.StatusView `json:"statuses,omitempty"`
	Address  string                      `json:"address,omitempty"`
	Status   *query.StatusView           `json:"status,omitempty"`
}

// handleWS pushes the full snapshot on connect, then one frame per store
// write until the client goes away or the server shuts down.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	if err := writeWS(conn, wsMessage{Type: wsTypeSnapshot, Statuses: s.surface.Snapshot()}); err != nil {
		return
	}

	// reads only detect the close; clients are not expected to send
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			view := query.Render(e)
			if err := writeWS(conn, wsMessage{Type: wsTypeUpdate, Address: e.Address, Status: &view}); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		}
	}
}

func writeWS(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
