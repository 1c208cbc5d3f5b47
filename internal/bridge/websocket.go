package bridge

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/castctl/internal/logging"
	"github.com/muurk/castctl/internal/metrics"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames; anything larger is a protocol error
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The bridge is meant for a trusted LAN; browsers on any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream upgrades to a WebSocket and writes one JSON text message per
// snapshot until the client goes away or the runner stops.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	id, updates, cancel := s.backend.Subscribe()
	defer cancel()

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		_ = closeStream(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	s.wg.Add(1)
	s.streams[id] = conn
	s.mu.Unlock()
	defer s.wg.Done()
	metrics.AddWebSocketClients(1)
	logging.LogConnection(r.RemoteAddr, "stream_opened")

	defer func() {
		s.mu.Lock()
		delete(s.streams, id)
		s.mu.Unlock()
		metrics.AddWebSocketClients(-1)
		_ = conn.Close()
		logging.LogConnection(r.RemoteAddr, "stream_closed")
	}()

	// The read side only exists to process pongs and notice the close.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logging.Debug("WebSocket read error",
						zap.String("remote_addr", r.RemoteAddr),
						zap.Error(err),
					)
				}
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = closeStream(conn, websocket.CloseGoingAway, "runner stopped")
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				logging.Debug("WebSocket write failed",
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				return
			}

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}

		case <-gone:
			return
		}
	}
}

// closeStream sends a close frame and closes conn. A connection that is
// already gone is not an error.
func closeStream(conn *websocket.Conn, code int, reason string) error {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeWait))
	if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
