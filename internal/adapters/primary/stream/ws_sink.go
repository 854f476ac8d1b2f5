package stream

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lorrc/queueing-backend/internal/core/domain"
	"github.com/lorrc/queueing-backend/internal/core/ports"
)

const wsWriteWait = 10 * time.Second

// WSSink pushes the same stream envelopes over a WebSocket connection, as
// text frames. Keep-alive uses ping control frames instead of SSE comments.
type WSSink struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	closeOnce sync.Once
}

var _ ports.Sink = (*WSSink)(nil)

// NewWSSink wraps an upgraded connection.
func NewWSSink(conn *websocket.Conn) *WSSink {
	return &WSSink{conn: conn}
}

// Send writes one event as a JSON text frame.
func (s *WSSink) Send(event domain.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(event)
}

// KeepAlive sends a ping control frame.
func (s *WSSink) KeepAlive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// Close sends a close frame and tears the connection down.
func (s *WSSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		deadline := time.Now().Add(wsWriteWait)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.mu.Unlock()
		err = s.conn.Close()
	})
	return err
}
