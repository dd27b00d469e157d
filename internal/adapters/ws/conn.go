package ws

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/yellcord/realtime/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// wsConn wraps a websocket connection with a bounded outbound queue.
// TrySend never blocks: a full queue is the caller's signal to apply
// its backpressure policy.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(conn *websocket.Conn, sendBuffer int) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan core.Frame, sendBuffer),
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}
