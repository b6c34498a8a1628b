package hub

import (
	"sync/atomic"

	"shopflow/internal/util"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Frame is the socket protocol envelope. The server emits "notifications"
// once with the history replay and "notification" for each live push;
// clients send "subscribe".
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const (
	frameSubscribe     = "subscribe"
	frameNotification  = "notification"
	frameNotifications = "notifications"
)

// Conn wraps one live socket. Outgoing frames are queued on a buffered
// channel and drained by a single writer goroutine; a full buffer drops the
// frame so a slow client never blocks a broadcast.
type Conn struct {
	ws     *websocket.Conn
	send   chan Frame
	closed atomic.Bool
	logger *zap.Logger
}

func newConn(ws *websocket.Conn, sendBuffer int) *Conn {
	return &Conn{
		ws:     ws,
		send:   make(chan Frame, sendBuffer),
		logger: util.GetLogger(),
	}
}

// writeLoop drains the send queue onto the socket. It owns the write side and
// closes the socket once the queue is closed.
func (c *Conn) writeLoop() {
	for frame := range c.send {
		if err := c.ws.WriteJSON(frame); err != nil {
			c.logger.Warn("Socket write failed", zap.Error(err))
			break
		}
	}
	c.ws.Close()
}

// push queues a frame without blocking. It reports false if the socket is
// closed or its buffer is full.
func (c *Conn) push(frame Frame) bool {
	if c.closed.Load() {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		util.WSFramesDroppedTotal.Inc()
		return false
	}
}

// shutdown marks the connection closed and releases the writer. Called once,
// from the read loop, after the connection has left the registry.
func (c *Conn) shutdown() {
	c.closed.Store(true)
	close(c.send)
}
