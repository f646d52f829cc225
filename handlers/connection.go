package handlers

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// sendQueueSize bounds the per-connection outbound buffer. A recipient
	// that falls this far behind is torn down instead of stalling senders.
	sendQueueSize = 256

	writeWait = 10 * time.Second
)

var errConnClosed = errors.New("connection closed")

// Connection wraps one websocket and owns its outbound side. All writes go
// through the send queue and a single writePump goroutine; Enqueue never
// blocks, so a slow reader can only hurt itself.
type Connection struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		id:   uuid.NewString(),
		ws:   ws,
		send: make(chan []byte, sendQueueSize),
	}
}

// ID is a per-connection correlation id for logs, assigned before the
// client has identified itself.
func (c *Connection) ID() string {
	return c.id
}

// Enqueue queues one outbound frame. It fails when the connection is
// closed or the queue is full; the caller decides whether that means
// tearing this connection down.
func (c *Connection) Enqueue(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return errors.New("send queue full")
	}
}

// Close marks the connection closed and closes the send queue, exactly
// once no matter how many of the read side, write side and router observe
// the failure first. The socket itself stays open until writePump has
// drained the queue, so frames enqueued before Close still reach the peer.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

// ForceClose tears the transport down without waiting for the queue to
// drain. For peers that stopped reading; their blocked writes would
// otherwise hold the queue open until the write deadline.
func (c *Connection) ForceClose() {
	c.Close()
	c.ws.Close()
}

// writePump drains the send queue onto the socket. It exits when Close
// closes the queue or a write fails, closing the socket either way so the
// read side unblocks.
func (c *Connection) writePump() {
	defer c.ws.Close()

	for message := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}
