package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// WriteWait bounds a single frame write.
	WriteWait = 10 * time.Second
	// PongWait is how long the read side waits for a pong before giving up.
	PongWait = 60 * time.Second
	// PingPeriod must stay below PongWait.
	PingPeriod = (PongWait * 9) / 10

	DefaultSendBuffer = 128
)

var (
	ErrConnectionClosed = errors.New("realtime: connection closed")
	ErrBufferExceeded   = errors.New("realtime: connection buffer exceeded")
)

// Socket is the write side of a websocket. *websocket.Conn satisfies it.
type Socket interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// A connection is uniquely identified per device session and is safe for concurrent use.
type Connection struct {
	ID     string
	UserID int64

	ws     Socket
	send   chan []byte
	once   sync.Once
	start  sync.Once
	closed chan struct{}
}

// NewConnection constructs a Connection for the given user.
// bufferSize <= 0 selects DefaultSendBuffer.
func NewConnection(userID int64, ws Socket, bufferSize int) *Connection {
	if bufferSize <= 0 {
		bufferSize = DefaultSendBuffer
	}
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		ws:     ws,
		send:   make(chan []byte, bufferSize),
		closed: make(chan struct{}),
	}
}

// Start launches the write loop. Extra calls are ignored.
func (c *Connection) Start() {
	c.start.Do(func() { go c.writeLoop() })
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.closed
}

// Send enqueues payload for delivery. If the client is slow and the buffer is full,
// the connection is closed to keep backpressure bounded.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- payload:
		return nil
	default:
		// Send must not wait on the socket: the close frame is written off the caller's goroutine.
		if c.shutdown() {
			go c.closeSocket(websocket.CloseTryAgainLater, "send buffer full")
		}
		return ErrBufferExceeded
	}
}

// Close terminates the connection and stops the write loop. The send channel
// is left open so a concurrent Send never panics.
func (c *Connection) Close(code int, reason string) {
	if c.shutdown() {
		c.closeSocket(code, reason)
	}
}

// shutdown marks the connection closed and reports whether this call did it.
func (c *Connection) shutdown() bool {
	first := false
	c.once.Do(func() {
		close(c.closed)
		first = true
	})
	return first
}

func (c *Connection) closeSocket(code int, reason string) {
	_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(WriteWait))
	_ = c.ws.Close()
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		default:
		}

		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				c.Close(websocket.CloseInternalServerErr, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				c.Close(websocket.CloseInternalServerErr, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(WriteWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
