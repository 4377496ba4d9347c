package live

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // audio chunks are base64 text
	sendBufferSize = 256
)

// Common errors
var (
	ErrSendBufferFull = errors.New("send buffer full")
	ErrMalformedFrame = errors.New("malformed frame")
)

// Client wraps one websocket connection. Reads happen on the caller's
// goroutine via ReadEnvelope; writes are serialized through a buffered send
// channel drained by the write pump, so broadcasts from any goroutine are
// safe.
type Client struct {
	id   string
	conn *websocket.Conn

	send chan []byte
	once sync.Once
	done chan struct{}
}

// NewClient creates a client and starts its write pump
func NewClient(id string, conn *websocket.Conn) *Client {
	c := &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.writePump()
	return c
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

// Send queues a frame for delivery. Non-blocking: a full buffer means the
// client is too slow and the frame is dropped (best-effort channel, no retry).
func (c *Client) Send(payload []byte) error {
	select {
	case <-c.done:
		return errors.New("client closed")
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// ReadEnvelope blocks until the next frame arrives. Returns an error when the
// connection closes.
func (c *Client) ReadEnvelope() (*Envelope, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &env, nil
}

// Close tears the connection down. Idempotent.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				slog.Debug("websocket write failed", "client", c.id, "error", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
