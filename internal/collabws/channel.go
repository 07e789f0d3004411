package collabws

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

// Channel implements ports.DataChannel over its own websocket connection,
// separate from the room event socket so chat bursts never delay state
// snapshots.
type Channel struct {
	ws      *wsConn
	inbound chan []byte

	mu    sync.RWMutex
	ready bool
}

func newChannel(conn *websocket.Conn) *Channel {
	ch := &Channel{
		ws:      newWSConn(conn),
		inbound: make(chan []byte, 100),
		ready:   true,
	}
	go ch.readPump()
	return ch
}

// Send transmits one opaque payload in order.
func (c *Channel) Send(ctx context.Context, payload []byte) error {
	if !c.Ready() {
		return ErrConnectionClosed
	}

	select {
	case <-c.ws.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.ws.writeCh <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ws.ctx.Done():
		return ErrConnectionClosed
	}
}

// Receive returns the inbound payload stream in delivery order.
func (c *Channel) Receive() <-chan []byte {
	return c.inbound
}

// Ready reports whether the channel is established and usable.
func (c *Channel) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Channel) readPump() {
	defer func() {
		c.mu.Lock()
		c.ready = false
		c.mu.Unlock()
		close(c.inbound)
	}()

	for {
		_, data, err := c.ws.conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case c.inbound <- data:
		case <-c.ws.ctx.Done():
			return
		}
	}
}

// Close releases the channel. Idempotent.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.ready = false
	c.mu.Unlock()
	return c.ws.close()
}
