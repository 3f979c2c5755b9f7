package realtime

import "sync"

// sendBufferSize is the per-connection outgoing message buffer
const sendBufferSize = 256

// Conn is a subscriber handle registered with the Channel. The transport
// layer drains Send and writes messages to the underlying socket; the
// Channel owns closing the send channel.
type Conn struct {
	id        string
	send      chan []byte
	closeOnce sync.Once
}

// NewConn creates a connection handle with the given id
func NewConn(id string) *Conn {
	return &Conn{
		id:   id,
		send: make(chan []byte, sendBufferSize),
	}
}

// ID returns the connection's identity
func (c *Conn) ID() string {
	return c.id
}

// Send returns the channel of outgoing messages for this connection
func (c *Conn) Send() <-chan []byte {
	return c.send
}

func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}
