// network/connection.go
package network

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second
	// pingPeriod paces keepalive pings from the write pump.
	pingPeriod = 30 * time.Second
	// outboxSize is the per-connection send buffer. A client that falls
	// this far behind is dropped rather than allowed to stall the room.
	outboxSize = 64
)

var (
	ErrConnectionClosed = errors.New("network: connection closed")
	ErrSlowClient       = errors.New("network: send buffer full, client dropped")
)

type Connection interface {
	SendEvent(event string, data interface{}) error
	ReadEnvelope() (*Envelope, error)
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
}

// WSConnection adapts a gorilla websocket to the Connection interface.
// Writes are decoupled from callers through a buffered outbox drained by a
// single write pump, so a slow client never blocks a room worker.
type WSConnection struct {
	conn      *websocket.Conn
	outbox    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	c := &WSConnection{
		conn:   conn,
		outbox: make(chan []byte, outboxSize),
		done:   make(chan struct{}),
	}
	go c.writePump()
	return c
}

// SendEvent marshals an event envelope onto the outbox. A full outbox
// means the client cannot keep up; the connection is closed and the send
// reported as failed.
func (c *WSConnection) SendEvent(event string, data interface{}) error {
	raw, err := EncodeEvent(event, data)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.outbox <- raw:
		return nil
	default:
		c.Close()
		return ErrSlowClient
	}
}

// ReadEnvelope blocks for the next text frame and decodes its envelope.
// A decode failure wraps ErrMalformedEnvelope so callers can tell a bad
// frame from a dead socket.
func (c *WSConnection) ReadEnvelope() (*Envelope, error) {
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return DecodeEnvelope(raw)
}

func (c *WSConnection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw := <-c.outbox:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// SetHeartbeat arms the read deadline and keeps it refreshed on pongs.
// Two missed intervals end the connection.
func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(interval * 2))
	})
}

func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
