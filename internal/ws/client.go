package ws

import (
	"lobbyhub/internal/lobby"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be < pongWait
	maxMessageSize = 4096
)

// clientConn is one websocket peer. Every write goes through send so frames
// leave in the order they were queued.
type clientConn struct {
	id      lobby.ConnID
	rawConn *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
}

func newClientConn(id lobby.ConnID, raw *websocket.Conn, buffer int) *clientConn {
	return &clientConn{
		id:      id,
		rawConn: raw,
		send:    make(chan []byte, buffer),
		done:    make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the connection is closed or
// its queue is full.
func (c *clientConn) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *clientConn) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.rawConn.Close()
	})
}

// writePump drains send and keeps the peer alive with pings.
func (c *clientConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.rawConn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
