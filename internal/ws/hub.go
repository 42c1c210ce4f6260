package ws

import (
	"lobbyhub/internal/lobby"
	"sync"

	"go.uber.org/zap"
)

// Hub keeps client sets per room code plus every live connection by id.
type Hub struct {
	rooms sync.Map // lobby.RoomCode -> *room
	conns sync.Map // lobby.ConnID -> *clientConn
}

func NewHub() *Hub { return &Hub{} }

// Register makes c addressable by id.
func (h *Hub) Register(c *clientConn) {
	h.conns.Store(c.id, c)
}

// Unregister forgets c and detaches it from every room channel.
func (h *Hub) Unregister(c *clientConn) {
	h.conns.Delete(c.id)
	h.rooms.Range(func(_, v any) bool {
		v.(*room).remove(c)
		return true
	})
}

func (h *Hub) conn(id lobby.ConnID) (*clientConn, bool) {
	v, ok := h.conns.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*clientConn), true
}

// Broadcast sends msg to everyone subscribed to code.
func (h *Hub) Broadcast(code lobby.RoomCode, msg []byte) {
	if v, ok := h.rooms.Load(code); ok {
		v.(*room).broadcast(msg)
	}
}

// Send delivers msg to a single connection.
func (h *Hub) Send(id lobby.ConnID, msg []byte) {
	c, ok := h.conn(id)
	if !ok {
		return
	}
	if !c.enqueue(msg) {
		zap.L().Warn("ws.slow_consumer", zap.String("conn", string(id)))
		c.close()
	}
}

func (h *Hub) Join(code lobby.RoomCode, id lobby.ConnID) {
	c, ok := h.conn(id)
	if !ok {
		return
	}
	r, _ := h.rooms.LoadOrStore(code, newRoom())
	r.(*room).add(c)
}

func (h *Hub) Leave(code lobby.RoomCode, id lobby.ConnID) {
	c, ok := h.conn(id)
	if !ok {
		return
	}
	if v, ok := h.rooms.Load(code); ok {
		v.(*room).remove(c)
	}
}

// Close drops code's channel. Late listeners have already been sent the
// closure notice.
func (h *Hub) Close(code lobby.RoomCode) {
	h.rooms.Delete(code)
}

// Subscribers is the number of connections listening on code.
func (h *Hub) Subscribers(code lobby.RoomCode) int {
	if v, ok := h.rooms.Load(code); ok {
		return v.(*room).size()
	}
	return 0
}
