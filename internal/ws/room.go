package ws

import (
	"sync"

	"go.uber.org/zap"
)

// room is the broadcast channel of one room code.
type room struct {
	mu    sync.RWMutex
	conns map[*clientConn]struct{}
}

func newRoom() *room { return &room{conns: map[*clientConn]struct{}{}} }

func (r *room) add(c *clientConn) {
	r.mu.Lock()
	r.conns[c] = struct{}{}
	r.mu.Unlock()
}

func (r *room) remove(c *clientConn) {
	r.mu.Lock()
	delete(r.conns, c)
	r.mu.Unlock()
}

func (r *room) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *room) broadcast(msg []byte) {
	// Take a quick snapshot of the current connections
	r.mu.RLock()
	conns := make([]*clientConn, 0, len(r.conns))
	for c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	// A peer that cannot keep up is dropped; its reader then reports the
	// disconnect.
	var failed []*clientConn
	for _, c := range conns {
		if !c.enqueue(msg) {
			failed = append(failed, c)
		}
	}
	for _, c := range failed {
		zap.L().Warn("ws.slow_consumer", zap.String("conn", string(c.id)))
		r.remove(c)
		c.close()
	}
}
