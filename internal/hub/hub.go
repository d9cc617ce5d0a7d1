package hub

import (
	"sync"

	"github.com/hallway-live/room-service/internal/room"
)

// Hub tracks open websocket connections grouped by room and implements the
// room.Broadcaster capability. Delivery is best effort: a client whose send
// buffer is full drops the frame rather than blocking the actor.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]room.Conn            // connID -> conn
	rooms map[string]map[string]room.Conn // roomID -> connID -> conn
}

func New() *Hub {
	return &Hub{
		conns: make(map[string]room.Conn),
		rooms: make(map[string]map[string]room.Conn),
	}
}

func (h *Hub) Attach(roomID string, c room.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c.ID()] = c

	rs, ok := h.rooms[roomID]
	if !ok {
		rs = make(map[string]room.Conn)
		h.rooms[roomID] = rs
	}
	rs[c.ID()] = c
}

func (h *Hub) Detach(roomID, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.conns, connID)

	if rs, ok := h.rooms[roomID]; ok {
		delete(rs, connID)
		if len(rs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) SendTo(connID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if c, ok := h.conns[connID]; ok {
		c.Send(data)
	}
}

func (h *Hub) Broadcast(roomID string, data []byte, excludeID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.rooms[roomID] {
		if id == excludeID {
			continue
		}
		c.Send(data)
	}
}

// Len reports the number of open connections across all rooms.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
