package room

import (
	"context"
	"sync"

	"github.com/hallway-live/room-service/internal/repository"
)

// Registry hosts one actor per room id, spawning actors on first use so
// every connection for a room lands on the same single-writer loop.
type Registry struct {
	ctx   context.Context
	store repository.MessageStore
	out   Broadcaster

	mu    sync.Mutex
	rooms map[string]*Actor
}

// NewRegistry creates a registry. ctx bounds the lifetime of every actor
// it spawns.
func NewRegistry(ctx context.Context, store repository.MessageStore, out Broadcaster) *Registry {
	return &Registry{
		ctx:   ctx,
		store: store,
		out:   out,
		rooms: make(map[string]*Actor),
	}
}

// Get returns the running actor for the room, starting one if needed.
func (r *Registry) Get(roomID string) *Actor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.rooms[roomID]; ok {
		return a
	}

	a := NewActor(roomID, r.store, r.out)
	r.rooms[roomID] = a
	go a.Run(r.ctx)

	return a
}

// Len reports the number of rooms with a running actor.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}
