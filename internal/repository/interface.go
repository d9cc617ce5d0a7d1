package repository

import (
	"context"

	"github.com/hallway-live/room-service/internal/domain"
)

// MessageStore is the durable side of a room's message log. Every statement
// behind it is parameterized; usernames and content are untrusted input.
type MessageStore interface {
	// EnsureSchema creates the messages table if it does not exist.
	// Idempotent; called by every room actor at start.
	EnsureSchema(ctx context.Context) error

	// List returns all stored messages for a room ordered by timestamp
	// ascending.
	List(ctx context.Context, roomID string) ([]domain.ChatMessage, error)

	// Upsert inserts the message or, when the (room, id) row exists,
	// overwrites its user, role, content and timestamp.
	Upsert(ctx context.Context, roomID string, msg domain.ChatMessage) error

	// Delete removes the (room, id) row. Deleting a missing row is a no-op.
	Delete(ctx context.Context, roomID, id string) error

	// DeleteNotIn removes every row for the room whose id is not in keep.
	// Used only by the post-load pruning pass. An empty keep set removes
	// all rows for the room.
	DeleteNotIn(ctx context.Context, roomID string, keep []string) error
}
