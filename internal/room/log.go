package room

import (
	"context"
	"fmt"

	"github.com/hallway-live/room-service/internal/domain"
	"github.com/hallway-live/room-service/internal/repository"
	"github.com/hallway-live/room-service/pkg/log"
)

// MessageLog is the bounded, ordered, id-keyed message collection for one
// room. It is the authoritative in-memory view and mirrors the durable
// store row-for-row. Not safe for concurrent use; it is confined to the
// owning actor's goroutine.
type MessageLog struct {
	roomID  string
	store   repository.MessageStore
	entries []domain.ChatMessage
}

func NewMessageLog(roomID string, store repository.MessageStore) *MessageLog {
	return &MessageLog{
		roomID:  roomID,
		store:   store,
		entries: make([]domain.ChatMessage, 0),
	}
}

// Load hydrates the log from durable storage, ordered by timestamp
// ascending, then prunes oldest-first down to MaxMessages in both memory
// and the durable store. Called once at actor start.
func (l *MessageLog) Load(ctx context.Context) error {
	messages, err := l.store.List(ctx, l.roomID)
	if err != nil {
		return fmt.Errorf("failed to load message log: %w", err)
	}

	if overflow := len(messages) - domain.MaxMessages; overflow > 0 {
		messages = messages[overflow:]

		keep := make([]string, 0, len(messages))
		for _, m := range messages {
			keep = append(keep, m.ID)
		}
		if err := l.store.DeleteNotIn(ctx, l.roomID, keep); err != nil {
			// Memory is already pruned; the oversized rows get another
			// chance at the next restart.
			logger := log.Ctx(ctx)
			logger.Warn().Err(err).Msg("failed to prune stored messages after load")
		}
	}

	l.entries = messages
	return nil
}

// Upsert replaces the entry with the same id in place, or appends. After an
// append that exceeds MaxMessages the oldest entry is evicted and its
// durable row deleted. The durable upsert runs on both paths, and runs
// before the eviction delete so a crash between the two statements cannot
// lose the new message.
func (l *MessageLog) Upsert(ctx context.Context, msg domain.ChatMessage) error {
	var evicted *domain.ChatMessage

	if i := l.indexOf(msg.ID); i >= 0 {
		l.entries[i] = msg
	} else {
		l.entries = append(l.entries, msg)
		if len(l.entries) > domain.MaxMessages {
			oldest := l.entries[0]
			l.entries = l.entries[1:]
			evicted = &oldest
		}
	}

	if err := l.store.Upsert(ctx, l.roomID, msg); err != nil {
		// The in-memory entry stays; memory and storage disagree until the
		// next successful write of this id.
		return err
	}

	if evicted != nil {
		if err := l.store.Delete(ctx, l.roomID, evicted.ID); err != nil {
			logger := log.Ctx(ctx)
			logger.Warn().Err(err).
				Str(log.FieldMessageID, evicted.ID).
				Msg("failed to delete evicted message row")
		}
	}

	return nil
}

// Remove deletes the entry with the given id from memory and storage.
// Removing an unknown id is a no-op.
func (l *MessageLog) Remove(ctx context.Context, id string) error {
	if i := l.indexOf(id); i >= 0 {
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
	}
	return l.store.Delete(ctx, l.roomID, id)
}

// Snapshot returns a copy of the full ordered log.
func (l *MessageLog) Snapshot() []domain.ChatMessage {
	out := make([]domain.ChatMessage, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of entries currently held.
func (l *MessageLog) Len() int {
	return len(l.entries)
}

// Reset drops all in-memory entries. Used when hydration fails and the
// actor degrades to an empty log.
func (l *MessageLog) Reset() {
	l.entries = l.entries[:0]
}

func (l *MessageLog) indexOf(id string) int {
	for i := range l.entries {
		if l.entries[i].ID == id {
			return i
		}
	}
	return -1
}
