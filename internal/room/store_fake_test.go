package room

import (
	"context"
	"errors"

	"github.com/hallway-live/room-service/internal/domain"
)

// fakeStore is an in-memory MessageStore with switchable failure modes.
// Rows keep insertion order, and every mutating call is appended to ops
// so tests can assert the sequence of durable statements.
type fakeStore struct {
	rows map[string][]domain.ChatMessage // roomID -> rows
	ops  []string                        // "upsert:<id>", "delete:<id>", "prune"

	failList   bool
	failUpsert bool
	failDelete bool
}

var errStoreDown = errors.New("store unavailable")

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string][]domain.ChatMessage)}
}

func (s *fakeStore) EnsureSchema(ctx context.Context) error {
	return nil
}

func (s *fakeStore) List(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	if s.failList {
		return nil, errStoreDown
	}
	out := make([]domain.ChatMessage, len(s.rows[roomID]))
	copy(out, s.rows[roomID])
	return out, nil
}

func (s *fakeStore) Upsert(ctx context.Context, roomID string, msg domain.ChatMessage) error {
	if s.failUpsert {
		return errStoreDown
	}
	s.ops = append(s.ops, "upsert:"+msg.ID)
	rows := s.rows[roomID]
	for i := range rows {
		if rows[i].ID == msg.ID {
			rows[i] = msg
			return nil
		}
	}
	s.rows[roomID] = append(rows, msg)
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, roomID, id string) error {
	if s.failDelete {
		return errStoreDown
	}
	s.ops = append(s.ops, "delete:"+id)
	rows := s.rows[roomID]
	for i := range rows {
		if rows[i].ID == id {
			s.rows[roomID] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeStore) DeleteNotIn(ctx context.Context, roomID string, keep []string) error {
	if s.failDelete {
		return errStoreDown
	}
	s.ops = append(s.ops, "prune")
	keepSet := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		keepSet[id] = struct{}{}
	}
	var kept []domain.ChatMessage
	for _, r := range s.rows[roomID] {
		if _, ok := keepSet[r.ID]; ok {
			kept = append(kept, r)
		}
	}
	s.rows[roomID] = kept
	return nil
}

func (s *fakeStore) has(roomID, id string) bool {
	for _, r := range s.rows[roomID] {
		if r.ID == id {
			return true
		}
	}
	return false
}
