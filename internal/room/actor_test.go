package room

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hallway-live/room-service/internal/domain"
)

// fakeConn satisfies Conn; the fake broadcaster records frames itself.
type fakeConn struct{ id string }

func (c fakeConn) ID() string  { return c.id }
func (c fakeConn) Send([]byte) {}

// fakeBroadcaster records every frame per connection id.
type fakeBroadcaster struct {
	attached map[string]map[string]Conn // roomID -> connID -> conn
	frames   map[string][][]byte        // connID -> frames in delivery order
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{
		attached: make(map[string]map[string]Conn),
		frames:   make(map[string][][]byte),
	}
}

func (b *fakeBroadcaster) Attach(roomID string, c Conn) {
	rs, ok := b.attached[roomID]
	if !ok {
		rs = make(map[string]Conn)
		b.attached[roomID] = rs
	}
	rs[c.ID()] = c
}

func (b *fakeBroadcaster) Detach(roomID, connID string) {
	delete(b.attached[roomID], connID)
}

func (b *fakeBroadcaster) SendTo(connID string, data []byte) {
	b.frames[connID] = append(b.frames[connID], data)
}

func (b *fakeBroadcaster) Broadcast(roomID string, data []byte, excludeID string) {
	for id := range b.attached[roomID] {
		if id == excludeID {
			continue
		}
		b.frames[id] = append(b.frames[id], data)
	}
}

func frameTypes(t *testing.T, frames [][]byte) []string {
	t.Helper()
	types := make([]string, 0, len(frames))
	for _, f := range frames {
		var base domain.BaseMessage
		require.NoError(t, json.Unmarshal(f, &base))
		types = append(types, base.Type)
	}
	return types
}

func lastErrorText(t *testing.T, frames [][]byte) string {
	t.Helper()
	require.NotEmpty(t, frames)
	var ev domain.ErrorEvent
	require.NoError(t, json.Unmarshal(frames[len(frames)-1], &ev))
	require.Equal(t, domain.MsgTypeError, ev.Type)
	return ev.Error
}

func addFrame(id, content string) []byte {
	return []byte(fmt.Sprintf(
		`{"type":"add","id":%q,"content":%q,"user":"alice","role":"user","timestamp":1700000000000}`,
		id, content,
	))
}

// drain runs queued commands synchronously so tests stay deterministic.
func drain(ctx context.Context, a *Actor) {
	for {
		select {
		case cmd := <-a.cmds:
			a.safely(ctx, cmd)
		default:
			return
		}
	}
}

func newTestActor(t *testing.T, store *fakeStore) (*Actor, *fakeBroadcaster, context.Context) {
	t.Helper()
	out := newFakeBroadcaster()
	a := NewActor("r1", store, out)
	ctx := context.Background()
	a.safely(ctx, a.start)
	return a, out, ctx
}

func connect(ctx context.Context, a *Actor, connID string) {
	a.Connect(fakeConn{id: connID})
	drain(ctx, a)
}

func send(ctx context.Context, a *Actor, connID string, raw []byte) {
	a.Message(connID, raw)
	drain(ctx, a)
}

func TestActorSnapshotOnConnect(t *testing.T) {
	store := newFakeStore()
	store.rows["r1"] = []domain.ChatMessage{msg("m1", "one"), msg("m2", "two")}
	a, out, ctx := newTestActor(t, store)

	connect(ctx, a, "A")

	require.Len(t, out.frames["A"], 1)
	var all domain.AllEvent
	require.NoError(t, json.Unmarshal(out.frames["A"][0], &all))
	assert.Equal(t, domain.MsgTypeAll, all.Type)
	require.Len(t, all.Messages, 2)
	assert.Equal(t, "m1", all.Messages[0].ID)
}

func TestActorSnapshotIsFirstEventDespiteTraffic(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)

	connect(ctx, a, "A")
	send(ctx, a, "A", addFrame("m1", "hi"))

	connect(ctx, a, "B")

	types := frameTypes(t, out.frames["B"])
	require.NotEmpty(t, types)
	assert.Equal(t, domain.MsgTypeAll, types[0])
}

func TestActorAddEchoesToEveryone(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	raw := addFrame("m1", "hi")
	send(ctx, a, "A", raw)

	// Sender receives its own echo for optimistic reconciliation.
	assert.Equal(t, []string{domain.MsgTypeAll, domain.MsgTypeAdd}, frameTypes(t, out.frames["A"]))
	assert.Equal(t, []string{domain.MsgTypeAll, domain.MsgTypeAdd}, frameTypes(t, out.frames["B"]))
	assert.Equal(t, raw, out.frames["B"][1])

	assert.True(t, store.has("r1", "m1"))
}

func TestActorUpdateReplacesInPlace(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")

	send(ctx, a, "A", addFrame("m1", "hi"))
	send(ctx, a, "A", addFrame("m2", "second"))
	send(ctx, a, "A", []byte(`{"type":"update","id":"m1","content":"edited","user":"alice","role":"user","timestamp":1700000000001}`))

	snap := a.log.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "m1", snap[0].ID)
	assert.Equal(t, "edited", snap[0].Content)

	types := frameTypes(t, out.frames["A"])
	assert.Equal(t, domain.MsgTypeUpdate, types[len(types)-1])
}

func TestActorValidationErrorToSenderOnly(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	send(ctx, a, "A", []byte(`{"type":"add","id":"m1","content":"","user":"alice","role":"user","timestamp":1}`))

	assert.Equal(t, domain.ErrEmptyContent.Error(), lastErrorText(t, out.frames["A"]))
	assert.Equal(t, []string{domain.MsgTypeAll}, frameTypes(t, out.frames["B"]))
	assert.False(t, store.has("r1", "m1"))
	assert.Equal(t, 0, a.log.Len())
}

func TestActorMalformedFrame(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	send(ctx, a, "A", []byte(`{not json`))

	assert.Equal(t, "Invalid message format", lastErrorText(t, out.frames["A"]))
	assert.Equal(t, []string{domain.MsgTypeAll}, frameTypes(t, out.frames["B"]))
}

func TestActorMalformedFramesAreNotRateCharged(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")

	for i := 0; i < domain.RateLimitMessages*2; i++ {
		send(ctx, a, "A", []byte(`{not json`))
	}

	// The window counter is untouched, so a valid message still goes through.
	send(ctx, a, "A", addFrame("m1", "hi"))
	types := frameTypes(t, out.frames["A"])
	assert.Equal(t, domain.MsgTypeAdd, types[len(types)-1])
}

func TestActorRateLimit(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	base := time.Now()
	a.now = func() time.Time { return base }

	for i := 0; i < domain.RateLimitMessages; i++ {
		send(ctx, a, "A", addFrame(fmt.Sprintf("m%d", i), "x"))
	}
	// 1 snapshot + 10 echoes so far.
	require.Len(t, out.frames["B"], 1+domain.RateLimitMessages)

	send(ctx, a, "A", addFrame("m-denied", "x"))
	assert.Equal(t, "Rate limit exceeded. Please slow down.", lastErrorText(t, out.frames["A"]))
	assert.Len(t, out.frames["B"], 1+domain.RateLimitMessages)
	assert.False(t, store.has("r1", "m-denied"))

	// After the window elapses the counter resets.
	a.now = func() time.Time { return base.Add(domain.RateLimitWindow + time.Millisecond) }
	send(ctx, a, "A", addFrame("m-after", "x"))
	assert.True(t, store.has("r1", "m-after"))
}

func TestActorTypingBypassesLimiterAndExcludesSender(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	base := time.Now()
	a.now = func() time.Time { return base }

	// Exhaust A's window.
	for i := 0; i <= domain.RateLimitMessages; i++ {
		send(ctx, a, "A", addFrame(fmt.Sprintf("m%d", i), "x"))
	}

	before := len(out.frames["A"])
	send(ctx, a, "A", []byte(`{"type":"typing","user":"alice","isTyping":true}`))

	// Delivered to B, never echoed to A, no rate-limit error.
	types := frameTypes(t, out.frames["B"])
	assert.Equal(t, domain.MsgTypeTyping, types[len(types)-1])
	assert.Len(t, out.frames["A"], before)
}

func TestActorPresenceJoinAndLeave(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	send(ctx, a, "A", []byte(`{"type":"user_joined","user":"alice"}`))

	typesA := frameTypes(t, out.frames["A"])
	assert.NotContains(t, typesA, domain.MsgTypeUserJoined)
	typesB := frameTypes(t, out.frames["B"])
	assert.Equal(t, domain.MsgTypeUserJoined, typesB[len(typesB)-1])

	a.Close("A")
	drain(ctx, a)

	var left domain.UserLeftEvent
	require.NoError(t, json.Unmarshal(out.frames["B"][len(out.frames["B"])-1], &left))
	assert.Equal(t, domain.MsgTypeUserLeft, left.Type)
	assert.Equal(t, "alice", left.User)
}

func TestActorCloseWithoutAnnounceEmitsNothing(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	before := len(out.frames["B"])
	a.Close("A")
	drain(ctx, a)

	assert.Len(t, out.frames["B"], before)
}

func TestActorDeleteIsIdempotentAndBroadcast(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	send(ctx, a, "A", addFrame("m1", "hi"))
	send(ctx, a, "A", []byte(`{"type":"delete","id":"m1"}`))
	send(ctx, a, "A", []byte(`{"type":"delete","id":"m1"}`))

	assert.Equal(t, 0, a.log.Len())
	assert.False(t, store.has("r1", "m1"))

	// Both deletes broadcast, to the sender as well; no error frames.
	types := frameTypes(t, out.frames["A"])
	assert.Equal(t, []string{domain.MsgTypeAll, domain.MsgTypeAdd, domain.MsgTypeDelete, domain.MsgTypeDelete}, types)
	assert.NotContains(t, types, domain.MsgTypeError)
}

func TestActorUnknownTypeIgnored(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	send(ctx, a, "A", []byte(`{"type":"reaction","emoji":"+1"}`))

	assert.Equal(t, []string{domain.MsgTypeAll}, frameTypes(t, out.frames["A"]))
	assert.Equal(t, []string{domain.MsgTypeAll}, frameTypes(t, out.frames["B"]))
}

func TestActorPersistenceFailure(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	store.failUpsert = true
	send(ctx, a, "A", addFrame("m1", "hi"))

	assert.Equal(t, "Failed to save message", lastErrorText(t, out.frames["A"]))
	// No broadcast on persistence failure.
	assert.Equal(t, []string{domain.MsgTypeAll}, frameTypes(t, out.frames["B"]))
	// In-memory state mutated before the durable call; the divergence is
	// part of the protocol contract.
	assert.Equal(t, 1, a.log.Len())
}

func TestActorStartDegradesToEmptyLog(t *testing.T) {
	store := newFakeStore()
	store.rows["r1"] = []domain.ChatMessage{msg("m1", "one")}
	store.failList = true

	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")

	var all domain.AllEvent
	require.NoError(t, json.Unmarshal(out.frames["A"][0], &all))
	assert.Empty(t, all.Messages)
	assert.Equal(t, 0, a.log.Len())
}

func TestActorEndToEndAddThenDelete(t *testing.T) {
	store := newFakeStore()
	a, out, ctx := newTestActor(t, store)
	connect(ctx, a, "A")
	connect(ctx, a, "B")

	send(ctx, a, "A", addFrame("m1", "hi"))

	var add domain.MessageEvent
	require.NoError(t, json.Unmarshal(out.frames["B"][1], &add))
	assert.Equal(t, "m1", add.ID)
	assert.Equal(t, "hi", add.Content)

	send(ctx, a, "A", []byte(`{"type":"delete","id":"m1"}`))

	assert.Equal(t, 0, a.log.Len())
	assert.False(t, store.has("r1", "m1"))
	typesB := frameTypes(t, out.frames["B"])
	assert.Equal(t, domain.MsgTypeDelete, typesB[len(typesB)-1])
}
