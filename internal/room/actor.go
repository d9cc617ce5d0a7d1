package room

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hallway-live/room-service/internal/audit"
	"github.com/hallway-live/room-service/internal/domain"
	"github.com/hallway-live/room-service/internal/repository"
	"github.com/hallway-live/room-service/pkg/log"
)

// Error strings sent to clients. These are part of the wire contract.
const (
	errInvalidFormat = "Invalid message format"
	errRateLimited   = "Rate limit exceeded. Please slow down."
	errSaveFailed    = "Failed to save message"
)

// Actor owns all state for one chat room: the message log, the rate
// limiter table and the session registry. Every transition (connect,
// inbound frame, disconnect) is serialized through a single command
// channel consumed by one goroutine, so no state needs locking and two
// clients sending at once resolve into a well-defined total order.
type Actor struct {
	roomID   string
	log      *MessageLog
	limiter  *RateLimiter
	sessions *SessionRegistry
	out      Broadcaster

	cmds chan func(context.Context)
	now  func() time.Time
}

func NewActor(roomID string, store repository.MessageStore, out Broadcaster) *Actor {
	return &Actor{
		roomID:   roomID,
		log:      NewMessageLog(roomID, store),
		limiter:  NewRateLimiter(domain.RateLimitMessages, domain.RateLimitWindow),
		sessions: NewSessionRegistry(),
		out:      out,
		cmds:     make(chan func(context.Context), 256),
		now:      time.Now,
	}
}

// Run starts the actor loop and blocks until ctx is cancelled. Startup
// (schema creation + log hydration) completes before the first queued
// command is handled.
func (a *Actor) Run(ctx context.Context) {
	logger := log.L().With().Str(log.FieldRoomID, a.roomID).Logger()
	ctx = log.WithLogger(ctx, logger)

	a.safely(ctx, a.start)

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-a.cmds:
			a.safely(ctx, cmd)
		}
	}
}

// Connect attaches a new connection and sends it the full log snapshot as
// an "all" event before it can observe anything else.
func (a *Actor) Connect(c Conn) {
	a.cmds <- func(ctx context.Context) {
		a.out.Attach(a.roomID, c)

		data, err := json.Marshal(domain.NewAllEvent(a.log.Snapshot()))
		if err != nil {
			logger := log.Ctx(ctx)
			logger.Error().Err(err).Msg("failed to marshal snapshot")
			return
		}
		a.out.SendTo(c.ID(), data)
	}
}

// Message handles one raw inbound frame from a connection.
func (a *Actor) Message(connID string, raw []byte) {
	a.cmds <- func(ctx context.Context) {
		a.handleMessage(ctx, connID, raw)
	}
}

// Close detaches a connection and, when it had announced a name, tells the
// remaining connections it left.
func (a *Actor) Close(connID string) {
	a.cmds <- func(ctx context.Context) {
		a.out.Detach(a.roomID, connID)

		name, ok := a.sessions.Leave(connID)
		if !ok {
			return
		}

		data, err := json.Marshal(domain.NewUserLeftEvent(name))
		if err != nil {
			logger := log.Ctx(ctx)
			logger.Error().Err(err).Msg("failed to marshal user_left event")
			return
		}
		a.out.Broadcast(a.roomID, data, connID)
		audit.Log(ctx, audit.ActionUserLeft, name, "user left room")
	}
}

func (a *Actor) start(ctx context.Context) {
	logger := log.Ctx(ctx)

	if err := a.log.store.EnsureSchema(ctx); err != nil {
		logger.Warn().Err(err).Msg("failed to ensure message schema")
	}

	if err := a.log.Load(ctx); err != nil {
		// Durable history stays untouched but is unavailable for this
		// actor lifetime.
		logger.Warn().Err(err).Msg("failed to hydrate message log, starting empty")
		a.log.Reset()
		return
	}

	logger.Info().Int("messages", a.log.Len()).Msg("room actor started")
}

func (a *Actor) handleMessage(ctx context.Context, connID string, raw []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(raw, &base); err != nil {
		a.sendError(connID, errInvalidFormat)
		return
	}

	// Typing signals are high-frequency and cheap; they bypass the limiter.
	if base.Type != domain.MsgTypeTyping {
		if !a.limiter.Allow(connID, a.now()) {
			a.sendError(connID, errRateLimited)
			return
		}
	}

	switch base.Type {
	case domain.MsgTypeAdd, domain.MsgTypeUpdate:
		a.handleUpsert(ctx, connID, raw, base.Type)

	case domain.MsgTypeDelete:
		a.handleDelete(ctx, connID, raw)

	case domain.MsgTypeTyping:
		var ev domain.TypingEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			a.sendError(connID, errInvalidFormat)
			return
		}
		a.out.Broadcast(a.roomID, raw, connID)

	case domain.MsgTypeUserJoined:
		var ev domain.UserJoinedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			a.sendError(connID, errInvalidFormat)
			return
		}
		a.sessions.Join(connID, ev.User)
		a.out.Broadcast(a.roomID, raw, connID)
		audit.Log(ctx, audit.ActionUserJoined, ev.User, "user joined room")

	default:
		// Unknown tags are a forward-compatible no-op.
		logger := log.Ctx(ctx)
		logger.Debug().Str(log.FieldEventType, base.Type).Msg("ignoring unknown message type")
	}
}

func (a *Actor) handleUpsert(ctx context.Context, connID string, raw []byte, msgType string) {
	var ev domain.MessageEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		a.sendError(connID, errInvalidFormat)
		return
	}

	if err := domain.Validate(ev.ChatMessage); err != nil {
		a.sendError(connID, err.Error())
		return
	}

	if err := a.log.Upsert(ctx, ev.ChatMessage); err != nil {
		logger := log.Ctx(ctx)
		logger.Error().Err(err).
			Str(log.FieldMessageID, ev.ID).
			Msg("failed to persist message")
		a.sendError(connID, errSaveFailed)
		return
	}

	action := audit.ActionMessageAdded
	if msgType == domain.MsgTypeUpdate {
		action = audit.ActionMessageUpdated
	}
	audit.LogWithDetail(ctx, action, ev.User, ev.ID, "message stored")

	// Echo to everyone, sender included: clients reconcile their optimistic
	// local copy against the broadcast by id.
	a.out.Broadcast(a.roomID, raw, "")
}

func (a *Actor) handleDelete(ctx context.Context, connID string, raw []byte) {
	var ev domain.DeleteEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		a.sendError(connID, errInvalidFormat)
		return
	}

	if err := a.log.Remove(ctx, ev.ID); err != nil {
		logger := log.Ctx(ctx)
		logger.Error().Err(err).
			Str(log.FieldMessageID, ev.ID).
			Msg("failed to delete message")
		a.sendError(connID, errSaveFailed)
		return
	}

	audit.LogWithDetail(ctx, audit.ActionMessageDeleted, "", ev.ID, "message deleted")
	a.out.Broadcast(a.roomID, raw, "")
}

func (a *Actor) sendError(connID, message string) {
	data, err := json.Marshal(domain.NewErrorEvent(message))
	if err != nil {
		return
	}
	a.out.SendTo(connID, data)
}

// safely runs one transition and keeps a panic inside it from tearing down
// the actor loop.
func (a *Actor) safely(ctx context.Context, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger := log.Ctx(ctx)
			logger.Error().Interface("panic", r).Msg("room actor recovered from panic")
		}
	}()
	fn(ctx)
}
