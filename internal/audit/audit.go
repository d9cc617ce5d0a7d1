package audit

import (
	"context"

	"github.com/hallway-live/room-service/pkg/log"
)

// Audit actions for room-service.
const (
	ActionMessageAdded   = "room.message_added"
	ActionMessageUpdated = "room.message_updated"
	ActionMessageDeleted = "room.message_deleted"
	ActionUserJoined     = "room.user_joined"
	ActionUserLeft       = "room.user_left"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, username string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, username string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username).
		Str(FieldDetail, detail).
		Msg(msg)
}
