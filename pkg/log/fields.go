package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Room actor
	FieldRoomID    = "room_id"
	FieldConnID    = "conn_id"
	FieldUsername  = "username"
	FieldMessageID = "message_id"
	FieldEventType = "event_type"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)

const headerRequestID = "X-Request-ID"
