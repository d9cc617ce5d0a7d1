package domain

// WebSocket message types from client.
const (
	MsgTypeAdd        = "add"
	MsgTypeUpdate     = "update"
	MsgTypeDelete     = "delete"
	MsgTypeTyping     = "typing"
	MsgTypeUserJoined = "user_joined"
)

// WebSocket message types to client.
const (
	MsgTypeUserLeft = "user_left"
	MsgTypeAll      = "all"
	MsgTypeError    = "error"
)

// BaseMessage is the base structure for all WebSocket messages. The Type
// field is the discriminant; unknown types are ignored by the room actor
// for forward compatibility.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages (add/update/delete/typing/user_joined are
// echoed back out verbatim, so they double as server -> client frames).

// MessageEvent carries a full chat message for add and update.
type MessageEvent struct {
	Type string `json:"type"`
	ChatMessage
}

// DeleteEvent removes a message by id.
type DeleteEvent struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// TypingEvent is an ephemeral typing signal. Never persisted.
type TypingEvent struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	IsTyping bool   `json:"isTyping"`
}

// UserJoinedEvent announces presence for a connection.
type UserJoinedEvent struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// Server -> Client messages

// UserLeftEvent is server-originated only, emitted when a connection with
// an announced name disconnects.
type UserLeftEvent struct {
	Type string `json:"type"`
	User string `json:"user"`
}

// AllEvent is the full log snapshot sent to a connecting client before any
// other event.
type AllEvent struct {
	Type     string        `json:"type"`
	Messages []ChatMessage `json:"messages"`
}

// ErrorEvent is a rejection notice sent to the originating sender only.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// NewErrorEvent creates a new error event.
func NewErrorEvent(message string) *ErrorEvent {
	return &ErrorEvent{
		Type:  MsgTypeError,
		Error: message,
	}
}

// NewAllEvent creates a snapshot event. Messages is never nil so the frame
// always carries a JSON array.
func NewAllEvent(messages []ChatMessage) *AllEvent {
	if messages == nil {
		messages = []ChatMessage{}
	}
	return &AllEvent{
		Type:     MsgTypeAll,
		Messages: messages,
	}
}

// NewUserLeftEvent creates a presence departure event.
func NewUserLeftEvent(user string) *UserLeftEvent {
	return &UserLeftEvent{
		Type: MsgTypeUserLeft,
		User: user,
	}
}
