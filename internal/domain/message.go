package domain

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Room protocol limits. These are part of the wire contract and are not
// runtime-configurable.
const (
	MaxMessages       = 1000
	MaxMessageLength  = 5000
	MaxUsernameLength = 50

	RateLimitMessages = 10
	RateLimitWindow   = 10 * time.Second
)

// ChatMessage is one entry in a room's message log. IDs are client-generated
// and unique within a room; Timestamp is client-supplied milliseconds since
// epoch and is display metadata only; the log keeps append order, it never
// re-sorts by timestamp.
type ChatMessage struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	User      string `json:"user"`
	Role      Role   `json:"role"`
	Timestamp int64  `json:"timestamp"`
}
