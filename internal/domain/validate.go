package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Validation failures. The error text is surfaced to the sender in an
// error event, so it is phrased for clients.
var (
	ErrMissingID       = errors.New("message id is required")
	ErrMissingUser     = errors.New("username is required")
	ErrUsernameTooLong = errors.New("username too long (max 50 characters)")
	ErrEmptyContent    = errors.New("message content cannot be empty")
	ErrContentTooLong  = errors.New("message too long (max 5000 characters)")
	ErrInvalidRole     = errors.New("role must be \"user\" or \"assistant\"")
)

// Validate checks a candidate chat message against the room protocol
// limits. Checks run in order and stop at the first failure. It has no
// side effects and accepts any input shape, including partial messages.
func Validate(m ChatMessage) error {
	if m.ID == "" {
		return ErrMissingID
	}

	if m.User == "" {
		return ErrMissingUser
	}
	if utf8.RuneCountInString(m.User) > MaxUsernameLength {
		return ErrUsernameTooLong
	}

	if strings.TrimSpace(m.Content) == "" {
		return ErrEmptyContent
	}
	if utf8.RuneCountInString(m.Content) > MaxMessageLength {
		return ErrContentTooLong
	}

	if m.Role != RoleUser && m.Role != RoleAssistant {
		return ErrInvalidRole
	}

	return nil
}
