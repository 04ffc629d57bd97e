package session

import "errors"

var (
	// ErrSessionNotFound indicates the session record doesn't exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoConversation indicates the payload carries no external session ID yet.
	ErrNoConversation = errors.New("payload has no conversation identifier")
	// ErrInvalidInput indicates invalid session input.
	ErrInvalidInput = errors.New("invalid session input")
)
