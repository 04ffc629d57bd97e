package feedback

import "context"

// Repository provides persistence for feedback entries.
type Repository interface {
	Create(ctx context.Context, ownerID string, entry *Entry) error
	ListBySession(ctx context.Context, ownerID, sessionID string) ([]Entry, error)
}
