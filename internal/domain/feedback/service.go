package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service handles feedback submission.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new feedback service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Submit records feedback for a session.
func (s *Service) Submit(ctx context.Context, ownerID, sessionID string, rating Rating, comment string) (*Entry, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	if rating != RatingPositive && rating != RatingNegative {
		return nil, ErrInvalidRating
	}

	entry := &Entry{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		SessionID: sessionID,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, ownerID, entry); err != nil {
		return nil, fmt.Errorf("saving feedback: %w", err)
	}
	return entry, nil
}

// ListBySession returns feedback entries for a session.
func (s *Service) ListBySession(ctx context.Context, ownerID, sessionID string) ([]Entry, error) {
	if sessionID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListBySession(ctx, ownerID, sessionID)
}
