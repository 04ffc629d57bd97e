package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/luminacoach/sessionsync/internal/domain/feedback"
)

// FeedbackRepository implements feedback.Repository for SQLite
type FeedbackRepository struct {
	db *DB
}

// NewFeedbackRepository creates a new FeedbackRepository
func NewFeedbackRepository(db *DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Create stores a feedback entry
func (r *FeedbackRepository) Create(ctx context.Context, ownerID string, entry *feedback.Entry) error {
	query := `
		INSERT INTO session_feedback (id, owner_id, session_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		ownerID,
		entry.SessionID,
		entry.Rating,
		nullString(entry.Comment),
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}

	return nil
}

// ListBySession returns feedback entries for a session, oldest first
func (r *FeedbackRepository) ListBySession(ctx context.Context, ownerID, sessionID string) ([]feedback.Entry, error) {
	query := `
		SELECT id, owner_id, session_id, rating, comment, created_at
		FROM session_feedback
		WHERE owner_id = ? AND session_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var entries []feedback.Entry
	for rows.Next() {
		var entry feedback.Entry
		var comment sql.NullString
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.SessionID, &entry.Rating, &comment, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		if comment.Valid {
			entry.Comment = comment.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}

	return entries, nil
}
