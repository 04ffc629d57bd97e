package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/luminacoach/sessionsync/internal/domain/feedback"
	"github.com/stretchr/testify/require"
)

func TestFeedbackRepository_CreateList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewFeedbackRepository(db)

	first := &feedback.Entry{
		ID:        "f1",
		OwnerID:   "owner1",
		SessionID: "u1",
		Rating:    feedback.RatingPositive,
		Comment:   "great session",
		CreatedAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.Create(ctx, "owner1", first))

	second := &feedback.Entry{
		ID:        "f2",
		OwnerID:   "owner1",
		SessionID: "u1",
		Rating:    feedback.RatingNegative,
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, "owner1", second))

	entries, err := repo.ListBySession(ctx, "owner1", "u1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, feedback.RatingPositive, entries[0].Rating)
	require.Equal(t, "great session", entries[0].Comment)
	require.Empty(t, entries[1].Comment)

	// Owner scoping
	entries, err = repo.ListBySession(ctx, "owner2", "u1")
	require.NoError(t, err)
	require.Empty(t, entries)
}
