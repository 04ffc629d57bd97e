package feedback_test

import (
	"context"
	"testing"

	"github.com/luminacoach/sessionsync/internal/domain/feedback"
	"github.com/luminacoach/sessionsync/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFeedbackService_Submit(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.FeedbackRepository{}
	repo.On("Create", ctx, "owner1", mock.Anything).Return(nil)

	svc := feedback.NewService(repo, nil)
	entry, err := svc.Submit(ctx, "owner1", "u1", feedback.RatingPositive, "clear and actionable")
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	require.Equal(t, "u1", entry.SessionID)
	require.Equal(t, feedback.RatingPositive, entry.Rating)
	require.False(t, entry.CreatedAt.IsZero())
}

func TestFeedbackService_SubmitValidation(t *testing.T) {
	svc := feedback.NewService(&mocks.FeedbackRepository{}, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "owner1", "", feedback.RatingPositive, "")
	require.ErrorIs(t, err, feedback.ErrInvalidInput)

	_, err = svc.Submit(ctx, "owner1", "u1", feedback.Rating("shrug"), "")
	require.ErrorIs(t, err, feedback.ErrInvalidRating)
}
