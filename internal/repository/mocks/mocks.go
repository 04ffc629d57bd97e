package mocks

import (
	"context"

	"github.com/luminacoach/sessionsync/internal/domain/feedback"
	"github.com/luminacoach/sessionsync/internal/domain/session"
	"github.com/stretchr/testify/mock"
)

// SessionRepository is a mock for session.Repository.
type SessionRepository struct {
	mock.Mock
}

func (m *SessionRepository) Upsert(ctx context.Context, ownerID string, rec *session.Record) (bool, error) {
	args := m.Called(ctx, ownerID, rec)
	return args.Bool(0), args.Error(1)
}

func (m *SessionRepository) Exists(ctx context.Context, ownerID, projectID, externalSessionID string) (bool, error) {
	args := m.Called(ctx, ownerID, projectID, externalSessionID)
	return args.Bool(0), args.Error(1)
}

func (m *SessionRepository) Get(ctx context.Context, ownerID, projectID, externalSessionID string) (*session.Record, error) {
	args := m.Called(ctx, ownerID, projectID, externalSessionID)
	if rec, ok := args.Get(0).(*session.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SessionRepository) Update(ctx context.Context, ownerID string, rec *session.Record) error {
	args := m.Called(ctx, ownerID, rec)
	return args.Error(0)
}

func (m *SessionRepository) List(ctx context.Context, ownerID string) ([]session.Record, error) {
	args := m.Called(ctx, ownerID)
	if list, ok := args.Get(0).([]session.Record); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// FeedbackRepository is a mock for feedback.Repository.
type FeedbackRepository struct {
	mock.Mock
}

func (m *FeedbackRepository) Create(ctx context.Context, ownerID string, entry *feedback.Entry) error {
	args := m.Called(ctx, ownerID, entry)
	return args.Error(0)
}

func (m *FeedbackRepository) ListBySession(ctx context.Context, ownerID, sessionID string) ([]feedback.Entry, error) {
	args := m.Called(ctx, ownerID, sessionID)
	if list, ok := args.Get(0).([]feedback.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
