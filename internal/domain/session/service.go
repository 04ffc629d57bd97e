package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/luminacoach/sessionsync/internal/repository"
)

// Service handles session record operations.
type Service struct {
	sessions Repository
	logger   *slog.Logger
}

// NewService creates a new session service.
func NewService(sessions Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{sessions: sessions, logger: logger}
}

// RegisterRequest describes a session registration request.
type RegisterRequest struct {
	ProjectID  string
	Value      json.RawMessage
	Provenance Provenance
	Name       string
}

// RegisterResult holds registration response data.
type RegisterResult struct {
	Record  *Record
	Created bool
}

// UpdateRequest describes an update to an existing session record.
type UpdateRequest struct {
	ProjectID  string
	Value      json.RawMessage
	Provenance Provenance
}

// Check reports whether a record exists for the given conversation.
func (s *Service) Check(ctx context.Context, ownerID, projectID, externalSessionID string) (bool, error) {
	if projectID == "" || externalSessionID == "" {
		return false, ErrInvalidInput
	}
	exists, err := s.sessions.Exists(ctx, ownerID, projectID, externalSessionID)
	if err != nil {
		return false, fmt.Errorf("checking session: %w", err)
	}
	return exists, nil
}

// Register creates a record for a newly observed conversation. A register
// against an existing (owner, external_session_id, project_id) tuple is
// converted to an update of that row, so racing registrations from two
// clients collapse into one record.
func (s *Service) Register(ctx context.Context, ownerID string, req RegisterRequest) (*RegisterResult, error) {
	if req.ProjectID == "" || len(req.Value) == 0 {
		return nil, ErrInvalidInput
	}

	state, err := ParseWidgetValue(req.Value)
	if err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	if state.ExternalSessionID == "" {
		return nil, ErrNoConversation
	}

	provenance := req.Provenance
	if provenance == "" {
		provenance = ProvenanceLocalSync
	}

	now := time.Now()
	rec := &Record{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		ExternalSessionID: state.ExternalSessionID,
		ProjectID:         req.ProjectID,
		Name:              req.Name,
		Value:             req.Value,
		Status:            state.Status,
		Provenance:        provenance,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.sessions.Upsert(ctx, ownerID, rec)
	if err != nil {
		return nil, fmt.Errorf("registering session: %w", err)
	}
	if !created {
		s.logger.Debug("duplicate register converted to update",
			"project_id", req.ProjectID,
			"external_session_id", state.ExternalSessionID)
	}

	return &RegisterResult{Record: rec, Created: created}, nil
}

// Update replaces the stored value of an existing record with the current
// full widget state.
func (s *Service) Update(ctx context.Context, ownerID string, req UpdateRequest) error {
	if req.ProjectID == "" || len(req.Value) == 0 {
		return ErrInvalidInput
	}

	state, err := ParseWidgetValue(req.Value)
	if err != nil {
		return fmt.Errorf("parsing payload: %w", err)
	}
	if state.ExternalSessionID == "" {
		return ErrNoConversation
	}

	rec, err := s.sessions.Get(ctx, ownerID, req.ProjectID, state.ExternalSessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("loading session: %w", err)
	}

	rec.Value = req.Value
	rec.Status = state.Status
	if req.Provenance != "" {
		rec.Provenance = req.Provenance
	}
	rec.UpdatedAt = time.Now()

	if err := s.sessions.Update(ctx, ownerID, rec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("updating session: %w", err)
	}
	return nil
}

// List returns the owner's session records keyed by external session ID.
func (s *Service) List(ctx context.Context, ownerID string) (map[string]Record, error) {
	records, err := s.sessions.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	sessions := make(map[string]Record, len(records))
	for _, rec := range records {
		sessions[rec.ExternalSessionID] = rec
	}
	return sessions, nil
}
