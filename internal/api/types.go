// Package api defines the JSON wire types shared by the session store
// server and the sync agent's client.
package api

import (
	"encoding/json"
	"time"

	"github.com/luminacoach/sessionsync/internal/domain/feedback"
	"github.com/luminacoach/sessionsync/internal/domain/session"
)

// SessionData carries one observed widget state across the wire. LastTurn is
// the full raw widget payload, not a delta: redundant or reordered writes are
// idempotent in effect.
type SessionData struct {
	VoiceflowUserID string          `json:"voiceflow_user_id,omitempty"`
	LastTurn        json.RawMessage `json:"last_turn"`
	Source          string          `json:"source"`
	DetectedAt      time.Time       `json:"detected_at"`
}

// CheckRequest asks whether a conversation is already registered.
type CheckRequest struct {
	ProjectID       string `json:"project_id"`
	VoiceflowUserID string `json:"voiceflow_user_id"`
}

// CheckResponse reports conversation existence.
type CheckResponse struct {
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}

// RegisterRequest registers a newly observed conversation.
type RegisterRequest struct {
	ProjectID   string      `json:"project_id"`
	SessionData SessionData `json:"session_data"`
	SessionName string      `json:"session_name,omitempty"`
}

// UpdateRequest refreshes an already registered conversation.
type UpdateRequest struct {
	ProjectID   string      `json:"project_id"`
	SessionData SessionData `json:"session_data"`
}

// FeedbackRequest submits a rating for a session.
type FeedbackRequest struct {
	SessionID string `json:"session_id"`
	Rating    string `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// FeedbackListRequest asks for the feedback submitted against a session.
type FeedbackListRequest struct {
	SessionID string `json:"session_id"`
}

// FeedbackEntry is the wire form of one submitted rating.
type FeedbackEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Rating    string    `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackListResponse returns a session's feedback, newest last.
type FeedbackListResponse struct {
	Feedback []FeedbackEntry `json:"feedback"`
	Error    string          `json:"error,omitempty"`
}

// GenericResponse acknowledges a mutation.
type GenericResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SessionRecord is the wire form of a stored session record.
type SessionRecord struct {
	ID                string             `json:"id"`
	ExternalSessionID string             `json:"external_session_id"`
	ProjectID         string             `json:"project_id"`
	Name              string             `json:"name,omitempty"`
	Value             json.RawMessage    `json:"value"`
	Status            session.Status     `json:"status"`
	Provenance        session.Provenance `json:"provenance"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// ListResponse returns an owner's sessions keyed by external session ID.
type ListResponse struct {
	Sessions map[string]SessionRecord `json:"sessions"`
	Error    string                   `json:"error,omitempty"`
}

// FeedbackFromDomain converts a domain feedback entry to its wire form.
func FeedbackFromDomain(entry feedback.Entry) FeedbackEntry {
	return FeedbackEntry{
		ID:        entry.ID,
		SessionID: entry.SessionID,
		Rating:    string(entry.Rating),
		Comment:   entry.Comment,
		CreatedAt: entry.CreatedAt,
	}
}

// RecordFromDomain converts a domain record to its wire form.
func RecordFromDomain(rec session.Record) SessionRecord {
	return SessionRecord{
		ID:                rec.ID,
		ExternalSessionID: rec.ExternalSessionID,
		ProjectID:         rec.ProjectID,
		Name:              rec.Name,
		Value:             rec.Value,
		Status:            rec.Status,
		Provenance:        rec.Provenance,
		CreatedAt:         rec.CreatedAt,
		UpdatedAt:         rec.UpdatedAt,
	}
}
