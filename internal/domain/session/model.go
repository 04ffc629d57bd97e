package session

import (
	"encoding/json"
	"time"
)

// Status is the lifecycle status a widget payload reports for its conversation.
// It is set by the widget and passed through unmodified.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusChatting  Status = "CHATTING"
	StatusCompleted Status = "COMPLETED"
	StatusUpdated   Status = "UPDATED"
)

// Provenance records how a session record came to exist.
type Provenance string

const (
	ProvenanceLocalSync          Provenance = "localStorage_sync"
	ProvenanceManual             Provenance = "manual"
	ProvenanceMigratedJSON       Provenance = "migrated_from_json"
	ProvenanceMigratedLegacyJSON Provenance = "migrated_from_legacy_json"
)

// Record is the server-side authoritative row for one logical conversation.
// The tuple (OwnerID, ExternalSessionID, ProjectID) is unique.
type Record struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"owner_id"`
	ExternalSessionID string          `json:"external_session_id"`
	ProjectID         string          `json:"project_id"`
	Name              string          `json:"name,omitempty"`
	Value             json.RawMessage `json:"value"`
	Status            Status          `json:"status"`
	Provenance        Provenance      `json:"provenance"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// WidgetState is the small slice of the widget payload this system is allowed
// to interpret. Everything else in the payload is an opaque blob.
type WidgetState struct {
	ExternalSessionID string
	Status            Status
	Turns             int
}

type widgetPayload struct {
	UserID string            `json:"userID"`
	Turns  []json.RawMessage `json:"turns"`
	Status Status            `json:"status"`
}

// ParseWidgetValue extracts the interpretable fields from a raw widget payload.
// A payload without a userID parses successfully with an empty
// ExternalSessionID: that is the pre-conversation state, not an error.
func ParseWidgetValue(raw json.RawMessage) (WidgetState, error) {
	var payload widgetPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return WidgetState{}, err
	}

	status := payload.Status
	if status == "" {
		status = StatusActive
	}

	return WidgetState{
		ExternalSessionID: payload.UserID,
		Status:            status,
		Turns:             len(payload.Turns),
	}, nil
}
