package session

import "context"

// Repository provides persistence for session records.
type Repository interface {
	// Upsert inserts the record or, when the (owner, external_session_id,
	// project_id) tuple already exists, replaces its value, status and
	// provenance. Reports whether a new row was created.
	Upsert(ctx context.Context, ownerID string, rec *Record) (bool, error)
	Exists(ctx context.Context, ownerID, projectID, externalSessionID string) (bool, error)
	Get(ctx context.Context, ownerID, projectID, externalSessionID string) (*Record, error)
	Update(ctx context.Context, ownerID string, rec *Record) error
	List(ctx context.Context, ownerID string) ([]Record, error)
}
