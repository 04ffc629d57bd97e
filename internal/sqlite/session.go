package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/luminacoach/sessionsync/internal/domain/session"
	"github.com/luminacoach/sessionsync/internal/repository"
)

// SessionRepository implements session.Repository for SQLite
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert inserts a session record, or refreshes the existing row when the
// (owner, external_session_id, project_id) tuple is already taken. The unique
// index is the backstop for two clients racing to register the same
// conversation; the loser lands here as an update.
func (r *SessionRepository) Upsert(ctx context.Context, ownerID string, rec *session.Record) (bool, error) {
	query := `
		INSERT INTO session_records (
			id, owner_id, external_session_id, project_id, name,
			value, status, provenance, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		ownerID,
		rec.ExternalSessionID,
		rec.ProjectID,
		nullString(rec.Name),
		string(rec.Value),
		rec.Status,
		rec.Provenance,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			updateQuery := `
				UPDATE session_records
				SET value = ?, status = ?, provenance = ?, updated_at = ?,
				    name = COALESCE(NULLIF(?, ''), name)
				WHERE owner_id = ? AND external_session_id = ? AND project_id = ?
			`
			if _, updateErr := r.db.ExecContext(ctx, updateQuery,
				string(rec.Value), rec.Status, rec.Provenance, rec.UpdatedAt,
				rec.Name, ownerID, rec.ExternalSessionID, rec.ProjectID,
			); updateErr != nil {
				return false, fmt.Errorf("failed to refresh session record: %w", updateErr)
			}
			return false, nil
		}
		return false, fmt.Errorf("failed to create session record: %w", err)
	}

	return true, nil
}

// Exists reports whether a record exists for the conversation
func (r *SessionRepository) Exists(ctx context.Context, ownerID, projectID, externalSessionID string) (bool, error) {
	query := `
		SELECT 1 FROM session_records
		WHERE owner_id = ? AND project_id = ? AND external_session_id = ?
	`

	var one int
	err := r.db.QueryRowContext(ctx, query, ownerID, projectID, externalSessionID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check session record: %w", err)
	}
	return true, nil
}

// Get retrieves a record by its composite key
func (r *SessionRepository) Get(ctx context.Context, ownerID, projectID, externalSessionID string) (*session.Record, error) {
	query := `
		SELECT
			id, owner_id, external_session_id, project_id, name,
			value, status, provenance, created_at, updated_at
		FROM session_records
		WHERE owner_id = ? AND project_id = ? AND external_session_id = ?
	`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, ownerID, projectID, externalSessionID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session record: %w", err)
	}
	return rec, nil
}

// Update replaces the mutable fields of an existing record
func (r *SessionRepository) Update(ctx context.Context, ownerID string, rec *session.Record) error {
	query := `
		UPDATE session_records
		SET value = ?, status = ?, provenance = ?, name = ?, updated_at = ?
		WHERE owner_id = ? AND external_session_id = ? AND project_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(rec.Value),
		rec.Status,
		rec.Provenance,
		nullString(rec.Name),
		rec.UpdatedAt,
		ownerID,
		rec.ExternalSessionID,
		rec.ProjectID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns all records for an owner, most recently updated first
func (r *SessionRepository) List(ctx context.Context, ownerID string) ([]session.Record, error) {
	query := `
		SELECT
			id, owner_id, external_session_id, project_id, name,
			value, status, provenance, created_at, updated_at
		FROM session_records
		WHERE owner_id = ?
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session records: %w", err)
	}
	defer rows.Close()

	var records []session.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session records: %w", err)
	}

	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*session.Record, error) {
	var rec session.Record
	var name sql.NullString
	var value string
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.ExternalSessionID,
		&rec.ProjectID,
		&name,
		&value,
		&rec.Status,
		&rec.Provenance,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if name.Valid {
		rec.Name = name.String
	}
	rec.Value = json.RawMessage(value)
	return &rec, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
