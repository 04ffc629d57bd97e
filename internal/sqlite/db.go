package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. It runs on every server startup, so all
// DDL must be idempotent against an existing database file.
func (db *DB) RunMigrations() error {
	migration := `
-- Session records: one row per logical conversation per project namespace.
-- Records are created by the sync agent and never deleted by it.
CREATE TABLE IF NOT EXISTS session_records (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    external_session_id TEXT NOT NULL,
    project_id TEXT NOT NULL,
    name TEXT,
    value TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'ACTIVE',
    provenance TEXT NOT NULL CHECK(provenance IN (
        'localStorage_sync', 'manual', 'migrated_from_json', 'migrated_from_legacy_json'
    )),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(owner_id, external_session_id, project_id)
);
CREATE INDEX IF NOT EXISTS idx_owner_sessions ON session_records(owner_id);
CREATE INDEX IF NOT EXISTS idx_owner_project_sessions ON session_records(owner_id, project_id);

-- Feedback submitted for sessions. session_id is the external session ID,
-- kept loose on purpose: feedback may arrive for sessions synced elsewhere.
CREATE TABLE IF NOT EXISTS session_feedback (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    session_id TEXT NOT NULL,
    rating TEXT NOT NULL CHECK(rating IN ('positive', 'negative')),
    comment TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_owner_feedback ON session_feedback(owner_id);
CREATE INDEX IF NOT EXISTS idx_session_feedback ON session_feedback(session_id);

-- API keys for authentication
CREATE TABLE IF NOT EXISTS api_keys (
    key_hash TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    last_used TIMESTAMP,
    description TEXT
);
CREATE INDEX IF NOT EXISTS idx_owner_keys ON api_keys(owner_id);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
