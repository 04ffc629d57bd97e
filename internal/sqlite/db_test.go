package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"session_records",
		"session_feedback",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}
}

// TestMigrationsSurviveRestart verifies that reopening an existing database
// file and running migrations again, as the server does on every startup,
// neither fails nor loses data.
func TestMigrationsSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessionsync.db")

	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	_, err = db.Exec(
		`INSERT INTO session_records (id, owner_id, external_session_id, project_id, value, status, provenance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"rec1", "owner1", "u1", "p1", `{"userID":"u1"}`, "ACTIVE", "localStorage_sync")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.RunMigrations(), "startup migrations must be idempotent")

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM session_records`).Scan(&count))
	require.Equal(t, 1, count, "restart must not disturb existing rows")
}

// TestSessionRecordsTable verifies the composite uniqueness constraint
func TestSessionRecordsTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO session_records (id, owner_id, external_session_id, project_id, value, status, provenance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"rec1", "owner1", "u1", "p1", `{"userID":"u1"}`, "ACTIVE", "localStorage_sync")
	require.NoError(t, err)

	// Same conversation, same owner, same project: rejected by the unique index
	_, err = db.ExecContext(ctx,
		`INSERT INTO session_records (id, owner_id, external_session_id, project_id, value, status, provenance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"rec2", "owner1", "u1", "p1", `{"userID":"u1"}`, "ACTIVE", "localStorage_sync")
	require.Error(t, err, "duplicate tuple should be rejected")
	require.True(t, isUniqueViolation(err))

	// Same conversation under a different project namespace is a distinct row
	_, err = db.ExecContext(ctx,
		`INSERT INTO session_records (id, owner_id, external_session_id, project_id, value, status, provenance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"rec3", "owner1", "u1", "p2", `{"userID":"u1"}`, "ACTIVE", "localStorage_sync")
	require.NoError(t, err)

	// Unknown provenance is rejected
	_, err = db.ExecContext(ctx,
		`INSERT INTO session_records (id, owner_id, external_session_id, project_id, value, status, provenance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		"rec4", "owner1", "u2", "p1", `{"userID":"u2"}`, "ACTIVE", "guesswork")
	require.Error(t, err, "should fail with invalid provenance")
}

// TestSessionFeedbackTable verifies the rating constraint
func TestSessionFeedbackTable(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO session_feedback (id, owner_id, session_id, rating, comment)
		 VALUES (?, ?, ?, ?, ?)`,
		"f1", "owner1", "u1", "positive", "helpful session")
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO session_feedback (id, owner_id, session_id, rating)
		 VALUES (?, ?, ?, ?)`,
		"f2", "owner1", "u1", "lukewarm")
	require.Error(t, err, "should fail with invalid rating")
}
