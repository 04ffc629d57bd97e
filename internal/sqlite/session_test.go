package sqlite

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/luminacoach/sessionsync/internal/domain/session"
	"github.com/luminacoach/sessionsync/internal/repository"
	"github.com/stretchr/testify/require"
)

func newRecord(id, owner, externalID, projectID, value string) *session.Record {
	now := time.Now()
	return &session.Record{
		ID:                id,
		OwnerID:           owner,
		ExternalSessionID: externalID,
		ProjectID:         projectID,
		Value:             json.RawMessage(value),
		Status:            session.StatusActive,
		Provenance:        session.ProvenanceLocalSync,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func TestSessionRepository_UpsertGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	created, err := repo.Upsert(ctx, "owner1", newRecord("rec1", "owner1", "u1", "p1", `{"userID":"u1","turns":[{"t":1}]}`))
	require.NoError(t, err)
	require.True(t, created)

	loaded, err := repo.Get(ctx, "owner1", "p1", "u1")
	require.NoError(t, err)
	require.Equal(t, "rec1", loaded.ID)
	require.Equal(t, "owner1", loaded.OwnerID)
	require.Equal(t, session.StatusActive, loaded.Status)
	require.Equal(t, session.ProvenanceLocalSync, loaded.Provenance)
	require.JSONEq(t, `{"userID":"u1","turns":[{"t":1}]}`, string(loaded.Value))
}

func TestSessionRepository_UpsertDuplicateConvertsToUpdate(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	created, err := repo.Upsert(ctx, "owner1", newRecord("rec1", "owner1", "u1", "p1", `{"userID":"u1","turns":[]}`))
	require.NoError(t, err)
	require.True(t, created)

	// Second register for the same tuple with a different payload: the unique
	// index converts it to an update, never a second row.
	second := newRecord("rec2", "owner1", "u1", "p1", `{"userID":"u1","turns":[{"t":1},{"t":2}]}`)
	second.Status = session.StatusChatting
	created, err = repo.Upsert(ctx, "owner1", second)
	require.NoError(t, err)
	require.False(t, created)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM session_records`).Scan(&count))
	require.Equal(t, 1, count)

	loaded, err := repo.Get(ctx, "owner1", "p1", "u1")
	require.NoError(t, err)
	require.Equal(t, "rec1", loaded.ID, "original row survives the race")
	require.Equal(t, session.StatusChatting, loaded.Status)
	require.JSONEq(t, `{"userID":"u1","turns":[{"t":1},{"t":2}]}`, string(loaded.Value))
}

func TestSessionRepository_UpsertKeepsExistingName(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	first := newRecord("rec1", "owner1", "u1", "p1", `{"userID":"u1"}`)
	first.Name = "Morning check-in"
	_, err := repo.Upsert(ctx, "owner1", first)
	require.NoError(t, err)

	// A nameless duplicate register must not blank the name.
	_, err = repo.Upsert(ctx, "owner1", newRecord("rec2", "owner1", "u1", "p1", `{"userID":"u1"}`))
	require.NoError(t, err)

	loaded, err := repo.Get(ctx, "owner1", "p1", "u1")
	require.NoError(t, err)
	require.Equal(t, "Morning check-in", loaded.Name)
}

func TestSessionRepository_Exists(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	exists, err := repo.Exists(ctx, "owner1", "p1", "u1")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = repo.Upsert(ctx, "owner1", newRecord("rec1", "owner1", "u1", "p1", `{"userID":"u1"}`))
	require.NoError(t, err)

	exists, err = repo.Exists(ctx, "owner1", "p1", "u1")
	require.NoError(t, err)
	require.True(t, exists)

	// Owner scoping: another owner does not see the record
	exists, err = repo.Exists(ctx, "owner2", "p1", "u1")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSessionRepository_Update(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	rec := newRecord("rec1", "owner1", "u1", "p1", `{"userID":"u1","turns":[]}`)
	_, err := repo.Upsert(ctx, "owner1", rec)
	require.NoError(t, err)

	rec.Value = json.RawMessage(`{"userID":"u1","turns":[{"t":1}],"status":"CHATTING"}`)
	rec.Status = session.StatusChatting
	rec.UpdatedAt = time.Now()
	require.NoError(t, repo.Update(ctx, "owner1", rec))

	loaded, err := repo.Get(ctx, "owner1", "p1", "u1")
	require.NoError(t, err)
	require.Equal(t, session.StatusChatting, loaded.Status)

	missing := newRecord("rec9", "owner1", "ghost", "p1", `{"userID":"ghost"}`)
	err = repo.Update(ctx, "owner1", missing)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionRepository_List(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewSessionRepository(db)

	a := newRecord("rec1", "owner1", "u1", "p1", `{"userID":"u1"}`)
	a.UpdatedAt = time.Now().Add(-time.Hour)
	a.CreatedAt = a.UpdatedAt
	_, err := repo.Upsert(ctx, "owner1", a)
	require.NoError(t, err)

	b := newRecord("rec2", "owner1", "u2", "p1", `{"userID":"u2"}`)
	_, err = repo.Upsert(ctx, "owner1", b)
	require.NoError(t, err)

	_, err = repo.Upsert(ctx, "owner2", newRecord("rec3", "owner2", "u3", "p1", `{"userID":"u3"}`))
	require.NoError(t, err)

	records, err := repo.List(ctx, "owner1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "u2", records[0].ExternalSessionID, "most recently updated first")
	require.Equal(t, "u1", records[1].ExternalSessionID)
}
