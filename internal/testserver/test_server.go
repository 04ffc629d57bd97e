package testserver

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/luminacoach/sessionsync/internal/domain/feedback"
	"github.com/luminacoach/sessionsync/internal/domain/session"
	"github.com/luminacoach/sessionsync/internal/sqlite"
	"github.com/luminacoach/sessionsync/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer runs a full session store (in-memory sqlite + HTTP transport)
// for client and integration tests.
type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Token   string
	OwnerID string
}

func New(t *testing.T, token, ownerID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	sessionRepo := sqlite.NewSessionRepository(db)
	feedbackRepo := sqlite.NewFeedbackRepository(db)

	sessionSvc := session.NewService(sessionRepo, nil)
	feedbackSvc := feedback.NewService(feedbackRepo, nil)

	resolver := &apiKeyResolver{db: db}
	server := httptest.NewServer(transport.NewServer(sessionSvc, feedbackSvc, transport.AuthMiddleware(resolver), nil))

	ts := &TestServer{
		Server:  server,
		DB:      db,
		Token:   token,
		OwnerID: ownerID,
	}

	require.NoError(t, ts.AddAPIKey(token, ownerID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, ownerID string) error {
	hash := hashToken(token)
	_, err := ts.DB.Exec(
		`INSERT INTO api_keys (key_hash, owner_id, created_at) VALUES (?, ?, ?)`,
		hash, ownerID, time.Now(),
	)
	return err
}

type apiKeyResolver struct {
	db *sqlite.DB
}

func (r *apiKeyResolver) ResolveOwner(ctx context.Context, token string) (string, error) {
	hash := hashToken(token)
	var ownerID string
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM api_keys WHERE key_hash = ?`, hash).Scan(&ownerID)
	switch {
	case err == sql.ErrNoRows:
		return "", transport.ErrUnauthorized
	case err != nil:
		return "", fmt.Errorf("looking up api key: %w", err)
	case ownerID == "":
		return "", transport.ErrUnauthorized
	}
	return ownerID, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
