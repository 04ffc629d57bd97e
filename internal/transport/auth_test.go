package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/luminacoach/sessionsync/internal/transport"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	owners map[string]string
	err    error
}

func (r *stubResolver) ResolveOwner(_ context.Context, token string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	if ownerID, ok := r.owners[token]; ok {
		return ownerID, nil
	}
	return "", transport.ErrUnauthorized
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &stubResolver{owners: map[string]string{"good-token": "owner1"}}

	var gotOwner string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOwner, _ = transport.OwnerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := transport.AuthMiddleware(resolver)(next)

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/check", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/check", nil)
		req.Header.Set("Authorization", "Bearer bad-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token resolves owner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/sessions/check", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "owner1", gotOwner)
	})
}

// A resolver infrastructure failure must not be reported as invalid
// credentials: a 401 would send every agent into its auth cooldown.
func TestAuthMiddlewareResolverFailure(t *testing.T) {
	resolver := &stubResolver{err: errors.New("database is locked")}
	handler := transport.AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/check", nil)
	req.Header.Set("Authorization", "Bearer any-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
