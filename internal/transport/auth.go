package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized is the resolver's verdict for a token it does not know.
// Anything else a resolver returns is an infrastructure failure, not a
// credential problem.
var ErrUnauthorized = errors.New("unauthorized")

type ownerKey struct{}

// OwnerResolver resolves an owner ID from a bearer token. Unknown tokens
// return ErrUnauthorized.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, token string) (string, error)
}

// OwnerFromContext returns the owner ID from context, if present.
func OwnerFromContext(ctx context.Context) (string, bool) {
	ownerID, ok := ctx.Value(ownerKey{}).(string)
	return ownerID, ok
}

// AuthMiddleware enforces bearer token authentication. A resolver failure
// that is not ErrUnauthorized must not read as "invalid credentials" to the
// agent, or it would enter its auth cooldown over a server-side outage.
func AuthMiddleware(resolver OwnerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			ownerID, err := resolver.ResolveOwner(r.Context(), token)
			switch {
			case errors.Is(err, ErrUnauthorized) || (err == nil && ownerID == ""):
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			case err != nil:
				http.Error(w, "authorization unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey{}, ownerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
