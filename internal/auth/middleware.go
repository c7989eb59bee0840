package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/pkg/errors"
)

type userKey struct{}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u *store.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the authenticated user, or nil when the request
// did not pass through [Middleware].
func FromContext(ctx context.Context) *store.User {
	u, _ := ctx.Value(userKey{}).(*store.User)
	return u
}

// Middleware authenticates requests with a Bearer token, loads the
// account, and injects it into the request context. Requests without
// valid credentials are answered with a 401 envelope; inactive accounts
// with a 400.
func Middleware(m *Manager, users store.Users) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, errors.New(errors.ErrCodeUnauthorized, "Not authenticated"))
				return
			}

			userID, err := m.Verify(token)
			if err != nil {
				writeError(w, err)
				return
			}

			user, err := users.ByID(r.Context(), userID)
			if err != nil {
				writeError(w, errors.New(errors.ErrCodeUnauthorized, "Could not validate credentials"))
				return
			}
			if !user.IsActive {
				writeError(w, errors.New(errors.ErrCodeInvalidInput, "Inactive user"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	token = strings.TrimSpace(token)
	if !ok || token == "" || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return token, true
}

// writeError answers with the standard JSON error envelope. 401s carry
// a WWW-Authenticate challenge.
func writeError(w http.ResponseWriter, err error) {
	status := errors.HTTPStatus(errors.GetCode(err))
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errors.EnvelopeFor(err))
}
