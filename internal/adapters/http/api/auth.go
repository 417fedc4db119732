package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/hackreg/internal/adapters/repository"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/pkg/logger"
)

// AdminKeyUserID identifies requests authenticated with the admin key.
const AdminKeyUserID = "admin-key"

// UserLoader resolves session user ids.
type UserLoader interface {
	User(ctx context.Context, id string) (*model.User, error)
}

// Authenticator attaches the requesting user to the context from either a
// session cookie or an "Authorization: Bearer <admin key>" header.
type Authenticator struct {
	users    UserLoader
	sessions *Sessions
	adminKey string
	logger   logger.Logger
}

// NewAuthenticator creates an Authenticator. An empty adminKey disables
// bearer authentication.
func NewAuthenticator(users UserLoader, sessions *Sessions, adminKey string, log logger.Logger) *Authenticator {
	return &Authenticator{users: users, sessions: sessions, adminKey: adminKey, logger: log}
}

// Sessions returns the cookie codec.
func (a *Authenticator) Sessions() *Sessions { return a.sessions }

type userKey struct{}

// WithUser stores u on ctx.
func WithUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey{}).(*model.User)
	return u, ok && u != nil
}

// Middleware resolves the requesting user. Requests without credentials
// pass through unauthenticated.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.bearerAdmin(r) {
			admin := &model.User{ID: AdminKeyUserID, Name: "Admin key", Admin: true}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), admin)))
			return
		}
		uid, ok := a.sessions.UserID(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		u, err := a.users.User(r.Context(), uid)
		switch {
		case err == nil:
			r = r.WithContext(WithUser(r.Context(), u))
		case errors.Is(err, repository.ErrNotFound):
			a.sessions.Clear(w)
		default:
			a.logger.Warn(r.Context(), "load session user", logger.Error(err))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) bearerAdmin(r *http.Request) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && a.VerifyKey(token)
}

// VerifyKey reports whether key is the configured admin key. It is always
// false when no key is configured.
func (a *Authenticator) VerifyKey(key string) bool {
	if a.adminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(a.adminKey)) == 1
}

// RequireUser rejects unauthenticated requests with 401.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects unauthenticated requests with 401 and non-admins
// with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
			return
		}
		if !u.Admin {
			writeError(w, http.StatusForbidden, "forbidden", ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
