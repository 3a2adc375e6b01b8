package appMiddleware

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/google/uuid"
)

type contextKey string

const identityKey contextKey = "identity"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the authenticated caller attached to the request context by the auth gate.
type Identity struct {
	UserID          uuid.UUID
	Name            string
	Email           string
	Role            string
	IsEmailVerified bool
	// NewPasswordHash is only populated for reset-password tokens.
	NewPasswordHash string
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanAccess reports whether the identity may act on resources owned by ownerID.
func (i Identity) CanAccess(ownerID uuid.UUID) bool {
	return i.IsAdmin() || i.UserID == ownerID
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// ErrorWriter renders a failed check. The api package provides the JSON envelope implementation.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, message string)

// RequireRole rejects callers whose role is not in roles. It must run after the auth gate.
func RequireRole(logger *slog.Logger, writeError ErrorWriter, roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, ok := IdentityFromContext(ctx)
			if !ok {
				logger.ErrorContext(ctx, "Identity missing from context, auth gate not applied")
				writeError(w, r, http.StatusUnauthorized, "Please authenticate")
				return
			}
			if !slices.Contains(roles, id.Role) {
				logger.WarnContext(ctx, "Role check failed",
					slog.Any("allowed_roles", roles),
					slog.String("actual_role", id.Role),
					slog.String("user_id", id.UserID.String()))
				writeError(w, r, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
