package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	database "github.com/FACorreiaa/trexense-api/app/db"
	appMiddleware "github.com/FACorreiaa/trexense-api/app/middleware"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/platform/mailer"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

// TokenSource says where the gate looks for the token.
type TokenSource int

const (
	FromBearer TokenSource = iota
	FromQuery
)

// RenderMode controls how a rejected request is answered.
type RenderMode int

const (
	RenderJSON RenderMode = iota
	RenderHTML
)

// Kind describes one flavour of token check.
type Kind struct {
	Type   types.TokenType
	Source TokenSource
	Render RenderMode
}

var (
	Access        = Kind{Type: types.TokenAccess, Source: FromBearer, Render: RenderJSON}
	Refresh       = Kind{Type: types.TokenRefresh, Source: FromBearer, Render: RenderJSON}
	VerifyEmail   = Kind{Type: types.TokenVerifyEmail, Source: FromQuery, Render: RenderHTML}
	ResetPassword = Kind{Type: types.TokenResetPassword, Source: FromQuery, Render: RenderHTML}
)

// UserLoader resolves the user a token points at.
type UserLoader interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

// Gate validates tokens and attaches the caller's Identity to the request context.
// Roles always come from the stored user, never from the token.
type Gate struct {
	logger *slog.Logger
	tokens *TokenService
	users  UserLoader
}

func NewGate(tokens *TokenService, users UserLoader, logger *slog.Logger) *Gate {
	return &Gate{logger: logger, tokens: tokens, users: users}
}

func (g *Gate) Require(kind Kind) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := g.logger.With(slog.String("middleware", "Require"), slog.String("token_type", string(kind.Type)))

			raw, ok := extractToken(r, kind.Source)
			if !ok {
				l.DebugContext(ctx, "Token missing")
				g.reject(w, r, kind, api.Unauthorized("Please authenticate"))
				return
			}

			claims, err := g.tokens.Parse(raw, kind.Type)
			if err != nil {
				l.WarnContext(ctx, "Token rejected", slog.Any("error", err))
				g.reject(w, r, kind, err)
				return
			}

			userID := uuid.MustParse(claims.UserID)
			user, err := g.users.GetUserByID(ctx, userID)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					l.WarnContext(ctx, "Token subject no longer exists", slog.String("user_id", claims.UserID))
					g.reject(w, r, kind, api.Unauthorized("Please authenticate"))
					return
				}
				l.ErrorContext(ctx, "Failed to load token subject", slog.Any("error", err))
				g.reject(w, r, kind, api.Internal("Failed to authenticate", err))
				return
			}

			id := appMiddleware.Identity{
				UserID:          user.ID,
				Name:            user.Name,
				Email:           user.Email,
				Role:            user.Role,
				IsEmailVerified: user.IsEmailVerified,
			}
			if kind.Type == types.TokenResetPassword {
				id.NewPasswordHash = claims.NewPassword
			}
			ctx = appMiddleware.WithIdentity(ctx, id)
			l.DebugContext(ctx, "Authenticated", slog.String("user_id", user.ID.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, kind Kind, err error) {
	status := api.KindOf(err).HTTPStatus()
	if kind.Render == RenderHTML {
		api.WriteHTML(w, status, mailer.FailurePage("Link invalid", api.PublicMessage(err)+". Please request a new link."))
		return
	}
	api.ErrorResponse(w, r, status, api.PublicMessage(err))
}

func extractToken(r *http.Request, source TokenSource) (string, bool) {
	if source == FromQuery {
		t := r.URL.Query().Get("token")
		return t, t != ""
	}
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// CurrentIdentity is a handler-side shortcut; a missing identity means the route forgot its gate.
func CurrentIdentity(r *http.Request) (appMiddleware.Identity, error) {
	id, ok := appMiddleware.IdentityFromContext(r.Context())
	if !ok {
		return appMiddleware.Identity{}, api.Unauthorized("Please authenticate")
	}
	return id, nil
}
