package router

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/config"
	"github.com/FACorreiaa/trexense-api/internal/api/auth"
	"github.com/FACorreiaa/trexense-api/internal/api/hotel"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

type userStore map[uuid.UUID]*types.User

func (s userStore) GetUserByID(_ context.Context, id uuid.UUID) (*types.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

// catalog answers only the public listing; any other call panics on the nil interface.
type catalog struct {
	hotel.Service
}

func (catalog) GetAllHotels(context.Context) ([]types.HotelDetail, error) {
	return []types.HotelDetail{{ID: uuid.New(), Name: "Hotel Tentrem"}}, nil
}

func setup(t *testing.T) (http.Handler, *auth.TokenService, userStore) {
	t.Helper()
	logger := slog.Default()
	tokens := auth.NewTokenService(config.JWTConfig{
		SecretKey:       "router-secret",
		Issuer:          "router-test",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
	})
	users := userStore{}
	return SetupRouter(&Config{
		Logger:       logger,
		Gate:         auth.NewGate(tokens, users, logger),
		HotelHandler: hotel.NewHandlerImpl(catalog{}, logger),
	}), tokens, users
}

func bearer(t *testing.T, tokens *auth.TokenService, u *types.User) string {
	t.Helper()
	pair, err := tokens.GenerateAuthTokens(u)
	require.NoError(t, err)
	return "Bearer " + pair.Access
}

func TestPing(t *testing.T) {
	h, _, _ := setup(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pong", rr.Body.String())
}

func TestTestRoutes(t *testing.T) {
	h, tokens, users := setup(t)
	alice := &types.User{ID: uuid.New(), Name: "Alice", Role: "user"}
	root := &types.User{ID: uuid.New(), Name: "Root", Role: "admin"}
	users[alice.ID] = alice
	users[root.ID] = root

	tests := []struct {
		name   string
		path   string
		auth   string
		status int
		body   string
	}{
		{"AccessGreets", "/api/v1/test/access", bearer(t, tokens, alice), http.StatusOK, "Hello Alice"},
		{"AccessWithoutToken", "/api/v1/test/access", "", http.StatusUnauthorized, "Please authenticate"},
		{"AdminAllowed", "/api/v1/test/admin", bearer(t, tokens, root), http.StatusOK, "Success"},
		{"AdminForbidden", "/api/v1/test/admin", bearer(t, tokens, alice), http.StatusForbidden, "Forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.body)
		})
	}
}

func TestProtectedGroupsRequireToken(t *testing.T) {
	h, _, _ := setup(t)
	for _, target := range []string{
		"/api/v1/plans",
		"/api/v1/hotels/bookmarks",
		"/api/v1/ads/banners",
		"/api/v1/user/activity",
	} {
		t.Run(target, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestHotelCatalogIsPublic(t *testing.T) {
	h, _, _ := setup(t)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/hotels", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Hotel Tentrem")
}
