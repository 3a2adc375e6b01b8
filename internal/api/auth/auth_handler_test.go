package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	appMiddleware "github.com/FACorreiaa/trexense-api/app/middleware"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.LoginResult), args.Error(1)
}

func (m *MockAuthService) RefreshTokens(ctx context.Context, userID uuid.UUID) (*types.Tokens, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Tokens), args.Error(1)
}

func (m *MockAuthService) SendEmailVerification(ctx context.Context, userID uuid.UUID, email string) error {
	return m.Called(ctx, userID, email).Error(0)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func withIdentity(r *http.Request, id appMiddleware.Identity) *http.Request {
	return r.WithContext(appMiddleware.WithIdentity(r.Context(), id))
}

func TestHandlerRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewHandlerImpl(svc, slog.Default())
		userID := uuid.New()
		req := types.RegisterRequest{Name: "dummy", Email: "dummy@example.com", Password: "password1"}
		svc.On("Register", mock.Anything, req).
			Return(&types.User{ID: userID, Name: "dummy", Email: "dummy@example.com", PasswordHash: "secret"}, nil).Once()

		body := `{"name":"dummy","email":"dummy@example.com","password":"password1"}`
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"message":"Success"`)
		assert.Contains(t, rr.Body.String(), userID.String())
		assert.NotContains(t, rr.Body.String(), "secret")
		svc.AssertExpectations(t)
	})

	t.Run("WeakPassword", func(t *testing.T) {
		h := NewHandlerImpl(new(MockAuthService), slog.Default())
		body := `{"name":"dummy","email":"dummy@example.com","password":"short"}`
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "password")
	})

	t.Run("EmailTaken", func(t *testing.T) {
		svc := new(MockAuthService)
		h := NewHandlerImpl(svc, slog.Default())
		svc.On("Register", mock.Anything, mock.Anything).Return(nil, api.BadRequest("Email already taken")).Once()

		body := `{"name":"dummy","email":"dummy@example.com","password":"password1"}`
		rr := httptest.NewRecorder()
		h.Register(rr, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.JSONEq(t, `{"status":400,"message":"Email already taken"}`, rr.Body.String())
	})
}

func TestHandlerLogin(t *testing.T) {
	svc := new(MockAuthService)
	h := NewHandlerImpl(svc, slog.Default())
	svc.On("Login", mock.Anything, types.LoginRequest{Email: "dummy@example.com", Password: "password1"}).
		Return(&types.LoginResult{
			User:   &types.User{ID: uuid.New(), Name: "dummy"},
			Tokens: &types.Tokens{Access: "a-token", Refresh: "r-token"},
		}, nil).Once()

	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"dummy@example.com","password":"password1"}`)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"tokens":{"access":"a-token","refresh":"r-token"}`)
}

func TestHandlerRefreshToken(t *testing.T) {
	svc := new(MockAuthService)
	h := NewHandlerImpl(svc, slog.Default())
	userID := uuid.New()
	svc.On("RefreshTokens", mock.Anything, userID).Return(&types.Tokens{Access: "a", Refresh: "r"}, nil).Once()

	rr := httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/auth/token/refresh", nil),
		appMiddleware.Identity{UserID: userID})
	h.RefreshToken(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":200,"message":"Success","tokens":{"access":"a","refresh":"r"}}`, rr.Body.String())
}

func TestHandlerSendEmailVerification(t *testing.T) {
	svc := new(MockAuthService)
	h := NewHandlerImpl(svc, slog.Default())
	userID := uuid.New()
	svc.On("SendEmailVerification", mock.Anything, userID, "dummy@example.com").Return(nil).Once()

	rr := httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodPost, "/auth/verification/email/send", nil),
		appMiddleware.Identity{UserID: userID, Email: "dummy@example.com"})
	h.SendEmailVerification(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Verification email sent")
}

func TestHandlerVerifyEmail(t *testing.T) {
	svc := new(MockAuthService)
	h := NewHandlerImpl(svc, slog.Default())
	userID := uuid.New()
	svc.On("VerifyEmail", mock.Anything, userID).Return(&types.User{ID: userID, Name: "dummy"}, nil).Once()

	rr := httptest.NewRecorder()
	req := withIdentity(httptest.NewRequest(http.MethodGet, "/auth/verification/email/confirm?token=x", nil),
		appMiddleware.Identity{UserID: userID})
	h.VerifyEmail(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Thank you, dummy.")
}
