package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error) {
	args := m.Called(ctx, name, email, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) MarkEmailVerified(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

func newTestAuthService(repo AuthRepo, sender *MockSender) *AuthServiceImpl {
	return NewAuthService(repo, NewTokenService(testJWTConfig()), sender,
		"http://localhost:8000/api/v1/", 15*time.Minute, slog.Default())
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	req := types.RegisterRequest{Name: "dummy", Email: "Dummy@Example.com", Password: "password1"}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo, new(MockSender))
		created := &types.User{ID: uuid.New(), Name: "dummy", Email: "dummy@example.com", Role: "user"}

		mockRepo.On("CreateUser", mock.Anything, "dummy", "dummy@example.com",
			mock.MatchedBy(func(hash string) bool {
				return bcrypt.CompareHashAndPassword([]byte(hash), []byte("password1")) == nil
			})).Return(created, nil).Once()

		user, err := service.Register(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo, new(MockSender))

		mockRepo.On("CreateUser", mock.Anything, "dummy", "dummy@example.com", mock.AnythingOfType("string")).
			Return(nil, fmt.Errorf("failed to create user: %w", database.ErrDuplicate)).Once()

		_, err := service.Register(ctx, req)
		require.Error(t, err)
		assert.True(t, api.IsKind(err, api.KindBadRequest))
		assert.Equal(t, "Email already taken", api.PublicMessage(err))
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	stored := &types.User{ID: uuid.New(), Name: "dummy", Email: "dummy@example.com",
		PasswordHash: string(hash), Role: "user"}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo, new(MockSender))
		mockRepo.On("GetUserByEmail", mock.Anything, "dummy@example.com").Return(stored, nil).Once()

		result, err := service.Login(ctx, types.LoginRequest{Email: "dummy@example.com", Password: "password1"})
		require.NoError(t, err)
		assert.Equal(t, stored.ID, result.User.ID)
		assert.NotEmpty(t, result.Tokens.Access)
		assert.NotEmpty(t, result.Tokens.Refresh)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo, new(MockSender))
		mockRepo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, database.ErrNotFound).Once()

		_, err := service.Login(ctx, types.LoginRequest{Email: "nobody@example.com", Password: "password1"})
		assert.True(t, api.IsKind(err, api.KindUnauthorized))
		assert.Equal(t, "Incorrect email or password", api.PublicMessage(err))
	})

	t.Run("InvalidPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo, new(MockSender))
		mockRepo.On("GetUserByEmail", mock.Anything, "dummy@example.com").Return(stored, nil).Once()

		_, err := service.Login(ctx, types.LoginRequest{Email: "dummy@example.com", Password: "wrongpass1"})
		assert.True(t, api.IsKind(err, api.KindUnauthorized))
	})

	t.Run("RepositoryFailure", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestAuthService(mockRepo, new(MockSender))
		mockRepo.On("GetUserByEmail", mock.Anything, "dummy@example.com").Return(nil, errors.New("conn reset")).Once()

		_, err := service.Login(ctx, types.LoginRequest{Email: "dummy@example.com", Password: "password1"})
		assert.True(t, api.IsKind(err, api.KindInternal))
	})
}

func TestSendEmailVerification(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		sender := new(MockSender)
		service := newTestAuthService(new(MockAuthRepo), sender)
		sender.On("Send", mock.Anything, "dummy@example.com", "Verify Your Email Address",
			mock.MatchedBy(func(body string) bool {
				return assert.Contains(t, body, "http://localhost:8000/api/v1/auth/verification/email/confirm?token=") &&
					assert.Contains(t, body, "15 minutes")
			})).Return(nil).Once()

		require.NoError(t, service.SendEmailVerification(ctx, userID, "dummy@example.com"))
		sender.AssertExpectations(t)
	})

	t.Run("SendFailure", func(t *testing.T) {
		sender := new(MockSender)
		service := newTestAuthService(new(MockAuthRepo), sender)
		sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("smtp down")).Once()

		err := service.SendEmailVerification(ctx, userID, "dummy@example.com")
		assert.True(t, api.IsKind(err, api.KindInternal))
	})
}

func TestVerifyEmail(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	mockRepo := new(MockAuthRepo)
	service := newTestAuthService(mockRepo, new(MockSender))
	mockRepo.On("MarkEmailVerified", mock.Anything, userID).
		Return(&types.User{ID: userID, IsEmailVerified: true}, nil).Once()

	user, err := service.VerifyEmail(ctx, userID)
	require.NoError(t, err)
	assert.True(t, user.IsEmailVerified)
}

func TestHumanizeTTL(t *testing.T) {
	assert.Equal(t, "15 minutes", HumanizeTTL(15*time.Minute))
	assert.Equal(t, "1 hour", HumanizeTTL(time.Hour))
	assert.Equal(t, "30 minutes", HumanizeTTL(30*time.Minute))
	assert.Equal(t, "2 hours", HumanizeTTL(2*time.Hour))
}
