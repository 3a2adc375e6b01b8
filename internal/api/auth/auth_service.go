package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/platform/mailer"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

type AuthService interface {
	Register(ctx context.Context, req types.RegisterRequest) (*types.User, error)
	Login(ctx context.Context, req types.LoginRequest) (*types.LoginResult, error)
	RefreshTokens(ctx context.Context, userID uuid.UUID) (*types.Tokens, error)
	SendEmailVerification(ctx context.Context, userID uuid.UUID, email string) error
	VerifyEmail(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type AuthServiceImpl struct {
	logger     *slog.Logger
	repo       AuthRepo
	tokens     *TokenService
	mail       mailer.Sender
	backendURL string
	verifyTTL  time.Duration
}

func NewAuthService(repo AuthRepo, tokens *TokenService, mail mailer.Sender, backendURL string, verifyTTL time.Duration, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:     logger,
		repo:       repo,
		tokens:     tokens,
		mail:       mail,
		backendURL: strings.TrimRight(backendURL, "/"),
		verifyTTL:  verifyTTL,
	}
}

func (s *AuthServiceImpl) Register(ctx context.Context, req types.RegisterRequest) (*types.User, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register")
	defer span.End()
	l := s.logger.With(slog.String("method", "Register"))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return nil, api.Internal("Failed to register user", fmt.Errorf("hash password: %w", err))
	}

	user, err := s.repo.CreateUser(ctx, req.Name, strings.ToLower(req.Email), string(hash))
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			l.InfoContext(ctx, "Registration with taken email")
			return nil, api.BadRequest("Email already taken")
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create user failed")
		return nil, api.Internal("Failed to register user", err)
	}

	l.InfoContext(ctx, "User registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResult, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login")
	defer span.End()
	l := s.logger.With(slog.String("method", "Login"))

	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.Unauthorized("Incorrect email or password")
		}
		l.ErrorContext(ctx, "Failed to load user", slog.Any("error", err))
		span.RecordError(err)
		return nil, api.Internal("Failed to login", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		l.InfoContext(ctx, "Password mismatch", slog.String("user_id", user.ID.String()))
		return nil, api.Unauthorized("Incorrect email or password")
	}

	tokens, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		span.RecordError(err)
		return nil, api.Internal("Failed to login", err)
	}
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	return &types.LoginResult{User: user, Tokens: tokens}, nil
}

func (s *AuthServiceImpl) RefreshTokens(ctx context.Context, userID uuid.UUID) (*types.Tokens, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.Unauthorized("Please authenticate")
		}
		return nil, api.Internal("Failed to refresh tokens", err)
	}
	tokens, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		return nil, api.Internal("Failed to refresh tokens", err)
	}
	return tokens, nil
}

func (s *AuthServiceImpl) SendEmailVerification(ctx context.Context, userID uuid.UUID, email string) error {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "SendEmailVerification", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "SendEmailVerification"), slog.String("user_id", userID.String()))

	token, err := s.tokens.GenerateVerifyEmailToken(userID, email)
	if err != nil {
		return api.Internal("Failed to send verification email", err)
	}
	link := fmt.Sprintf("%s/auth/verification/email/confirm?token=%s", s.backendURL, url.QueryEscape(token))
	body, err := mailer.VerifyEmailBody(link, HumanizeTTL(s.verifyTTL))
	if err != nil {
		return api.Internal("Failed to send verification email", err)
	}
	if err := s.mail.Send(ctx, email, "Verify Your Email Address", body); err != nil {
		l.ErrorContext(ctx, "Failed to send verification email", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "send mail failed")
		return api.Internal("Failed to send verification email", err)
	}
	l.InfoContext(ctx, "Verification email sent")
	return nil
}

func (s *AuthServiceImpl) VerifyEmail(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := s.repo.MarkEmailVerified(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.NotFound("User not found")
		}
		s.logger.ErrorContext(ctx, "Failed to verify email", slog.Any("error", err))
		return nil, api.Internal("Failed to verify email", err)
	}
	return user, nil
}

// HumanizeTTL renders a token lifetime for email copy, e.g. "15 minutes".
func HumanizeTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h > 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute:
		if m := int(d / time.Minute); m > 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	default:
		return d.String()
	}
}
