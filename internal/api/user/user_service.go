package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
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
	appMiddleware "github.com/FACorreiaa/trexense-api/app/middleware"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/api/auth"
	"github.com/FACorreiaa/trexense-api/internal/platform/mailer"
	"github.com/FACorreiaa/trexense-api/internal/platform/storage"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService covers account management. Every method taking a caller
// identity enforces self-or-admin access.
type UserService interface {
	GetUser(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID) (*types.User, error)
	UpdateUser(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error)
	DeleteUser(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID) (*types.User, error)
	RequestResetPassword(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID, newPassword string) error
	ResetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) (*types.User, error)
	UserActivity(ctx context.Context, userID uuid.UUID) (*types.UserActivity, error)
	ChangeProfilePicture(ctx context.Context, userID uuid.UUID, image []byte) (*types.User, error)
}

type UserServiceImpl struct {
	logger     *slog.Logger
	repo       UserRepo
	tokens     *auth.TokenService
	mail       mailer.Sender
	uploader   storage.Uploader
	backendURL string
	resetTTL   time.Duration
	now        func() time.Time
}

func NewUserService(repo UserRepo, tokens *auth.TokenService, mail mailer.Sender, uploader storage.Uploader,
	backendURL string, resetTTL time.Duration, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:     logger,
		repo:       repo,
		tokens:     tokens,
		mail:       mail,
		uploader:   uploader,
		backendURL: strings.TrimRight(backendURL, "/"),
		resetTTL:   resetTTL,
		now:        time.Now,
	}
}

func authorize(caller appMiddleware.Identity, userID uuid.UUID) error {
	if !caller.CanAccess(userID) {
		return api.Forbidden("Forbidden")
	}
	return nil
}

func (s *UserServiceImpl) load(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.NotFound("User not found")
		}
		return nil, api.Internal("Failed to load user", err)
	}
	return user, nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID) (*types.User, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}
	return s.load(ctx, userID)
}

func (s *UserServiceImpl) UpdateUser(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateUser", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "UpdateUser"), slog.String("user_id", userID.String()))

	if err := authorize(caller, userID); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}
	if params.Email != nil {
		lower := strings.ToLower(*params.Email)
		params.Email = &lower
	}

	user, err := s.repo.UpdateUser(ctx, userID, params)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, api.BadRequest("Email already taken")
		}
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, api.Internal("Failed to update user", err)
	}
	l.InfoContext(ctx, "User updated", slog.Bool("email_changed", params.Email != nil))
	return user, nil
}

func (s *UserServiceImpl) DeleteUser(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID) (*types.User, error) {
	if err := authorize(caller, userID); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.repo.DeleteUser(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		return nil, api.Internal("Failed to delete user", err)
	}
	s.logger.InfoContext(ctx, "User deleted", slog.String("user_id", userID.String()))
	return user, nil
}

// RequestResetPassword hashes the new password now and carries the hash in
// the emailed token; nothing changes until the link is followed.
func (s *UserServiceImpl) RequestResetPassword(ctx context.Context, caller appMiddleware.Identity, userID uuid.UUID, newPassword string) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "RequestResetPassword")
	defer span.End()
	l := s.logger.With(slog.String("method", "RequestResetPassword"), slog.String("user_id", userID.String()))

	if err := authorize(caller, userID); err != nil {
		return err
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return api.Internal("Failed to request password reset", fmt.Errorf("hash password: %w", err))
	}
	token, err := s.tokens.GenerateResetPasswordToken(user.ID, string(hash))
	if err != nil {
		return api.Internal("Failed to request password reset", err)
	}

	link := fmt.Sprintf("%s/user/reset-password/confirm?token=%s", s.backendURL, url.QueryEscape(token))
	body, err := mailer.ResetPasswordBody(link, auth.HumanizeTTL(s.resetTTL))
	if err != nil {
		return api.Internal("Failed to request password reset", err)
	}
	if err := s.mail.Send(ctx, user.Email, "Reset Your Password", body); err != nil {
		l.ErrorContext(ctx, "Failed to send reset email", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "send mail failed")
		return api.Internal("Failed to send reset password email", err)
	}
	l.InfoContext(ctx, "Password reset link sent")
	return nil
}

func (s *UserServiceImpl) ResetPassword(ctx context.Context, userID uuid.UUID, passwordHash string) (*types.User, error) {
	if passwordHash == "" {
		return nil, api.BadRequest("Reset token carries no password")
	}
	if _, err := s.load(ctx, userID); err != nil {
		return nil, err
	}
	user, err := s.repo.UpdatePassword(ctx, userID, passwordHash)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to reset password", slog.Any("error", err))
		return nil, api.Internal("Failed to reset password", err)
	}
	return user, nil
}

func (s *UserServiceImpl) UserActivity(ctx context.Context, userID uuid.UUID) (*types.UserActivity, error) {
	activity, err := s.repo.GetUserActivity(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.NotFound("User not found")
		}
		return nil, api.Internal("Failed to load user activity", err)
	}
	return activity, nil
}

func (s *UserServiceImpl) ChangeProfilePicture(ctx context.Context, userID uuid.UUID, image []byte) (*types.User, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "ChangeProfilePicture")
	defer span.End()
	l := s.logger.With(slog.String("method", "ChangeProfilePicture"), slog.String("user_id", userID.String()))

	object := storage.ObjectName("profile", s.now())
	imageURL, err := s.uploader.Upload(ctx, object, image, http.DetectContentType(image),
		map[string]string{"type": "profile-image"})
	if err != nil {
		l.ErrorContext(ctx, "Profile picture upload failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload failed")
		return nil, api.Internal("Failed to upload image", err)
	}

	user, err := s.repo.UpdateProfilePicture(ctx, userID, imageURL)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.NotFound("User not found")
		}
		return nil, api.Internal("Failed to update profile picture", err)
	}
	l.InfoContext(ctx, "Profile picture changed", slog.String("object", object))
	return user, nil
}
