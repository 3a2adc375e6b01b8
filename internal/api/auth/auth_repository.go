package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo is the persistence the auth flows need.
type AuthRepo interface {
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	// CreateUser returns database.ErrDuplicate when the email is taken.
	CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error)
	MarkEmailVerified(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresAuthRepo(pgpool database.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const UserColumns = `id, name, email, password_hash, role, is_email_verified, profile_picture, created_at, updated_at`

func ScanUser(row database.RowScanner) (*types.User, error) {
	var u types.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
		&u.IsEmailVerified, &u.ProfilePicture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, database.Translate(err)
	}
	return &u, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	u, err := ScanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+UserColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	u, err := ScanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+UserColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return u, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, name, email, passwordHash string) (*types.User, error) {
	u, err := ScanUser(r.pgpool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+UserColumns,
		uuid.New(), name, email, passwordHash))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *PostgresAuthRepo) MarkEmailVerified(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	u, err := ScanUser(r.pgpool.QueryRow(ctx, `
		UPDATE users SET is_email_verified = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+UserColumns, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to mark email verified: %w", err)
	}
	return u, nil
}
