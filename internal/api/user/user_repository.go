package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/internal/api/auth"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user data persistence.
type UserRepo interface {
	// GetUserByID returns database.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	// UpdateUser applies the non-nil fields. Changing the email resets verification.
	UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) (*types.User, error)
	UpdateProfilePicture(ctx context.Context, userID uuid.UUID, url string) (*types.User, error)
	GetUserActivity(ctx context.Context, userID uuid.UUID) (*types.UserActivity, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewPostgresUserRepo(pgpool database.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	u, err := auth.ScanUser(r.pgpool.QueryRow(ctx,
		`SELECT `+auth.UserColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}
	return u, nil
}

func (r *PostgresUserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) (*types.User, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateUser"), slog.String("userID", userID.String()))

	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argID))
		args = append(args, *params.Name)
		argID++
		span.SetAttributes(attribute.Bool("update.name", true))
	}
	if params.Email != nil {
		setClauses = append(setClauses, fmt.Sprintf("email = $%d", argID), "is_email_verified = FALSE")
		args = append(args, *params.Email)
		argID++
		span.SetAttributes(attribute.Bool("update.email", true))
	}

	if len(setClauses) == 0 {
		l.DebugContext(ctx, "UpdateUser called with no fields to update")
		return r.GetUserByID(ctx, userID)
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argID))
	args = append(args, time.Now())
	argID++
	args = append(args, userID)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, auth.UserColumns)

	u, err := auth.ScanUser(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	u, err := auth.ScanUser(r.pgpool.QueryRow(ctx,
		`DELETE FROM users WHERE id = $1 RETURNING `+auth.UserColumns, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to delete user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) (*types.User, error) {
	u, err := auth.ScanUser(r.pgpool.QueryRow(ctx, `
		UPDATE users SET password_hash = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+auth.UserColumns, passwordHash, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to update password: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) UpdateProfilePicture(ctx context.Context, userID uuid.UUID, url string) (*types.User, error) {
	u, err := auth.ScanUser(r.pgpool.QueryRow(ctx, `
		UPDATE users SET profile_picture = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+auth.UserColumns, url, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to update profile picture: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) GetUserActivity(ctx context.Context, userID uuid.UUID) (*types.UserActivity, error) {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "GetUserActivity", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
	))
	defer span.End()

	activity := &types.UserActivity{ID: userID, Clicks: []types.HotelRef{}, Bookmarks: []types.HotelRef{}}
	err := r.pgpool.QueryRow(ctx, `SELECT name FROM users WHERE id = $1`, userID).Scan(&activity.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for activity: %w", database.Translate(err))
	}

	if activity.Clicks, err = r.hotelRefs(ctx, `SELECT hotel_id FROM user_hotel_clicks WHERE user_id = $1 ORDER BY created_at`, userID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load clicks: %w", err)
	}
	if activity.Bookmarks, err = r.hotelRefs(ctx, `SELECT hotel_id FROM user_hotel_bookmarks WHERE user_id = $1 ORDER BY created_at`, userID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	return activity, nil
}

func (r *PostgresUserRepo) hotelRefs(ctx context.Context, query string, userID uuid.UUID) ([]types.HotelRef, error) {
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := []types.HotelRef{}
	for rows.Next() {
		var ref types.HotelRef
		if err := rows.Scan(&ref.HotelID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
