package ads

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
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CreateBanner(ctx context.Context, banner types.BannerAd) error
	GetBanner(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error)
	// PurgeExpired deletes banners whose validity ended before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
	CountBanners(ctx context.Context, paidOnly bool) (int64, error)
	ListBanners(ctx context.Context, paidOnly bool, limit, offset int) ([]types.BannerAd, error)
	UpdateBanner(ctx context.Context, bannerID uuid.UUID, params types.UpdateBannerRequest, imageURL *string) (*types.BannerAd, error)
	DeleteBanner(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error)
	MarkPaid(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error)
}

type RepositoryImpl struct {
	logger *slog.Logger
	pgpool database.Pool
}

func NewRepository(pgpool database.Pool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgpool,
	}
}

const bannerColumns = `id, user_id, title, description, start_date, target_url, banner_duration, cost,
	location, image_url, is_paid, valid_until, created_at`

func scanBanner(row database.RowScanner) (*types.BannerAd, error) {
	var b types.BannerAd
	if err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Description, &b.StartDate, &b.TargetURL,
		&b.BannerDuration, &b.Cost, &b.Location, &b.ImageURL, &b.IsPaid, &b.ValidUntil, &b.CreatedAt); err != nil {
		return nil, database.Translate(err)
	}
	return &b, nil
}

func (r *RepositoryImpl) CreateBanner(ctx context.Context, b types.BannerAd) error {
	ctx, span := otel.Tracer("AdsRepo").Start(ctx, "CreateBanner", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "banner_ads"),
	))
	defer span.End()

	_, err := r.pgpool.Exec(ctx, `
		INSERT INTO banner_ads (`+bannerColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		b.ID, b.UserID, b.Title, b.Description, b.StartDate, b.TargetURL, b.BannerDuration, b.Cost,
		b.Location, b.ImageURL, b.IsPaid, b.ValidUntil, b.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert banner", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return fmt.Errorf("failed to insert banner: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetBanner(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error) {
	b, err := scanBanner(r.pgpool.QueryRow(ctx, `SELECT `+bannerColumns+` FROM banner_ads WHERE id = $1`, bannerID))
	if err != nil {
		return nil, fmt.Errorf("failed to get banner %s: %w", bannerID, err)
	}
	return b, nil
}

func (r *RepositoryImpl) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM banner_ads WHERE valid_until < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired banners: %w", err)
	}
	return tag.RowsAffected(), nil
}

func paidClause(paidOnly bool) string {
	if paidOnly {
		return ` WHERE is_paid = TRUE`
	}
	return ""
}

func (r *RepositoryImpl) CountBanners(ctx context.Context, paidOnly bool) (int64, error) {
	var n int64
	if err := r.pgpool.QueryRow(ctx, `SELECT COUNT(*) FROM banner_ads`+paidClause(paidOnly)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count banners: %w", err)
	}
	return n, nil
}

func (r *RepositoryImpl) ListBanners(ctx context.Context, paidOnly bool, limit, offset int) ([]types.BannerAd, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+bannerColumns+` FROM banner_ads`+paidClause(paidOnly)+` ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	defer rows.Close()

	banners := []types.BannerAd{}
	for rows.Next() {
		b, err := scanBanner(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan banner: %w", err)
		}
		banners = append(banners, *b)
	}
	return banners, rows.Err()
}

// UpdateBanner writes only the fields present in params. A new duration
// moves valid_until relative to the banner's creation.
func (r *RepositoryImpl) UpdateBanner(ctx context.Context, bannerID uuid.UUID, params types.UpdateBannerRequest, imageURL *string) (*types.BannerAd, error) {
	ctx, span := otel.Tracer("AdsRepo").Start(ctx, "UpdateBanner", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("banner.id", bannerID.String()),
	))
	defer span.End()

	var setClauses []string
	var args []any
	argID := 1

	set := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}
	if params.Title != nil {
		set("title", *params.Title)
	}
	if params.Description != nil {
		set("description", *params.Description)
	}
	if params.StartDate != nil {
		set("start_date", *params.StartDate)
	}
	if params.TargetURL != nil {
		set("target_url", *params.TargetURL)
	}
	if params.BannerDuration != nil {
		set("banner_duration", *params.BannerDuration)
		setClauses = append(setClauses, fmt.Sprintf("valid_until = created_at + make_interval(days => $%d)", argID-1))
	}
	if params.Cost != nil {
		set("cost", *params.Cost)
	}
	if params.Location != nil {
		set("location", *params.Location)
	}
	if imageURL != nil {
		set("image_url", *imageURL)
	}

	if len(setClauses) == 0 {
		return r.GetBanner(ctx, bannerID)
	}

	args = append(args, bannerID)
	query := fmt.Sprintf(`UPDATE banner_ads SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setClauses, ", "), argID, bannerColumns)

	b, err := scanBanner(r.pgpool.QueryRow(ctx, query, args...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return nil, fmt.Errorf("failed to update banner %s: %w", bannerID, err)
	}
	return b, nil
}

func (r *RepositoryImpl) DeleteBanner(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error) {
	b, err := scanBanner(r.pgpool.QueryRow(ctx, `DELETE FROM banner_ads WHERE id = $1 RETURNING `+bannerColumns, bannerID))
	if err != nil {
		return nil, fmt.Errorf("failed to delete banner %s: %w", bannerID, err)
	}
	return b, nil
}

func (r *RepositoryImpl) MarkPaid(ctx context.Context, bannerID uuid.UUID) (*types.BannerAd, error) {
	b, err := scanBanner(r.pgpool.QueryRow(ctx,
		`UPDATE banner_ads SET is_paid = TRUE WHERE id = $1 RETURNING `+bannerColumns, bannerID))
	if err != nil {
		return nil, fmt.Errorf("failed to mark banner %s paid: %w", bannerID, err)
	}
	return b, nil
}
