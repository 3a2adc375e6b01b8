package hotel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

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

// Repository reads the hotel catalog and records user interactions.
type Repository interface {
	GetHotel(ctx context.Context, hotelID uuid.UUID) (*types.HotelDetail, error)
	GetAllHotels(ctx context.Context) ([]types.HotelDetail, error)
	SearchHotels(ctx context.Context, name string) ([]types.HotelDetail, error)
	// HotelsByDetailIDs and HotelsByHotelIDs return the matching rows; unknown ids are skipped.
	HotelsByDetailIDs(ctx context.Context, ids []uuid.UUID) ([]types.HotelDetail, error)
	HotelsByHotelIDs(ctx context.Context, ids []uuid.UUID) ([]types.HotelDetail, error)
	FirstHotels(ctx context.Context, limit int) ([]types.HotelDetail, error)

	// AddClick and AddBookmark return database.ErrDuplicate when the pair already exists.
	AddClick(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error)
	AddBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error)
	DeleteBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error)
	GetClicks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error)
	GetBookmarks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error)
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

const detailColumns = `hd.id, hd.hotel_id, hd.name, hd.address, hd.city, hd.rating, hd.price, hd.image_url, hd.description`

func scanDetail(row database.RowScanner) (types.HotelDetail, error) {
	var hd types.HotelDetail
	err := row.Scan(&hd.ID, &hd.HotelID, &hd.Name, &hd.Address, &hd.City, &hd.Rating, &hd.Price, &hd.ImageURL, &hd.Description)
	return hd, err
}

func (r *RepositoryImpl) GetHotel(ctx context.Context, hotelID uuid.UUID) (*types.HotelDetail, error) {
	ctx, span := otel.Tracer("HotelRepo").Start(ctx, "GetHotel", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("hotel.id", hotelID.String()),
	))
	defer span.End()

	var hd types.HotelDetail
	var a types.Amenities
	err := r.pgpool.QueryRow(ctx, `
		SELECT `+detailColumns+`,
		       h.cozy, h.nice_view, h.parking, h.pool, h.spa, h.gym, h.breakfast, h.aesthetic, h.laundry, h.wifi
		FROM hotel_details hd
		JOIN hotels h ON h.id = hd.hotel_id
		WHERE hd.hotel_id = $1`, hotelID).
		Scan(&hd.ID, &hd.HotelID, &hd.Name, &hd.Address, &hd.City, &hd.Rating, &hd.Price, &hd.ImageURL, &hd.Description,
			&a.Cozy, &a.NiceView, &a.Parking, &a.Pool, &a.Spa, &a.Gym, &a.Breakfast, &a.Aesthetic, &a.Laundry, &a.Wifi)
	if err != nil {
		err = database.Translate(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "get hotel failed")
		return nil, fmt.Errorf("failed to get hotel %s: %w", hotelID, err)
	}
	hd.Hotel = &a
	return &hd, nil
}

func (r *RepositoryImpl) GetAllHotels(ctx context.Context) ([]types.HotelDetail, error) {
	return r.list(ctx, "GetAllHotels", `SELECT `+detailColumns+` FROM hotel_details hd ORDER BY hd.name`)
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *RepositoryImpl) SearchHotels(ctx context.Context, name string) ([]types.HotelDetail, error) {
	return r.list(ctx, "SearchHotels",
		`SELECT `+detailColumns+` FROM hotel_details hd WHERE hd.name ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY hd.name`,
		likeEscaper.Replace(name))
}

func (r *RepositoryImpl) HotelsByDetailIDs(ctx context.Context, ids []uuid.UUID) ([]types.HotelDetail, error) {
	if len(ids) == 0 {
		return []types.HotelDetail{}, nil
	}
	return r.list(ctx, "HotelsByDetailIDs",
		`SELECT `+detailColumns+` FROM hotel_details hd WHERE hd.id = ANY($1)`, ids)
}

func (r *RepositoryImpl) HotelsByHotelIDs(ctx context.Context, ids []uuid.UUID) ([]types.HotelDetail, error) {
	if len(ids) == 0 {
		return []types.HotelDetail{}, nil
	}
	return r.list(ctx, "HotelsByHotelIDs",
		`SELECT `+detailColumns+` FROM hotel_details hd WHERE hd.hotel_id = ANY($1)`, ids)
}

func (r *RepositoryImpl) FirstHotels(ctx context.Context, limit int) ([]types.HotelDetail, error) {
	return r.list(ctx, "FirstHotels",
		`SELECT `+detailColumns+` FROM hotel_details hd ORDER BY hd.id LIMIT $1`, limit)
}

func (r *RepositoryImpl) list(ctx context.Context, op, query string, args ...any) ([]types.HotelDetail, error) {
	ctx, span := otel.Tracer("HotelRepo").Start(ctx, op, trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "hotel_details"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query hotels", slog.String("op", op), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		return nil, fmt.Errorf("failed to query hotels: %w", err)
	}
	defer rows.Close()

	hotels := []types.HotelDetail{}
	for rows.Next() {
		hd, err := scanDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hotel: %w", err)
		}
		hotels = append(hotels, hd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hotels: %w", err)
	}
	span.SetAttributes(attribute.Int("hotels.count", len(hotels)))
	return hotels, nil
}

func (r *RepositoryImpl) AddClick(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	return r.insertInteraction(ctx, `
		INSERT INTO user_hotel_clicks (user_id, hotel_id) VALUES ($1, $2)
		RETURNING user_id, hotel_id, created_at`, userID, hotelID)
}

func (r *RepositoryImpl) AddBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	return r.insertInteraction(ctx, `
		INSERT INTO user_hotel_bookmarks (user_id, hotel_id) VALUES ($1, $2)
		RETURNING user_id, hotel_id, created_at`, userID, hotelID)
}

func (r *RepositoryImpl) insertInteraction(ctx context.Context, query string, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	var hi types.HotelInteraction
	if err := r.pgpool.QueryRow(ctx, query, userID, hotelID).Scan(&hi.UserID, &hi.HotelID, &hi.CreatedAt); err != nil {
		return nil, database.Translate(err)
	}
	return &hi, nil
}

func (r *RepositoryImpl) DeleteBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	var hi types.HotelInteraction
	err := r.pgpool.QueryRow(ctx, `
		DELETE FROM user_hotel_bookmarks WHERE user_id = $1 AND hotel_id = $2
		RETURNING user_id, hotel_id, created_at`, userID, hotelID).
		Scan(&hi.UserID, &hi.HotelID, &hi.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to delete bookmark: %w", database.Translate(err))
	}
	return &hi, nil
}

func (r *RepositoryImpl) GetClicks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	return r.interactions(ctx, `SELECT user_id, hotel_id, created_at FROM user_hotel_clicks WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (r *RepositoryImpl) GetBookmarks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	return r.interactions(ctx, `SELECT user_id, hotel_id, created_at FROM user_hotel_bookmarks WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (r *RepositoryImpl) interactions(ctx context.Context, query string, userID uuid.UUID) ([]types.HotelInteraction, error) {
	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	out := []types.HotelInteraction{}
	for rows.Next() {
		var hi types.HotelInteraction
		if err := rows.Scan(&hi.UserID, &hi.HotelID, &hi.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		out = append(out, hi)
	}
	return out, rows.Err()
}
