package hotel

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

const (
	// DuplicateMessage is returned instead of an error when an interaction already exists.
	DuplicateMessage = "Data already exists. This user has already bookmarked this hotel."

	nearbyRadius      = 20
	lodgingCategoryID = "500-5000-0053"
	fallbackHotels    = 6
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	NearbyHotel(ctx context.Context, address string) ([]types.NearbyPlace, error)
	GetHotel(ctx context.Context, hotelID uuid.UUID) (*types.HotelDetail, error)
	GetAllHotels(ctx context.Context) ([]types.HotelDetail, error)
	SearchHotel(ctx context.Context, name string) ([]types.HotelDetail, error)
	// AddClick and AddBookmark report duplicate=true instead of failing when the pair exists.
	AddClick(ctx context.Context, userID, hotelID uuid.UUID) (interaction *types.HotelInteraction, duplicate bool, err error)
	AddBookmark(ctx context.Context, userID, hotelID uuid.UUID) (interaction *types.HotelInteraction, duplicate bool, err error)
	DeleteBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error)
	GetClicks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error)
	GetBookmarks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error)
	Recommendation(ctx context.Context, userID uuid.UUID) ([]types.HotelDetail, error)
	TopRecommendation(ctx context.Context, userID uuid.UUID, n int) ([]types.HotelDetail, error)
}

// Recommender is the part of the recommendation client hotels need.
type Recommender interface {
	RecommendHotels(ctx context.Context, userID uuid.UUID, top int) ([]uuid.UUID, error)
}

type ServiceImpl struct {
	logger      *slog.Logger
	repo        Repository
	places      Places
	recommender Recommender
}

func NewService(repo Repository, places Places, recommender Recommender, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:      logger,
		repo:        repo,
		places:      places,
		recommender: recommender,
	}
}

func (s *ServiceImpl) NearbyHotel(ctx context.Context, address string) ([]types.NearbyPlace, error) {
	ctx, span := otel.Tracer("HotelService").Start(ctx, "NearbyHotel")
	defer span.End()

	pos, err := s.places.Geocode(ctx, address)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrAddressNotFound) {
			return nil, api.NotFound("Address not found")
		}
		return nil, api.Internal("Failed to locate address", err)
	}

	places, err := s.places.Discover(ctx, pos, nearbyRadius, "hotel")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "discover failed")
		return nil, api.Internal("Failed to search nearby hotels", err)
	}
	return filterHotels(places), nil
}

// filterHotels keeps places titled as hotels. When none are, it falls back to
// places whose only category is lodging.
func filterHotels(places []types.NearbyPlace) []types.NearbyPlace {
	hotels := []types.NearbyPlace{}
	for _, p := range places {
		if strings.Contains(strings.ToLower(p.Title), "hotel") {
			hotels = append(hotels, p)
		}
	}
	if len(hotels) > 0 {
		return hotels
	}
	for _, p := range places {
		if len(p.Categories) == 1 && p.Categories[0].ID == lodgingCategoryID {
			hotels = append(hotels, p)
		}
	}
	return hotels
}

func (s *ServiceImpl) GetHotel(ctx context.Context, hotelID uuid.UUID) (*types.HotelDetail, error) {
	hotel, err := s.repo.GetHotel(ctx, hotelID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.NotFound("Hotel not found")
		}
		return nil, api.Internal("Failed to retrieve hotel", err)
	}
	return hotel, nil
}

func (s *ServiceImpl) GetAllHotels(ctx context.Context) ([]types.HotelDetail, error) {
	hotels, err := s.repo.GetAllHotels(ctx)
	if err != nil {
		return nil, api.Internal("Failed to retrieve hotels", err)
	}
	return hotels, nil
}

func (s *ServiceImpl) SearchHotel(ctx context.Context, name string) ([]types.HotelDetail, error) {
	hotels, err := s.repo.SearchHotels(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, api.Internal("Failed to search hotels", err)
	}
	return hotels, nil
}

func (s *ServiceImpl) AddClick(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, bool, error) {
	return s.addInteraction(ctx, "click", userID, hotelID, s.repo.AddClick)
}

func (s *ServiceImpl) AddBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, bool, error) {
	return s.addInteraction(ctx, "bookmark", userID, hotelID, s.repo.AddBookmark)
}

func (s *ServiceImpl) addInteraction(ctx context.Context, kind string, userID, hotelID uuid.UUID,
	insert func(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error)) (*types.HotelInteraction, bool, error) {
	l := s.logger.With(slog.String("method", "addInteraction"), slog.String("kind", kind))

	if _, err := s.GetHotel(ctx, hotelID); err != nil {
		return nil, false, err
	}
	interaction, err := insert(ctx, userID, hotelID)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			l.DebugContext(ctx, "Interaction already recorded", slog.String("hotel_id", hotelID.String()))
			return nil, true, nil
		}
		return nil, false, api.Internal("Failed to record "+kind, err)
	}
	return interaction, false, nil
}

// DeleteBookmark removes the caller's own bookmark only.
func (s *ServiceImpl) DeleteBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	bookmark, err := s.repo.DeleteBookmark(ctx, userID, hotelID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, api.NotFound("Bookmark not found")
		}
		return nil, api.Internal("Failed to delete bookmark", err)
	}
	return bookmark, nil
}

func (s *ServiceImpl) GetClicks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	clicks, err := s.repo.GetClicks(ctx, userID)
	if err != nil {
		return nil, api.Internal("Failed to retrieve clicks", err)
	}
	return clicks, nil
}

func (s *ServiceImpl) GetBookmarks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	bookmarks, err := s.repo.GetBookmarks(ctx, userID)
	if err != nil {
		return nil, api.Internal("Failed to retrieve bookmarks", err)
	}
	return bookmarks, nil
}

func (s *ServiceImpl) Recommendation(ctx context.Context, userID uuid.UUID) ([]types.HotelDetail, error) {
	ids, err := s.recommender.RecommendHotels(ctx, userID, 0)
	if err != nil {
		return nil, api.Internal("Failed to get recommendations: upstream unavailable", err)
	}
	hotels, err := s.repo.HotelsByDetailIDs(ctx, ids)
	if err != nil {
		return nil, api.Internal("Failed to get recommendations", err)
	}
	return hotels, nil
}

// TopRecommendation falls back to the first catalog hotels when the
// recommendation service cannot answer.
func (s *ServiceImpl) TopRecommendation(ctx context.Context, userID uuid.UUID, n int) ([]types.HotelDetail, error) {
	ctx, span := otel.Tracer("HotelService").Start(ctx, "TopRecommendation", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.Int("top", n),
	))
	defer span.End()

	ids, err := s.recommender.RecommendHotels(ctx, userID, n)
	if err == nil {
		var hotels []types.HotelDetail
		hotels, err = s.repo.HotelsByHotelIDs(ctx, ids)
		if err == nil {
			return hotels, nil
		}
	}

	s.logger.WarnContext(ctx, "Recommendation unavailable, serving default hotels", slog.Any("error", err))
	span.SetAttributes(attribute.Bool("recommendation.fallback", true))
	hotels, err := s.repo.FirstHotels(ctx, fallbackHotels)
	if err != nil {
		return nil, api.Internal("Failed to get recommendations", err)
	}
	return hotels, nil
}
