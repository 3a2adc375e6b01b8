package hotel

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) hotels(args mock.Arguments) ([]types.HotelDetail, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.HotelDetail), args.Error(1)
}

func (m *MockRepository) interaction(args mock.Arguments) (*types.HotelInteraction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.HotelInteraction), args.Error(1)
}

func (m *MockRepository) interactions(args mock.Arguments) ([]types.HotelInteraction, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.HotelInteraction), args.Error(1)
}

func (m *MockRepository) GetHotel(ctx context.Context, hotelID uuid.UUID) (*types.HotelDetail, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.HotelDetail), args.Error(1)
}

func (m *MockRepository) GetAllHotels(ctx context.Context) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx))
}

func (m *MockRepository) SearchHotels(ctx context.Context, name string) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx, name))
}

func (m *MockRepository) HotelsByDetailIDs(ctx context.Context, ids []uuid.UUID) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx, ids))
}

func (m *MockRepository) HotelsByHotelIDs(ctx context.Context, ids []uuid.UUID) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx, ids))
}

func (m *MockRepository) FirstHotels(ctx context.Context, limit int) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx, limit))
}

func (m *MockRepository) AddClick(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	return m.interaction(m.Called(ctx, userID, hotelID))
}

func (m *MockRepository) AddBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	return m.interaction(m.Called(ctx, userID, hotelID))
}

func (m *MockRepository) DeleteBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	return m.interaction(m.Called(ctx, userID, hotelID))
}

func (m *MockRepository) GetClicks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	return m.interactions(m.Called(ctx, userID))
}

func (m *MockRepository) GetBookmarks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	return m.interactions(m.Called(ctx, userID))
}

type MockPlaces struct {
	mock.Mock
}

func (m *MockPlaces) Geocode(ctx context.Context, address string) (types.Position, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(types.Position), args.Error(1)
}

func (m *MockPlaces) Discover(ctx context.Context, at types.Position, radius int, query string) ([]types.NearbyPlace, error) {
	args := m.Called(ctx, at, radius, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.NearbyPlace), args.Error(1)
}

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) RecommendHotels(ctx context.Context, userID uuid.UUID, top int) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID, top)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func TestFilterHotels(t *testing.T) {
	lodging := []types.PlaceCategory{{ID: lodgingCategoryID}}

	t.Run("TitleMatch", func(t *testing.T) {
		got := filterHotels([]types.NearbyPlace{
			{Title: "Grand HOTEL Preanger", Categories: []types.PlaceCategory{{ID: "x"}}},
			{Title: "Guest House", Categories: lodging},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "Grand HOTEL Preanger", got[0].Title)
	})

	t.Run("CategoryFallback", func(t *testing.T) {
		got := filterHotels([]types.NearbyPlace{
			{Title: "Guest House", Categories: lodging},
			{Title: "Homestay", Categories: append([]types.PlaceCategory{{ID: "y"}}, lodging...)},
			{Title: "Cafe", Categories: []types.PlaceCategory{{ID: "100-1000-0000"}}},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "Guest House", got[0].Title)
	})

	t.Run("NothingMatches", func(t *testing.T) {
		got := filterHotels([]types.NearbyPlace{{Title: "Cafe"}})
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestNearbyHotel(t *testing.T) {
	ctx := context.Background()
	pos := types.Position{Lat: -6.9, Lng: 107.6}

	t.Run("Success", func(t *testing.T) {
		places := new(MockPlaces)
		svc := NewService(new(MockRepository), places, new(MockRecommender), slog.Default())
		places.On("Geocode", mock.Anything, "Bandung").Return(pos, nil).Once()
		places.On("Discover", mock.Anything, pos, 20, "hotel").
			Return([]types.NearbyPlace{{Title: "Hotel A"}, {Title: "Museum"}}, nil).Once()

		got, err := svc.NearbyHotel(ctx, "Bandung")
		require.NoError(t, err)
		require.Len(t, got, 1)
		places.AssertExpectations(t)
	})

	t.Run("UnknownAddress", func(t *testing.T) {
		places := new(MockPlaces)
		svc := NewService(new(MockRepository), places, new(MockRecommender), slog.Default())
		places.On("Geocode", mock.Anything, "nowhere").Return(types.Position{}, ErrAddressNotFound).Once()

		_, err := svc.NearbyHotel(ctx, "nowhere")
		assert.True(t, api.IsKind(err, api.KindNotFound))
	})

	t.Run("UpstreamFailure", func(t *testing.T) {
		places := new(MockPlaces)
		svc := NewService(new(MockRepository), places, new(MockRecommender), slog.Default())
		places.On("Geocode", mock.Anything, "Bandung").Return(pos, nil).Once()
		places.On("Discover", mock.Anything, pos, 20, "hotel").Return(nil, errors.New("timeout")).Once()

		_, err := svc.NearbyHotel(ctx, "Bandung")
		assert.True(t, api.IsKind(err, api.KindInternal))
	})
}

func TestAddBookmark(t *testing.T) {
	ctx := context.Background()
	userID, hotelID := uuid.New(), uuid.New()

	t.Run("First", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockPlaces), new(MockRecommender), slog.Default())
		repo.On("GetHotel", mock.Anything, hotelID).Return(&types.HotelDetail{HotelID: hotelID}, nil).Once()
		repo.On("AddBookmark", mock.Anything, userID, hotelID).
			Return(&types.HotelInteraction{UserID: userID, HotelID: hotelID, CreatedAt: time.Now()}, nil).Once()

		got, duplicate, err := svc.AddBookmark(ctx, userID, hotelID)
		require.NoError(t, err)
		assert.False(t, duplicate)
		assert.Equal(t, hotelID, got.HotelID)
	})

	t.Run("Duplicate", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockPlaces), new(MockRecommender), slog.Default())
		repo.On("GetHotel", mock.Anything, hotelID).Return(&types.HotelDetail{HotelID: hotelID}, nil).Once()
		repo.On("AddBookmark", mock.Anything, userID, hotelID).Return(nil, database.ErrDuplicate).Once()

		got, duplicate, err := svc.AddBookmark(ctx, userID, hotelID)
		require.NoError(t, err)
		assert.True(t, duplicate)
		assert.Nil(t, got)
	})

	t.Run("UnknownHotel", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockPlaces), new(MockRecommender), slog.Default())
		repo.On("GetHotel", mock.Anything, hotelID).Return(nil, database.ErrNotFound).Once()

		_, _, err := svc.AddClick(ctx, userID, hotelID)
		assert.True(t, api.IsKind(err, api.KindNotFound))
		repo.AssertNotCalled(t, "AddClick", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteBookmarkScopedToCaller(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockPlaces), new(MockRecommender), slog.Default())
	userID, hotelID := uuid.New(), uuid.New()
	repo.On("DeleteBookmark", mock.Anything, userID, hotelID).Return(nil, database.ErrNotFound).Once()

	_, err := svc.DeleteBookmark(context.Background(), userID, hotelID)
	assert.True(t, api.IsKind(err, api.KindNotFound))
	repo.AssertExpectations(t)
}

func TestTopRecommendation(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	defaults := []types.HotelDetail{{Name: "A"}, {Name: "B"}}

	t.Run("FromModel", func(t *testing.T) {
		repo := new(MockRepository)
		rec := new(MockRecommender)
		svc := NewService(repo, new(MockPlaces), rec, slog.Default())
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		rec.On("RecommendHotels", mock.Anything, userID, 3).Return(ids, nil).Once()
		repo.On("HotelsByHotelIDs", mock.Anything, ids).Return([]types.HotelDetail{{Name: "Recommended"}}, nil).Once()

		got, err := svc.TopRecommendation(ctx, userID, 3)
		require.NoError(t, err)
		assert.Equal(t, "Recommended", got[0].Name)
		repo.AssertNotCalled(t, "FirstHotels", mock.Anything, mock.Anything)
	})

	t.Run("FallbackOnUpstreamFailure", func(t *testing.T) {
		repo := new(MockRepository)
		rec := new(MockRecommender)
		svc := NewService(repo, new(MockPlaces), rec, slog.Default())
		rec.On("RecommendHotels", mock.Anything, userID, 3).Return(nil, errors.New("connection refused")).Once()
		repo.On("FirstHotels", mock.Anything, 6).Return(defaults, nil).Once()

		got, err := svc.TopRecommendation(ctx, userID, 3)
		require.NoError(t, err)
		assert.Equal(t, defaults, got)
	})

	t.Run("RecommendationPropagates", func(t *testing.T) {
		rec := new(MockRecommender)
		svc := NewService(new(MockRepository), new(MockPlaces), rec, slog.Default())
		rec.On("RecommendHotels", mock.Anything, userID, 0).Return(nil, errors.New("connection refused")).Once()

		_, err := svc.Recommendation(ctx, userID)
		assert.True(t, api.IsKind(err, api.KindInternal))
	})
}
