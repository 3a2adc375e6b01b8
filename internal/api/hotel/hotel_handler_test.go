package hotel

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	appMiddleware "github.com/FACorreiaa/trexense-api/app/middleware"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) hotels(args mock.Arguments) ([]types.HotelDetail, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.HotelDetail), args.Error(1)
}

func (m *MockService) NearbyHotel(ctx context.Context, address string) ([]types.NearbyPlace, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.NearbyPlace), args.Error(1)
}

func (m *MockService) GetHotel(ctx context.Context, hotelID uuid.UUID) (*types.HotelDetail, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.HotelDetail), args.Error(1)
}

func (m *MockService) GetAllHotels(ctx context.Context) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx))
}

func (m *MockService) SearchHotel(ctx context.Context, name string) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx, name))
}

func (m *MockService) interaction(args mock.Arguments) (*types.HotelInteraction, bool, error) {
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*types.HotelInteraction), args.Bool(1), args.Error(2)
}

func (m *MockService) AddClick(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, bool, error) {
	return m.interaction(m.Called(ctx, userID, hotelID))
}

func (m *MockService) AddBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, bool, error) {
	return m.interaction(m.Called(ctx, userID, hotelID))
}

func (m *MockService) DeleteBookmark(ctx context.Context, userID, hotelID uuid.UUID) (*types.HotelInteraction, error) {
	args := m.Called(ctx, userID, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.HotelInteraction), args.Error(1)
}

func (m *MockService) GetClicks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]types.HotelInteraction), args.Error(1)
}

func (m *MockService) GetBookmarks(ctx context.Context, userID uuid.UUID) ([]types.HotelInteraction, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]types.HotelInteraction), args.Error(1)
}

func (m *MockService) Recommendation(ctx context.Context, userID uuid.UUID) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx, userID))
}

func (m *MockService) TopRecommendation(ctx context.Context, userID uuid.UUID, n int) ([]types.HotelDetail, error) {
	return m.hotels(m.Called(ctx, userID, n))
}

func newRequest(method, target string, caller *appMiddleware.Identity, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if caller != nil {
		ctx = appMiddleware.WithIdentity(ctx, *caller)
	}
	return req.WithContext(ctx)
}

func TestHandlerAddBookmarkDuplicate(t *testing.T) {
	caller := appMiddleware.Identity{UserID: uuid.New()}
	hotelID := uuid.New()
	svc := new(MockService)
	h := NewHandlerImpl(svc, slog.Default())
	svc.On("AddBookmark", mock.Anything, caller.UserID, hotelID).Return(nil, true, nil).Once()

	rr := httptest.NewRecorder()
	h.AddBookmark(rr, newRequest(http.MethodPost, "/hotels/x/bookmarks", &caller, map[string]string{"hotelId": hotelID.String()}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), DuplicateMessage)
}

func TestHandlerNearbyHotel(t *testing.T) {
	t.Run("FromQuery", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandlerImpl(svc, slog.Default())
		svc.On("NearbyHotel", mock.Anything, "Bandung").Return([]types.NearbyPlace{{Title: "Hotel A"}}, nil).Once()

		rr := httptest.NewRecorder()
		h.NearbyHotel(rr, newRequest(http.MethodGet, "/hotels/nearby?address=Bandung", nil, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"title":"Hotel A"`)
	})

	t.Run("MissingAddress", func(t *testing.T) {
		h := NewHandlerImpl(new(MockService), slog.Default())
		rr := httptest.NewRecorder()
		h.NearbyHotel(rr, newRequest(http.MethodGet, "/hotels/nearby", nil, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandlerTopRecommendationRejectsBadNumber(t *testing.T) {
	caller := appMiddleware.Identity{UserID: uuid.New()}
	h := NewHandlerImpl(new(MockService), slog.Default())

	rr := httptest.NewRecorder()
	h.TopRecommendation(rr, newRequest(http.MethodGet, "/hotels/recommendation/top/abc", &caller, map[string]string{"number": "abc"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerGetHotelNotFound(t *testing.T) {
	svc := new(MockService)
	h := NewHandlerImpl(svc, slog.Default())
	hotelID := uuid.New()
	svc.On("GetHotel", mock.Anything, hotelID).Return(nil, api.NotFound("Hotel not found")).Once()

	rr := httptest.NewRecorder()
	h.GetHotel(rr, newRequest(http.MethodGet, "/hotels/x", nil, map[string]string{"hotelId": hotelID.String()}))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Hotel not found")
}
