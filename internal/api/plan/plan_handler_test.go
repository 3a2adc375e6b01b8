package plan

import (
	"bytes"
	"context"
	"encoding/json"
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

func (m *MockService) plan(args mock.Arguments) (*types.Plan, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Plan), args.Error(1)
}

func (m *MockService) CreatePlan(ctx context.Context, caller appMiddleware.Identity, req types.CreatePlanRequest) (*types.Plan, error) {
	return m.plan(m.Called(ctx, caller, req))
}

func (m *MockService) GetPlans(ctx context.Context, caller appMiddleware.Identity) ([]types.Plan, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Plan), args.Error(1)
}

func (m *MockService) GetPlanByID(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (*types.Plan, error) {
	return m.plan(m.Called(ctx, caller, planID))
}

func (m *MockService) DeletePlan(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (*types.Plan, error) {
	return m.plan(m.Called(ctx, caller, planID))
}

func (m *MockService) GetPlanDetail(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID) (*types.PlanDetail, error) {
	args := m.Called(ctx, caller, dayID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.PlanDetail), args.Error(1)
}

func (m *MockService) AddActivity(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID, req types.CreateActivityRequest) (*types.Activity, error) {
	args := m.Called(ctx, caller, dayID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Activity), args.Error(1)
}

func (m *MockService) DeleteActivity(ctx context.Context, caller appMiddleware.Identity, activityID uuid.UUID) error {
	return m.Called(ctx, caller, activityID).Error(0)
}

func (m *MockService) AddHotelToPlan(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID, req types.AddHotelRequest) (*types.HotelPlan, error) {
	args := m.Called(ctx, caller, dayID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.HotelPlan), args.Error(1)
}

func (m *MockService) DeleteHotelFromPlan(ctx context.Context, caller appMiddleware.Identity, hotelPlanID uuid.UUID) error {
	return m.Called(ctx, caller, hotelPlanID).Error(0)
}

func (m *MockService) SendMessageToBot(ctx context.Context, prompt string) (json.RawMessage, error) {
	args := m.Called(ctx, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockService) GenerateItinerary(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (json.RawMessage, error) {
	args := m.Called(ctx, caller, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func newRequest(method, target, body string, caller *appMiddleware.Identity, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
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

func TestHandlerCreatePlan(t *testing.T) {
	caller := appMiddleware.Identity{UserID: uuid.New(), Role: "user"}
	body := `{"name":"Bandung trip","city":"Bandung","startDate":"2024-12-04","endDate":"2024-12-07",
		"travelCompanion":"Family","budget":1500000,"travelTheme":"Nature"}`

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandlerImpl(svc, slog.Default())
		svc.On("CreatePlan", mock.Anything, caller, mock.MatchedBy(func(req types.CreatePlanRequest) bool {
			return req.City == "Bandung" && req.Budget == 1500000
		})).Return(&types.Plan{ID: uuid.New(), City: "Bandung"}, nil).Once()

		rr := httptest.NewRecorder()
		h.CreatePlan(rr, newRequest(http.MethodPost, "/plans/create", body, &caller, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"city":"Bandung"`)
		svc.AssertExpectations(t)
	})

	t.Run("MissingCity", func(t *testing.T) {
		h := NewHandlerImpl(new(MockService), slog.Default())
		rr := httptest.NewRecorder()
		h.CreatePlan(rr, newRequest(http.MethodPost, "/plans/create",
			`{"name":"x","startDate":"2024-12-04","endDate":"2024-12-07","travelCompanion":"Solo","travelTheme":"Food"}`,
			&caller, nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		h := NewHandlerImpl(new(MockService), slog.Default())
		rr := httptest.NewRecorder()
		h.CreatePlan(rr, newRequest(http.MethodPost, "/plans/create", body, nil, nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHandlerGetPlanByID(t *testing.T) {
	caller := appMiddleware.Identity{UserID: uuid.New()}
	planID := uuid.New()

	t.Run("Forbidden", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandlerImpl(svc, slog.Default())
		svc.On("GetPlanByID", mock.Anything, caller, planID).Return(nil, api.Forbidden("Forbidden")).Once()

		rr := httptest.NewRecorder()
		h.GetPlanByID(rr, newRequest(http.MethodGet, "/plans/x", "", &caller, map[string]string{"planId": planID.String()}))

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("MalformedID", func(t *testing.T) {
		h := NewHandlerImpl(new(MockService), slog.Default())
		rr := httptest.NewRecorder()
		h.GetPlanByID(rr, newRequest(http.MethodGet, "/plans/x", "", &caller, map[string]string{"planId": "42"}))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandlerGenerateItineraryReturnsUpstreamPayload(t *testing.T) {
	caller := appMiddleware.Identity{UserID: uuid.New()}
	planID := uuid.New()
	svc := new(MockService)
	h := NewHandlerImpl(svc, slog.Default())
	svc.On("GenerateItinerary", mock.Anything, caller, planID).
		Return(json.RawMessage(`{"day1":[{"place_name":"Kawah Putih"}]}`), nil).Once()

	rr := httptest.NewRecorder()
	h.GenerateItinerary(rr, newRequest(http.MethodPost, "/plans/x/itinerary", "", &caller,
		map[string]string{"planId": planID.String()}))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"place_name":"Kawah Putih"`)
}

func TestHandlerDeleteActivityNotFound(t *testing.T) {
	caller := appMiddleware.Identity{UserID: uuid.New()}
	activityID := uuid.New()
	svc := new(MockService)
	h := NewHandlerImpl(svc, slog.Default())
	svc.On("DeleteActivity", mock.Anything, caller, activityID).Return(api.NotFound("Activity not found")).Once()

	rr := httptest.NewRecorder()
	h.DeleteActivity(rr, newRequest(http.MethodDelete, "/plans/activity/x", "", &caller,
		map[string]string{"activityId": activityID.String()}))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "Activity not found")
}

func TestHandlerSendMessageToBot(t *testing.T) {
	svc := new(MockService)
	h := NewHandlerImpl(svc, slog.Default())
	svc.On("SendMessageToBot", mock.Anything, "Hi").Return(json.RawMessage(`{"response":"Hello"}`), nil).Once()

	rr := httptest.NewRecorder()
	h.SendMessageToBot(rr, newRequest(http.MethodPost, "/plans/bot", `{"prompt":"Hi"}`, nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"response":"Hello"`)
}
