package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/trexense-api/app/db"
	appMiddleware "github.com/FACorreiaa/trexense-api/app/middleware"
	"github.com/FACorreiaa/trexense-api/app/observability/metrics"
	"github.com/FACorreiaa/trexense-api/internal/api"
	"github.com/FACorreiaa/trexense-api/internal/api/recommendation"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service orchestrates plans. Operations on an existing plan are limited to
// its owner and to admins.
type Service interface {
	CreatePlan(ctx context.Context, caller appMiddleware.Identity, req types.CreatePlanRequest) (*types.Plan, error)
	GetPlans(ctx context.Context, caller appMiddleware.Identity) ([]types.Plan, error)
	GetPlanByID(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (*types.Plan, error)
	DeletePlan(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (*types.Plan, error)
	GetPlanDetail(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID) (*types.PlanDetail, error)
	AddActivity(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID, req types.CreateActivityRequest) (*types.Activity, error)
	DeleteActivity(ctx context.Context, caller appMiddleware.Identity, activityID uuid.UUID) error
	AddHotelToPlan(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID, req types.AddHotelRequest) (*types.HotelPlan, error)
	DeleteHotelFromPlan(ctx context.Context, caller appMiddleware.Identity, hotelPlanID uuid.UUID) error
	SendMessageToBot(ctx context.Context, prompt string) (json.RawMessage, error)
	GenerateItinerary(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (json.RawMessage, error)
}

// ItineraryGenerator is the part of the recommendation client plans need.
type ItineraryGenerator interface {
	Itinerary(ctx context.Context, req types.ItineraryRequest) (*types.ItineraryResult, error)
}

type ServiceImpl struct {
	logger    *slog.Logger
	repo      Repository
	itinerary ItineraryGenerator
	bot       recommendation.Bot
	now       func() time.Time
}

func NewService(repo Repository, itinerary ItineraryGenerator, bot recommendation.Bot, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:    logger,
		repo:      repo,
		itinerary: itinerary,
		bot:       bot,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var dateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05"}

// maxPlanDays bounds how many day rows a single plan may create.
const maxPlanDays = 365

// parseDate accepts a calendar date or a timestamp and keeps only the date part.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, api.BadRequest(fmt.Sprintf("%q must be a date (YYYY-MM-DD)", field))
}

// dayCount counts calendar days from start to end inclusive. Both are UTC
// midnights, so the difference in unix seconds is a whole number of days.
func dayCount(start, end time.Time) int {
	return int((end.Unix()-start.Unix())/86400) + 1
}

// planDays returns one PlanDetail per calendar day from start to end inclusive.
func planDays(planID uuid.UUID, start, end time.Time) []types.PlanDetail {
	n := dayCount(start, end)
	details := make([]types.PlanDetail, n)
	for i := range details {
		details[i] = types.PlanDetail{
			ID:         uuid.New(),
			PlanID:     planID,
			Day:        i + 1,
			Date:       start.AddDate(0, 0, i),
			Activities: []types.Activity{},
			Hotels:     []types.HotelPlan{},
		}
	}
	return details
}

func (s *ServiceImpl) CreatePlan(ctx context.Context, caller appMiddleware.Identity, req types.CreatePlanRequest) (*types.Plan, error) {
	ctx, span := otel.Tracer("PlanService").Start(ctx, "CreatePlan", trace.WithAttributes(
		attribute.String("user.id", caller.UserID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "CreatePlan"), slog.String("user_id", caller.UserID.String()))

	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, api.BadRequest(`"endDate" must not be before "startDate"`)
	}
	if dayCount(start, end) > maxPlanDays {
		return nil, api.BadRequest(fmt.Sprintf("a plan may span at most %d days", maxPlanDays))
	}

	plan := types.Plan{
		ID:              uuid.New(),
		UserID:          caller.UserID,
		Name:            req.Name,
		City:            req.City,
		StartDate:       start,
		EndDate:         end,
		TravelCompanion: req.TravelCompanion,
		Budget:          req.Budget,
		TravelTheme:     req.TravelTheme,
		CreatedAt:       s.now(),
	}
	details := planDays(plan.ID, start, end)

	if err := s.repo.CreatePlan(ctx, plan, details); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create plan failed")
		return nil, api.Internal("Failed to create plan", err)
	}

	metrics.Get().PlansCreatedTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Plan created", slog.String("plan_id", plan.ID.String()), slog.Int("days", len(details)))
	plan.PlanDetails = details
	return &plan, nil
}

func (s *ServiceImpl) GetPlans(ctx context.Context, caller appMiddleware.Identity) ([]types.Plan, error) {
	plans, err := s.repo.GetUserPlans(ctx, caller.UserID)
	if err != nil {
		return nil, api.Internal("Failed to retrieve plans", err)
	}
	return plans, nil
}

// notFound turns a repository miss into a typed NotFound with msg.
func notFound(err error, msg, internalMsg string) error {
	if errors.Is(err, database.ErrNotFound) {
		return api.NotFound(msg)
	}
	return api.Internal(internalMsg, err)
}

func (s *ServiceImpl) authorize(caller appMiddleware.Identity, owner uuid.UUID) error {
	if !caller.CanAccess(owner) {
		return api.Forbidden("Forbidden")
	}
	return nil
}

func (s *ServiceImpl) GetPlanByID(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (*types.Plan, error) {
	plan, err := s.repo.GetPlanTree(ctx, planID)
	if err != nil {
		return nil, notFound(err, "Plan not found", "Failed to retrieve plan")
	}
	if err := s.authorize(caller, plan.UserID); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *ServiceImpl) DeletePlan(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (*types.Plan, error) {
	plan, err := s.GetPlanByID(ctx, caller, planID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeletePlan(ctx, planID); err != nil {
		return nil, notFound(err, "Plan not found", "Failed to delete plan")
	}
	s.logger.InfoContext(ctx, "Plan deleted", slog.String("plan_id", planID.String()))
	return plan, nil
}

func (s *ServiceImpl) GetPlanDetail(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID) (*types.PlanDetail, error) {
	if err := s.checkDayOwner(ctx, caller, dayID); err != nil {
		return nil, err
	}
	detail, err := s.repo.GetPlanDetail(ctx, dayID)
	if err != nil {
		return nil, notFound(err, "Day not found", "Failed to retrieve day")
	}
	return detail, nil
}

func (s *ServiceImpl) checkDayOwner(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID) error {
	owner, err := s.repo.OwnerOfDay(ctx, dayID)
	if err != nil {
		return notFound(err, "Day not found", "Failed to retrieve day")
	}
	return s.authorize(caller, owner)
}

func (s *ServiceImpl) AddActivity(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID, req types.CreateActivityRequest) (*types.Activity, error) {
	if err := s.checkDayOwner(ctx, caller, dayID); err != nil {
		return nil, err
	}
	cost, err := req.Cost.Float()
	if err != nil {
		return nil, api.BadRequest(`"cost" must be a number`)
	}

	activity := types.Activity{
		ID:           uuid.New(),
		PlanDetailID: dayID,
		Name:         req.Name,
		Description:  req.Description,
		Location:     req.Location,
		Cost:         cost,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, api.Internal("Failed to add activity", err)
	}
	return &activity, nil
}

func (s *ServiceImpl) DeleteActivity(ctx context.Context, caller appMiddleware.Identity, activityID uuid.UUID) error {
	owner, err := s.repo.OwnerOfActivity(ctx, activityID)
	if err != nil {
		return notFound(err, "Activity not found", "Failed to delete activity")
	}
	if err := s.authorize(caller, owner); err != nil {
		return err
	}
	if err := s.repo.DeleteActivity(ctx, activityID); err != nil {
		return notFound(err, "Activity not found", "Failed to delete activity")
	}
	return nil
}

// AddHotelToPlan attaches a catalog hotel to the day identified by dayID.
func (s *ServiceImpl) AddHotelToPlan(ctx context.Context, caller appMiddleware.Identity, dayID uuid.UUID, req types.AddHotelRequest) (*types.HotelPlan, error) {
	if err := s.checkDayOwner(ctx, caller, dayID); err != nil {
		return nil, err
	}
	exists, err := s.repo.HotelDetailExists(ctx, req.HotelDetailID)
	if err != nil {
		return nil, api.Internal("Failed to add hotel", err)
	}
	if !exists {
		return nil, api.NotFound("Hotel not found")
	}

	hp := types.HotelPlan{
		ID:            uuid.New(),
		PlanDetailID:  dayID,
		HotelDetailID: req.HotelDetailID,
		CreatedAt:     s.now(),
	}
	if err := s.repo.CreateHotelPlan(ctx, hp); err != nil {
		return nil, api.Internal("Failed to add hotel", err)
	}
	return &hp, nil
}

func (s *ServiceImpl) DeleteHotelFromPlan(ctx context.Context, caller appMiddleware.Identity, hotelPlanID uuid.UUID) error {
	owner, err := s.repo.OwnerOfHotelPlan(ctx, hotelPlanID)
	if err != nil {
		return notFound(err, "Hotel not found", "Failed to remove hotel")
	}
	if err := s.authorize(caller, owner); err != nil {
		return err
	}
	if err := s.repo.DeleteHotelPlan(ctx, hotelPlanID); err != nil {
		return notFound(err, "Hotel not found", "Failed to remove hotel")
	}
	return nil
}

func (s *ServiceImpl) SendMessageToBot(ctx context.Context, prompt string) (json.RawMessage, error) {
	reply, err := s.bot.SendMessage(ctx, prompt)
	if err != nil {
		return nil, api.Internal("Failed to reach the travel assistant", err)
	}
	return reply, nil
}

// GenerateItinerary asks the ML service for a day-by-day plan and stores every
// place whose day and category resolve. The upstream payload is returned as received.
func (s *ServiceImpl) GenerateItinerary(ctx context.Context, caller appMiddleware.Identity, planID uuid.UUID) (json.RawMessage, error) {
	ctx, span := otel.Tracer("PlanService").Start(ctx, "GenerateItinerary", trace.WithAttributes(
		attribute.String("plan.id", planID.String()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "GenerateItinerary"), slog.String("plan_id", planID.String()))

	start := time.Now()
	outcome := "error"
	defer func() {
		m := metrics.Get()
		m.ItineraryRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		m.ItineraryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, notFound(err, "Plan not found", "Failed to generate itinerary")
	}
	if err := s.authorize(caller, plan.UserID); err != nil {
		return nil, err
	}
	details, err := s.repo.GetPlanDetails(ctx, planID)
	if err != nil {
		return nil, api.Internal("Failed to generate itinerary", err)
	}

	result, err := s.itinerary.Itinerary(ctx, types.ItineraryRequest{
		City:            plan.City,
		TravelCompanion: plan.TravelCompanion,
		Budget:          FormatBudget(plan.Budget),
		Duration:        len(details),
		TravelTheme:     plan.TravelTheme,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream itinerary failed")
		return nil, api.Internal("Failed to generate itinerary: upstream unavailable", err)
	}

	categories, err := s.repo.CategoryIDsByName(ctx, categoryNames(result.Days))
	if err != nil {
		return nil, api.Internal("Failed to generate itinerary", err)
	}

	staged := stageItinerary(result.Days, details, categories, s.now())
	if staged.Dropped > 0 {
		l.DebugContext(ctx, "Dropped unresolvable places", slog.Int("dropped", staged.Dropped))
		metrics.Get().ItineraryPlacesDropped.Add(ctx, int64(staged.Dropped))
	}

	if err := s.repo.InsertItinerary(ctx, staged.Destinations, staged.Activities); err != nil {
		span.RecordError(err)
		return nil, api.Internal("Failed to store itinerary", err)
	}

	outcome = "ok"
	l.InfoContext(ctx, "Itinerary generated",
		slog.Int("activities", len(staged.Activities)),
		slog.Int("days", len(details)))
	return result.Raw, nil
}
