package plan

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	database "github.com/FACorreiaa/trexense-api/app/db"
	"github.com/FACorreiaa/trexense-api/internal/types"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the persistence of plans and everything hanging off a plan day.
// Lookups by id return database.ErrNotFound when nothing matches.
type Repository interface {
	CreatePlan(ctx context.Context, plan types.Plan, details []types.PlanDetail) error
	GetUserPlans(ctx context.Context, userID uuid.UUID) ([]types.Plan, error)
	GetPlan(ctx context.Context, planID uuid.UUID) (*types.Plan, error)
	GetPlanDetails(ctx context.Context, planID uuid.UUID) ([]types.PlanDetail, error)
	// GetPlanTree loads a plan with its days, their activities and hotels.
	GetPlanTree(ctx context.Context, planID uuid.UUID) (*types.Plan, error)
	DeletePlan(ctx context.Context, planID uuid.UUID) error

	GetPlanDetail(ctx context.Context, dayID uuid.UUID) (*types.PlanDetail, error)
	// OwnerOfDay, OwnerOfActivity and OwnerOfHotelPlan resolve the user owning the enclosing plan.
	OwnerOfDay(ctx context.Context, dayID uuid.UUID) (uuid.UUID, error)
	OwnerOfActivity(ctx context.Context, activityID uuid.UUID) (uuid.UUID, error)
	OwnerOfHotelPlan(ctx context.Context, hotelPlanID uuid.UUID) (uuid.UUID, error)

	CreateActivity(ctx context.Context, activity types.Activity) error
	DeleteActivity(ctx context.Context, activityID uuid.UUID) error
	HotelDetailExists(ctx context.Context, hotelDetailID uuid.UUID) (bool, error)
	CreateHotelPlan(ctx context.Context, hotelPlan types.HotelPlan) error
	DeleteHotelPlan(ctx context.Context, hotelPlanID uuid.UUID) error

	// CategoryIDsByName resolves the names that exist in the catalog; unknown names are absent from the map.
	CategoryIDsByName(ctx context.Context, names []string) (map[string]uuid.UUID, error)
	// InsertItinerary stores destinations and their activities in one transaction.
	InsertItinerary(ctx context.Context, destinations []types.Destination, activities []types.Activity) error
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

const planColumns = `id, user_id, name, city, start_date, end_date, travel_companion, budget, travel_theme, created_at`

func scanPlan(row database.RowScanner) (*types.Plan, error) {
	var p types.Plan
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.City, &p.StartDate, &p.EndDate,
		&p.TravelCompanion, &p.Budget, &p.TravelTheme, &p.CreatedAt); err != nil {
		return nil, database.Translate(err)
	}
	return &p, nil
}

// CreatePlan inserts the plan row and all of its days atomically.
func (r *RepositoryImpl) CreatePlan(ctx context.Context, plan types.Plan, details []types.PlanDetail) error {
	ctx, span := otel.Tracer("PlanRepo").Start(ctx, "CreatePlan", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "plans"),
		attribute.Int("plan.days", len(details)),
	))
	defer span.End()

	err := database.WithTx(ctx, r.pgpool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO plans (id, user_id, name, city, start_date, end_date, travel_companion, budget, travel_theme, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			plan.ID, plan.UserID, plan.Name, plan.City, plan.StartDate, plan.EndDate,
			plan.TravelCompanion, plan.Budget, plan.TravelTheme, plan.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}

		rows := make([][]any, len(details))
		for i, d := range details {
			rows[i] = []any{d.ID, d.PlanID, d.Day, d.Date}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"plan_details"},
			[]string{"id", "plan_id", "day", "date"}, pgx.CopyFromRows(rows)); err != nil {
			return fmt.Errorf("failed to insert plan details: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create plan", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "plan transaction failed")
		return err
	}
	return nil
}

func (r *RepositoryImpl) GetUserPlans(ctx context.Context, userID uuid.UUID) ([]types.Plan, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+planColumns+` FROM plans WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list plans", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := []types.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}
	return plans, nil
}

func (r *RepositoryImpl) GetPlan(ctx context.Context, planID uuid.UUID) (*types.Plan, error) {
	p, err := scanPlan(r.pgpool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, planID))
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %s: %w", planID, err)
	}
	return p, nil
}

func (r *RepositoryImpl) GetPlanDetails(ctx context.Context, planID uuid.UUID) ([]types.PlanDetail, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT id, plan_id, day, date FROM plan_details WHERE plan_id = $1 ORDER BY day`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan details: %w", err)
	}
	defer rows.Close()

	details := []types.PlanDetail{}
	for rows.Next() {
		d := types.PlanDetail{Activities: []types.Activity{}, Hotels: []types.HotelPlan{}}
		if err := rows.Scan(&d.ID, &d.PlanID, &d.Day, &d.Date); err != nil {
			return nil, fmt.Errorf("failed to scan plan detail: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *RepositoryImpl) GetPlanTree(ctx context.Context, planID uuid.UUID) (*types.Plan, error) {
	ctx, span := otel.Tracer("PlanRepo").Start(ctx, "GetPlanTree", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("plan.id", planID.String()),
	))
	defer span.End()

	plan, err := r.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	details, err := r.GetPlanDetails(ctx, planID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	index := make(map[uuid.UUID]*types.PlanDetail, len(details))
	for i := range details {
		index[details[i].ID] = &details[i]
	}

	activities, err := r.activities(ctx, `pd.plan_id = $1`, planID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, a := range activities {
		if d, ok := index[a.PlanDetailID]; ok {
			d.Activities = append(d.Activities, a)
		}
	}

	hotels, err := r.hotelPlans(ctx, `pd.plan_id = $1`, planID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	for _, h := range hotels {
		if d, ok := index[h.PlanDetailID]; ok {
			d.Hotels = append(d.Hotels, h)
		}
	}

	plan.PlanDetails = details
	return plan, nil
}

// activities loads activities with their destination, filtered by a
// condition on the plan_details alias pd.
func (r *RepositoryImpl) activities(ctx context.Context, where string, arg uuid.UUID) ([]types.Activity, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT a.id, a.plan_detail_id, a.destination_id, a.name, a.description, a.location, a.cost, a.created_at,
		       d.name, d.description, d.address, d.time, d.cost, d.category_id
		FROM activities a
		JOIN plan_details pd ON pd.id = a.plan_detail_id
		LEFT JOIN destinations d ON d.id = a.destination_id
		WHERE `+where+`
		ORDER BY a.created_at, a.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []types.Activity
	for rows.Next() {
		var a types.Activity
		var dName, dDesc, dAddr, dTime, dCost *string
		var dCategory *uuid.UUID
		if err := rows.Scan(&a.ID, &a.PlanDetailID, &a.DestinationID, &a.Name, &a.Description, &a.Location,
			&a.Cost, &a.CreatedAt, &dName, &dDesc, &dAddr, &dTime, &dCost, &dCategory); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if a.DestinationID != nil && dName != nil {
			a.Destination = &types.Destination{
				ID:          *a.DestinationID,
				Name:        *dName,
				Description: deref(dDesc),
				Address:     deref(dAddr),
				Time:        deref(dTime),
				Cost:        deref(dCost),
			}
			if dCategory != nil {
				a.Destination.CategoryID = *dCategory
			}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *RepositoryImpl) hotelPlans(ctx context.Context, where string, arg uuid.UUID) ([]types.HotelPlan, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT hp.id, hp.plan_detail_id, hp.hotel_detail_id, hp.created_at,
		       hd.hotel_id, hd.name, hd.address, hd.city, hd.rating, hd.price, hd.image_url, hd.description
		FROM hotel_plans hp
		JOIN plan_details pd ON pd.id = hp.plan_detail_id
		JOIN hotel_details hd ON hd.id = hp.hotel_detail_id
		WHERE `+where+`
		ORDER BY hp.created_at, hp.id`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query hotel plans: %w", err)
	}
	defer rows.Close()

	var out []types.HotelPlan
	for rows.Next() {
		var hp types.HotelPlan
		hd := &types.HotelDetail{}
		if err := rows.Scan(&hp.ID, &hp.PlanDetailID, &hp.HotelDetailID, &hp.CreatedAt,
			&hd.HotelID, &hd.Name, &hd.Address, &hd.City, &hd.Rating, &hd.Price, &hd.ImageURL, &hd.Description); err != nil {
			return nil, fmt.Errorf("failed to scan hotel plan: %w", err)
		}
		hd.ID = hp.HotelDetailID
		hp.HotelDetail = hd
		out = append(out, hp)
	}
	return out, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *RepositoryImpl) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	return r.deleteByID(ctx, `DELETE FROM plans WHERE id = $1`, planID)
}

func (r *RepositoryImpl) GetPlanDetail(ctx context.Context, dayID uuid.UUID) (*types.PlanDetail, error) {
	d := types.PlanDetail{Activities: []types.Activity{}, Hotels: []types.HotelPlan{}}
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, plan_id, day, date FROM plan_details WHERE id = $1`, dayID).
		Scan(&d.ID, &d.PlanID, &d.Day, &d.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan detail %s: %w", dayID, database.Translate(err))
	}

	activities, err := r.activities(ctx, `pd.id = $1`, dayID)
	if err != nil {
		return nil, err
	}
	d.Activities = append(d.Activities, activities...)

	hotels, err := r.hotelPlans(ctx, `pd.id = $1`, dayID)
	if err != nil {
		return nil, err
	}
	d.Hotels = append(d.Hotels, hotels...)
	return &d, nil
}

func (r *RepositoryImpl) owner(ctx context.Context, query string, id uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID
	if err := r.pgpool.QueryRow(ctx, query, id).Scan(&owner); err != nil {
		return uuid.Nil, database.Translate(err)
	}
	return owner, nil
}

func (r *RepositoryImpl) OwnerOfDay(ctx context.Context, dayID uuid.UUID) (uuid.UUID, error) {
	return r.owner(ctx, `
		SELECT p.user_id FROM plan_details pd
		JOIN plans p ON p.id = pd.plan_id
		WHERE pd.id = $1`, dayID)
}

func (r *RepositoryImpl) OwnerOfActivity(ctx context.Context, activityID uuid.UUID) (uuid.UUID, error) {
	return r.owner(ctx, `
		SELECT p.user_id FROM activities a
		JOIN plan_details pd ON pd.id = a.plan_detail_id
		JOIN plans p ON p.id = pd.plan_id
		WHERE a.id = $1`, activityID)
}

func (r *RepositoryImpl) OwnerOfHotelPlan(ctx context.Context, hotelPlanID uuid.UUID) (uuid.UUID, error) {
	return r.owner(ctx, `
		SELECT p.user_id FROM hotel_plans hp
		JOIN plan_details pd ON pd.id = hp.plan_detail_id
		JOIN plans p ON p.id = pd.plan_id
		WHERE hp.id = $1`, hotelPlanID)
}

func (r *RepositoryImpl) CreateActivity(ctx context.Context, a types.Activity) error {
	_, err := r.pgpool.Exec(ctx, `
		INSERT INTO activities (id, plan_detail_id, destination_id, name, description, location, cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.PlanDetailID, a.DestinationID, a.Name, a.Description, a.Location, a.Cost, a.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create activity", slog.Any("error", err))
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) DeleteActivity(ctx context.Context, activityID uuid.UUID) error {
	return r.deleteByID(ctx, `DELETE FROM activities WHERE id = $1`, activityID)
}

func (r *RepositoryImpl) HotelDetailExists(ctx context.Context, hotelDetailID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hotel_details WHERE id = $1)`, hotelDetailID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check hotel detail: %w", err)
	}
	return exists, nil
}

func (r *RepositoryImpl) CreateHotelPlan(ctx context.Context, hp types.HotelPlan) error {
	_, err := r.pgpool.Exec(ctx, `
		INSERT INTO hotel_plans (id, plan_detail_id, hotel_detail_id, created_at)
		VALUES ($1, $2, $3, $4)`,
		hp.ID, hp.PlanDetailID, hp.HotelDetailID, hp.CreatedAt)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create hotel plan", slog.Any("error", err))
		return fmt.Errorf("failed to create hotel plan: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) DeleteHotelPlan(ctx context.Context, hotelPlanID uuid.UUID) error {
	return r.deleteByID(ctx, `DELETE FROM hotel_plans WHERE id = $1`, hotelPlanID)
}

func (r *RepositoryImpl) deleteByID(ctx context.Context, query string, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, query, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Delete failed", slog.Any("error", err), slog.String("id", id.String()))
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete %s: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *RepositoryImpl) CategoryIDsByName(ctx context.Context, names []string) (map[string]uuid.UUID, error) {
	found := make(map[string]uuid.UUID, len(names))
	if len(names) == 0 {
		return found, nil
	}
	rows, err := r.pgpool.Query(ctx, `SELECT id, name FROM categories WHERE name = ANY($1)`, names)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		found[name] = id
	}
	return found, rows.Err()
}

func (r *RepositoryImpl) InsertItinerary(ctx context.Context, destinations []types.Destination, activities []types.Activity) error {
	ctx, span := otel.Tracer("PlanRepo").Start(ctx, "InsertItinerary", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "COPY"),
		attribute.Int("itinerary.destinations", len(destinations)),
		attribute.Int("itinerary.activities", len(activities)),
	))
	defer span.End()

	if len(destinations) == 0 && len(activities) == 0 {
		return nil
	}

	err := database.WithTx(ctx, r.pgpool, func(tx pgx.Tx) error {
		destRows := make([][]any, len(destinations))
		for i, d := range destinations {
			destRows[i] = []any{d.ID, d.Name, d.Description, d.Address, d.Time, d.Cost, d.CategoryID}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"destinations"},
			[]string{"id", "name", "description", "address", "time", "cost", "category_id"},
			pgx.CopyFromRows(destRows)); err != nil {
			return fmt.Errorf("failed to insert destinations: %w", err)
		}

		actRows := make([][]any, len(activities))
		for i, a := range activities {
			actRows[i] = []any{a.ID, a.PlanDetailID, a.DestinationID, a.Name, a.Description, a.Location, a.Cost, a.CreatedAt}
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{"activities"},
			[]string{"id", "plan_detail_id", "destination_id", "name", "description", "location", "cost", "created_at"},
			pgx.CopyFromRows(actRows)); err != nil {
			return fmt.Errorf("failed to insert activities: %w", err)
		}
		return nil
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to store itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "itinerary transaction failed")
		return err
	}
	return nil
}
