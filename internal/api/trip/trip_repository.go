package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// DB is the subset of pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CreateTrip(ctx context.Context, trip types.Trip) error
	GetTrip(ctx context.Context, tripID, userID uuid.UUID) (*types.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID) ([]types.TripSummary, error)
	UpdateTripDetails(ctx context.Context, tripID, userID uuid.UUID, name string, style types.TravelStyle) (time.Time, error)
	SaveTripState(ctx context.Context, tripID, userID uuid.UUID, state types.TripAggregate) (time.Time, error)
	DeleteTrip(ctx context.Context, tripID, userID uuid.UUID) error
}

type RepositoryImpl struct {
	logger  *slog.Logger
	db      DB
	metrics *metrics.AppMetrics
}

func NewRepository(db DB, m *metrics.AppMetrics, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger:  logger,
		db:      db,
		metrics: m,
	}
}

// observe records query latency and failures under the query name.
func (r *RepositoryImpl) observe(ctx context.Context, query string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("query", query))
	r.metrics.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		r.metrics.DbQueryErrorsTotal.Add(ctx, 1, attrs)
	}
}

func (r *RepositoryImpl) CreateTrip(ctx context.Context, trip types.Trip) (err error) {
	defer func(start time.Time) { r.observe(ctx, "create_trip", start, err) }(time.Now())

	state, err := planner.EncodeAggregate(trip.State)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO trips (id, user_id, name, travel_style, state, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err = r.db.Exec(ctx, query,
		trip.ID, trip.UserID, trip.Name, string(trip.TravelStyle), state, trip.CreatedAt, trip.UpdatedAt,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create trip", slog.Any("error", err))
		return fmt.Errorf("failed to create trip: %w", err)
	}
	return nil
}

// GetTrip loads a trip owned by userID. The stored payload is decoded and
// normalized, so legacy rows come back in the current shape.
func (r *RepositoryImpl) GetTrip(ctx context.Context, tripID, userID uuid.UUID) (_ *types.Trip, err error) {
	defer func(start time.Time) { r.observe(ctx, "get_trip", start, err) }(time.Now())

	query := `
        SELECT id, user_id, name, travel_style, state, created_at, updated_at
        FROM trips
        WHERE id = $1 AND user_id = $2
    `
	var (
		trip  types.Trip
		style string
		raw   []byte
	)
	err = r.db.QueryRow(ctx, query, tripID, userID).Scan(
		&trip.ID, &trip.UserID, &trip.Name, &style, &raw, &trip.CreatedAt, &trip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to get trip", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	trip.TravelStyle = types.TravelStyle(style)

	trip.State, err = planner.DecodeAggregate(raw)
	if err != nil {
		r.logger.ErrorContext(ctx, "Stored trip payload is unreadable", slog.String("tripID", tripID.String()), slog.Any("error", err))
		return nil, err
	}
	return &trip, nil
}

func (r *RepositoryImpl) ListTrips(ctx context.Context, userID uuid.UUID) (_ []types.TripSummary, err error) {
	defer func(start time.Time) { r.observe(ctx, "list_trips", start, err) }(time.Now())

	query := `
        SELECT id, name, travel_style,
               COALESCE(jsonb_array_length(
                   CASE WHEN jsonb_typeof(state) = 'array' THEN state ELSE state->'days' END
               ), 0) AS day_count,
               updated_at
        FROM trips
        WHERE user_id = $1
        ORDER BY updated_at DESC
    `
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list trips", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	trips := []types.TripSummary{}
	for rows.Next() {
		var (
			s     types.TripSummary
			style string
		)
		if err = rows.Scan(&s.ID, &s.Name, &style, &s.DayCount, &s.UpdatedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan trip row", slog.Any("error", err))
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		s.TravelStyle = types.TravelStyle(style)
		trips = append(trips, s)
	}
	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating trip rows", slog.Any("error", err))
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}
	return trips, nil
}

func (r *RepositoryImpl) UpdateTripDetails(ctx context.Context, tripID, userID uuid.UUID, name string, style types.TravelStyle) (_ time.Time, err error) {
	defer func(start time.Time) { r.observe(ctx, "update_trip_details", start, err) }(time.Now())

	query := `
        UPDATE trips SET name = $3, travel_style = $4, updated_at = now()
        WHERE id = $1 AND user_id = $2
        RETURNING updated_at
    `
	var updatedAt time.Time
	err = r.db.QueryRow(ctx, query, tripID, userID, name, string(style)).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to update trip details", slog.Any("error", err))
		return time.Time{}, fmt.Errorf("failed to update trip details: %w", err)
	}
	return updatedAt, nil
}

// SaveTripState replaces the stored aggregate wholesale.
func (r *RepositoryImpl) SaveTripState(ctx context.Context, tripID, userID uuid.UUID, state types.TripAggregate) (_ time.Time, err error) {
	defer func(start time.Time) { r.observe(ctx, "save_trip_state", start, err) }(time.Now())

	raw, err := planner.EncodeAggregate(state)
	if err != nil {
		return time.Time{}, err
	}
	query := `
        UPDATE trips SET state = $3, updated_at = now()
        WHERE id = $1 AND user_id = $2
        RETURNING updated_at
    `
	var updatedAt time.Time
	err = r.db.QueryRow(ctx, query, tripID, userID, raw).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
		}
		r.logger.ErrorContext(ctx, "Failed to save trip state", slog.Any("error", err))
		return time.Time{}, fmt.Errorf("failed to save trip state: %w", err)
	}
	return updatedAt, nil
}

func (r *RepositoryImpl) DeleteTrip(ctx context.Context, tripID, userID uuid.UUID) (err error) {
	defer func(start time.Time) { r.observe(ctx, "delete_trip", start, err) }(time.Now())

	tag, err := r.db.Exec(ctx, `DELETE FROM trips WHERE id = $1 AND user_id = $2`, tripID, userID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete trip", slog.Any("error", err))
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("trip %s: %w", tripID, types.ErrNotFound)
	}
	return nil
}
