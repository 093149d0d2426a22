package trip

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/config"
	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

const (
	sessionJanitorInterval      = 5 * time.Minute
	confirmationJanitorInterval = time.Minute
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CreateTrip(ctx context.Context, userID uuid.UUID, req types.CreateTripRequest) (*types.Trip, error)
	ListTrips(ctx context.Context, userID uuid.UUID) ([]types.TripSummary, error)
	GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error)
	UpdateTrip(ctx context.Context, userID, tripID uuid.UUID, req types.UpdateTripRequest) (*types.Trip, error)
	DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error

	OpenSession(ctx context.Context, userID, tripID uuid.UUID) (*SessionState, error)
	GetSession(ctx context.Context, userID, tripID uuid.UUID) (*SessionState, error)
	DiscardSession(ctx context.Context, userID, tripID uuid.UUID) error
	SaveSession(ctx context.Context, userID, tripID uuid.UUID) (*SessionState, error)

	Snapshot(ctx context.Context, userID, tripID uuid.UUID) (*types.TripSnapshot, error)
	Costs(ctx context.Context, userID, tripID uuid.UUID) (*planner.CostSummary, error)
	Distances(ctx context.Context, userID, tripID uuid.UUID, timeOrdered bool) ([]planner.DayDistances, error)
	ListItems(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, byTime bool) ([]types.ItineraryItem, error)

	AddDay(ctx context.Context, userID, tripID uuid.UUID) (*MutationResult, error)
	RemoveDay(ctx context.Context, userID, tripID uuid.UUID, dayNumber int) (*MutationResult, error)
	DuplicateDay(ctx context.Context, userID, tripID uuid.UUID, dayNumber int) (*MutationResult, error)
	UpdateDay(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, patch types.DayPatch) (*MutationResult, error)

	AddItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, c types.Category) (*MutationResult, error)
	UpdateItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, itemID string, patch types.ItemPatch) (*MutationResult, error)
	DeleteItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, itemID string) (*MutationResult, error)

	DragStart(ctx context.Context, userID, tripID uuid.UUID, activeID string) (*DragStatus, error)
	DragOver(ctx context.Context, userID, tripID uuid.UUID, overID string) (*DragStatus, error)
	DragEnd(ctx context.Context, userID, tripID uuid.UUID, req DragRequest) (*MutationResult, error)
	SetView(ctx context.Context, userID, tripID uuid.UUID, req ViewRequest) (*MutationResult, error)

	AddLocation(ctx context.Context, userID, tripID uuid.UUID, loc types.SavedLocation) (*MutationResult, error)
	UpdateLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string, patch types.SavedLocationPatch) (*MutationResult, error)
	DeleteLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string) (*MutationResult, error)
	PromoteLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string) (*MutationResult, error)
	DemoteLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string) (*MutationResult, error)
	ResolveConfirmation(ctx context.Context, userID, tripID uuid.UUID, token string, accept bool) (*MutationResult, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	repo    Repository
	cfg     config.PlannerConfig
	metrics *metrics.AppMetrics
	ids     planner.IDGenerator
	now     func() time.Time

	openMu        sync.Mutex
	sessions      *cache.Cache
	confirmMu     sync.Mutex
	confirmations *cache.Cache
}

// NewServiceImpl creates the trip service. cfg is expected to have passed
// config.Validate.
func NewServiceImpl(repo Repository, cfg config.PlannerConfig, m *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	s := &ServiceImpl{
		logger:  logger,
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		ids:     planner.UUIDGenerator{},
		now:     time.Now,
	}
	s.sessions = s.newSessionCache()
	s.confirmations = cache.New(cfg.ConfirmationTTL, confirmationJanitorInterval)
	return s
}

func tripSpan(ctx context.Context, name string, userID, tripID uuid.UUID, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs,
		attribute.String("user.id", userID.String()),
		attribute.String("trip.id", tripID.String()),
	)
	return otel.Tracer("TripService").Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error, msg string) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return
	}
	span.SetStatus(codes.Ok, msg)
}

func (s *ServiceImpl) CreateTrip(ctx context.Context, userID uuid.UUID, req types.CreateTripRequest) (*types.Trip, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "CreateTrip", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("trip.name", req.Name),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateTrip"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Creating trip")

	name := strings.TrimSpace(req.Name)
	if name == "" {
		err := fmt.Errorf("%w: trip name is required", types.ErrInvalidTrip)
		endSpan(span, err, "Invalid request")
		return nil, err
	}
	style := req.TravelStyle
	if style == "" {
		style = s.cfg.DefaultTravelStyle
	}
	if !style.Valid() {
		err := fmt.Errorf("%w: unknown travel style %q", types.ErrInvalidTrip, string(style))
		endSpan(span, err, "Invalid request")
		return nil, err
	}

	now := s.now()
	trip := types.Trip{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		TravelStyle: style,
		State: types.TripAggregate{
			Days:           planner.DefaultDays(s.cfg.DefaultDays),
			SavedLocations: []types.SavedLocation{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateTrip(ctx, trip); err != nil {
		l.ErrorContext(ctx, "Failed to create trip", slog.Any("error", err))
		endSpan(span, err, "Failed to create trip")
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	l.InfoContext(ctx, "Trip created", slog.String("tripID", trip.ID.String()))
	span.SetAttributes(attribute.String("trip.id", trip.ID.String()))
	endSpan(span, nil, "Trip created")
	return &trip, nil
}

func (s *ServiceImpl) ListTrips(ctx context.Context, userID uuid.UUID) ([]types.TripSummary, error) {
	ctx, span := otel.Tracer("TripService").Start(ctx, "ListTrips", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
	))
	defer span.End()

	trips, err := s.repo.ListTrips(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list trips", slog.String("userID", userID.String()), slog.Any("error", err))
		endSpan(span, err, "Failed to list trips")
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	span.SetAttributes(attribute.Int("trips.count", len(trips)))
	endSpan(span, nil, "Trips listed")
	return trips, nil
}

// GetTrip returns the persisted trip. An open session's unsaved edits are
// not included; use Snapshot for that.
func (s *ServiceImpl) GetTrip(ctx context.Context, userID, tripID uuid.UUID) (*types.Trip, error) {
	ctx, span := tripSpan(ctx, "GetTrip", userID, tripID)
	defer span.End()

	trip, err := s.repo.GetTrip(ctx, tripID, userID)
	endSpan(span, err, "Trip fetched")
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *ServiceImpl) UpdateTrip(ctx context.Context, userID, tripID uuid.UUID, req types.UpdateTripRequest) (*types.Trip, error) {
	ctx, span := tripSpan(ctx, "UpdateTrip", userID, tripID)
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateTrip"), slog.String("tripID", tripID.String()))

	trip, err := s.repo.GetTrip(ctx, tripID, userID)
	if err != nil {
		endSpan(span, err, "Failed to load trip")
		return nil, err
	}
	if req.Name != nil {
		trip.Name = strings.TrimSpace(*req.Name)
	}
	if req.TravelStyle != nil {
		trip.TravelStyle = *req.TravelStyle
	}
	if trip.Name == "" {
		err = fmt.Errorf("%w: trip name is required", types.ErrInvalidTrip)
		endSpan(span, err, "Invalid request")
		return nil, err
	}
	if !trip.TravelStyle.Valid() {
		err = fmt.Errorf("%w: unknown travel style %q", types.ErrInvalidTrip, string(trip.TravelStyle))
		endSpan(span, err, "Invalid request")
		return nil, err
	}

	trip.UpdatedAt, err = s.repo.UpdateTripDetails(ctx, tripID, userID, trip.Name, trip.TravelStyle)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update trip", slog.Any("error", err))
		endSpan(span, err, "Failed to update trip")
		return nil, err
	}

	if sess, ok := s.lookupSession(userID, tripID); ok {
		sess.mu.Lock()
		sess.meta.Name = trip.Name
		sess.meta.TravelStyle = trip.TravelStyle
		sess.meta.UpdatedAt = trip.UpdatedAt
		sess.mu.Unlock()
	}

	l.InfoContext(ctx, "Trip updated")
	endSpan(span, nil, "Trip updated")
	return trip, nil
}

func (s *ServiceImpl) DeleteTrip(ctx context.Context, userID, tripID uuid.UUID) error {
	ctx, span := tripSpan(ctx, "DeleteTrip", userID, tripID)
	defer span.End()

	if err := s.repo.DeleteTrip(ctx, tripID, userID); err != nil {
		endSpan(span, err, "Failed to delete trip")
		return err
	}
	s.dropSession(ctx, userID, tripID)
	s.logger.InfoContext(ctx, "Trip deleted", slog.String("tripID", tripID.String()))
	endSpan(span, nil, "Trip deleted")
	return nil
}

// OpenSession returns the working copy of a trip, loading it when no
// session is open. Opening an open session is a no-op.
func (s *ServiceImpl) OpenSession(ctx context.Context, userID, tripID uuid.UUID) (*SessionState, error) {
	ctx, span := tripSpan(ctx, "OpenSession", userID, tripID)
	defer span.End()

	var state SessionState
	err := s.withSession(ctx, userID, tripID, func(sess *session) error {
		state = sess.state(s.cfg.MaxDays)
		return nil
	})
	endSpan(span, err, "Session opened")
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *ServiceImpl) GetSession(ctx context.Context, userID, tripID uuid.UUID) (*SessionState, error) {
	_, span := tripSpan(ctx, "GetSession", userID, tripID)
	defer span.End()

	sess, ok := s.lookupSession(userID, tripID)
	if !ok {
		endSpan(span, types.ErrSessionNotFound, "No session")
		return nil, types.ErrSessionNotFound
	}
	sess.mu.Lock()
	state := sess.state(s.cfg.MaxDays)
	sess.mu.Unlock()
	endSpan(span, nil, "Session fetched")
	return &state, nil
}

// DiscardSession drops the working copy and its unsaved edits.
func (s *ServiceImpl) DiscardSession(ctx context.Context, userID, tripID uuid.UUID) error {
	ctx, span := tripSpan(ctx, "DiscardSession", userID, tripID)
	defer span.End()

	if !s.dropSession(ctx, userID, tripID) {
		endSpan(span, types.ErrSessionNotFound, "No session")
		return types.ErrSessionNotFound
	}
	s.logger.InfoContext(ctx, "Editing session discarded", slog.String("tripID", tripID.String()))
	endSpan(span, nil, "Session discarded")
	return nil
}

// SaveSession persists the working copy as one aggregate. The session stays
// open and becomes clean.
func (s *ServiceImpl) SaveSession(ctx context.Context, userID, tripID uuid.UUID) (*SessionState, error) {
	ctx, span := tripSpan(ctx, "SaveSession", userID, tripID)
	defer span.End()

	l := s.logger.With(slog.String("method", "SaveSession"), slog.String("tripID", tripID.String()))

	sess, ok := s.lookupSession(userID, tripID)
	if !ok {
		endSpan(span, types.ErrSessionNotFound, "No session")
		return nil, types.ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed.Load() {
		endSpan(span, types.ErrSessionNotFound, "No session")
		return nil, types.ErrSessionNotFound
	}

	version := sess.trip.Version()
	savedAt, err := s.repo.SaveTripState(ctx, tripID, userID, sess.trip.Aggregate())
	if err != nil {
		l.ErrorContext(ctx, "Failed to save trip", slog.Any("error", err))
		s.metrics.TripSavesTotal.Add(ctx, 1, metricStatus("error"))
		endSpan(span, err, "Failed to save trip")
		return nil, fmt.Errorf("failed to save trip: %w", err)
	}
	sess.savedVersion = version
	sess.savedAt = savedAt
	sess.meta.UpdatedAt = savedAt

	s.metrics.TripSavesTotal.Add(ctx, 1, metricStatus("ok"))
	l.InfoContext(ctx, "Trip saved", slog.Uint64("version", version))
	endSpan(span, nil, "Trip saved")
	state := sess.state(s.cfg.MaxDays)
	return &state, nil
}

// Snapshot returns the open working copy when there is one, otherwise the
// persisted trip, together with the base costs of its travel style.
func (s *ServiceImpl) Snapshot(ctx context.Context, userID, tripID uuid.UUID) (*types.TripSnapshot, error) {
	ctx, span := tripSpan(ctx, "Snapshot", userID, tripID)
	defer span.End()

	var trip types.Trip
	if sess, ok := s.lookupSession(userID, tripID); ok {
		sess.mu.Lock()
		trip = sess.snapshot()
		sess.mu.Unlock()
		span.SetAttributes(attribute.Bool("trip.working_copy", true))
	} else {
		stored, err := s.repo.GetTrip(ctx, tripID, userID)
		if err != nil {
			endSpan(span, err, "Failed to load trip")
			return nil, err
		}
		trip = *stored
	}
	endSpan(span, nil, "Snapshot taken")
	return &types.TripSnapshot{Trip: trip, BaseCosts: s.cfg.BaseCosts(trip.TravelStyle)}, nil
}

func (s *ServiceImpl) Costs(ctx context.Context, userID, tripID uuid.UUID) (*planner.CostSummary, error) {
	snap, err := s.Snapshot(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	summary := planner.Summarize(snap.Trip.State.Days, snap.BaseCosts)
	return &summary, nil
}

func (s *ServiceImpl) Distances(ctx context.Context, userID, tripID uuid.UUID, timeOrdered bool) ([]planner.DayDistances, error) {
	snap, err := s.Snapshot(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	return planner.EstimateTrip(snap.Trip.State.Days, timeOrdered), nil
}

// ListItems returns the items of a day, in stored order or by start time.
func (s *ServiceImpl) ListItems(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, byTime bool) ([]types.ItineraryItem, error) {
	snap, err := s.Snapshot(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	day, ok := findDay(snap.Trip.State.Days, dayNumber)
	if !ok {
		return nil, fmt.Errorf("day %d: %w", dayNumber, types.ErrNotFound)
	}
	if byTime {
		return planner.SortByTime(day.CustomItems), nil
	}
	return day.CustomItems, nil
}

func findDay(days []types.DayPlan, dayNumber int) (types.DayPlan, bool) {
	for _, d := range days {
		if d.DayNumber == dayNumber {
			return d, true
		}
	}
	return types.DayPlan{}, false
}
