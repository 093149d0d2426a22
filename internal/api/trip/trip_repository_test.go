package trip

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

func testMetrics(t *testing.T) *metrics.AppMetrics {
	t.Helper()
	m, err := metrics.NewAppMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return m
}

func setupRepositoryTest(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepository(mock, testMetrics(t), logger), mock
}

var tripColumns = []string{"id", "user_id", "name", "travel_style", "state", "created_at", "updated_at"}

func TestRepositoryImpl_CreateTrip(t *testing.T) {
	repo, mock := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now()
	trip := types.Trip{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Name:        "Lisbon",
		TravelStyle: types.TravelStyleBudget,
		State:       types.TripAggregate{Days: planner.DefaultDays(2)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO trips").
			WithArgs(trip.ID, trip.UserID, "Lisbon", "budget", pgxmock.AnyArg(), now, now).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.CreateTrip(ctx, trip))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mock.ExpectExec("INSERT INTO trips").WillReturnError(dbErr)

		err := repo.CreateTrip(ctx, trip)
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create trip")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRepositoryImpl_GetTrip(t *testing.T) {
	repo, mock := setupRepositoryTest(t)
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()
	now := time.Now()

	t.Run("decodes legacy payloads", func(t *testing.T) {
		legacy := []byte(`[{"dayNumber":2,"included":{"food":true},"includeBase":{},"customItems":[]}]`)
		mock.ExpectQuery("SELECT (.+) FROM trips").
			WithArgs(tripID, userID).
			WillReturnRows(pgxmock.NewRows(tripColumns).AddRow(tripID, userID, "Porto", "luxury", legacy, now, now))

		got, err := repo.GetTrip(ctx, tripID, userID)
		require.NoError(t, err)

		assert.Equal(t, "Porto", got.Name)
		assert.Equal(t, types.TravelStyleLuxury, got.TravelStyle)
		require.Len(t, got.State.Days, 1)
		assert.Equal(t, 1, got.State.Days[0].DayNumber)
		assert.NotNil(t, got.State.SavedLocations)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM trips").
			WithArgs(tripID, userID).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetTrip(ctx, tripID, userID)
		assert.ErrorIs(t, err, types.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt payload", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM trips").
			WithArgs(tripID, userID).
			WillReturnRows(pgxmock.NewRows(tripColumns).AddRow(tripID, userID, "x", "budget", []byte(`{"days":"nope"}`), now, now))

		_, err := repo.GetTrip(ctx, tripID, userID)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, types.ErrNotFound)
	})
}

func TestRepositoryImpl_ListTrips(t *testing.T) {
	repo, mock := setupRepositoryTest(t)
	ctx := context.Background()
	userID := uuid.New()
	a, b := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM trips (.+) ORDER BY updated_at DESC").
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "travel_style", "day_count", "updated_at"}).
			AddRow(a, "A", "budget", 3, now).
			AddRow(b, "B", "mid-range", 7, now.Add(-time.Hour)))

	got, err := repo.ListTrips(ctx, userID)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, a, got[0].ID)
	assert.Equal(t, 7, got[1].DayCount)
	assert.Equal(t, types.TravelStyleMidRange, got[1].TravelStyle)
	assert.NoError(t, mock.ExpectationsWereMet())

	t.Run("empty list is not nil", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM trips").
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "travel_style", "day_count", "updated_at"}))

		got, err := repo.ListTrips(ctx, userID)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestRepositoryImpl_SaveTripState(t *testing.T) {
	repo, mock := setupRepositoryTest(t)
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()
	saved := time.Now()

	mock.ExpectQuery("UPDATE trips SET state").
		WithArgs(tripID, userID, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(saved))

	got, err := repo.SaveTripState(ctx, tripID, userID, types.TripAggregate{Days: planner.DefaultDays(1)})
	require.NoError(t, err)
	assert.Equal(t, saved, got)

	mock.ExpectQuery("UPDATE trips SET state").
		WithArgs(tripID, userID, pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.SaveTripState(ctx, tripID, userID, types.TripAggregate{})
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryImpl_UpdateTripDetails(t *testing.T) {
	repo, mock := setupRepositoryTest(t)
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()
	saved := time.Now()

	mock.ExpectQuery("UPDATE trips SET name").
		WithArgs(tripID, userID, "Renamed", "luxury").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(saved))

	got, err := repo.UpdateTripDetails(ctx, tripID, userID, "Renamed", types.TravelStyleLuxury)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryImpl_DeleteTrip(t *testing.T) {
	repo, mock := setupRepositoryTest(t)
	ctx := context.Background()
	tripID, userID := uuid.New(), uuid.New()

	mock.ExpectExec("DELETE FROM trips").
		WithArgs(tripID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, repo.DeleteTrip(ctx, tripID, userID))

	mock.ExpectExec("DELETE FROM trips").
		WithArgs(tripID, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	assert.ErrorIs(t, repo.DeleteTrip(ctx, tripID, userID), types.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
