package container

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/config"
	"github.com/FACorreiaa/go-trip-budget/internal/api/auth"
	"github.com/FACorreiaa/go-trip-budget/internal/router"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Planner = config.PlannerConfig{
		MaxDays:            10,
		DefaultDays:        3,
		SessionTTL:         time.Minute,
		ConfirmationTTL:    time.Minute,
		DefaultTravelStyle: types.TravelStyleBudget,
		TravelStyles: map[types.TravelStyle]types.BaseCosts{
			types.TravelStyleBudget: {Accommodation: 40, Food: 25, Transport: 8, Activities: 15},
		},
	}
	cfg.Geocoding = config.GeocodingConfig{BaseURL: "http://127.0.0.1:0", Timeout: time.Second, BatchConcurrency: 1, BatchMaxSize: 5}
	return cfg
}

// TestContainer_ExportThroughStoredTrip drives an export request through the
// wired router, services and repository against a mocked pool.
func TestContainer_ExportThroughStoredTrip(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	m, err := metrics.NewAppMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := newContainer(testConfig(), nil, pool, m, logger)

	userID, tripID := uuid.New(), uuid.New()
	state := []byte(`{"days":[{"dayNumber":1,"date":"2025-06-01","included":{"accommodation":true,"food":true,"transport":true,"activities":true},` +
		`"includeBase":{"accommodation":true,"food":true,"transport":true,"activities":true},` +
		`"customItems":[{"id":"museum","name":"Museum","category":"ACTIVITIES","amount":1500,"visits":1,"timeSlot":{"startTime":"10:00"}}]}],"savedLocations":[]}`)
	now := time.Now()
	pool.ExpectQuery("SELECT (.+) FROM trips").
		WithArgs(tripID, userID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "name", "travel_style", "state", "created_at", "updated_at"}).
			AddRow(tripID, userID, "Museums", "budget", state, now, now))

	h := router.SetupRouter(&router.Config{
		TripHandler:      c.TripHandler,
		GeocodingHandler: c.GeocodingHandler,
		ExportHandler:    c.ExportHandler,
		AuthenticateMiddleware: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID.String())))
			})
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/trips/"+tripID.String()+"/export.ics", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "SUMMARY:Museum")
	assert.Contains(t, rec.Body.String(), "DTSTART:20250601T100000")
	assert.NoError(t, pool.ExpectationsWereMet())
}
