package geocoding

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/config"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// fakeProvider serves a tiny Nominatim subset. Addresses containing
// "nowhere" have no match and "boom" makes the provider fail.
type fakeProvider struct {
	hits    atomic.Int32
	lastReq atomic.Value
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.hits.Add(1)
	f.lastReq.Store(r.URL.RawQuery)
	q := r.URL.Query()
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/search":
		addr := q.Get("q")
		switch {
		case strings.Contains(addr, "boom"):
			w.WriteHeader(http.StatusServiceUnavailable)
		case strings.Contains(addr, "nowhere"):
			_, _ = io.WriteString(w, `[]`)
		default:
			_, _ = fmt.Fprintf(w, `[{"lat":"38.7223","lon":"-9.1393","display_name":%q}]`, addr+", Portugal")
		}
	case "/reverse":
		if q.Get("lat") == "0" {
			_, _ = io.WriteString(w, `{"error":"Unable to geocode"}`)
			return
		}
		_, _ = io.WriteString(w, `{"lat":"41.1579","lon":"-8.6291","display_name":"Porto, Portugal"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func setupGeocodingServiceTest(t *testing.T) (*ServiceImpl, *fakeProvider) {
	t.Helper()
	provider := &fakeProvider{}
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	m, err := metrics.NewAppMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	cfg := config.GeocodingConfig{
		BaseURL:          srv.URL,
		UserAgent:        "trip-budget-test",
		Timeout:          2 * time.Second,
		CacheTTL:         time.Minute,
		BatchConcurrency: 3,
		BatchMaxSize:     5,
	}
	return NewServiceImpl(cfg, m, slog.New(slog.NewTextHandler(io.Discard, nil))), provider
}

func TestServiceImpl_Geocode(t *testing.T) {
	service, provider := setupGeocodingServiceTest(t)
	ctx := context.Background()

	t.Run("success is cached", func(t *testing.T) {
		loc, err := service.Geocode(ctx, "Praça do Comércio", nil)
		require.NoError(t, err)
		assert.InDelta(t, 38.7223, loc.Lat, 1e-9)
		assert.InDelta(t, -9.1393, loc.Lon, 1e-9)
		assert.Equal(t, "Praça do Comércio, Portugal", loc.Address)

		_, err = service.Geocode(ctx, "  praça   do comércio ", nil)
		require.NoError(t, err)
		assert.Equal(t, int32(1), provider.hits.Load())
	})

	t.Run("bounds are sent as a viewbox", func(t *testing.T) {
		_, err := service.Geocode(ctx, "Lisbon", &Bounds{MinLat: 38, MinLon: -10, MaxLat: 39, MaxLon: -9})
		require.NoError(t, err)
		raw := provider.lastReq.Load().(string)
		assert.Contains(t, raw, "bounded=1")
		assert.Contains(t, raw, "viewbox=-10%2C39%2C-9%2C38")
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := service.Geocode(ctx, "   ", nil)
		assert.ErrorIs(t, err, types.ErrInvalidGeocode)

		_, err = service.Geocode(ctx, "x", &Bounds{MinLat: 10, MaxLat: 5, MinLon: 0, MaxLon: 1})
		assert.ErrorIs(t, err, types.ErrInvalidGeocode)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := service.Geocode(ctx, "nowhere street", nil)
		assert.ErrorIs(t, err, types.ErrGeocodeNotFound)
	})

	t.Run("provider failure", func(t *testing.T) {
		_, err := service.Geocode(ctx, "boom", nil)
		assert.ErrorIs(t, err, types.ErrGeocodeUnavailable)
	})
}

func TestServiceImpl_ReverseGeocode(t *testing.T) {
	service, provider := setupGeocodingServiceTest(t)
	ctx := context.Background()

	loc, err := service.ReverseGeocode(ctx, 41.1579, -8.6291)
	require.NoError(t, err)
	assert.Equal(t, "Porto, Portugal", loc.Address)

	_, err = service.ReverseGeocode(ctx, 41.157901, -8.629101)
	require.NoError(t, err)
	assert.Equal(t, int32(1), provider.hits.Load(), "nearby coordinates share a cache entry")

	_, err = service.ReverseGeocode(ctx, 0, 0)
	assert.ErrorIs(t, err, types.ErrGeocodeNotFound)

	_, err = service.ReverseGeocode(ctx, 91, 0)
	assert.ErrorIs(t, err, types.ErrInvalidGeocode)
}

func TestServiceImpl_GeocodeBatch(t *testing.T) {
	service, _ := setupGeocodingServiceTest(t)
	ctx := context.Background()

	results, err := service.GeocodeBatch(ctx, []string{"Lisbon", "nowhere", "Porto", "boom"})
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, "Lisbon", results[0].Address)
	assert.NotNil(t, results[0].Location)
	assert.Empty(t, results[0].Error)

	assert.Nil(t, results[1].Location)
	assert.Contains(t, results[1].Error, "not found")

	assert.Equal(t, "Porto, Portugal", results[2].Location.Address)
	assert.Contains(t, results[3].Error, "unavailable")

	_, err = service.GeocodeBatch(ctx, nil)
	assert.ErrorIs(t, err, types.ErrInvalidGeocode)
	_, err = service.GeocodeBatch(ctx, make([]string, 6))
	assert.ErrorIs(t, err, types.ErrInvalidGeocode)
}

func TestServiceImpl_RateLimitHonoursContext(t *testing.T) {
	service, _ := setupGeocodingServiceTest(t)
	service.limiter.SetLimit(0.001)
	service.limiter.SetBurst(1)

	_, err := service.Geocode(context.Background(), "first", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = service.Geocode(ctx, "second", nil)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrGeocodeUnavailable)
}
