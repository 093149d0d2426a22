package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/config"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

const maxResponseBytes = 1 << 20

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Geocode(ctx context.Context, address string, bounds *Bounds) (*types.GeoLocation, error)
	ReverseGeocode(ctx context.Context, lat, lon float64) (*types.GeoLocation, error)
	GeocodeBatch(ctx context.Context, addresses []string) ([]BatchResult, error)
}

// ServiceImpl talks to a Nominatim-compatible provider. Outbound requests
// share one rate limiter; successful lookups are cached.
type ServiceImpl struct {
	logger  *slog.Logger
	cfg     config.GeocodingConfig
	client  *http.Client
	limiter *rate.Limiter
	cache   *cache.Cache
	metrics *metrics.AppMetrics
}

func NewServiceImpl(cfg config.GeocodingConfig, m *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &ServiceImpl{
		logger:  logger,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		cache:   cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		metrics: m,
	}
}

func normalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}

func (s *ServiceImpl) Geocode(ctx context.Context, address string, bounds *Bounds) (*types.GeoLocation, error) {
	ctx, span := otel.Tracer("GeocodingService").Start(ctx, "Geocode", trace.WithAttributes(
		attribute.String("geocode.address", address),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Geocode"))

	query := strings.TrimSpace(address)
	if query == "" {
		err := fmt.Errorf("%w: address is required", types.ErrInvalidGeocode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty address")
		return nil, err
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	key := "fwd:" + normalizeAddress(query)
	if bounds != nil {
		if err := bounds.Validate(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Invalid bounds")
			return nil, err
		}
		params.Set("viewbox", bounds.viewbox())
		params.Set("bounded", "1")
		key += "|" + bounds.viewbox()
	}

	if v, ok := s.cache.Get(key); ok {
		loc := v.(types.GeoLocation)
		span.SetAttributes(attribute.Bool("geocode.cache_hit", true))
		span.SetStatus(codes.Ok, "Cache hit")
		return &loc, nil
	}

	var places []place
	if err := s.fetch(ctx, "forward", "/search", params, &places); err != nil {
		l.WarnContext(ctx, "Geocoding request failed", slog.String("address", query), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider request failed")
		return nil, err
	}
	if len(places) == 0 {
		span.SetStatus(codes.Error, "Not found")
		return nil, fmt.Errorf("%q: %w", query, types.ErrGeocodeNotFound)
	}
	loc, err := places[0].toLocation()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Malformed provider response")
		return nil, err
	}

	s.cache.SetDefault(key, loc)
	span.SetStatus(codes.Ok, "Geocoded")
	return &loc, nil
}

func (s *ServiceImpl) ReverseGeocode(ctx context.Context, lat, lon float64) (*types.GeoLocation, error) {
	ctx, span := otel.Tracer("GeocodingService").Start(ctx, "ReverseGeocode", trace.WithAttributes(
		attribute.Float64("geocode.lat", lat),
		attribute.Float64("geocode.lon", lon),
	))
	defer span.End()

	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		err := fmt.Errorf("%w: coordinates out of range", types.ErrInvalidGeocode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid coordinates")
		return nil, err
	}

	key := fmt.Sprintf("rev:%.5f,%.5f", lat, lon)
	if v, ok := s.cache.Get(key); ok {
		loc := v.(types.GeoLocation)
		span.SetStatus(codes.Ok, "Cache hit")
		return &loc, nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "jsonv2")

	var p place
	if err := s.fetch(ctx, "reverse", "/reverse", params, &p); err != nil {
		s.logger.WarnContext(ctx, "Reverse geocoding request failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Provider request failed")
		return nil, err
	}
	if p.Error != "" || p.Lat == "" {
		span.SetStatus(codes.Error, "Not found")
		return nil, fmt.Errorf("%.5f,%.5f: %w", lat, lon, types.ErrGeocodeNotFound)
	}
	loc, err := p.toLocation()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Malformed provider response")
		return nil, err
	}

	s.cache.SetDefault(key, loc)
	span.SetStatus(codes.Ok, "Reverse geocoded")
	return &loc, nil
}

// GeocodeBatch resolves addresses concurrently. Per-address failures are
// reported in the results; only cancellation or an oversized batch fails
// the call. Results keep the input order.
func (s *ServiceImpl) GeocodeBatch(ctx context.Context, addresses []string) ([]BatchResult, error) {
	ctx, span := otel.Tracer("GeocodingService").Start(ctx, "GeocodeBatch", trace.WithAttributes(
		attribute.Int("geocode.batch_size", len(addresses)),
	))
	defer span.End()

	if len(addresses) == 0 || len(addresses) > s.cfg.BatchMaxSize {
		err := fmt.Errorf("%w: batch must hold 1 to %d addresses", types.ErrInvalidGeocode, s.cfg.BatchMaxSize)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid batch size")
		return nil, err
	}

	results := make([]BatchResult, len(addresses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.cfg.BatchConcurrency, 1))
	for i, address := range addresses {
		g.Go(func() error {
			results[i].Address = address
			loc, err := s.Geocode(gctx, address, nil)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				results[i].Error = err.Error()
				return nil
			}
			results[i].Location = loc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Batch cancelled")
		return nil, err
	}
	span.SetStatus(codes.Ok, "Batch geocoded")
	return results, nil
}

// fetch waits for the rate limiter, performs a GET against the provider and
// decodes the JSON body into dst.
func (s *ServiceImpl) fetch(ctx context.Context, kind, path string, params url.Values, dst any) (err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		switch {
		case errors.Is(err, types.ErrGeocodeUnavailable):
			status = "unavailable"
		case err != nil:
			status = "error"
		}
		attrs := metric.WithAttributes(attribute.String("kind", kind), attribute.String("status", status))
		s.metrics.GeocodeRequestsTotal.Add(ctx, 1, attrs)
		s.metrics.GeocodeDurationSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attribute.String("kind", kind)))
	}()

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(s.cfg.BaseURL, "/")+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build geocoding request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", types.ErrGeocodeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: provider returned %s", types.ErrGeocodeUnavailable, resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode provider response: %v", types.ErrGeocodeUnavailable, err)
	}
	return nil
}

func (p place) toLocation() (types.GeoLocation, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return types.GeoLocation{}, fmt.Errorf("%w: bad latitude %q", types.ErrGeocodeUnavailable, p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return types.GeoLocation{}, fmt.Errorf("%w: bad longitude %q", types.ErrGeocodeUnavailable, p.Lon)
	}
	return types.GeoLocation{Lat: lat, Lon: lon, Address: p.DisplayName}, nil
}
