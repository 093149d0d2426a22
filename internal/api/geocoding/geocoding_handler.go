package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-budget/internal/api"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GeocodeHandler(w http.ResponseWriter, r *http.Request)
	ReverseGeocodeHandler(w http.ResponseWriter, r *http.Request)
	BatchGeocodeHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidGeocode):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrGeocodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrGeocodeUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// parseBounds reads "minLat,minLon,maxLat,maxLon".
func parseBounds(raw string) (*Bounds, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("%w: bounds must be minLat,minLon,maxLat,maxLon", types.ErrInvalidGeocode)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bounds value %q is not a number", types.ErrInvalidGeocode, p)
		}
		v[i] = f
	}
	b := &Bounds{MinLat: v[0], MinLon: v[1], MaxLat: v[2], MaxLon: v[3]}
	return b, b.Validate()
}

// GeocodeHandler godoc
// @Summary      Geocode an address
// @Tags         Geocoding
// @Produce      json
// @Param        q query string true "Address"
// @Param        bounds query string false "minLat,minLon,maxLat,maxLon"
// @Success      200 {object} types.GeoLocation
// @Failure      400 {object} api.Response
// @Failure      404 {object} api.Response
// @Failure      502 {object} api.Response "Provider unavailable"
// @Security     BearerAuth
// @Router       /geocode [get]
func (h *HandlerImpl) GeocodeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GeocodingHandler").Start(r.Context(), "GeocodeHandler")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GeocodeHandler"))

	q := r.URL.Query().Get("q")
	bounds, err := parseBounds(r.URL.Query().Get("bounds"))
	if err == nil {
		var loc *types.GeoLocation
		loc, err = h.service.Geocode(ctx, q, bounds)
		if err == nil {
			span.SetStatus(codes.Ok, "Geocoded")
			api.WriteJSONResponse(w, r, http.StatusOK, loc)
			return
		}
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		l.ErrorContext(ctx, "Geocoding failed", slog.String("q", q), slog.Any("error", err))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, "Geocoding failed")
	api.ErrorResponse(w, r, status, err.Error())
}

func (h *HandlerImpl) ReverseGeocodeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GeocodingHandler").Start(r.Context(), "ReverseGeocodeHandler")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ReverseGeocodeHandler"))

	lat, latErr := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	lon, lonErr := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if latErr != nil || lonErr != nil {
		span.SetStatus(codes.Error, "Invalid coordinates")
		api.ErrorResponse(w, r, http.StatusBadRequest, "lat and lon query parameters must be numbers")
		return
	}
	span.SetAttributes(attribute.Float64("geocode.lat", lat), attribute.Float64("geocode.lon", lon))

	loc, err := h.service.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			l.ErrorContext(ctx, "Reverse geocoding failed", slog.Any("error", err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Reverse geocoding failed")
		api.ErrorResponse(w, r, status, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "Reverse geocoded")
	api.WriteJSONResponse(w, r, http.StatusOK, loc)
}

func (h *HandlerImpl) BatchGeocodeHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GeocodingHandler").Start(r.Context(), "BatchGeocodeHandler")
	defer span.End()
	l := h.logger.With(slog.String("handler", "BatchGeocodeHandler"))

	var req BatchRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	results, err := h.service.GeocodeBatch(ctx, req.Addresses)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			l.ErrorContext(ctx, "Batch geocoding failed", slog.Any("error", err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Batch geocoding failed")
		api.ErrorResponse(w, r, status, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "Batch geocoded")
	api.WriteJSONResponse(w, r, http.StatusOK, results)
}
