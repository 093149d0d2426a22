package metrics

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "TripBudget"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	TripSavesTotal         metric.Int64Counter
	ItemMovesTotal         metric.Int64Counter
	AutoFillPropagations   metric.Int64Counter
	ConfirmationsTotal     metric.Int64Counter
	ActiveSessions         metric.Int64UpDownCounter
	GeocodeRequestsTotal   metric.Int64Counter
	GeocodeDurationSeconds metric.Float64Histogram
	DbQueryDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal     metric.Int64Counter
	ExportRendersTotal     metric.Int64Counter
	ExportDurationSeconds  metric.Float64Histogram
}

// New builds the instruments from the global MeterProvider.
func New() (*AppMetrics, error) {
	return NewAppMetrics(otel.GetMeterProvider().Meter(meterName))
}

// NewAppMetrics builds the instruments from meter. Tests pass a noop meter.
func NewAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	if m.TripSavesTotal, err = meter.Int64Counter(
		"trip_saves_total",
		metric.WithDescription("Total number of trip working copies persisted"),
		metric.WithUnit("{save}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create trip_saves_total: %w", err)
	}

	if m.ItemMovesTotal, err = meter.Int64Counter(
		"item_moves_total",
		metric.WithDescription("Drag-and-drop moves applied, by kind"),
		metric.WithUnit("{move}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create item_moves_total: %w", err)
	}

	if m.AutoFillPropagations, err = meter.Int64Counter(
		"autofill_items_written_total",
		metric.WithDescription("Itinerary items written by saved location auto-fill"),
		metric.WithUnit("{item}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create autofill_items_written_total: %w", err)
	}

	if m.ConfirmationsTotal, err = meter.Int64Counter(
		"confirmations_total",
		metric.WithDescription("Pending confirmations resolved, by outcome"),
		metric.WithUnit("{confirmation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create confirmations_total: %w", err)
	}

	if m.ActiveSessions, err = meter.Int64UpDownCounter(
		"editing_sessions_active",
		metric.WithDescription("Open editing sessions"),
		metric.WithUnit("{session}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create editing_sessions_active: %w", err)
	}

	if m.GeocodeRequestsTotal, err = meter.Int64Counter(
		"geocode_requests_total",
		metric.WithDescription("Geocoding lookups, by kind and result"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create geocode_requests_total: %w", err)
	}

	if m.GeocodeDurationSeconds, err = meter.Float64Histogram(
		"geocode_duration_seconds",
		metric.WithDescription("Duration of upstream geocoding calls in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create geocode_duration_seconds: %w", err)
	}

	if m.DbQueryDurationSeconds, err = meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Duration of database queries in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create db_query_duration_seconds: %w", err)
	}

	if m.DbQueryErrorsTotal, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Total number of database query errors"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create db_query_errors_total: %w", err)
	}

	if m.ExportRendersTotal, err = meter.Int64Counter(
		"export_renders_total",
		metric.WithDescription("Trip exports rendered, by format"),
		metric.WithUnit("{export}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create export_renders_total: %w", err)
	}

	if m.ExportDurationSeconds, err = meter.Float64Histogram(
		"export_duration_seconds",
		metric.WithDescription("Duration of export rendering in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create export_duration_seconds: %w", err)
	}

	return m, nil
}
