package export

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-budget/app/observability/metrics"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// TripSource supplies the read-only trip snapshot exports render from.
type TripSource interface {
	Snapshot(ctx context.Context, userID, tripID uuid.UUID) (*types.TripSnapshot, error)
}

// Document is a rendered export.
type Document struct {
	Format   Format
	Filename string
	Body     []byte
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Export(ctx context.Context, userID, tripID uuid.UUID, format Format) (*Document, error)
}

type ServiceImpl struct {
	logger  *slog.Logger
	source  TripSource
	metrics *metrics.AppMetrics
	now     func() time.Time
}

func NewServiceImpl(source TripSource, m *metrics.AppMetrics, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:  logger,
		source:  source,
		metrics: m,
		now:     time.Now,
	}
}

func (s *ServiceImpl) Export(ctx context.Context, userID, tripID uuid.UUID, format Format) (doc *Document, err error) {
	ctx, span := otel.Tracer("ExportService").Start(ctx, "Export", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("trip.id", tripID.String()),
		attribute.String("export.format", string(format)),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Export"), slog.String("format", string(format)))

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.ExportRendersTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("format", string(format)),
			attribute.String("status", status),
		))
		s.metrics.ExportDurationSeconds.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("format", string(format))))
	}()

	snap, err := s.source.Snapshot(ctx, userID, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load trip")
		return nil, err
	}
	view := BuildView(*snap, s.now())

	var body []byte
	switch format {
	case FormatPDF:
		body, err = RenderPDF(view)
	case FormatICS:
		body = RenderICS(view)
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		l.ErrorContext(ctx, "Failed to render export", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Render failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("export.bytes", len(body)))
	span.SetStatus(codes.Ok, "Export rendered")
	l.DebugContext(ctx, "Export rendered", slog.Int("bytes", len(body)))
	return &Document{
		Format:   format,
		Filename: filename(view.TripName, format),
		Body:     body,
	}, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// filename turns "Lisbon & Porto" into "lisbon-porto.pdf".
func filename(tripName string, format Format) string {
	base := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(tripName), "-"), "-")
	if base == "" {
		base = "trip"
	}
	return base + "." + string(format)
}
