package export

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-trip-budget/internal/api"
	"github.com/FACorreiaa/go-trip-budget/internal/api/auth"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	PDFHandler(w http.ResponseWriter, r *http.Request)
	ICSHandler(w http.ResponseWriter, r *http.Request)
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

// PDFHandler godoc
// @Summary      Export trip as PDF
// @Tags         Export
// @Produce      application/pdf
// @Param        tripID path string true "Trip ID"
// @Success      200 {file} binary
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /trips/{tripID}/export.pdf [get]
func (h *HandlerImpl) PDFHandler(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, FormatPDF)
}

// ICSHandler godoc
// @Summary      Export trip as iCalendar
// @Tags         Export
// @Produce      text/calendar
// @Param        tripID path string true "Trip ID"
// @Success      200 {file} binary
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /trips/{tripID}/export.ics [get]
func (h *HandlerImpl) ICSHandler(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, FormatICS)
}

func (h *HandlerImpl) export(w http.ResponseWriter, r *http.Request, format Format) {
	ctx, span := otel.Tracer("ExportHandler").Start(r.Context(), "ExportHandler", trace.WithAttributes(
		attribute.String("export.format", string(format)),
	))
	defer span.End()
	l := h.logger.With(slog.String("handler", "ExportHandler"), slog.String("format", string(format)))

	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}
	tripID, err := uuid.Parse(chi.URLParam(r, "tripID"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid trip ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return
	}

	doc, err := h.service.Export(ctx, userID, tripID, format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Export failed")
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Trip not found")
			return
		}
		l.ErrorContext(ctx, "Export failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to render export")
		return
	}

	span.SetStatus(codes.Ok, "Export served")
	api.WriteFile(w, r, format.ContentType(), doc.Filename, doc.Body)
}
