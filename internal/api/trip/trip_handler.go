package trip

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
	CreateTripHandler(w http.ResponseWriter, r *http.Request)
	ListTripsHandler(w http.ResponseWriter, r *http.Request)
	GetTripHandler(w http.ResponseWriter, r *http.Request)
	UpdateTripHandler(w http.ResponseWriter, r *http.Request)
	DeleteTripHandler(w http.ResponseWriter, r *http.Request)

	OpenSessionHandler(w http.ResponseWriter, r *http.Request)
	GetSessionHandler(w http.ResponseWriter, r *http.Request)
	DiscardSessionHandler(w http.ResponseWriter, r *http.Request)
	SaveSessionHandler(w http.ResponseWriter, r *http.Request)

	CostsHandler(w http.ResponseWriter, r *http.Request)
	DistancesHandler(w http.ResponseWriter, r *http.Request)

	AddDayHandler(w http.ResponseWriter, r *http.Request)
	DuplicateDayHandler(w http.ResponseWriter, r *http.Request)
	UpdateDayHandler(w http.ResponseWriter, r *http.Request)
	RemoveDayHandler(w http.ResponseWriter, r *http.Request)

	ListItemsHandler(w http.ResponseWriter, r *http.Request)
	AddItemHandler(w http.ResponseWriter, r *http.Request)
	UpdateItemHandler(w http.ResponseWriter, r *http.Request)
	DeleteItemHandler(w http.ResponseWriter, r *http.Request)

	DragStartHandler(w http.ResponseWriter, r *http.Request)
	DragOverHandler(w http.ResponseWriter, r *http.Request)
	DragEndHandler(w http.ResponseWriter, r *http.Request)
	SetViewHandler(w http.ResponseWriter, r *http.Request)

	AddLocationHandler(w http.ResponseWriter, r *http.Request)
	UpdateLocationHandler(w http.ResponseWriter, r *http.Request)
	DeleteLocationHandler(w http.ResponseWriter, r *http.Request)
	PromoteLocationHandler(w http.ResponseWriter, r *http.Request)
	DemoteLocationHandler(w http.ResponseWriter, r *http.Request)
	ResolveConfirmationHandler(w http.ResponseWriter, r *http.Request)
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

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrSessionNotFound),
		errors.Is(err, types.ErrConfirmationNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrMaxDaysReached),
		errors.Is(err, types.ErrMinDaysRequired),
		errors.Is(err, types.ErrConfirmationStale):
		return http.StatusConflict
	case errors.Is(err, types.ErrInvalidCategory),
		errors.Is(err, types.ErrInvalidItem),
		errors.Is(err, types.ErrInvalidTime),
		errors.Is(err, types.ErrInvalidLocation),
		errors.Is(err, types.ErrInvalidTrip):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail logs err, records it on the span and writes the mapped status.
// Internal errors are not echoed to the client.
func (h *HandlerImpl) fail(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger, err error, msg string) {
	status := statusFor(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	if status == http.StatusInternalServerError {
		l.ErrorContext(r.Context(), msg, slog.Any("error", err))
		api.ErrorResponse(w, r, status, msg)
		return
	}
	l.WarnContext(r.Context(), msg, slog.Any("error", err))
	api.ErrorResponse(w, r, status, err.Error())
}

func (h *HandlerImpl) userID(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger) (uuid.UUID, bool) {
	ctx := r.Context()
	userIDStr, ok := auth.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		l.ErrorContext(ctx, "Invalid user ID format", slog.String("userID_str", userIDStr), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid User ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))
	return userID, true
}

// tripRequest resolves the caller and the {tripID} URL parameter.
func (h *HandlerImpl) tripRequest(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger) (userID, tripID uuid.UUID, ok bool) {
	userID, ok = h.userID(w, r, span, l)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	tripIDStr := chi.URLParam(r, "tripID")
	tripID, err := uuid.Parse(tripIDStr)
	if err != nil {
		l.WarnContext(r.Context(), "Invalid trip ID format", slog.String("tripID_str", tripIDStr))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid trip ID format")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return uuid.Nil, uuid.Nil, false
	}
	span.SetAttributes(attribute.String("trip.id", tripID.String()))
	return userID, tripID, true
}

func (h *HandlerImpl) dayParam(w http.ResponseWriter, r *http.Request, span trace.Span) (int, bool) {
	day, err := api.URLParamInt(r, "day")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid day number")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid day number")
		return 0, false
	}
	span.SetAttributes(attribute.Int("day.number", day))
	return day, true
}

func (h *HandlerImpl) decode(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger, dst any) bool {
	if err := api.DecodeJSONBody(w, r, dst); err != nil {
		l.WarnContext(r.Context(), "Failed to decode request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *HandlerImpl) respond(w http.ResponseWriter, r *http.Request, span trace.Span, l *slog.Logger, status int, data any, err error, failMsg string) {
	if err != nil {
		h.fail(w, r, span, l, err, failMsg)
		return
	}
	span.SetStatus(codes.Ok, "OK")
	api.WriteJSONResponse(w, r, status, data)
}

func (h *HandlerImpl) start(r *http.Request, name string) (*http.Request, trace.Span, *slog.Logger) {
	ctx, span := otel.Tracer("TripHandler").Start(r.Context(), name)
	return r.WithContext(ctx), span, h.logger.With(slog.String("handler", name))
}

// CreateTripHandler godoc
// @Summary      Create trip
// @Description  Creates a trip with the default number of empty days.
// @Tags         Trips
// @Accept       json
// @Produce      json
// @Param        trip body types.CreateTripRequest true "Trip"
// @Success      201 {object} types.Trip
// @Failure      400 {object} api.Response
// @Failure      401 {object} api.Response
// @Security     BearerAuth
// @Router       /trips [post]
func (h *HandlerImpl) CreateTripHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "CreateTripHandler")
	defer span.End()

	userID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}
	var req types.CreateTripRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	trip, err := h.service.CreateTrip(r.Context(), userID, req)
	if err == nil {
		l.InfoContext(r.Context(), "Trip created", slog.String("tripID", trip.ID.String()))
	}
	h.respond(w, r, span, l, http.StatusCreated, trip, err, "Failed to create trip")
}

// ListTripsHandler godoc
// @Summary      List trips
// @Tags         Trips
// @Produce      json
// @Success      200 {array} types.TripSummary
// @Security     BearerAuth
// @Router       /trips [get]
func (h *HandlerImpl) ListTripsHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "ListTripsHandler")
	defer span.End()

	userID, ok := h.userID(w, r, span, l)
	if !ok {
		return
	}
	trips, err := h.service.ListTrips(r.Context(), userID)
	h.respond(w, r, span, l, http.StatusOK, trips, err, "Failed to list trips")
}

func (h *HandlerImpl) GetTripHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "GetTripHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	trip, err := h.service.GetTrip(r.Context(), userID, tripID)
	h.respond(w, r, span, l, http.StatusOK, trip, err, "Failed to get trip")
}

func (h *HandlerImpl) UpdateTripHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "UpdateTripHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var req types.UpdateTripRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	trip, err := h.service.UpdateTrip(r.Context(), userID, tripID, req)
	h.respond(w, r, span, l, http.StatusOK, trip, err, "Failed to update trip")
}

func (h *HandlerImpl) DeleteTripHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DeleteTripHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	err := h.service.DeleteTrip(r.Context(), userID, tripID)
	h.respond(w, r, span, l, http.StatusNoContent, nil, err, "Failed to delete trip")
}

// OpenSessionHandler godoc
// @Summary      Open editing session
// @Description  Loads the trip into a working copy. Edits apply to the working copy until saved.
// @Tags         Sessions
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} trip.SessionState
// @Failure      404 {object} api.Response
// @Security     BearerAuth
// @Router       /trips/{tripID}/session [post]
func (h *HandlerImpl) OpenSessionHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "OpenSessionHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	state, err := h.service.OpenSession(r.Context(), userID, tripID)
	h.respond(w, r, span, l, http.StatusOK, state, err, "Failed to open session")
}

func (h *HandlerImpl) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "GetSessionHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	state, err := h.service.GetSession(r.Context(), userID, tripID)
	h.respond(w, r, span, l, http.StatusOK, state, err, "Failed to get session")
}

func (h *HandlerImpl) DiscardSessionHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DiscardSessionHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	err := h.service.DiscardSession(r.Context(), userID, tripID)
	h.respond(w, r, span, l, http.StatusNoContent, nil, err, "Failed to discard session")
}

// SaveSessionHandler godoc
// @Summary      Save working copy
// @Tags         Sessions
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} trip.SessionState
// @Failure      404 {object} api.Response "No open session"
// @Security     BearerAuth
// @Router       /trips/{tripID}/save [post]
func (h *HandlerImpl) SaveSessionHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "SaveSessionHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	state, err := h.service.SaveSession(r.Context(), userID, tripID)
	h.respond(w, r, span, l, http.StatusOK, state, err, "Failed to save trip")
}

func (h *HandlerImpl) CostsHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "CostsHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	costs, err := h.service.Costs(r.Context(), userID, tripID)
	if err != nil {
		h.fail(w, r, span, l, err, "Failed to compute costs")
		return
	}
	span.SetStatus(codes.Ok, "OK")
	api.WriteJSONResponse(w, r, http.StatusOK, newCostView(*costs))
}

// DistancesHandler returns straight-line legs per day. ?order=time walks the
// items by start time instead of display order.
func (h *HandlerImpl) DistancesHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DistancesHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	byTime := r.URL.Query().Get("order") == "time"
	dist, err := h.service.Distances(r.Context(), userID, tripID, byTime)
	h.respond(w, r, span, l, http.StatusOK, dist, err, "Failed to estimate distances")
}

func (h *HandlerImpl) AddDayHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "AddDayHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	res, err := h.service.AddDay(r.Context(), userID, tripID)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to add day")
}

func (h *HandlerImpl) DuplicateDayHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DuplicateDayHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, span)
	if !ok {
		return
	}
	res, err := h.service.DuplicateDay(r.Context(), userID, tripID, day)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to duplicate day")
}

func (h *HandlerImpl) UpdateDayHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "UpdateDayHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, span)
	if !ok {
		return
	}
	var patch types.DayPatch
	if !h.decode(w, r, span, l, &patch) {
		return
	}
	res, err := h.service.UpdateDay(r.Context(), userID, tripID, day, patch)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to update day")
}

func (h *HandlerImpl) RemoveDayHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "RemoveDayHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, span)
	if !ok {
		return
	}
	res, err := h.service.RemoveDay(r.Context(), userID, tripID, day)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to remove day")
}

func (h *HandlerImpl) ListItemsHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "ListItemsHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, span)
	if !ok {
		return
	}
	byTime := r.URL.Query().Get("order") == "time"
	items, err := h.service.ListItems(r.Context(), userID, tripID, day, byTime)
	h.respond(w, r, span, l, http.StatusOK, items, err, "Failed to list items")
}

// AddItemHandler godoc
// @Summary      Add itinerary item
// @Description  Appends a blank item of the given category to a day.
// @Tags         Items
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        day path int true "Day number"
// @Param        item body trip.AddItemRequest true "Category"
// @Success      200 {object} trip.MutationResult
// @Failure      400 {object} api.Response
// @Security     BearerAuth
// @Router       /trips/{tripID}/days/{day}/items [post]
func (h *HandlerImpl) AddItemHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "AddItemHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, span)
	if !ok {
		return
	}
	var req AddItemRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	res, err := h.service.AddItem(r.Context(), userID, tripID, day, req.Category)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to add item")
}

func (h *HandlerImpl) UpdateItemHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "UpdateItemHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, span)
	if !ok {
		return
	}
	var patch types.ItemPatch
	if !h.decode(w, r, span, l, &patch) {
		return
	}
	res, err := h.service.UpdateItem(r.Context(), userID, tripID, day, chi.URLParam(r, "itemID"), patch)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to update item")
}

func (h *HandlerImpl) DeleteItemHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DeleteItemHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	day, ok := h.dayParam(w, r, span)
	if !ok {
		return
	}
	res, err := h.service.DeleteItem(r.Context(), userID, tripID, day, chi.URLParam(r, "itemID"))
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to delete item")
}

func (h *HandlerImpl) DragStartHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DragStartHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var req DragRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	st, err := h.service.DragStart(r.Context(), userID, tripID, req.ActiveID)
	h.respond(w, r, span, l, http.StatusOK, st, err, "Failed to start drag")
}

func (h *HandlerImpl) DragOverHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DragOverHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var req DragRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	st, err := h.service.DragOver(r.Context(), userID, tripID, req.OverID)
	h.respond(w, r, span, l, http.StatusOK, st, err, "Failed to resolve drag target")
}

// DragEndHandler godoc
// @Summary      Drop an item
// @Description  Applies the end of a drag gesture: reorder within a day or move to another day.
// @Tags         Drag
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        drag body trip.DragRequest true "Active and target ids"
// @Success      200 {object} trip.MutationResult
// @Security     BearerAuth
// @Router       /trips/{tripID}/drag/end [post]
func (h *HandlerImpl) DragEndHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DragEndHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var req DragRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	res, err := h.service.DragEnd(r.Context(), userID, tripID, req)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to move item")
}

func (h *HandlerImpl) SetViewHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "SetViewHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var req ViewRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	res, err := h.service.SetView(r.Context(), userID, tripID, req)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to update view")
}

func (h *HandlerImpl) AddLocationHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "AddLocationHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var loc types.SavedLocation
	if !h.decode(w, r, span, l, &loc) {
		return
	}
	res, err := h.service.AddLocation(r.Context(), userID, tripID, loc)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to add location")
}

func (h *HandlerImpl) UpdateLocationHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "UpdateLocationHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var patch types.SavedLocationPatch
	if !h.decode(w, r, span, l, &patch) {
		return
	}
	res, err := h.service.UpdateLocation(r.Context(), userID, tripID, chi.URLParam(r, "locID"), patch)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to update location")
}

// DeleteLocationHandler answers 202 with a pending confirmation when
// auto-filled items depend on the location.
func (h *HandlerImpl) DeleteLocationHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DeleteLocationHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	res, err := h.service.DeleteLocation(r.Context(), userID, tripID, chi.URLParam(r, "locID"))
	h.respond(w, r, span, l, mutationStatus(res), res, err, "Failed to delete location")
}

// PromoteLocationHandler godoc
// @Summary      Promote saved location to primary
// @Description  Returns 202 with a pending confirmation describing the auto-fill transition.
// @Tags         Locations
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        locID path string true "Saved location ID"
// @Success      202 {object} trip.MutationResult
// @Success      200 {object} trip.MutationResult "Nothing to confirm"
// @Security     BearerAuth
// @Router       /trips/{tripID}/locations/{locID}/primary [post]
func (h *HandlerImpl) PromoteLocationHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "PromoteLocationHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	res, err := h.service.PromoteLocation(r.Context(), userID, tripID, chi.URLParam(r, "locID"))
	h.respond(w, r, span, l, mutationStatus(res), res, err, "Failed to promote location")
}

func (h *HandlerImpl) DemoteLocationHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "DemoteLocationHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	res, err := h.service.DemoteLocation(r.Context(), userID, tripID, chi.URLParam(r, "locID"))
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to demote location")
}

// ResolveConfirmationHandler godoc
// @Summary      Accept or decline a pending confirmation
// @Tags         Locations
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        token path string true "Confirmation token"
// @Param        decision body trip.ConfirmationRequest true "Decision"
// @Success      200 {object} trip.MutationResult
// @Failure      404 {object} api.Response "Unknown or expired token"
// @Failure      409 {object} api.Response "Trip changed since the request"
// @Security     BearerAuth
// @Router       /trips/{tripID}/confirmations/{token} [post]
func (h *HandlerImpl) ResolveConfirmationHandler(w http.ResponseWriter, r *http.Request) {
	r, span, l := h.start(r, "ResolveConfirmationHandler")
	defer span.End()

	userID, tripID, ok := h.tripRequest(w, r, span, l)
	if !ok {
		return
	}
	var req ConfirmationRequest
	if !h.decode(w, r, span, l, &req) {
		return
	}
	res, err := h.service.ResolveConfirmation(r.Context(), userID, tripID, chi.URLParam(r, "token"), req.Accept)
	h.respond(w, r, span, l, http.StatusOK, res, err, "Failed to resolve confirmation")
}

func mutationStatus(res *MutationResult) int {
	if res != nil && res.Pending != nil {
		return http.StatusAccepted
	}
	return http.StatusOK
}
