package trip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

func metricStatus(status string) metric.AddOption {
	return metric.WithAttributes(attribute.String("status", status))
}

func (s *ServiceImpl) AddDay(ctx context.Context, userID, tripID uuid.UUID) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "AddDay", userID, tripID)
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		day, err := sess.trip.AddDay()
		if err != nil {
			return err
		}
		res.Applied = true
		res.Day = &day
		return nil
	})
	endSpan(span, err, "Day added")
	return res, err
}

func (s *ServiceImpl) RemoveDay(ctx context.Context, userID, tripID uuid.UUID, dayNumber int) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "RemoveDay", userID, tripID, attribute.Int("day.number", dayNumber))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		ok, err := sess.trip.RemoveDay(dayNumber)
		res.Applied = ok
		return err
	})
	endSpan(span, err, "Day removed")
	return res, err
}

func (s *ServiceImpl) DuplicateDay(ctx context.Context, userID, tripID uuid.UUID, dayNumber int) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "DuplicateDay", userID, tripID, attribute.Int("day.number", dayNumber))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		day, ok, err := sess.trip.DuplicateDay(dayNumber)
		if err != nil || !ok {
			return err
		}
		res.Applied = true
		res.Day = &day
		return nil
	})
	endSpan(span, err, "Day duplicated")
	return res, err
}

func (s *ServiceImpl) UpdateDay(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, patch types.DayPatch) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "UpdateDay", userID, tripID, attribute.Int("day.number", dayNumber))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		ok, err := sess.trip.UpdateDay(dayNumber, patch)
		if err != nil || !ok {
			return err
		}
		day, _ := findDay(sess.trip.Days(), dayNumber)
		res.Applied = true
		res.Day = &day
		return nil
	})
	endSpan(span, err, "Day updated")
	return res, err
}

func (s *ServiceImpl) AddItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, c types.Category) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "AddItem", userID, tripID,
		attribute.Int("day.number", dayNumber),
		attribute.String("item.category", string(c)),
	)
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		item, ok, err := sess.trip.AddItem(dayNumber, c)
		if err != nil || !ok {
			return err
		}
		res.Applied = true
		res.Item = &item
		return nil
	})
	endSpan(span, err, "Item added")
	return res, err
}

func (s *ServiceImpl) UpdateItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, itemID string, patch types.ItemPatch) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "UpdateItem", userID, tripID,
		attribute.Int("day.number", dayNumber),
		attribute.String("item.id", itemID),
	)
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		item, ok, err := sess.trip.UpdateItem(dayNumber, itemID, patch)
		if err != nil || !ok {
			return err
		}
		res.Applied = true
		res.Item = &item
		return nil
	})
	endSpan(span, err, "Item updated")
	return res, err
}

func (s *ServiceImpl) DeleteItem(ctx context.Context, userID, tripID uuid.UUID, dayNumber int, itemID string) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "DeleteItem", userID, tripID,
		attribute.Int("day.number", dayNumber),
		attribute.String("item.id", itemID),
	)
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		res.Applied = sess.trip.DeleteItem(dayNumber, itemID)
		return nil
	})
	endSpan(span, err, "Item deleted")
	return res, err
}

func dragStatus(e *planner.DragEngine) DragStatus {
	st := DragStatus{ActiveDay: e.ActiveDay(), TimeAware: e.TimeAware()}
	st.ActiveID, st.Dragging = e.Dragging()
	return st
}

// DragStart begins a gesture. Pinned items (time-aware mode) cannot be
// dragged; Dragging stays false for them.
func (s *ServiceImpl) DragStart(ctx context.Context, userID, tripID uuid.UUID, activeID string) (*DragStatus, error) {
	ctx, span := tripSpan(ctx, "DragStart", userID, tripID, attribute.String("drag.active_id", activeID))
	defer span.End()

	var st DragStatus
	err := s.withSession(ctx, userID, tripID, func(sess *session) error {
		sess.trip.Drag().Start(activeID)
		st = dragStatus(sess.trip.Drag())
		return nil
	})
	endSpan(span, err, "Drag started")
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// DragOver resolves the day under the pointer. It never mutates the days.
func (s *ServiceImpl) DragOver(ctx context.Context, userID, tripID uuid.UUID, overID string) (*DragStatus, error) {
	ctx, span := tripSpan(ctx, "DragOver", userID, tripID, attribute.String("drag.over_id", overID))
	defer span.End()

	var st DragStatus
	err := s.withSession(ctx, userID, tripID, func(sess *session) error {
		day, ok := sess.trip.Drag().Over(overID)
		st = dragStatus(sess.trip.Drag())
		st.TargetDay = day
		st.CanDrop = ok && st.Dragging
		return nil
	})
	endSpan(span, err, "Drag over")
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// DragEnd applies the gesture. An active item id with no prior DragStart is
// accepted as a one-shot move.
func (s *ServiceImpl) DragEnd(ctx context.Context, userID, tripID uuid.UUID, req DragRequest) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "DragEnd", userID, tripID,
		attribute.String("drag.active_id", req.ActiveID),
		attribute.String("drag.over_id", req.OverID),
	)
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		move := sess.trip.EndDrag(req.ActiveID, req.OverID)
		res.Applied = move.Kind != planner.MoveNone
		res.Move = &move
		s.metrics.ItemMovesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(move.Kind))))
		return nil
	})
	if res != nil && res.Move != nil {
		span.SetAttributes(attribute.String("drag.move_kind", string(res.Move.Kind)))
	}
	endSpan(span, err, "Drag ended")
	return res, err
}

// SetView changes the active day tab and the time-aware toggle. Neither is
// part of the persisted aggregate.
func (s *ServiceImpl) SetView(ctx context.Context, userID, tripID uuid.UUID, req ViewRequest) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "SetView", userID, tripID)
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		res.Applied = true
		if req.ActiveDay != nil && !sess.trip.Drag().SetActiveDay(*req.ActiveDay) {
			res.Applied = false
		}
		if req.TimeAware != nil {
			sess.trip.Drag().SetTimeAware(*req.TimeAware)
		}
		return nil
	})
	endSpan(span, err, "View updated")
	return res, err
}

func (s *ServiceImpl) AddLocation(ctx context.Context, userID, tripID uuid.UUID, loc types.SavedLocation) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "AddLocation", userID, tripID, attribute.String("location.name", loc.Name))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		added, err := sess.trip.AddSavedLocation(loc)
		if err != nil {
			return err
		}
		res.Applied = true
		res.Location = &added
		return nil
	})
	endSpan(span, err, "Location added")
	return res, err
}

// UpdateLocation patches a saved location. Name, location and category
// changes are propagated to items still auto-filled from it.
func (s *ServiceImpl) UpdateLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string, patch types.SavedLocationPatch) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "UpdateLocation", userID, tripID, attribute.String("location.id", locationID))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		loc, n, ok, err := sess.trip.UpdateSavedLocation(locationID, patch)
		if err != nil || !ok {
			return err
		}
		res.Applied = true
		res.Location = &loc
		res.Propagated = n
		if n > 0 {
			s.metrics.AutoFillPropagations.Add(ctx, int64(n), metric.WithAttributes(attribute.String("operation", "update")))
		}
		return nil
	})
	endSpan(span, err, "Location updated")
	return res, err
}

// DeleteLocation removes a saved location. When auto-filled items depend on
// it the removal is deferred behind a confirmation.
func (s *ServiceImpl) DeleteLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "DeleteLocation", userID, tripID, attribute.String("location.id", locationID))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		loc, ok := sess.trip.SavedLocation(locationID)
		if !ok {
			return nil
		}
		res.Location = &loc
		n := sess.trip.AutoFilledCount(locationID)
		if n == 0 {
			sess.trip.DeleteSavedLocation(locationID)
			res.Applied = true
			return nil
		}
		res.Pending = s.requestConfirmation(ctx, sess, userID, PendingConfirmation{
			Kind:          ConfirmDeleteLocation,
			LocationID:    locationID,
			AffectedItems: n,
			Message:       fmt.Sprintf("Delete %q and its %d auto-filled items?", loc.Name, n),
		})
		return nil
	})
	endSpan(span, err, "Location delete requested")
	return res, err
}

// PromoteLocation asks to make a saved location the primary one. The change
// is never applied directly; the result carries a pending confirmation.
func (s *ServiceImpl) PromoteLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "PromoteLocation", userID, tripID, attribute.String("location.id", locationID))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		plan, ok := sess.trip.PlanPromotePrimary(locationID)
		if !ok {
			return nil
		}
		loc, _ := sess.trip.SavedLocation(locationID)
		res.Location = &loc
		if plan.Kind == planner.TransitionNone {
			return nil
		}
		res.Pending = s.requestConfirmation(ctx, sess, userID, PendingConfirmation{
			Kind:          ConfirmPromotePrimary,
			LocationID:    locationID,
			Transition:    &plan,
			AffectedItems: plan.AffectedItems,
			Message:       promotionMessage(sess.trip, plan, loc),
		})
		return nil
	})
	endSpan(span, err, "Promotion requested")
	return res, err
}

func promotionMessage(t *planner.Trip, plan planner.PrimaryTransition, loc types.SavedLocation) string {
	if plan.Kind == planner.TransitionRetarget {
		old, _ := t.SavedLocation(plan.FromID)
		return fmt.Sprintf("Replace %q with %q as primary location? %d auto-filled items will be updated.",
			old.Name, loc.Name, plan.AffectedItems)
	}
	return fmt.Sprintf("Set %q as primary location and add check-in and check-out items to all %d days?",
		loc.Name, len(t.Days()))
}

// DemoteLocation clears the primary flag. Items stay untouched, so no
// confirmation is needed.
func (s *ServiceImpl) DemoteLocation(ctx context.Context, userID, tripID uuid.UUID, locationID string) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "DemoteLocation", userID, tripID, attribute.String("location.id", locationID))
	defer span.End()

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		res.Applied = sess.trip.DemotePrimary(locationID)
		if loc, ok := sess.trip.SavedLocation(locationID); ok {
			res.Location = &loc
		}
		return nil
	})
	endSpan(span, err, "Location demoted")
	return res, err
}

// requestConfirmation stores p against the current version of sess. Called
// with sess.mu held.
func (s *ServiceImpl) requestConfirmation(ctx context.Context, sess *session, userID uuid.UUID, p PendingConfirmation) *PendingConfirmation {
	p.Token = uuid.NewString()
	p.ExpiresAt = s.now().Add(s.cfg.ConfirmationTTL)
	p.tripID = sess.meta.ID
	p.userID = userID
	p.sessionID = sess.id
	p.version = sess.trip.Version()
	s.confirmations.Set(p.Token, &p, cache.DefaultExpiration)

	s.metrics.ConfirmationsTotal.Add(ctx, 1, confirmationAttrs(p.Kind, "requested"))
	s.logger.InfoContext(ctx, "Confirmation requested",
		slog.String("tripID", p.tripID.String()),
		slog.String("kind", string(p.Kind)),
		slog.Int("affected_items", p.AffectedItems))
	return &p
}

func confirmationAttrs(kind ConfirmationKind, outcome string) metric.AddOption {
	return metric.WithAttributes(attribute.String("kind", string(kind)), attribute.String("outcome", outcome))
}

// takeConfirmation removes and returns the pending confirmation for token if
// it belongs to the caller's trip. Only one caller can take a given token.
func (s *ServiceImpl) takeConfirmation(token string, userID, tripID uuid.UUID) (*PendingConfirmation, bool) {
	s.confirmMu.Lock()
	defer s.confirmMu.Unlock()

	v, ok := s.confirmations.Get(token)
	if !ok {
		return nil, false
	}
	p := v.(*PendingConfirmation)
	if p.tripID != tripID || p.userID != userID {
		return nil, false
	}
	s.confirmations.Delete(token)
	return p, true
}

// ResolveConfirmation accepts or declines a pending confirmation. Tokens are
// single use. Declining leaves the state unchanged. Accepting fails with
// ErrConfirmationStale when the trip changed after the request.
func (s *ServiceImpl) ResolveConfirmation(ctx context.Context, userID, tripID uuid.UUID, token string, accept bool) (*MutationResult, error) {
	ctx, span := tripSpan(ctx, "ResolveConfirmation", userID, tripID, attribute.Bool("confirmation.accept", accept))
	defer span.End()

	l := s.logger.With(slog.String("method", "ResolveConfirmation"), slog.String("tripID", tripID.String()))

	p, ok := s.takeConfirmation(token, userID, tripID)
	if !ok {
		endSpan(span, types.ErrConfirmationNotFound, "Unknown confirmation")
		return nil, types.ErrConfirmationNotFound
	}
	span.SetAttributes(attribute.String("confirmation.kind", string(p.Kind)))

	res, err := s.mutate(ctx, userID, tripID, func(sess *session, res *MutationResult) error {
		if !accept {
			s.metrics.ConfirmationsTotal.Add(ctx, 1, confirmationAttrs(p.Kind, "declined"))
			return nil
		}
		if sess.id != p.sessionID || sess.trip.Version() != p.version {
			s.metrics.ConfirmationsTotal.Add(ctx, 1, confirmationAttrs(p.Kind, "stale"))
			return types.ErrConfirmationStale
		}
		switch p.Kind {
		case ConfirmPromotePrimary:
			plan, ok := sess.trip.PromotePrimary(p.LocationID)
			res.Applied = ok
			res.Propagated = plan.AffectedItems
			res.Transition = &plan
		case ConfirmDeleteLocation:
			n, ok := sess.trip.DeleteSavedLocation(p.LocationID)
			res.Applied = ok
			res.Propagated = n
		}
		if res.Propagated > 0 {
			s.metrics.AutoFillPropagations.Add(ctx, int64(res.Propagated), metric.WithAttributes(attribute.String("operation", string(p.Kind))))
		}
		s.metrics.ConfirmationsTotal.Add(ctx, 1, confirmationAttrs(p.Kind, "accepted"))
		return nil
	})
	if err != nil {
		if !errors.Is(err, types.ErrConfirmationStale) {
			l.ErrorContext(ctx, "Failed to resolve confirmation", slog.Any("error", err))
		}
		endSpan(span, err, "Confirmation not applied")
		return nil, err
	}

	l.InfoContext(ctx, "Confirmation resolved", slog.String("kind", string(p.Kind)), slog.Bool("accepted", accept))
	endSpan(span, nil, "Confirmation resolved")
	return res, nil
}
