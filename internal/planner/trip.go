// Package planner is the itinerary and budget engine: cost rollups, the
// per-day item store, the day collection, drag-and-drop moves and saved
// location auto-fill. Everything here is synchronous and in-memory.
package planner

import (
	"fmt"
	"slices"
	"strings"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// Trip is the in-memory working copy of a TripAggregate. It is not safe for
// concurrent use; callers serialize access.
type Trip struct {
	plans     *DayPlans
	locations []types.SavedLocation
	drag      *DragEngine
	ids       IDGenerator
	version   uint64
}

// NewTrip builds a working copy from a (possibly legacy) aggregate.
func NewTrip(agg types.TripAggregate, ids IDGenerator, maxDays int) *Trip {
	agg = NormalizeAggregate(agg)
	t := &Trip{
		plans:     NewDayPlans(agg.Days, ids, maxDays),
		locations: agg.SavedLocations,
		ids:       ids,
	}
	t.drag = NewDragEngine(t.plans)
	return t
}

// Aggregate returns a deep copy in persisted shape.
func (t *Trip) Aggregate() types.TripAggregate {
	return types.TripAggregate{
		Days:           t.plans.Days(),
		SavedLocations: slices.Clone(t.locations),
	}
}

// Version increases on every applied mutation.
func (t *Trip) Version() uint64 { return t.version }

// Days returns a deep copy of the days.
func (t *Trip) Days() []types.DayPlan { return t.plans.Days() }

// SavedLocations returns a copy of the saved locations.
func (t *Trip) SavedLocations() []types.SavedLocation { return slices.Clone(t.locations) }

// Drag exposes the gesture engine for advisory calls.
func (t *Trip) Drag() *DragEngine { return t.drag }

func (t *Trip) touch() { t.version++ }

// AddDay appends an empty day.
func (t *Trip) AddDay() (types.DayPlan, error) {
	day, err := t.plans.AddDay()
	if err != nil {
		return types.DayPlan{}, err
	}
	t.touch()
	return day, nil
}

// RemoveDay removes a day and keeps the active day in range.
func (t *Trip) RemoveDay(dayNumber int) (bool, error) {
	ok, err := t.plans.RemoveDay(dayNumber)
	if err != nil || !ok {
		return ok, err
	}
	if t.drag.activeDay > t.plans.Len() {
		t.drag.activeDay = t.plans.Len()
	}
	t.touch()
	return true, nil
}

// DuplicateDay appends a copy of a day.
func (t *Trip) DuplicateDay(dayNumber int) (types.DayPlan, bool, error) {
	day, ok, err := t.plans.DuplicateDay(dayNumber)
	if err != nil || !ok {
		return day, ok, err
	}
	t.touch()
	return day, true, nil
}

// UpdateDay merges a partial update into a day.
func (t *Trip) UpdateDay(dayNumber int, patch types.DayPatch) (bool, error) {
	ok, err := t.plans.UpdateDay(dayNumber, patch)
	if err != nil || !ok {
		return ok, err
	}
	t.touch()
	return true, nil
}

// AddItem appends a blank item of category c to a day.
func (t *Trip) AddItem(dayNumber int, c types.Category) (types.ItineraryItem, bool, error) {
	var added types.ItineraryItem
	ok, err := t.plans.EditItems(dayNumber, func(s *ItemStore) error {
		item, err := s.Add(c)
		added = item
		return err
	})
	if err != nil || !ok {
		return types.ItineraryItem{}, ok, err
	}
	t.touch()
	return added, true, nil
}

// UpdateItem patches an item of a day. Misses return false.
func (t *Trip) UpdateItem(dayNumber int, itemID string, patch types.ItemPatch) (types.ItineraryItem, bool, error) {
	var (
		updated types.ItineraryItem
		found   bool
	)
	_, err := t.plans.EditItems(dayNumber, func(s *ItemStore) error {
		ok, err := s.Update(itemID, patch)
		if err != nil {
			return err
		}
		found = ok
		updated, _ = s.Get(itemID)
		return nil
	})
	if err != nil || !found {
		return types.ItineraryItem{}, false, err
	}
	t.touch()
	return updated, true, nil
}

// DeleteItem removes an item from a day. Misses return false.
func (t *Trip) DeleteItem(dayNumber int, itemID string) bool {
	removed := false
	ok, err := t.plans.EditItems(dayNumber, func(s *ItemStore) error {
		removed = s.Delete(itemID)
		return nil
	})
	if err != nil || !ok || !removed {
		return false
	}
	t.touch()
	return true
}

// EndDrag applies the authoritative end of a gesture.
func (t *Trip) EndDrag(activeID, overID string) MoveResult {
	res := t.drag.End(activeID, overID)
	if res.Kind != MoveNone {
		t.touch()
	}
	return res
}

// PrimaryLocation returns the primary saved location, if any.
func (t *Trip) PrimaryLocation() (types.SavedLocation, bool) {
	for _, loc := range t.locations {
		if loc.IsPrimary {
			return loc, true
		}
	}
	return types.SavedLocation{}, false
}

// SavedLocation returns the saved location with id.
func (t *Trip) SavedLocation(id string) (types.SavedLocation, bool) {
	idx := t.locationIndex(id)
	if idx < 0 {
		return types.SavedLocation{}, false
	}
	return t.locations[idx], true
}

// AddSavedLocation stores a new saved location with a fresh id. It never
// becomes primary here; promotion goes through PromotePrimary.
func (t *Trip) AddSavedLocation(loc types.SavedLocation) (types.SavedLocation, error) {
	if err := validateSavedLocation(loc); err != nil {
		return types.SavedLocation{}, err
	}
	loc.ID = t.ids.NewID()
	loc.Name = strings.TrimSpace(loc.Name)
	loc.IsPrimary = false
	if loc.Icon == "" {
		loc.Icon = loc.Category.DefaultIcon()
	}
	t.locations = append(t.locations, loc)
	t.touch()
	return loc, nil
}

// UpdateSavedLocation patches a saved location and propagates the new name
// and location to items still auto-filled from it. It returns the number of
// items rewritten.
func (t *Trip) UpdateSavedLocation(id string, patch types.SavedLocationPatch) (types.SavedLocation, int, bool, error) {
	idx := t.locationIndex(id)
	if idx < 0 {
		return types.SavedLocation{}, 0, false, nil
	}
	loc := t.locations[idx]
	if patch.Name != nil {
		loc.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		loc.Category = *patch.Category
	}
	if patch.Location != nil {
		loc.Location = *patch.Location
	}
	if patch.Notes != nil {
		loc.Notes = *patch.Notes
	}
	if patch.Icon != nil {
		loc.Icon = *patch.Icon
	}
	if err := validateSavedLocation(loc); err != nil {
		return types.SavedLocation{}, 0, false, err
	}
	t.locations[idx] = loc

	propagated := 0
	if patch.Name != nil || patch.Location != nil || patch.Category != nil {
		days := t.plans.Days()
		propagated = CountAutoFilledItems(days, id)
		if propagated > 0 {
			t.plans.replaceAll(UpdateAutoFilledItems(days, id, loc))
		}
	}
	t.touch()
	return loc, propagated, true, nil
}

// TransitionKind says how a primary promotion will touch the days.
type TransitionKind string

const (
	TransitionNone        TransitionKind = "none"
	TransitionFillAllDays TransitionKind = "fill_all_days"
	TransitionRetarget    TransitionKind = "retarget"
)

// PrimaryTransition describes a promotion before or after it is applied.
type PrimaryTransition struct {
	Kind          TransitionKind `json:"kind"`
	FromID        string         `json:"fromId,omitempty"`
	ToID          string         `json:"toId"`
	AffectedItems int            `json:"affectedItems"`
}

// PlanPromotePrimary computes what PromotePrimary(id) would do without
// changing anything.
func (t *Trip) PlanPromotePrimary(id string) (PrimaryTransition, bool) {
	loc, ok := t.SavedLocation(id)
	if !ok {
		return PrimaryTransition{}, false
	}
	if loc.IsPrimary {
		return PrimaryTransition{Kind: TransitionNone, FromID: id, ToID: id}, true
	}
	days := t.plans.Days()
	if old, ok := t.PrimaryLocation(); ok {
		if n := CountAutoFilledItems(days, old.ID); n > 0 {
			return PrimaryTransition{Kind: TransitionRetarget, FromID: old.ID, ToID: id, AffectedItems: n}, true
		}
		return PrimaryTransition{Kind: TransitionFillAllDays, FromID: old.ID, ToID: id, AffectedItems: 2 * len(days)}, true
	}
	return PrimaryTransition{Kind: TransitionFillAllDays, ToID: id, AffectedItems: 2 * len(days)}, true
}

// PromotePrimary makes id the single primary location. With no prior
// primary (or one with no auto-filled items left) every day is auto-filled;
// otherwise the old primary's auto-filled items are rewritten to the new
// location so item-level edits such as time slots and costs survive.
func (t *Trip) PromotePrimary(id string) (PrimaryTransition, bool) {
	plan, ok := t.PlanPromotePrimary(id)
	if !ok || plan.Kind == TransitionNone {
		return plan, ok
	}
	loc, _ := t.SavedLocation(id)
	days := t.plans.Days()
	switch plan.Kind {
	case TransitionRetarget:
		t.plans.replaceAll(UpdateAutoFilledItems(days, plan.FromID, loc))
	case TransitionFillAllDays:
		t.plans.replaceAll(AutoFillAllDays(days, loc, t.ids))
	}
	for i := range t.locations {
		t.locations[i].IsPrimary = t.locations[i].ID == id
	}
	t.touch()
	return plan, true
}

// DemotePrimary clears the primary flag. Auto-filled items stay as they are.
func (t *Trip) DemotePrimary(id string) bool {
	idx := t.locationIndex(id)
	if idx < 0 || !t.locations[idx].IsPrimary {
		return false
	}
	t.locations[idx].IsPrimary = false
	t.touch()
	return true
}

// AutoFilledCount counts items auto-filled from a saved location.
func (t *Trip) AutoFilledCount(id string) int {
	return CountAutoFilledItems(t.plans.days, id)
}

// DeleteSavedLocation removes a saved location and every item auto-filled
// from it. It returns the number of items removed.
func (t *Trip) DeleteSavedLocation(id string) (int, bool) {
	idx := t.locationIndex(id)
	if idx < 0 {
		return 0, false
	}
	days := t.plans.Days()
	removed := CountAutoFilledItems(days, id)
	if removed > 0 {
		t.plans.replaceAll(RemoveAutoFilledItems(days, id))
	}
	t.locations = slices.Delete(t.locations, idx, idx+1)
	t.touch()
	return removed, true
}

func (t *Trip) locationIndex(id string) int {
	return slices.IndexFunc(t.locations, func(l types.SavedLocation) bool { return l.ID == id })
}

func validateSavedLocation(loc types.SavedLocation) error {
	if strings.TrimSpace(loc.Name) == "" {
		return fmt.Errorf("%w: name is required", types.ErrInvalidLocation)
	}
	if !loc.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", types.ErrInvalidLocation, string(loc.Category))
	}
	if loc.Location.Lat < -90 || loc.Location.Lat > 90 || loc.Location.Lon < -180 || loc.Location.Lon > 180 {
		return fmt.Errorf("%w: coordinates out of range", types.ErrInvalidLocation)
	}
	return nil
}
