package planner

import (
	"slices"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

const (
	dayTabDropZonePrefix = "day-tab-"
	dayDropZonePrefix    = "day-"
)

// DayTabDropZoneID is the drop target id of a day tab.
func DayTabDropZoneID(dayNumber int) string {
	return dayTabDropZonePrefix + strconv.Itoa(dayNumber)
}

// DayDropZoneID is the drop target id of a whole-day drop area.
func DayDropZoneID(dayNumber int) string {
	return dayDropZonePrefix + strconv.Itoa(dayNumber)
}

// MoveKind is the outcome of a drag gesture.
type MoveKind string

const (
	MoveNone     MoveKind = "none"
	MoveReorder  MoveKind = "reorder"
	MoveCrossDay MoveKind = "cross_day"
)

// MoveResult describes what a gesture did.
type MoveResult struct {
	Kind      MoveKind `json:"kind"`
	ItemID    string   `json:"itemId,omitempty"`
	FromDay   int      `json:"fromDay,omitempty"`
	ToDay     int      `json:"toDay,omitempty"`
	FromIndex int      `json:"fromIndex"`
	ToIndex   int      `json:"toIndex"`
}

var noMove = MoveResult{Kind: MoveNone, FromIndex: -1, ToIndex: -1}

// ResolveTargetDay maps a drop target id to a day number. Day tabs win over
// whole-day zones, which win over items. ok is false when nothing matches.
func ResolveTargetDay(days []types.DayPlan, overID string) (int, bool) {
	if overID == "" {
		return 0, false
	}
	exists := func(n int) bool {
		return slices.ContainsFunc(days, func(d types.DayPlan) bool { return d.DayNumber == n })
	}
	if rest, ok := strings.CutPrefix(overID, dayTabDropZonePrefix); ok {
		if n, err := strconv.Atoi(rest); err == nil && exists(n) {
			return n, true
		}
	}
	if rest, ok := strings.CutPrefix(overID, dayDropZonePrefix); ok {
		if n, err := strconv.Atoi(rest); err == nil && exists(n) {
			return n, true
		}
	}
	for _, d := range days {
		if indexOfItem(d.CustomItems, overID) >= 0 {
			return d.DayNumber, true
		}
	}
	return 0, false
}

// Move applies the authoritative end of a drag gesture to p. Every
// unresolvable gesture is a no-op.
func (p *DayPlans) Move(activeID, overID string) MoveResult {
	sourceDay, ok := p.FindItem(activeID)
	if !ok {
		return noMove
	}
	targetDay, ok := ResolveTargetDay(p.days, overID)
	if !ok {
		return noMove
	}
	if sourceDay == targetDay {
		return p.reorder(sourceDay, activeID, overID)
	}
	return p.moveAcross(sourceDay, targetDay, activeID)
}

func (p *DayPlans) reorder(dayNumber int, activeID, overID string) MoveResult {
	if activeID == overID {
		return noMove
	}
	idx := p.indexOf(dayNumber)
	items := p.days[idx].CustomItems
	from := indexOfItem(items, activeID)
	to := indexOfItem(items, overID)
	if from < 0 || to < 0 {
		return noMove
	}
	p.days[idx].CustomItems = arrayMove(items, from, to)
	return MoveResult{Kind: MoveReorder, ItemID: activeID, FromDay: dayNumber, ToDay: dayNumber, FromIndex: from, ToIndex: to}
}

func (p *DayPlans) moveAcross(sourceDay, targetDay int, activeID string) MoveResult {
	si, ti := p.indexOf(sourceDay), p.indexOf(targetDay)
	from := indexOfItem(p.days[si].CustomItems, activeID)
	item := p.days[si].CustomItems[from]

	src := slices.Clone(p.days[si].CustomItems)
	p.days[si].CustomItems = slices.Delete(src, from, from+1)
	p.days[ti].CustomItems = append(slices.Clone(p.days[ti].CustomItems), item.Clone())

	return MoveResult{
		Kind:      MoveCrossDay,
		ItemID:    activeID,
		FromDay:   sourceDay,
		ToDay:     targetDay,
		FromIndex: from,
		ToIndex:   len(p.days[ti].CustomItems) - 1,
	}
}

// arrayMove removes the element at from and reinserts it at to.
func arrayMove(items []types.ItineraryItem, from, to int) []types.ItineraryItem {
	out := slices.Clone(items)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, item)
}

// DragEngine tracks one drag gesture at a time over a DayPlans collection.
// Start and Over are advisory; only End mutates.
type DragEngine struct {
	plans     *DayPlans
	activeDay int
	timeAware bool

	activeID string
	overID   string
	dragging bool
}

// NewDragEngine returns an idle engine showing day 1.
func NewDragEngine(plans *DayPlans) *DragEngine {
	return &DragEngine{plans: plans, activeDay: 1}
}

// ActiveDay is the day the view is showing.
func (e *DragEngine) ActiveDay() int { return e.activeDay }

// SetActiveDay switches the shown day. Unknown days are ignored.
func (e *DragEngine) SetActiveDay(dayNumber int) bool {
	if _, ok := e.plans.Day(dayNumber); !ok {
		return false
	}
	e.activeDay = dayNumber
	return true
}

// SetTimeAware toggles the view mode in which timed items are ordered by
// time and cannot be dragged.
func (e *DragEngine) SetTimeAware(on bool) { e.timeAware = on }

// TimeAware reports the current view mode.
func (e *DragEngine) TimeAware() bool { return e.timeAware }

// CanDrag reports whether a gesture may start on itemID.
func (e *DragEngine) CanDrag(itemID string) bool {
	dayNumber, ok := e.plans.FindItem(itemID)
	if !ok {
		return false
	}
	if !e.timeAware {
		return true
	}
	day, _ := e.plans.Day(dayNumber)
	idx := indexOfItem(day.CustomItems, itemID)
	return day.CustomItems[idx].StartTime() == ""
}

// Start begins a gesture. It is rejected for unknown items and for timed
// items in time-aware mode.
func (e *DragEngine) Start(activeID string) bool {
	if !e.CanDrag(activeID) {
		e.reset()
		return false
	}
	e.activeID = activeID
	e.overID = ""
	e.dragging = true
	return true
}

// Over records the hovered target and returns the day it resolves to, for
// highlighting.
func (e *DragEngine) Over(overID string) (int, bool) {
	if !e.dragging {
		return 0, false
	}
	e.overID = overID
	return ResolveTargetDay(e.plans.days, overID)
}

// End applies the gesture. A cross-day move makes the target day active.
func (e *DragEngine) End(activeID, overID string) MoveResult {
	defer e.reset()
	if !e.CanDrag(activeID) {
		return noMove
	}
	res := e.plans.Move(activeID, overID)
	if res.Kind == MoveCrossDay {
		e.activeDay = res.ToDay
	}
	return res
}

// Cancel abandons the gesture without changes.
func (e *DragEngine) Cancel() { e.reset() }

// Dragging reports whether a gesture is in progress and on which item.
func (e *DragEngine) Dragging() (string, bool) {
	return e.activeID, e.dragging
}

func (e *DragEngine) reset() {
	e.activeID = ""
	e.overID = ""
	e.dragging = false
}
