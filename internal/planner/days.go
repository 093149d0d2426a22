package planner

import (
	"fmt"
	"slices"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

const (
	// DefaultMaxDays is the hard ceiling on trip length.
	DefaultMaxDays = 30
	// DefaultDayCount is the number of empty days a new trip starts with.
	DefaultDayCount = 3
)

// NewDay returns an empty day with every category and base estimate on.
func NewDay(dayNumber int) types.DayPlan {
	return types.DayPlan{
		DayNumber:   dayNumber,
		Included:    types.AllOn(),
		IncludeBase: types.AllOn(),
		CustomItems: []types.ItineraryItem{},
	}
}

// DefaultDays returns n empty days numbered 1..n.
func DefaultDays(n int) []types.DayPlan {
	days := make([]types.DayPlan, n)
	for i := range days {
		days[i] = NewDay(i + 1)
	}
	return days
}

// DayPlans is the ordered collection of days of a trip. Day numbers are
// always exactly 1..N; every structural change renumbers before returning.
type DayPlans struct {
	days    []types.DayPlan
	ids     IDGenerator
	maxDays int
}

// NewDayPlans copies days into a collection. An empty input starts with
// DefaultDayCount days. maxDays <= 0 means DefaultMaxDays.
func NewDayPlans(days []types.DayPlan, ids IDGenerator, maxDays int) *DayPlans {
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	p := &DayPlans{ids: ids, maxDays: maxDays}
	if len(days) == 0 {
		days = DefaultDays(DefaultDayCount)
	}
	p.days = make([]types.DayPlan, len(days))
	for i, d := range days {
		p.days[i] = d.Clone()
	}
	p.renumber()
	return p
}

// Len is the number of days.
func (p *DayPlans) Len() int { return len(p.days) }

// MaxDays is the configured ceiling.
func (p *DayPlans) MaxDays() int { return p.maxDays }

// Days returns a deep copy of the collection.
func (p *DayPlans) Days() []types.DayPlan {
	out := make([]types.DayPlan, len(p.days))
	for i, d := range p.days {
		out[i] = d.Clone()
	}
	return out
}

// Day returns a copy of the day with dayNumber.
func (p *DayPlans) Day(dayNumber int) (types.DayPlan, bool) {
	idx := p.indexOf(dayNumber)
	if idx < 0 {
		return types.DayPlan{}, false
	}
	return p.days[idx].Clone(), true
}

// AddDay appends an empty day.
func (p *DayPlans) AddDay() (types.DayPlan, error) {
	if len(p.days) >= p.maxDays {
		return types.DayPlan{}, fmt.Errorf("%w (%d)", types.ErrMaxDaysReached, p.maxDays)
	}
	day := NewDay(len(p.days) + 1)
	p.days = append(p.days, day)
	return day.Clone(), nil
}

// RemoveDay removes the day with dayNumber and renumbers the rest by
// position. Removing an unknown day is a no-op that returns false.
func (p *DayPlans) RemoveDay(dayNumber int) (bool, error) {
	idx := p.indexOf(dayNumber)
	if idx < 0 {
		return false, nil
	}
	if len(p.days) <= 1 {
		return false, types.ErrMinDaysRequired
	}
	p.days = slices.Delete(p.days, idx, idx+1)
	p.renumber()
	return true, nil
}

// DuplicateDay appends a deep copy of the day with dayNumber. Copied items
// get fresh ids and the date is cleared.
func (p *DayPlans) DuplicateDay(dayNumber int) (types.DayPlan, bool, error) {
	idx := p.indexOf(dayNumber)
	if idx < 0 {
		return types.DayPlan{}, false, nil
	}
	if len(p.days) >= p.maxDays {
		return types.DayPlan{}, false, fmt.Errorf("%w (%d)", types.ErrMaxDaysReached, p.maxDays)
	}
	dup := p.days[idx].Clone()
	dup.Date = ""
	for i := range dup.CustomItems {
		dup.CustomItems[i].ID = p.ids.NewID()
	}
	dup.DayNumber = len(p.days) + 1
	p.days = append(p.days, dup)
	return dup.Clone(), true, nil
}

// UpdateDay merges patch into the day with dayNumber. Day numbers cannot be
// patched. An unknown day returns false.
func (p *DayPlans) UpdateDay(dayNumber int, patch types.DayPatch) (bool, error) {
	idx := p.indexOf(dayNumber)
	if idx < 0 {
		return false, nil
	}
	day := p.days[idx].Clone()
	if patch.Date != nil {
		day.Date = *patch.Date
	}
	if patch.DayName != nil {
		day.DayName = *patch.DayName
	}
	if patch.Included != nil {
		day.Included = *patch.Included
	}
	if patch.IncludeBase != nil {
		day.IncludeBase = *patch.IncludeBase
	}
	if patch.CustomItems != nil {
		items := make([]types.ItineraryItem, len(*patch.CustomItems))
		for i, item := range *patch.CustomItems {
			if err := validateItem(item); err != nil {
				return false, err
			}
			items[i] = item.Clone()
		}
		day.CustomItems = items
	}
	p.days[idx] = day
	return true, nil
}

// EditItems runs fn against the item store of a day and writes the result
// back. The store validates each item it adds or patches, so untouched items
// are written back as they are. If fn returns an error nothing is written.
func (p *DayPlans) EditItems(dayNumber int, fn func(*ItemStore) error) (bool, error) {
	idx := p.indexOf(dayNumber)
	if idx < 0 {
		return false, nil
	}
	store := NewItemStore(p.days[idx].CustomItems, p.ids)
	if err := fn(store); err != nil {
		return false, err
	}
	p.days[idx].CustomItems = store.Items()
	return true, nil
}

// FindItem returns the day number containing itemID.
func (p *DayPlans) FindItem(itemID string) (int, bool) {
	for _, d := range p.days {
		if indexOfItem(d.CustomItems, itemID) >= 0 {
			return d.DayNumber, true
		}
	}
	return 0, false
}

// replaceAll swaps in a new day slice produced by a pure transformation and
// renumbers it.
func (p *DayPlans) replaceAll(days []types.DayPlan) {
	p.days = days
	p.renumber()
}

func (p *DayPlans) indexOf(dayNumber int) int {
	return slices.IndexFunc(p.days, func(d types.DayPlan) bool { return d.DayNumber == dayNumber })
}

func (p *DayPlans) renumber() {
	for i := range p.days {
		p.days[i].DayNumber = i + 1
		if p.days[i].CustomItems == nil {
			p.days[i].CustomItems = []types.ItineraryItem{}
		}
	}
}

func validateItem(item types.ItineraryItem) error {
	if item.ID == "" {
		return fmt.Errorf("%w: missing id", types.ErrInvalidItem)
	}
	if !item.Category.Valid() {
		return fmt.Errorf("%w: %q", types.ErrInvalidCategory, string(item.Category))
	}
	if item.Amount < 0 {
		return fmt.Errorf("%w: amount must not be negative", types.ErrInvalidItem)
	}
	if item.Visits < 1 {
		return fmt.Errorf("%w: visits must be at least 1", types.ErrInvalidItem)
	}
	if item.TimeSlot != nil {
		return ValidateTimeSlot(*item.TimeSlot)
	}
	return nil
}
