package planner

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// ItemStore is the mutable item sequence of a single day. It works on its
// own copy; DayPlans.EditItems writes the result back.
type ItemStore struct {
	items []types.ItineraryItem
	ids   IDGenerator
}

// NewItemStore copies items into a new store.
func NewItemStore(items []types.ItineraryItem, ids IDGenerator) *ItemStore {
	s := &ItemStore{items: make([]types.ItineraryItem, len(items)), ids: ids}
	for i, item := range items {
		s.items[i] = item.Clone()
	}
	return s
}

// Items returns a copy of the sequence in display order.
func (s *ItemStore) Items() []types.ItineraryItem {
	out := make([]types.ItineraryItem, len(s.items))
	for i, item := range s.items {
		out[i] = item.Clone()
	}
	return out
}

// Len is the number of items.
func (s *ItemStore) Len() int { return len(s.items) }

// Get returns the item with id.
func (s *ItemStore) Get(id string) (types.ItineraryItem, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return types.ItineraryItem{}, false
	}
	return s.items[idx].Clone(), true
}

// Add appends a blank item of category c.
func (s *ItemStore) Add(c types.Category) (types.ItineraryItem, error) {
	if !c.Valid() {
		return types.ItineraryItem{}, fmt.Errorf("%w: %q", types.ErrInvalidCategory, string(c))
	}
	item := types.ItineraryItem{
		ID:         s.ids.NewID(),
		Category:   c,
		Amount:     0,
		Visits:     1,
		Provenance: types.Manual(),
	}
	s.items = append(s.items, item)
	return item.Clone(), nil
}

// Update merges patch into the item with id. A missing id is not an error:
// it returns false and leaves the store unchanged.
func (s *ItemStore) Update(id string, patch types.ItemPatch) (bool, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	updated, err := ApplyItemPatch(s.items[idx], patch)
	if err != nil {
		return false, err
	}
	s.items[idx] = updated
	return true, nil
}

// Delete removes the item with id. It reports whether anything was removed.
func (s *ItemStore) Delete(id string) bool {
	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	return true
}

func (s *ItemStore) indexOf(id string) int {
	return indexOfItem(s.items, id)
}

func indexOfItem(items []types.ItineraryItem, id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(items, func(item types.ItineraryItem) bool { return item.ID == id })
}

// ApplyItemPatch returns item with patch merged in. Editing name or location
// makes the item manual again.
func ApplyItemPatch(item types.ItineraryItem, patch types.ItemPatch) (types.ItineraryItem, error) {
	out := item.Clone()
	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Category != nil {
		if !patch.Category.Valid() {
			return item, fmt.Errorf("%w: %q", types.ErrInvalidCategory, string(*patch.Category))
		}
		out.Category = *patch.Category
	}
	if patch.Amount != nil {
		if *patch.Amount < 0 {
			return item, fmt.Errorf("%w: amount must not be negative", types.ErrInvalidItem)
		}
		out.Amount = *patch.Amount
	}
	if patch.Visits != nil {
		if *patch.Visits < 1 {
			return item, fmt.Errorf("%w: visits must be at least 1", types.ErrInvalidItem)
		}
		out.Visits = *patch.Visits
	}
	switch {
	case patch.ClearTimeSlot:
		out.TimeSlot = nil
	case patch.TimeSlot != nil:
		if err := ValidateTimeSlot(*patch.TimeSlot); err != nil {
			return item, err
		}
		ts := *patch.TimeSlot
		if ts.StartTime == "" && ts.EndTime == "" {
			out.TimeSlot = nil
		} else {
			out.TimeSlot = &ts
		}
	}
	switch {
	case patch.ClearLocation:
		out.Location = nil
	case patch.Location != nil:
		loc := *patch.Location
		out.Location = &loc
	}
	if patch.BookingRequired != nil {
		out.BookingRequired = *patch.BookingRequired
	}
	if patch.BookingURL != nil {
		if strings.ContainsFunc(*patch.BookingURL, unicode.IsControl) {
			return item, fmt.Errorf("%w: booking url must not contain control characters", types.ErrInvalidItem)
		}
		out.BookingURL = *patch.BookingURL
	}
	if patch.Notes != nil {
		out.Notes = *patch.Notes
	}
	if patch.TouchesProvenance() {
		out.Provenance = types.Manual()
	}
	return out, nil
}

// ValidateTimeSlot checks that present times are 24h "HH:MM".
func ValidateTimeSlot(ts types.TimeSlot) error {
	for _, v := range []string{ts.StartTime, ts.EndTime} {
		if v == "" {
			continue
		}
		if !validClock(v) {
			return fmt.Errorf("%w: %q", types.ErrInvalidTime, v)
		}
	}
	return nil
}

func validClock(v string) bool {
	if len(v) != 5 {
		return false
	}
	_, err := time.Parse("15:04", v)
	return err == nil
}

// SortByTime returns a new sequence ordered by start time. Unscheduled items
// go last; ties keep their display order. The input is not modified.
func SortByTime(items []types.ItineraryItem) []types.ItineraryItem {
	out := make([]types.ItineraryItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	slices.SortStableFunc(out, func(a, b types.ItineraryItem) int {
		as, bs := a.StartTime(), b.StartTime()
		switch {
		case as == bs:
			return 0
		case as == "":
			return 1
		case bs == "":
			return -1
		case as < bs:
			return -1
		default:
			return 1
		}
	})
	return out
}
