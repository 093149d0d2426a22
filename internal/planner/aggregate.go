package planner

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// DecodeAggregate parses a persisted payload. Legacy payloads that are a bare
// days array are accepted; empty or null payloads decode to an empty
// aggregate. The result is normalized.
func DecodeAggregate(raw []byte) (types.TripAggregate, error) {
	raw = bytes.TrimSpace(raw)
	var agg types.TripAggregate
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '[':
		if err := json.Unmarshal(raw, &agg.Days); err != nil {
			return types.TripAggregate{}, fmt.Errorf("failed to decode legacy days payload: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &agg); err != nil {
			return types.TripAggregate{}, fmt.Errorf("failed to decode trip payload: %w", err)
		}
	}
	return NormalizeAggregate(agg), nil
}

// EncodeAggregate is the inverse of DecodeAggregate for a normalized aggregate.
func EncodeAggregate(agg types.TripAggregate) ([]byte, error) {
	b, err := json.Marshal(NormalizeAggregate(agg))
	if err != nil {
		return nil, fmt.Errorf("failed to encode trip payload: %w", err)
	}
	return b, nil
}

// NormalizeAggregate repairs a loaded aggregate so every invariant holds:
// at least one day (DefaultDayCount when empty), day numbers 1..N by
// position, unique non-empty item ids, visits >= 1, non-negative amounts,
// well-formed times, non-nil slices, at most one primary saved location (the
// first wins) and default icons.
func NormalizeAggregate(agg types.TripAggregate) types.TripAggregate {
	out := agg.Clone()
	if len(out.Days) == 0 {
		out.Days = DefaultDays(DefaultDayCount)
	}
	seenIDs := make(map[string]bool)
	for i := range out.Days {
		out.Days[i].DayNumber = i + 1
		if out.Days[i].CustomItems == nil {
			out.Days[i].CustomItems = []types.ItineraryItem{}
		}
		for j := range out.Days[i].CustomItems {
			item := &out.Days[i].CustomItems[j]
			if item.ID == "" || seenIDs[item.ID] {
				item.ID = UUIDGenerator{}.NewID()
			}
			seenIDs[item.ID] = true
			item.TimeSlot = repairTimeSlot(item.TimeSlot)
			if item.Visits < 1 {
				item.Visits = 1
			}
			if item.Amount < 0 {
				item.Amount = 0
			}
			if !item.Category.Valid() {
				item.Category = types.CategoryOther
			}
		}
	}
	if out.SavedLocations == nil {
		out.SavedLocations = []types.SavedLocation{}
	}
	seenPrimary := false
	for i := range out.SavedLocations {
		loc := &out.SavedLocations[i]
		if !loc.Category.Valid() {
			loc.Category = types.SavedLocationOther
		}
		if loc.Icon == "" {
			loc.Icon = loc.Category.DefaultIcon()
		}
		if loc.IsPrimary {
			if seenPrimary {
				loc.IsPrimary = false
			}
			seenPrimary = true
		}
	}
	return out
}

// repairTimeSlot drops times that are not 24h "HH:MM". A slot left with no
// times becomes nil.
func repairTimeSlot(ts *types.TimeSlot) *types.TimeSlot {
	if ts == nil {
		return nil
	}
	out := *ts
	if out.StartTime != "" && !validClock(out.StartTime) {
		out.StartTime = ""
	}
	if out.EndTime != "" && !validClock(out.EndTime) {
		out.EndTime = ""
	}
	if out.StartTime == "" && out.EndTime == "" {
		return nil
	}
	return &out
}
