package planner

import (
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

var autoFillSlots = []types.AutoFillSlot{types.SlotCheckIn, types.SlotCheckOut}

// AutoFilledName is the item name written for a slot of a saved location.
func AutoFilledName(slot types.AutoFillSlot, loc types.SavedLocation) string {
	switch slot {
	case types.SlotCheckIn:
		if loc.Category == types.SavedLocationAccommodation {
			return "Check-in: " + loc.Name
		}
		return "Arrive: " + loc.Name
	case types.SlotCheckOut:
		if loc.Category == types.SavedLocationAccommodation {
			return "Check-out: " + loc.Name
		}
		return "Depart: " + loc.Name
	}
	return loc.Name
}

// ItemCategoryFor maps a saved location category to the cost category of the
// items generated from it.
func ItemCategoryFor(c types.SavedLocationCategory) types.Category {
	switch c {
	case types.SavedLocationAccommodation:
		return types.CategoryAccommodation
	case types.SavedLocationRestaurant:
		return types.CategoryFood
	case types.SavedLocationTransportHub:
		return types.CategoryTransport
	case types.SavedLocationLandmark:
		return types.CategoryActivities
	}
	return types.CategoryOther
}

// AutoFillAllDays writes a check-in and a check-out item for loc into every
// day. An existing auto-filled item occupying a slot is rewritten in place;
// otherwise a new item is appended. The input is not modified.
func AutoFillAllDays(days []types.DayPlan, loc types.SavedLocation, ids IDGenerator) []types.DayPlan {
	out := cloneDays(days)
	for d := range out {
		for _, slot := range autoFillSlots {
			idx := slotIndex(out[d].CustomItems, slot)
			if idx >= 0 {
				out[d].CustomItems[idx] = rewriteFromLocation(out[d].CustomItems[idx], loc)
				continue
			}
			out[d].CustomItems = append(out[d].CustomItems, types.ItineraryItem{
				ID:         ids.NewID(),
				Name:       AutoFilledName(slot, loc),
				Category:   ItemCategoryFor(loc.Category),
				Visits:     1,
				Location:   locationPtr(loc.Location),
				Provenance: types.AutoFilledFrom(loc.ID, slot),
			})
		}
	}
	return out
}

// UpdateAutoFilledItems rewrites name and location of every item still
// auto-filled from sourceID so it reflects newLoc, and points it at newLoc.
// Items the user edited since are manual and are left alone.
func UpdateAutoFilledItems(days []types.DayPlan, sourceID string, newLoc types.SavedLocation) []types.DayPlan {
	out := cloneDays(days)
	for d := range out {
		for i, item := range out[d].CustomItems {
			if item.Provenance.FromSource(sourceID) {
				out[d].CustomItems[i] = rewriteFromLocation(item, newLoc)
			}
		}
	}
	return out
}

// RemoveAutoFilledItems deletes every item auto-filled from sourceID.
func RemoveAutoFilledItems(days []types.DayPlan, sourceID string) []types.DayPlan {
	out := cloneDays(days)
	for d := range out {
		kept := out[d].CustomItems[:0]
		for _, item := range out[d].CustomItems {
			if !item.Provenance.FromSource(sourceID) {
				kept = append(kept, item)
			}
		}
		out[d].CustomItems = kept
	}
	return out
}

// CountAutoFilledItems counts items auto-filled from sourceID across all days.
func CountAutoFilledItems(days []types.DayPlan, sourceID string) int {
	n := 0
	for _, d := range days {
		for _, item := range d.CustomItems {
			if item.Provenance.FromSource(sourceID) {
				n++
			}
		}
	}
	return n
}

func rewriteFromLocation(item types.ItineraryItem, loc types.SavedLocation) types.ItineraryItem {
	slot := item.Provenance.Slot()
	item.Name = AutoFilledName(slot, loc)
	item.Location = locationPtr(loc.Location)
	item.Provenance = types.AutoFilledFrom(loc.ID, slot)
	return item
}

func slotIndex(items []types.ItineraryItem, slot types.AutoFillSlot) int {
	for i, item := range items {
		if item.Provenance.IsAutoFilled() && item.Provenance.Slot() == slot {
			return i
		}
	}
	return -1
}

func locationPtr(loc types.GeoLocation) *types.GeoLocation {
	return &loc
}

func cloneDays(days []types.DayPlan) []types.DayPlan {
	out := make([]types.DayPlan, len(days))
	for i, d := range days {
		out[i] = d.Clone()
	}
	return out
}
