package planner

import (
	"fmt"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// seqIDs hands out predictable ids: prefix-1, prefix-2, ...
type seqIDs struct {
	prefix string
	n      int
}

func (s *seqIDs) NewID() string {
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

func newIDs() *seqIDs { return &seqIDs{prefix: "id"} }

func item(id string, c types.Category, amount types.Money, visits int) types.ItineraryItem {
	return types.ItineraryItem{ID: id, Name: id, Category: c, Amount: amount, Visits: visits}
}

func timed(it types.ItineraryItem, start string) types.ItineraryItem {
	it.TimeSlot = &types.TimeSlot{StartTime: start}
	return it
}

func dayWith(n int, items ...types.ItineraryItem) types.DayPlan {
	d := NewDay(n)
	d.CustomItems = append(d.CustomItems, items...)
	return d
}

func itemIDs(items []types.ItineraryItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func dayNumbers(days []types.DayPlan) []int {
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = d.DayNumber
	}
	return out
}

func totalItems(days []types.DayPlan) int {
	n := 0
	for _, d := range days {
		n += len(d.CustomItems)
	}
	return n
}

func ptr[T any](v T) *T { return &v }
