package planner

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

func threeDayPlans() *DayPlans {
	return NewDayPlans([]types.DayPlan{
		dayWith(1, item("a", types.CategoryFood, 100, 1), item("b", types.CategoryFood, 200, 1), item("c", types.CategoryFood, 300, 1)),
		dayWith(2, item("d", types.CategoryActivities, 400, 1)),
		dayWith(3),
	}, newIDs(), 0)
}

func TestResolveTargetDay(t *testing.T) {
	days := threeDayPlans().Days()

	tests := []struct {
		name   string
		overID string
		want   int
		wantOK bool
	}{
		{"day tab", DayTabDropZoneID(2), 2, true},
		{"day zone", DayDropZoneID(3), 3, true},
		{"item", "d", 2, true},
		{"unknown tab", "day-tab-9", 0, false},
		{"unknown item", "zzz", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveTargetDay(days, tt.overID)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("drop zones win over an item with the same id", func(t *testing.T) {
		clash := []types.DayPlan{
			dayWith(1, item("day-2", types.CategoryOther, 0, 1)),
			dayWith(2),
		}
		got, ok := ResolveTargetDay(clash, "day-2")
		require.True(t, ok)
		assert.Equal(t, 2, got)
	})
}

func TestDayPlans_Move(t *testing.T) {
	t.Run("reorder within a day", func(t *testing.T) {
		p := threeDayPlans()

		res := p.Move("a", "c")

		assert.Equal(t, MoveReorder, res.Kind)
		assert.Equal(t, 0, res.FromIndex)
		assert.Equal(t, 2, res.ToIndex)
		day, _ := p.Day(1)
		assert.Equal(t, []string{"b", "c", "a"}, itemIDs(day.CustomItems))
	})

	t.Run("cross-day move to a day tab appends and preserves fields", func(t *testing.T) {
		p := threeDayPlans()
		_, err := p.EditItems(1, func(s *ItemStore) error {
			_, err := s.Update("b", types.ItemPatch{
				TimeSlot: &types.TimeSlot{StartTime: "13:00", EndTime: "14:00"},
				Location: &types.GeoLocation{Lat: 48.85, Lon: 2.35, Address: "Paris"},
				Notes:    ptr("window seat"),
			})
			return err
		})
		require.NoError(t, err)
		before, _ := p.Day(1)
		moved := before.CustomItems[1]

		res := p.Move("b", DayTabDropZoneID(2))

		assert.Equal(t, MoveCrossDay, res.Kind)
		assert.Equal(t, 1, res.FromDay)
		assert.Equal(t, 2, res.ToDay)
		day1, _ := p.Day(1)
		day2, _ := p.Day(2)
		assert.Equal(t, []string{"a", "c"}, itemIDs(day1.CustomItems))
		assert.Equal(t, []string{"d", "b"}, itemIDs(day2.CustomItems))
		assert.Equal(t, moved, day2.CustomItems[1])
	})

	t.Run("drop on an item of another day appends to that day", func(t *testing.T) {
		p := threeDayPlans()

		res := p.Move("a", "d")

		assert.Equal(t, MoveCrossDay, res.Kind)
		day2, _ := p.Day(2)
		assert.Equal(t, []string{"d", "a"}, itemIDs(day2.CustomItems))
	})

	t.Run("drop on own day zone is a no-op", func(t *testing.T) {
		p := threeDayPlans()
		before := p.Days()

		res := p.Move("a", DayDropZoneID(1))

		assert.Equal(t, MoveNone, res.Kind)
		assert.Equal(t, before, p.Days())
	})

	t.Run("unresolvable gestures are no-ops", func(t *testing.T) {
		p := threeDayPlans()
		before := p.Days()

		for _, g := range [][2]string{{"a", ""}, {"a", "nowhere"}, {"missing", "b"}, {"a", "a"}, {"a", "day-tab-7"}} {
			res := p.Move(g[0], g[1])
			assert.Equal(t, MoveNone, res.Kind, "gesture %v", g)
		}
		assert.Equal(t, before, p.Days())
	})
}

func TestDayPlans_MovePreservesItems(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := threeDayPlans()
	allIDs := func() []string {
		var ids []string
		for _, d := range p.Days() {
			ids = append(ids, itemIDs(d.CustomItems)...)
		}
		slices.Sort(ids)
		return ids
	}
	want := allIDs()
	targets := []string{"a", "b", "c", "d", "day-1", "day-2", "day-3", "day-tab-1", "day-tab-2", "day-tab-3", "nope"}

	for i := 0; i < 300; i++ {
		active := want[rng.Intn(len(want))]
		over := targets[rng.Intn(len(targets))]
		p.Move(active, over)
		require.Equal(t, want, allIDs())
		require.Equal(t, []int{1, 2, 3}, dayNumbers(p.Days()))
	}
}

func TestDragEngine(t *testing.T) {
	t.Run("cross-day end switches the active day", func(t *testing.T) {
		p := threeDayPlans()
		e := NewDragEngine(p)
		require.Equal(t, 1, e.ActiveDay())

		require.True(t, e.Start("a"))
		day, ok := e.Over(DayTabDropZoneID(3))
		require.True(t, ok)
		assert.Equal(t, 3, day)

		res := e.End("a", DayTabDropZoneID(3))
		assert.Equal(t, MoveCrossDay, res.Kind)
		assert.Equal(t, 3, e.ActiveDay())
		_, dragging := e.Dragging()
		assert.False(t, dragging)
	})

	t.Run("over and start are advisory", func(t *testing.T) {
		p := threeDayPlans()
		e := NewDragEngine(p)
		before := p.Days()

		require.True(t, e.Start("a"))
		e.Over("d")
		e.Cancel()

		assert.Equal(t, before, p.Days())
		_, ok := e.Over("d")
		assert.False(t, ok, "over without an active gesture")
	})

	t.Run("time-aware mode pins timed items", func(t *testing.T) {
		p := NewDayPlans([]types.DayPlan{
			dayWith(1, timed(item("t", types.CategoryFood, 0, 1), "09:00"), item("u", types.CategoryFood, 0, 1)),
			dayWith(2),
		}, newIDs(), 0)
		e := NewDragEngine(p)
		e.SetTimeAware(true)
		before := p.Days()

		assert.False(t, e.CanDrag("t"))
		assert.False(t, e.Start("t"))
		assert.Equal(t, MoveNone, e.End("t", DayTabDropZoneID(2)).Kind)
		assert.Equal(t, before, p.Days())

		assert.True(t, e.CanDrag("u"))
		assert.Equal(t, MoveCrossDay, e.End("u", DayTabDropZoneID(2)).Kind)
	})

	t.Run("timed items drag freely outside time-aware mode", func(t *testing.T) {
		p := NewDayPlans([]types.DayPlan{
			dayWith(1, timed(item("t", types.CategoryFood, 0, 1), "09:00")),
			dayWith(2),
		}, newIDs(), 0)
		e := NewDragEngine(p)

		assert.Equal(t, MoveCrossDay, e.End("t", DayDropZoneID(2)).Kind)
	})

	t.Run("set active day ignores unknown days", func(t *testing.T) {
		e := NewDragEngine(threeDayPlans())
		assert.True(t, e.SetActiveDay(2))
		assert.False(t, e.SetActiveDay(8))
		assert.Equal(t, 2, e.ActiveDay())
	})
}
