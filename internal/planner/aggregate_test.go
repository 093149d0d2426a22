package planner

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

func TestDecodeAggregate(t *testing.T) {
	t.Run("empty payloads start with default days", func(t *testing.T) {
		for _, raw := range []string{"", "  ", "null"} {
			agg, err := DecodeAggregate([]byte(raw))
			require.NoError(t, err)
			assert.Len(t, agg.Days, DefaultDayCount)
			assert.NotNil(t, agg.SavedLocations)
		}
	})

	t.Run("legacy bare days array", func(t *testing.T) {
		raw := `[{"dayNumber":4,"date":"2026-03-01","included":{"food":true},"includeBase":{"food":false},
			"customItems":[{"id":"a","name":"Lunch","category":"FOOD","amount":1250,"visits":0}]}]`

		agg, err := DecodeAggregate([]byte(raw))
		require.NoError(t, err)

		require.Len(t, agg.Days, 1)
		day := agg.Days[0]
		assert.Equal(t, 1, day.DayNumber)
		assert.Equal(t, types.CategoryToggles{Food: true}, day.Included)
		assert.Equal(t, 1, day.CustomItems[0].Visits, "visits are clamped to 1")
		assert.Empty(t, agg.SavedLocations)
	})

	t.Run("repairs bad records", func(t *testing.T) {
		raw := `{"days":[{"dayNumber":1,"included":{},"includeBase":{},"customItems":[
				{"id":"a","category":"SPA","amount":-5,"visits":2},
				{"id":"","category":"FOOD","amount":100,"visits":1,"timeSlot":{"startTime":"9:00","endTime":"10:30"}},
				{"id":"a","category":"FOOD","amount":100,"visits":1,"timeSlot":{"startTime":"25:00"}}]}],
			"savedLocations":[
				{"id":"l1","name":"One","category":"LANDMARK","location":{"lat":1,"lon":1},"isPrimary":true},
				{"id":"l2","name":"Two","category":"RESTAURANT","location":{"lat":1,"lon":1},"isPrimary":true}]}`

		agg, err := DecodeAggregate([]byte(raw))
		require.NoError(t, err)

		it := agg.Days[0].CustomItems[0]
		assert.Equal(t, types.CategoryOther, it.Category)
		assert.Equal(t, types.Money(0), it.Amount)

		items := agg.Days[0].CustomItems
		require.Len(t, items, 3)
		assert.NotEmpty(t, items[1].ID)
		assert.NotEqual(t, "a", items[2].ID, "duplicate ids are replaced")
		assert.NotEqual(t, items[1].ID, items[2].ID)
		require.NotNil(t, items[1].TimeSlot)
		assert.Empty(t, items[1].TimeSlot.StartTime)
		assert.Equal(t, "10:30", items[1].TimeSlot.EndTime)
		assert.Nil(t, items[2].TimeSlot)

		assert.True(t, agg.SavedLocations[0].IsPrimary)
		assert.False(t, agg.SavedLocations[1].IsPrimary, "first primary wins")
		assert.Equal(t, types.SavedLocationRestaurant.DefaultIcon(), agg.SavedLocations[1].Icon)
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := DecodeAggregate([]byte(`{"days": 3}`))
		assert.Error(t, err)
		_, err = DecodeAggregate([]byte(`[1,2`))
		assert.Error(t, err)
	})
}

func TestEncodeAggregate_RoundTrip(t *testing.T) {
	h := hotel("h", "Hotel X")
	h.IsPrimary = true
	h.Icon = h.Category.DefaultIcon()
	days := AutoFillAllDays([]types.DayPlan{
		dayWith(1, timed(item("a", types.CategoryFood, 1250, 2), "12:30")),
		NewDay(2),
	}, h, newIDs())
	days[1].Date = "2026-07-02"
	days[1].IncludeBase = days[1].IncludeBase.With(types.CategoryTransport, false)
	agg := types.TripAggregate{Days: days, SavedLocations: []types.SavedLocation{h}}

	raw, err := EncodeAggregate(agg)
	require.NoError(t, err)
	decoded, err := DecodeAggregate(raw)
	require.NoError(t, err)

	assert.Equal(t, NormalizeAggregate(agg), decoded)

	again, err := EncodeAggregate(decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(again))

	t.Run("provenance is flattened on the wire", func(t *testing.T) {
		var wire struct {
			Days []struct {
				CustomItems []map[string]any `json:"customItems"`
			} `json:"days"`
		}
		require.NoError(t, json.Unmarshal(raw, &wire))

		manual := wire.Days[0].CustomItems[0]
		assert.Equal(t, false, manual["isAutoFilled"])
		assert.NotContains(t, manual, "autoFillSource")

		auto := wire.Days[0].CustomItems[1]
		assert.Equal(t, true, auto["isAutoFilled"])
		assert.Equal(t, "h", auto["autoFillSource"])
		assert.Equal(t, "CHECK_IN", auto["autoFillSlot"])
	})
}
