package planner

import (
	"math"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

const (
	earthRadiusKm  = 6371
	walkingSpeedKm = 5.0
)

// DistanceKm is the great-circle distance between two points (haversine).
func DistanceKm(a, b types.GeoLocation) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dlat := (b.Lat - a.Lat) * math.Pi / 180
	dlon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Leg is the straight-line hop between two consecutive located items.
type Leg struct {
	FromItemID     string  `json:"fromItemId"`
	ToItemID       string  `json:"toItemId"`
	DistanceKm     float64 `json:"distanceKm"`
	WalkingMinutes int     `json:"walkingMinutes"`
}

// DayDistances lists the legs of one day.
type DayDistances struct {
	DayNumber int     `json:"dayNumber"`
	Legs      []Leg   `json:"legs"`
	TotalKm   float64 `json:"totalKm"`
}

// EstimateDay walks the items of a day in order and measures each hop
// between items that have a location. When timeOrdered is set the items
// are taken in SortByTime order.
func EstimateDay(day types.DayPlan, timeOrdered bool) DayDistances {
	items := day.CustomItems
	if timeOrdered {
		items = SortByTime(items)
	}
	out := DayDistances{DayNumber: day.DayNumber, Legs: []Leg{}}
	var prev *types.ItineraryItem
	for i := range items {
		if items[i].Location == nil {
			continue
		}
		if prev != nil {
			km := DistanceKm(*prev.Location, *items[i].Location)
			out.Legs = append(out.Legs, Leg{
				FromItemID:     prev.ID,
				ToItemID:       items[i].ID,
				DistanceKm:     math.Round(km*100) / 100,
				WalkingMinutes: int(math.Ceil(km / walkingSpeedKm * 60)),
			})
			out.TotalKm += km
		}
		prev = &items[i]
	}
	out.TotalKm = math.Round(out.TotalKm*100) / 100
	return out
}

// EstimateTrip runs EstimateDay over every day.
func EstimateTrip(days []types.DayPlan, timeOrdered bool) []DayDistances {
	out := make([]DayDistances, 0, len(days))
	for _, d := range days {
		out = append(out, EstimateDay(d, timeOrdered))
	}
	return out
}
