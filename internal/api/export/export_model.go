package export

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// Format is a supported export document type.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatICS Format = "ics"
)

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatICS:
		return "text/calendar; charset=utf-8"
	}
	return "application/octet-stream"
}

// View is the read-only {days, costs, tripTotal} projection renderers work
// from. It never aliases the trip it was built from.
type View struct {
	TripID      uuid.UUID
	TripName    string
	TravelStyle types.TravelStyle
	Days        []DayView
	TripTotal   types.Money
	GeneratedAt time.Time
}

type DayView struct {
	DayNumber int
	Date      string
	DayName   string
	Items     []types.ItineraryItem
	Costs     []planner.CategoryCost
	Total     types.Money
}

// Title is the heading of a day, e.g. "Day 2 - Sintra (2025-06-02)".
func (d DayView) Title() string {
	t := "Day " + strconv.Itoa(d.DayNumber)
	if d.DayName != "" {
		t += " - " + d.DayName
	}
	if d.Date != "" {
		t += " (" + d.Date + ")"
	}
	return t
}

// BuildView projects a snapshot. Items are listed in time order.
func BuildView(snap types.TripSnapshot, now time.Time) View {
	days := snap.Trip.State.Clone().Days
	summary := planner.Summarize(days, snap.BaseCosts)

	v := View{
		TripID:      snap.Trip.ID,
		TripName:    snap.Trip.Name,
		TravelStyle: snap.Trip.TravelStyle,
		Days:        make([]DayView, 0, len(days)),
		TripTotal:   summary.TripTotal,
		GeneratedAt: now.UTC(),
	}
	for i, d := range days {
		v.Days = append(v.Days, DayView{
			DayNumber: d.DayNumber,
			Date:      d.Date,
			DayName:   d.DayName,
			Items:     planner.SortByTime(d.CustomItems),
			Costs:     summary.Days[i].Categories,
			Total:     summary.Days[i].Total,
		})
	}
	return v
}
