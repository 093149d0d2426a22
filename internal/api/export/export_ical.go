package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	ics "github.com/arran4/golang-ical"

	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

const (
	icsDateLayout  = "2006-01-02"
	icsLocalLayout = "20060102T150405"
	icsProductID   = "-//trip-budget//itinerary//EN"
)

// RenderICS writes an RFC 5545 calendar with one VEVENT per item that has
// both a day date and a start time. Times are floating local times.
func RenderICS(v View) []byte {
	cal := ics.NewCalendar()
	cal.SetProductId(icsProductID)
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(cleanText(v.TripName))

	for _, d := range v.Days {
		if d.Date == "" {
			continue
		}
		day, err := time.Parse(icsDateLayout, d.Date)
		if err != nil {
			continue
		}
		for _, item := range d.Items {
			start, ok := clockOn(day, item.StartTime())
			if !ok {
				continue
			}
			event := cal.AddEvent(fmt.Sprintf("%s-%s@trip-budget", v.TripID, cleanURI(item.ID)))
			event.SetDtStampTime(v.GeneratedAt)
			// Trips carry no zone, so DTSTART and DTEND stay floating.
			event.SetProperty(ics.ComponentPropertyDtStart, start.Format(icsLocalLayout))
			if end, ok := clockOn(day, endTime(item)); ok && end.After(start) {
				event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(icsLocalLayout))
			}
			event.SetSummary(cleanText(itemTitle(item.Name, item.Visits)))
			event.AddCategory(item.Category.Label())
			event.SetDescription(cleanText(eventDescription(d, item)))
			if item.Location != nil {
				if item.Location.Address != "" {
					event.SetLocation(cleanText(item.Location.Address))
				}
				event.SetGeo(fmt.Sprintf("%.6f", item.Location.Lat), fmt.Sprintf("%.6f", item.Location.Lon))
			}
			if u := cleanURI(item.BookingURL); u != "" && u == item.BookingURL {
				event.SetURL(u)
			}
		}
	}
	return []byte(cal.Serialize(ics.WithNewLineWindows))
}

func endTime(item types.ItineraryItem) string {
	if item.TimeSlot == nil {
		return ""
	}
	return item.TimeSlot.EndTime
}

func clockOn(day time.Time, clock string) (time.Time, bool) {
	if clock == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), true
}

func eventDescription(d DayView, item types.ItineraryItem) string {
	parts := []string{d.Title(), "Cost: " + item.Total().String()}
	if item.BookingRequired {
		parts = append(parts, "Booking required")
	}
	if item.Notes != "" {
		parts = append(parts, item.Notes)
	}
	return strings.Join(parts, "\n")
}

// cleanText turns CR and CRLF into LF and drops other control characters.
// TEXT values are escaped on serialization, which only handles LF.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\r':
			return '\n'
		case r == '\n', r == '\t':
			return r
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

// cleanURI drops control characters and whitespace. URI values are written
// unescaped.
func cleanURI(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
