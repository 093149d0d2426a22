package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GeoLocation is a geocoded point.
type GeoLocation struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}

// TimeSlot holds optional 24h "HH:MM" start and end times.
type TimeSlot struct {
	StartTime string `json:"startTime,omitempty"`
	EndTime   string `json:"endTime,omitempty"`
}

// ItineraryItem is one bookable, costed unit of a day.
type ItineraryItem struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Category        Category     `json:"category"`
	Amount          Money        `json:"amount"` // per visit, minor units
	Visits          int          `json:"visits"`
	TimeSlot        *TimeSlot    `json:"timeSlot,omitempty"`
	Location        *GeoLocation `json:"location,omitempty"`
	Provenance      Provenance   `json:"-"`
	BookingRequired bool         `json:"bookingRequired,omitempty"`
	BookingURL      string       `json:"bookingUrl,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

type itemAlias ItineraryItem

type itemWire struct {
	itemAlias
	IsAutoFilled   bool         `json:"isAutoFilled"`
	AutoFillSource string       `json:"autoFillSource,omitempty"`
	AutoFillSlot   AutoFillSlot `json:"autoFillSlot,omitempty"`
}

// MarshalJSON flattens the provenance into the isAutoFilled/autoFillSource
// fields of the persisted payload.
func (i ItineraryItem) MarshalJSON() ([]byte, error) {
	w := itemWire{itemAlias: itemAlias(i), IsAutoFilled: i.Provenance.IsAutoFilled()}
	if src, ok := i.Provenance.Source(); ok {
		w.AutoFillSource = src
	}
	w.AutoFillSlot = i.Provenance.Slot()
	return json.Marshal(w)
}

// UnmarshalJSON rebuilds the provenance. A source without isAutoFilled is a
// stale back-reference and is dropped.
func (i *ItineraryItem) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*i = ItineraryItem(w.itemAlias)
	if w.IsAutoFilled {
		i.Provenance = AutoFilledFrom(w.AutoFillSource, w.AutoFillSlot)
	} else {
		i.Provenance = Manual()
	}
	return nil
}

// Total is amount * visits.
func (i ItineraryItem) Total() Money {
	return i.Amount * Money(i.Visits)
}

// StartTime returns the scheduled start or "" when unscheduled.
func (i ItineraryItem) StartTime() string {
	if i.TimeSlot == nil {
		return ""
	}
	return i.TimeSlot.StartTime
}

// Clone returns a copy that shares no pointers with i.
func (i ItineraryItem) Clone() ItineraryItem {
	c := i
	if i.TimeSlot != nil {
		ts := *i.TimeSlot
		c.TimeSlot = &ts
	}
	if i.Location != nil {
		loc := *i.Location
		c.Location = &loc
	}
	return c
}

// ItemPatch is a partial update of an item. Nil fields are left unchanged.
type ItemPatch struct {
	Name            *string      `json:"name,omitempty"`
	Category        *Category    `json:"category,omitempty"`
	Amount          *Money       `json:"amount,omitempty"`
	Visits          *int         `json:"visits,omitempty"`
	TimeSlot        *TimeSlot    `json:"timeSlot,omitempty"`
	ClearTimeSlot   bool         `json:"clearTimeSlot,omitempty"`
	Location        *GeoLocation `json:"location,omitempty"`
	ClearLocation   bool         `json:"clearLocation,omitempty"`
	BookingRequired *bool        `json:"bookingRequired,omitempty"`
	BookingURL      *string      `json:"bookingUrl,omitempty"`
	Notes           *string      `json:"notes,omitempty"`
}

// TouchesProvenance reports whether the patch rewrites name or location.
func (p ItemPatch) TouchesProvenance() bool {
	return p.Name != nil || p.Location != nil || p.ClearLocation
}

// DayPlan is one calendar day of the trip.
type DayPlan struct {
	DayNumber   int             `json:"dayNumber"`
	Date        string          `json:"date,omitempty"`
	DayName     string          `json:"dayName,omitempty"`
	Included    CategoryToggles `json:"included"`
	IncludeBase CategoryToggles `json:"includeBase"`
	CustomItems []ItineraryItem `json:"customItems"`
}

// Clone deep-copies the day, items included. Item ids are kept.
func (d DayPlan) Clone() DayPlan {
	c := d
	c.CustomItems = make([]ItineraryItem, len(d.CustomItems))
	for i, item := range d.CustomItems {
		c.CustomItems[i] = item.Clone()
	}
	return c
}

// DayPatch is a partial update of a day.
type DayPatch struct {
	Date        *string          `json:"date,omitempty"`
	DayName     *string          `json:"dayName,omitempty"`
	Included    *CategoryToggles `json:"included,omitempty"`
	IncludeBase *CategoryToggles `json:"includeBase,omitempty"`
	CustomItems *[]ItineraryItem `json:"customItems,omitempty"`
}

// SavedLocation is a named, reusable point of interest.
type SavedLocation struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Category  SavedLocationCategory `json:"category"`
	Location  GeoLocation           `json:"location"`
	IsPrimary bool                  `json:"isPrimary"`
	Notes     string                `json:"notes,omitempty"`
	Icon      string                `json:"icon,omitempty"`
}

// SavedLocationPatch is a partial update of a saved location. Primary status
// is changed through the confirmation workflow, not through a patch.
type SavedLocationPatch struct {
	Name     *string                `json:"name,omitempty"`
	Category *SavedLocationCategory `json:"category,omitempty"`
	Location *GeoLocation           `json:"location,omitempty"`
	Notes    *string                `json:"notes,omitempty"`
	Icon     *string                `json:"icon,omitempty"`
}

// TripAggregate is the unit exchanged with the persistence collaborator.
type TripAggregate struct {
	Days           []DayPlan       `json:"days"`
	SavedLocations []SavedLocation `json:"savedLocations"`
}

// Clone deep-copies the aggregate.
func (a TripAggregate) Clone() TripAggregate {
	c := TripAggregate{
		Days:           make([]DayPlan, len(a.Days)),
		SavedLocations: make([]SavedLocation, len(a.SavedLocations)),
	}
	for i, d := range a.Days {
		c.Days[i] = d.Clone()
	}
	copy(c.SavedLocations, a.SavedLocations)
	return c
}

// Trip is a persisted trip record.
type Trip struct {
	ID          uuid.UUID     `json:"id"`
	UserID      uuid.UUID     `json:"user_id"`
	Name        string        `json:"name"`
	TravelStyle TravelStyle   `json:"travel_style"`
	State       TripAggregate `json:"state"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// TripSummary is the list view of a trip.
type TripSummary struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	TravelStyle TravelStyle `json:"travel_style"`
	DayCount    int         `json:"day_count"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CreateTripRequest struct {
	Name        string      `json:"name"`
	TravelStyle TravelStyle `json:"travel_style,omitempty"`
}

type UpdateTripRequest struct {
	Name        *string      `json:"name,omitempty"`
	TravelStyle *TravelStyle `json:"travel_style,omitempty"`
}

// TripSnapshot is a read-only copy of a trip (the open working copy when
// there is one) with the base costs of its travel style resolved.
type TripSnapshot struct {
	Trip      Trip      `json:"trip"`
	BaseCosts BaseCosts `json:"baseCosts"`
}
