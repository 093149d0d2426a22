package types

import (
	"fmt"
	"strings"
)

// Category classifies an itinerary item's cost.
type Category string

const (
	CategoryAccommodation Category = "ACCOMMODATION"
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryActivities    Category = "ACTIVITIES"
	CategoryShopping      Category = "SHOPPING"
	CategoryOther         Category = "OTHER"
)

// Categories lists every item category in display order.
var Categories = []Category{
	CategoryAccommodation,
	CategoryFood,
	CategoryTransport,
	CategoryActivities,
	CategoryShopping,
	CategoryOther,
}

// BudgetCategories are the categories that carry a base estimate and a
// per-day include toggle.
var BudgetCategories = []Category{
	CategoryAccommodation,
	CategoryFood,
	CategoryTransport,
	CategoryActivities,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryAccommodation, CategoryFood, CategoryTransport,
		CategoryActivities, CategoryShopping, CategoryOther:
		return true
	}
	return false
}

// HasBudgetToggle reports whether the category has an entry in the
// included/includeBase toggle matrices.
func (c Category) HasBudgetToggle() bool {
	switch c {
	case CategoryAccommodation, CategoryFood, CategoryTransport, CategoryActivities:
		return true
	case CategoryShopping, CategoryOther:
		return false
	}
	panic(fmt.Sprintf("types: unknown category %q", string(c)))
}

// Label is the human readable name used by exports.
func (c Category) Label() string {
	switch c {
	case CategoryAccommodation:
		return "Accommodation"
	case CategoryFood:
		return "Food"
	case CategoryTransport:
		return "Transport"
	case CategoryActivities:
		return "Activities"
	case CategoryShopping:
		return "Shopping"
	case CategoryOther:
		return "Other"
	}
	panic(fmt.Sprintf("types: unknown category %q", string(c)))
}

// ParseCategory accepts the canonical upper-case form as well as the
// lower-case toggle keys used by older clients.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// SavedLocationCategory classifies a saved point of interest.
type SavedLocationCategory string

const (
	SavedLocationAccommodation SavedLocationCategory = "ACCOMMODATION"
	SavedLocationRestaurant    SavedLocationCategory = "RESTAURANT"
	SavedLocationLandmark      SavedLocationCategory = "LANDMARK"
	SavedLocationTransportHub  SavedLocationCategory = "TRANSPORT_HUB"
	SavedLocationOther         SavedLocationCategory = "OTHER"
)

// Valid reports whether c is a known saved location category.
func (c SavedLocationCategory) Valid() bool {
	switch c {
	case SavedLocationAccommodation, SavedLocationRestaurant, SavedLocationLandmark,
		SavedLocationTransportHub, SavedLocationOther:
		return true
	}
	return false
}

// DefaultIcon returns the icon shown for a saved location when the user
// has not picked one.
func (c SavedLocationCategory) DefaultIcon() string {
	switch c {
	case SavedLocationAccommodation:
		return "🏨"
	case SavedLocationRestaurant:
		return "🍽️"
	case SavedLocationLandmark:
		return "🏛️"
	case SavedLocationTransportHub:
		return "🚉"
	case SavedLocationOther:
		return "📍"
	}
	panic(fmt.Sprintf("types: unknown saved location category %q", string(c)))
}

// TravelStyle selects which base-cost record applies to a trip.
type TravelStyle string

const (
	TravelStyleBudget   TravelStyle = "budget"
	TravelStyleMidRange TravelStyle = "mid-range"
	TravelStyleLuxury   TravelStyle = "luxury"
)

// Valid reports whether s is a known travel style.
func (s TravelStyle) Valid() bool {
	switch s {
	case TravelStyleBudget, TravelStyleMidRange, TravelStyleLuxury:
		return true
	}
	return false
}
