package types

import (
	"fmt"
	"math"
)

// Money is an amount in minor currency units (cents). All aggregation is
// done in Money; conversion to major units happens only when rendering.
type Money int64

// FromMajor converts a decimal major-unit amount, rounding to the nearest cent.
func FromMajor(v float64) Money {
	return Money(math.Round(v * 100))
}

// Major returns the amount in major units.
func (m Money) Major() float64 {
	return float64(m) / 100
}

// String formats the amount with two decimals, e.g. "90.00".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// BaseCosts are the per-day base estimates of a travel style, in major units
// as they appear in configuration.
type BaseCosts struct {
	Accommodation float64 `json:"accommodation" mapstructure:"accommodation"`
	Food          float64 `json:"food" mapstructure:"food"`
	Transport     float64 `json:"transport" mapstructure:"transport"`
	Activities    float64 `json:"activities" mapstructure:"activities"`
}

// For returns the base estimate of c in minor units. Categories without a
// base estimate return zero.
func (b BaseCosts) For(c Category) Money {
	switch c {
	case CategoryAccommodation:
		return FromMajor(b.Accommodation)
	case CategoryFood:
		return FromMajor(b.Food)
	case CategoryTransport:
		return FromMajor(b.Transport)
	case CategoryActivities:
		return FromMajor(b.Activities)
	case CategoryShopping, CategoryOther:
		return 0
	}
	panic(fmt.Sprintf("types: unknown category %q", string(c)))
}

// CategoryToggles is the per-day on/off matrix for the budget categories.
// JSON keys are the lower-case names used by the persisted payload.
type CategoryToggles struct {
	Accommodation bool `json:"accommodation"`
	Food          bool `json:"food"`
	Transport     bool `json:"transport"`
	Activities    bool `json:"activities"`
}

// AllOn returns toggles with every category enabled.
func AllOn() CategoryToggles {
	return CategoryToggles{Accommodation: true, Food: true, Transport: true, Activities: true}
}

// Get returns the toggle for c. ok is false for categories that have no
// toggle (SHOPPING, OTHER).
func (t CategoryToggles) Get(c Category) (on bool, ok bool) {
	switch c {
	case CategoryAccommodation:
		return t.Accommodation, true
	case CategoryFood:
		return t.Food, true
	case CategoryTransport:
		return t.Transport, true
	case CategoryActivities:
		return t.Activities, true
	case CategoryShopping, CategoryOther:
		return false, false
	}
	panic(fmt.Sprintf("types: unknown category %q", string(c)))
}

// With returns a copy of t with the toggle for c set to on. Categories
// without a toggle are ignored.
func (t CategoryToggles) With(c Category, on bool) CategoryToggles {
	switch c {
	case CategoryAccommodation:
		t.Accommodation = on
	case CategoryFood:
		t.Food = on
	case CategoryTransport:
		t.Transport = on
	case CategoryActivities:
		t.Activities = on
	}
	return t
}
