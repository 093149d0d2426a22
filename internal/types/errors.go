package types

import "errors"

var (
	ErrNotFound = errors.New("requested item not found")

	// Capacity errors: the mutation is rejected and state is unchanged.
	ErrMaxDaysReached  = errors.New("trip already has the maximum number of days")
	ErrMinDaysRequired = errors.New("a trip must have at least one day")

	// Caller contract violations.
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidItem     = errors.New("invalid itinerary item")
	ErrInvalidTime     = errors.New("time must be HH:MM in 24h format")
	ErrInvalidLocation = errors.New("invalid saved location")
	ErrInvalidTrip     = errors.New("invalid trip")

	ErrSessionNotFound      = errors.New("no editing session for trip")
	ErrConfirmationNotFound = errors.New("confirmation not found or expired")
	ErrConfirmationStale    = errors.New("trip changed since confirmation was requested")

	ErrGeocodeNotFound    = errors.New("address not found")
	ErrInvalidGeocode     = errors.New("invalid geocoding query")
	ErrGeocodeUnavailable = errors.New("geocoding provider unavailable")
)
