package planner

import "github.com/google/uuid"

// IDGenerator hands out identifiers for items, copied items and saved
// locations. Implementations must not repeat an id for the life of a trip.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator produces random v4 UUID strings.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
