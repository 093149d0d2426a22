package trip

import (
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-trip-budget/internal/planner"
	"github.com/FACorreiaa/go-trip-budget/internal/types"
)

// SessionState is the working copy of an open trip as returned to clients.
type SessionState struct {
	TripID         uuid.UUID             `json:"tripId"`
	Name           string                `json:"name"`
	TravelStyle    types.TravelStyle     `json:"travelStyle"`
	Version        uint64                `json:"version"`
	Dirty          bool                  `json:"dirty"`
	ActiveDay      int                   `json:"activeDay"`
	TimeAware      bool                  `json:"timeAware"`
	MaxDays        int                   `json:"maxDays"`
	Days           []types.DayPlan       `json:"days"`
	SavedLocations []types.SavedLocation `json:"savedLocations"`
	SavedAt        time.Time             `json:"savedAt"`
}

// MutationResult is returned by every editing operation. Applied is false
// for referential misses, which leave the state unchanged.
type MutationResult struct {
	Applied    bool                       `json:"applied"`
	Day        *types.DayPlan             `json:"day,omitempty"`
	Item       *types.ItineraryItem       `json:"item,omitempty"`
	Location   *types.SavedLocation       `json:"location,omitempty"`
	Move       *planner.MoveResult        `json:"move,omitempty"`
	Transition *planner.PrimaryTransition `json:"transition,omitempty"`
	Propagated int                        `json:"propagated,omitempty"`
	Pending    *PendingConfirmation       `json:"pending,omitempty"`
	State      SessionState               `json:"state"`
}

type ConfirmationKind string

const (
	ConfirmPromotePrimary ConfirmationKind = "promote_primary"
	ConfirmDeleteLocation ConfirmationKind = "delete_location"
)

// PendingConfirmation is a destructive saved-location operation waiting for
// an explicit accept or decline.
type PendingConfirmation struct {
	Token         string                     `json:"token"`
	Kind          ConfirmationKind           `json:"kind"`
	LocationID    string                     `json:"locationId"`
	Transition    *planner.PrimaryTransition `json:"transition,omitempty"`
	AffectedItems int                        `json:"affectedItems"`
	Message       string                     `json:"message"`
	ExpiresAt     time.Time                  `json:"expiresAt"`

	tripID    uuid.UUID
	userID    uuid.UUID
	sessionID string
	version   uint64
}

// DragStatus answers the advisory drag calls.
type DragStatus struct {
	Dragging  bool   `json:"dragging"`
	ActiveID  string `json:"activeId,omitempty"`
	TargetDay int    `json:"targetDay,omitempty"`
	CanDrop   bool   `json:"canDrop"`
	ActiveDay int    `json:"activeDay"`
	TimeAware bool   `json:"timeAware"`
}

type AddItemRequest struct {
	Category types.Category `json:"category"`
}

type DragRequest struct {
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

type ViewRequest struct {
	ActiveDay *int  `json:"activeDay,omitempty"`
	TimeAware *bool `json:"timeAware,omitempty"`
}

type ConfirmationRequest struct {
	Accept bool `json:"accept"`
}

// CostView is the cost breakdown in major currency units.
type CostView struct {
	Days      []DayCostView `json:"days"`
	TripTotal float64       `json:"tripTotal"`
}

type DayCostView struct {
	DayNumber  int                `json:"dayNumber"`
	Date       string             `json:"date,omitempty"`
	Categories map[string]float64 `json:"categories"`
	Excluded   []types.Category   `json:"excluded,omitempty"`
	Total      float64            `json:"total"`
}

func newCostView(s planner.CostSummary) CostView {
	v := CostView{Days: make([]DayCostView, 0, len(s.Days)), TripTotal: s.TripTotal.Major()}
	for _, d := range s.Days {
		dv := DayCostView{
			DayNumber:  d.DayNumber,
			Date:       d.Date,
			Categories: make(map[string]float64, len(d.Categories)),
			Total:      d.Total.Major(),
		}
		for _, c := range d.Categories {
			dv.Categories[string(c.Category)] = c.Amount.Major()
			if !c.Included {
				dv.Excluded = append(dv.Excluded, c.Category)
			}
		}
		v.Days = append(v.Days, dv)
	}
	return v
}
