package types

// AutoFillSlot names the designated position an auto-filled item occupies
// within a day.
type AutoFillSlot string

const (
	SlotCheckIn  AutoFillSlot = "CHECK_IN"
	SlotCheckOut AutoFillSlot = "CHECK_OUT"
)

// Provenance records who last wrote an item's name and location: the user
// (Manual, the zero value) or the auto-fill propagator for a saved location.
//
// The fields are unexported so the only way to mark an item as auto-filled
// is AutoFilledFrom, and the only way an edit can keep that mark is by not
// touching name or location.
type Provenance struct {
	auto   bool
	source string
	slot   AutoFillSlot
}

// Manual is the provenance of user-typed data.
func Manual() Provenance {
	return Provenance{}
}

// AutoFilledFrom marks data as generated from the saved location sourceID.
func AutoFilledFrom(sourceID string, slot AutoFillSlot) Provenance {
	return Provenance{auto: true, source: sourceID, slot: slot}
}

// IsAutoFilled reports whether the item was last written by the propagator.
func (p Provenance) IsAutoFilled() bool {
	return p.auto
}

// Source returns the saved location id the item was generated from.
func (p Provenance) Source() (string, bool) {
	if !p.auto || p.source == "" {
		return "", false
	}
	return p.source, true
}

// Slot returns the designated slot of an auto-filled item, if any.
func (p Provenance) Slot() AutoFillSlot {
	if !p.auto {
		return ""
	}
	return p.slot
}

// FromSource reports whether the item is currently auto-filled from sourceID.
func (p Provenance) FromSource(sourceID string) bool {
	return p.auto && sourceID != "" && p.source == sourceID
}

// Retarget keeps the slot and auto-filled state but points the provenance at
// another saved location.
func (p Provenance) Retarget(sourceID string) Provenance {
	if !p.auto {
		return p
	}
	p.source = sourceID
	return p
}
