package booking

import "strings"

// Patch is the diff between an inbound ToolSync and the slots currently
// stored in BookingState, carrying only the fields that actually changed
// (spec.md §4.C). A zero-value Patch changes nothing.
type Patch struct {
	Intent Intent

	PickupChanged bool
	PickupRaw     string

	DropoffChanged bool
	DropoffRaw     string

	PassengersChanged bool
	PassengersValue   int

	TimeChanged bool
	Time        PickupTime

	SpecialInstructions string // non-empty means the caller supplied one this turn

	// HasAnySlotChanges is true when pickup, dropoff, passengers, or time
	// changed, or SpecialInstructions is non-empty.
	HasAnySlotChanges bool
}

// extractPatch diffs tool against current, using timeParser to resolve the
// free-text time field and the closed intent synonym table; address fields
// are compared as raw strings.
func extractPatch(tool ToolSync, current BookingSlots, timeParser TimeParser) Patch {
	p := Patch{Intent: parseIntent(tool.Intent)}

	if tool.Pickup != "" && !strings.EqualFold(tool.Pickup, current.Pickup.Raw) {
		p.PickupChanged = true
		p.PickupRaw = tool.Pickup
	}

	if tool.Destination != "" && !strings.EqualFold(tool.Destination, current.Dropoff.Raw) {
		p.DropoffChanged = true
		p.DropoffRaw = tool.Destination
	}

	if tool.Passengers != 0 && tool.Passengers >= 1 && tool.Passengers <= 8 &&
		tool.Passengers != current.Passengers {
		p.PassengersChanged = true
		p.PassengersValue = tool.Passengers
	}

	if tool.PickupTime != "" && timeParser != nil {
		if parsed := timeParser.Parse(tool.PickupTime); parsed.OK {
			candidate := PickupTime{
				Raw:      parsed.Normalized,
				Absolute: parsed.AbsoluteUTC,
				IsAsap:   parsed.IsAsap,
			}
			if !samePickupTime(candidate, current.PickupTime) {
				p.TimeChanged = true
				p.Time = candidate
			}
		}
		// An unparseable phrase is treated as "not provided" — no change.
	}

	if strings.TrimSpace(tool.SpecialInstructions) != "" {
		p.SpecialInstructions = tool.SpecialInstructions
	}

	p.HasAnySlotChanges = p.PickupChanged || p.DropoffChanged || p.PassengersChanged ||
		p.TimeChanged || p.SpecialInstructions != ""

	return p
}

func samePickupTime(a, b PickupTime) bool {
	if a.IsAsap != b.IsAsap {
		return false
	}
	if a.IsAsap {
		return true
	}
	return a.Absolute.Equal(b.Absolute)
}

// parseIntent classifies a caller-intent string from the closed synonym
// table in spec.md §4.C. Unknown synonyms map to IntentUnknown.
func parseIntent(raw string) Intent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "y", "confirm":
		return IntentConfirm
	case "no", "decline":
		return IntentDecline
	case "cancel":
		return IntentCancel
	case "amend":
		return IntentAmend
	case "new", "new_booking":
		return IntentNewBooking
	default:
		return IntentUnknown
	}
}
