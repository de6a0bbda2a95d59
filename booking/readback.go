package booking

import "fmt"

// buildReadback renders the confirmation prompt listing pickup, dropoff,
// passengers, and time exactly as stored, ending in an explicit yes/no
// question. It must never contain closing words ("booked", "arranged",
// "safe travels", ...) per spec.md §4.E.ii and invariant 4 — callers intent
// on confirming should never read premature closure into this text.
func buildReadback(slots BookingSlots) string {
	timeText := slots.PickupTime.Raw
	return fmt.Sprintf(
		"To confirm: pickup at %s, drop-off at %s, %d passenger(s), pickup time %s. Shall I go ahead — yes or no?",
		slots.Pickup.Normalized, slots.Dropoff.Normalized, slots.Passengers, timeText,
	)
}

// buildAmendReadback renders the post-amend confirmation prompt, sharing the
// same yes/no contract as buildReadback.
func buildAmendReadback(slots BookingSlots) string {
	timeText := "as soon as possible"
	if !slots.PickupTime.IsAsap {
		timeText = slots.PickupTime.Raw
	}
	return fmt.Sprintf(
		"Here's the updated booking: pickup at %s, drop-off at %s, %d passenger(s), pickup time %s. Shall I go ahead with this change — yes or no?",
		slots.Pickup.Normalized, slots.Dropoff.Normalized, slots.Passengers, timeText,
	)
}
