// Package ledger records one Entry per booking.Core.Step call for
// after-the-fact observability and incident review. It is explicitly not
// used to resume or reconstruct booking.BookingState for a later call --
// that remains a non-goal of the core itself.
package ledger

import (
	"time"

	"github.com/ridewire/voicebooking/booking"
)

// Entry is one audited (event, action) pair, keyed by call and sequence
// number within that call.
type Entry struct {
	CallID    string
	Seq       int
	Timestamp time.Time
	Event     Summary
	Action    Summary
}

// Summary is a flattened, storage-friendly view of a booking.Event or
// booking.Action: a variant tag plus its field values. Event and Action are
// closed interfaces with unexported marker methods, so entries are recorded
// this way rather than by persisting the interface values directly.
type Summary struct {
	Kind string         `json:"kind" bson:"kind"`
	Data map[string]any `json:"data,omitempty" bson:"data,omitempty"`
}

// SummarizeEvent flattens a booking.Event into a Summary.
func SummarizeEvent(event booking.Event) Summary {
	switch e := event.(type) {
	case booking.ToolSync:
		return Summary{Kind: "ToolSync", Data: map[string]any{
			"turn_id":              e.TurnID,
			"pickup":               e.Pickup,
			"destination":          e.Destination,
			"passengers":           e.Passengers,
			"pickup_time":          e.PickupTime,
			"intent":               e.Intent,
			"special_instructions": e.SpecialInstructions,
		}}
	case booking.BackendResult:
		return Summary{Kind: "BackendResult", Data: map[string]any{
			"type":               e.Type,
			"ok":                 e.OK,
			"normalized_address": e.NormalizedAddress,
			"booking_id":         e.BookingID,
			"error":              e.Error,
		}}
	default:
		return Summary{Kind: "Unknown"}
	}
}

// SummarizeAction flattens a booking.Action into a Summary.
func SummarizeAction(action booking.Action) Summary {
	switch a := action.(type) {
	case booking.Ask:
		return Summary{Kind: "Ask", Data: map[string]any{"text": a.Text}}
	case booking.GeocodePickup:
		return Summary{Kind: "GeocodePickup", Data: map[string]any{"raw": a.Raw}}
	case booking.GeocodeDropoff:
		return Summary{Kind: "GeocodeDropoff", Data: map[string]any{"raw": a.Raw}}
	case booking.Dispatch:
		return Summary{Kind: "Dispatch", Data: map[string]any{"slots": a.Slots}}
	case booking.Amend:
		return Summary{Kind: "Amend", Data: map[string]any{"booking_id": a.BookingID, "slots": a.Slots}}
	case booking.TransferToHuman:
		return Summary{Kind: "TransferToHuman", Data: map[string]any{"reason": a.Reason}}
	case booking.Hangup:
		return Summary{Kind: "Hangup", Data: map[string]any{"text": a.Text}}
	case booking.None:
		return Summary{Kind: "None", Data: map[string]any{"reason": a.Reason}}
	default:
		return Summary{Kind: "Unknown"}
	}
}

// NewEntry builds an Entry for one Step call.
func NewEntry(callID string, seq int, at time.Time, event booking.Event, action booking.Action) Entry {
	return Entry{
		CallID:    callID,
		Seq:       seq,
		Timestamp: at,
		Event:     SummarizeEvent(event),
		Action:    SummarizeAction(action),
	}
}
