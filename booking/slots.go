// Package booking implements the deterministic, single-writer booking
// orchestrator at the heart of the voice taxi agent: a pure function over
// (state, event) that produces exactly one outbound action per event, with
// bounded retries, address re-verification on change, and an explicit
// confirmation gate before dispatch.
package booking

import "time"

// Stage identifies the single active step of a booking call.
type Stage int

// The full set of stages a BookingState can occupy. Exactly one is active
// at any time (invariant 1).
const (
	StageStart Stage = iota
	StageCollectPickup
	StageCollectDropoff
	StageCollectPassengers
	StageCollectTime
	StageConfirmDetails
	StageDispatching
	StageBooked
	StageAmendMenu
	StageAmendCollectPickup
	StageAmendCollectDropoff
	StageAmendCollectPassengers
	StageAmendCollectTime
	StageAmendConfirm
	StageEnd
	StageEscalate
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "Start"
	case StageCollectPickup:
		return "CollectPickup"
	case StageCollectDropoff:
		return "CollectDropoff"
	case StageCollectPassengers:
		return "CollectPassengers"
	case StageCollectTime:
		return "CollectTime"
	case StageConfirmDetails:
		return "ConfirmDetails"
	case StageDispatching:
		return "Dispatching"
	case StageBooked:
		return "Booked"
	case StageAmendMenu:
		return "AmendMenu"
	case StageAmendCollectPickup:
		return "AmendCollectPickup"
	case StageAmendCollectDropoff:
		return "AmendCollectDropoff"
	case StageAmendCollectPassengers:
		return "AmendCollectPassengers"
	case StageAmendCollectTime:
		return "AmendCollectTime"
	case StageAmendConfirm:
		return "AmendConfirm"
	case StageEnd:
		return "End"
	case StageEscalate:
		return "Escalate"
	default:
		return "Unknown"
	}
}

// PendingVerification names which address, if any, is awaiting a geocode
// result. Symmetric for pickup and dropoff per invariant 2.
type PendingVerification int

const (
	// PendingNone means no geocode is currently outstanding.
	PendingNone PendingVerification = iota
	// PendingPickup means a GeocodePickup action was emitted and no successful
	// matching BackendResult has been consumed yet.
	PendingPickup
	// PendingDropoff is the dropoff-side symmetric case.
	PendingDropoff
)

// AddressSlot holds a caller-supplied address and its geocoded form.
//
// Invariant: Verified implies Normalized is set and was produced by the
// geocoder during the current call. Mutated only by patch application
// (which resets Verified to false whenever Raw changes case-insensitively)
// and a successful geocode result (which sets Normalized and Verified).
type AddressSlot struct {
	Raw        string
	Normalized string
	Verified   bool
}

// Present reports whether the caller has supplied a raw address for this slot.
func (a AddressSlot) Present() bool { return a.Raw != "" }

// PickupTime holds the resolved pickup time. IsAsap is true iff Absolute is
// the zero time; the core never interprets the original phrase itself — that
// is the external UK time parser's job (§4.F).
type PickupTime struct {
	Raw      string
	Absolute time.Time
	IsAsap   bool
}

// Set reports whether a pickup time has been resolved at all.
func (t PickupTime) Set() bool { return t.Raw != "" }

// BookingSlots is the typed booking payload collected from the caller.
type BookingSlots struct {
	Pickup              AddressSlot
	Dropoff             AddressSlot
	Passengers          int // 0 means "not set"; valid range is [1,8]
	PickupTime          PickupTime
	SpecialInstructions string
}

// PassengersSet reports whether a valid passenger count has been recorded.
func (s BookingSlots) PassengersSet() bool { return s.Passengers >= 1 && s.Passengers <= 8 }

// RetryKey identifies a countable retry dimension.
type RetryKey string

// The closed set of retry keys the policy tracks (spec.md §3, RetryCounters).
const (
	RetryPickup        RetryKey = "pickup"
	RetryDropoff       RetryKey = "dropoff"
	RetryPassengers    RetryKey = "passengers"
	RetryTime          RetryKey = "time"
	RetryConfirm       RetryKey = "confirm"
	RetryPickupVerify  RetryKey = "pickup_verify"
	RetryDropoffVerify RetryKey = "dropoff_verify"
	RetryAmendMenu     RetryKey = "amend_menu"
)

// RetryCounters maps a retry key to its current count. A missing key reads
// as zero (spec.md §3 invariant).
type RetryCounters map[RetryKey]int

// Get returns the counter for key, defaulting to zero when absent.
func (r RetryCounters) Get(key RetryKey) int { return r[key] }

// WithIncrement returns a copy of r with key incremented by one, leaving r
// itself untouched (value-record "with" style per spec.md §9).
func (r RetryCounters) WithIncrement(key RetryKey) RetryCounters {
	next := r.clone()
	next[key] = next[key] + 1
	return next
}

// WithReset returns a copy of r with key's counter cleared to zero.
func (r RetryCounters) WithReset(key RetryKey) RetryCounters {
	next := r.clone()
	delete(next, key)
	return next
}

func (r RetryCounters) clone() RetryCounters {
	next := make(RetryCounters, len(r))
	for k, v := range r {
		next[k] = v
	}
	return next
}

// BookingState is the complete per-call state owned exclusively by a single
// Core instance. It is created by Start, mutated only by Step, and never
// persisted across calls.
type BookingState struct {
	Stage               Stage
	Slots               BookingSlots
	Retries             RetryCounters
	PendingVerification PendingVerification
	BookingID           string
	LastPrompt          string
	LastTurnIDProcessed string
}

// clone returns a deep-enough copy of the state for rebind-don't-mutate
// transitions; RetryCounters is copied by WithIncrement/WithReset, so a
// shallow struct copy here is safe since BookingSlots and the scalar fields
// are themselves value types.
func (s BookingState) clone() BookingState {
	return s
}
