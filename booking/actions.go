package booking

// Action is the closed outbound action vocabulary (spec.md §4.B). Exactly
// one Action is produced per Step call. Action construction has no side
// effects — the outer shell (package engine) performs the actual I/O.
type Action interface {
	isAction()
}

// Ask instructs the outer shell to speak Text to the caller. It carries no
// state implications for the core.
type Ask struct {
	Text string
}

func (Ask) isAction() {}

// GeocodePickup asks the outer shell to resolve Raw via the geocoder
// collaborator and report back a BackendResult{Type: BackendGeocodePickup}.
type GeocodePickup struct {
	Raw string
}

func (GeocodePickup) isAction() {}

// GeocodeDropoff is the dropoff-side symmetric case of GeocodePickup.
type GeocodeDropoff struct {
	Raw string
}

func (GeocodeDropoff) isAction() {}

// Dispatch asks the outer shell to submit Slots to the fleet dispatcher and
// report back a BackendResult{Type: BackendDispatch}. Only ever emitted
// immediately after intent=Confirm while stage was ConfirmDetails
// (invariant 3).
type Dispatch struct {
	Slots BookingSlots
}

func (Dispatch) isAction() {}

// Amend asks the outer shell to submit an amendment for BookingID with the
// current Slots and report back a BackendResult{Type: BackendAmend}.
type Amend struct {
	BookingID string
	Slots     BookingSlots
}

func (Amend) isAction() {}

// TransferToHuman asks the outer shell to connect the caller to a human
// agent, citing Reason.
type TransferToHuman struct {
	Reason string
}

func (TransferToHuman) isAction() {}

// Hangup asks the outer shell to end the call after speaking Text.
type Hangup struct {
	Text string
}

func (Hangup) isAction() {}

// None indicates no outward action is required for this event (duplicate
// turn or stale backend result). Reason documents why, for observability.
type None struct {
	Reason string
}

func (None) isAction() {}
