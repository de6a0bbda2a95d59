package booking

import (
	"context"
	"fmt"
)

const (
	askPickupFirst       = "Welcome to the taxi booking line. What is your pickup address?"
	askPickupRetry       = "Sorry, I didn't catch that — what is your pickup address?"
	exhaustPickup        = "Pickup address could not be collected."
	askDropoffFirst      = "And where would you like to go?"
	askDropoffRetry      = "Sorry, I didn't get your destination — where are you headed?"
	exhaustDropoff       = "Destination address could not be collected."
	askPassengersFirst   = "How many passengers will be travelling?"
	askPassengersRetry   = "Sorry, how many passengers will there be — between 1 and 8?"
	exhaustPassengers    = "Passenger count could not be collected."
	askTimeFirst         = "When would you like to be picked up?"
	askTimeRetry         = "Sorry, what time would you like to be picked up, or should I book it for as soon as possible?"
	exhaustTime          = "Pickup time could not be collected."
	askHouseNumber       = "That looks like a street name — what's the house or flat number?"
	askHouseNumberRetry  = "I still need a house or flat number for that pickup address — what is it?"
	clarifyPickup        = "I couldn't verify that pickup address — could you repeat it, including the house number and street?"
	exhaustPickupVerify  = "Pickup address could not be resolved."
	clarifyDropoff       = "I couldn't verify that destination — could you repeat it?"
	exhaustDropoffVerify = "Drop-off address could not be resolved."
	exhaustConfirm       = "Confirmation unclear too many times."
	askAmendMenu         = "Tell me what you'd like to change: pickup, destination, passengers, or time."
	hangupAmendExhaust   = "Okay, I'll leave the booking as is for now. Goodbye."
	hangupDecline        = "No problem. Goodbye."
	hangupCancel         = "Okay. Goodbye."
	hangupComplete       = "call complete"
	reasonDispatchFail   = "Dispatch failed."
	reasonAmendFail      = "Amendment failed."
	reasonUnknownEvent   = "Unsupported event type."
	reasonUnknownResult  = "Unsupported backend result type."
)

// Core is the deterministic, single-writer booking orchestrator for one
// call. It owns exactly one BookingState, mutated only through Step, and
// never performs I/O itself — every backend interaction is delegated to the
// outer shell via the returned Action.
type Core struct {
	state         BookingState
	caps          RetryCaps
	addressParser AddressParser
	timeParser    TimeParser
	bus           Bus
	callID        string
}

// Options configures a new Core.
type Options struct {
	RetryCaps     RetryCaps
	AddressParser AddressParser
	TimeParser    TimeParser
	Bus           Bus
	CallID        string
}

// New constructs a Core. Call Start exactly once before any Step call.
func New(opts Options) *Core {
	return &Core{
		caps:          NewRetryCaps(opts.RetryCaps),
		addressParser: opts.AddressParser,
		timeParser:    opts.TimeParser,
		bus:           opts.Bus,
		callID:        opts.CallID,
	}
}

// Start initializes BookingState and returns the first Ask. It must be
// called exactly once per call before any Step.
func (c *Core) Start() Action {
	c.state = BookingState{
		Stage:   StageCollectPickup,
		Retries: RetryCounters{},
	}
	c.state.LastPrompt = askPickupFirst
	action := Ask{Text: askPickupFirst}
	c.publish(nil, action)
	return action
}

// Step applies one inbound event and returns exactly one outbound Action.
// It is deterministic and idempotent for duplicate ToolSync turn IDs.
func (c *Core) Step(ev Event) Action {
	action := c.step(ev)
	c.publish(ev, action)
	return action
}

// Snapshot returns a read-only copy of the current BookingState, for
// observability and tests.
func (c *Core) Snapshot() BookingState {
	return c.state.clone()
}

// Caps returns the retry caps this Core was configured with, so an outer
// shell that only holds a *Core (not the Options it was built from) can
// still recover its configuration -- e.g. engine/temporal reconstructs an
// equivalent Core inside the workflow and needs the same caps.
func (c *Core) Caps() RetryCaps {
	return c.caps
}

func (c *Core) publish(ev Event, action Action) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(context.Background(), StepEvent{
		CallID: c.callID,
		Event:  ev,
		Action: action,
		Stage:  c.state.Stage,
	})
}

func (c *Core) step(ev Event) Action {
	switch e := ev.(type) {
	case ToolSync:
		return c.stepToolSync(e)
	case BackendResult:
		return c.stepBackendResult(e)
	default:
		c.state.Stage = StageEscalate
		return TransferToHuman{Reason: reasonUnknownEvent}
	}
}

// stepToolSync implements the top-level dispatch of spec.md §4.E for
// inbound ToolSync events: idempotency, terminal stages, amend routing,
// the confirm gate, then the collection flow.
func (c *Core) stepToolSync(e ToolSync) Action {
	if e.TurnID != "" && e.TurnID == c.state.LastTurnIDProcessed {
		return None{Reason: "duplicate"}
	}
	c.state.LastTurnIDProcessed = e.TurnID

	if isTerminal(c.state.Stage) {
		return Hangup{Text: hangupComplete}
	}

	if isAmendRoutedStage(c.state.Stage) {
		return c.stepAmendFlow(e)
	}

	if c.state.Stage == StageConfirmDetails {
		return c.stepConfirmGate(e)
	}

	return c.stepNewBookingFlow(e)
}

func isTerminal(s Stage) bool {
	return s == StageEnd || s == StageEscalate
}

func isAmendRoutedStage(s Stage) bool {
	switch s {
	case StageBooked, StageAmendMenu, StageAmendCollectPickup, StageAmendCollectDropoff,
		StageAmendCollectPassengers, StageAmendCollectTime, StageAmendConfirm:
		return true
	default:
		return false
	}
}

// stepNewBookingFlow implements spec.md §4.E.ii, the collection flow for a
// booking that has not yet been dispatched (or an amend that fell back to
// it because no bookingId exists yet).
func (c *Core) stepNewBookingFlow(tool ToolSync) Action {
	patch := extractPatch(tool, c.state.Slots, c.timeParser)
	c.applyPatch(patch)

	if patch.PickupChanged {
		c.state.Retries = c.state.Retries.WithReset(RetryPickupVerify)
		return c.triggerPickupGeocode(patch.PickupRaw, false)
	}
	if patch.DropoffChanged {
		c.state.Retries = c.state.Retries.WithReset(RetryDropoffVerify)
		return c.triggerDropoffGeocode(patch.DropoffRaw, false)
	}
	return c.goToNextMissingOrConfirm()
}

// goToNextMissingOrConfirm walks pickup -> dropoff -> passengers -> time in
// order, jumping to the first unsatisfied step (absent or address not
// verified); when all are satisfied it moves to ConfirmDetails and returns
// the readback (spec.md §4.E.ii). Arriving at a collect stage from a
// different stage resets that stage's collect counter.
func (c *Core) goToNextMissingOrConfirm() Action {
	slots := c.state.Slots
	enter := func(stage Stage, key RetryKey) {
		if c.state.Stage != stage {
			c.state.Retries = c.state.Retries.WithReset(key)
		}
		c.state.Stage = stage
	}

	if !slots.Pickup.Present() {
		enter(StageCollectPickup, RetryPickup)
		return c.askWithRetry(RetryPickup, askPickupRetry, askPickupRetry, exhaustPickup)
	}
	if !slots.Pickup.Verified {
		return c.triggerPickupGeocode(slots.Pickup.Raw, false)
	}
	if !slots.Dropoff.Present() {
		enter(StageCollectDropoff, RetryDropoff)
		return c.askWithRetry(RetryDropoff, askDropoffFirst, askDropoffRetry, exhaustDropoff)
	}
	if !slots.Dropoff.Verified {
		return c.triggerDropoffGeocode(slots.Dropoff.Raw, false)
	}
	if !slots.PassengersSet() {
		enter(StageCollectPassengers, RetryPassengers)
		return c.askWithRetry(RetryPassengers, askPassengersFirst, askPassengersRetry, exhaustPassengers)
	}
	if !slots.PickupTime.Set() {
		enter(StageCollectTime, RetryTime)
		return c.askWithRetry(RetryTime, askTimeFirst, askTimeRetry, exhaustTime)
	}
	c.state.Stage = StageConfirmDetails
	text := buildReadback(slots)
	c.state.LastPrompt = text
	return Ask{Text: text}
}

// stepConfirmGate implements spec.md §4.E.iii, the explicit confirmation
// gate guarding Dispatch (invariant 3): Dispatch is reached only via
// intent=Confirm while stage is ConfirmDetails.
func (c *Core) stepConfirmGate(tool ToolSync) Action {
	patch := extractPatch(tool, c.state.Slots, c.timeParser)

	switch {
	case patch.Intent == IntentConfirm:
		c.state.Stage = StageDispatching
		return Dispatch{Slots: c.state.Slots}

	case patch.Intent == IntentDecline || patch.Intent == IntentCancel:
		c.state.Stage = StageEnd
		return Hangup{Text: hangupDecline}

	case patch.HasAnySlotChanges:
		c.applyPatch(patch)
		if patch.PickupChanged {
			c.state.Retries = c.state.Retries.WithReset(RetryPickupVerify)
			return c.triggerPickupGeocode(patch.PickupRaw, false)
		}
		if patch.DropoffChanged {
			c.state.Retries = c.state.Retries.WithReset(RetryDropoffVerify)
			return c.triggerDropoffGeocode(patch.DropoffRaw, false)
		}
		return c.goToNextMissingOrConfirm()

	default:
		next := c.state.Retries.Get(RetryConfirm) + 1
		c.state.Retries = c.state.Retries.WithIncrement(RetryConfirm)
		if next > c.caps.capFor(RetryConfirm) {
			c.state.Stage = StageEscalate
			return TransferToHuman{Reason: exhaustConfirm}
		}
		// Re-ask the confirmation question verbatim -- never inferred from
		// slot changes, never reworded.
		return Ask{Text: c.state.LastPrompt}
	}
}

// stepAmendFlow implements spec.md §4.E.iv.
func (c *Core) stepAmendFlow(tool ToolSync) Action {
	if c.state.BookingID == "" {
		return c.stepNewBookingFlow(tool)
	}

	patch := extractPatch(tool, c.state.Slots, c.timeParser)

	switch {
	case patch.Intent == IntentCancel:
		c.state.Stage = StageEnd
		return Hangup{Text: hangupCancel}

	case !patch.HasAnySlotChanges:
		if patch.Intent == IntentDecline {
			c.state.Stage = StageEnd
			return Hangup{Text: hangupCancel}
		}
		next := c.state.Retries.Get(RetryAmendMenu) + 1
		c.state.Retries = c.state.Retries.WithIncrement(RetryAmendMenu)
		if next > c.caps.capFor(RetryAmendMenu) {
			c.state.Stage = StageEnd
			return Hangup{Text: hangupAmendExhaust}
		}
		c.state.Stage = StageAmendMenu
		return Ask{Text: askAmendMenu}

	default:
		c.applyPatch(patch)
		if patch.PickupChanged {
			c.state.Retries = c.state.Retries.WithReset(RetryPickupVerify)
			return c.triggerPickupGeocode(patch.PickupRaw, true)
		}
		if patch.DropoffChanged {
			c.state.Retries = c.state.Retries.WithReset(RetryDropoffVerify)
			return c.triggerDropoffGeocode(patch.DropoffRaw, true)
		}
		c.state.Stage = StageAmendConfirm
		text := buildAmendReadback(c.state.Slots)
		c.state.LastPrompt = text
		return Amend{BookingID: c.state.BookingID, Slots: c.state.Slots}
	}
}

// continueAmendAfterVerify resumes the amend flow once a re-geocode
// triggered from AmendCollectPickup/AmendCollectDropoff completes.
func (c *Core) continueAmendAfterVerify() Action {
	slots := c.state.Slots
	if !slots.Pickup.Verified {
		return c.triggerPickupGeocode(slots.Pickup.Raw, true)
	}
	if !slots.Dropoff.Verified {
		return c.triggerDropoffGeocode(slots.Dropoff.Raw, true)
	}
	c.state.Stage = StageAmendConfirm
	return Amend{BookingID: c.state.BookingID, Slots: slots}
}

// stepBackendResult implements spec.md §4.E.v, guarded by the ordering
// guarantee from §5: a result whose type does not match the outstanding
// pending operation is stale and produces None.
func (c *Core) stepBackendResult(e BackendResult) Action {
	if isTerminal(c.state.Stage) {
		return Hangup{Text: hangupComplete}
	}

	switch e.Type {
	case BackendGeocodePickup:
		if c.state.PendingVerification != PendingPickup {
			return None{Reason: "stale"}
		}
		return c.handleGeocodeResult(true, e)

	case BackendGeocodeDropoff:
		if c.state.PendingVerification != PendingDropoff {
			return None{Reason: "stale"}
		}
		return c.handleGeocodeResult(false, e)

	case BackendDispatch:
		if c.state.Stage != StageDispatching {
			return None{Reason: "stale"}
		}
		return c.handleDispatchResult(e)

	case BackendAmend:
		if c.state.Stage != StageAmendConfirm {
			return None{Reason: "stale"}
		}
		return c.handleAmendResult(e)

	default:
		c.state.Stage = StageEscalate
		return TransferToHuman{Reason: reasonUnknownResult}
	}
}

func (c *Core) handleGeocodeResult(pickup bool, e BackendResult) Action {
	wasAmend := (pickup && c.state.Stage == StageAmendCollectPickup) ||
		(!pickup && c.state.Stage == StageAmendCollectDropoff)

	if e.OK {
		c.state.PendingVerification = PendingNone
		if pickup {
			c.state.Slots.Pickup.Verified = true
			if e.NormalizedAddress != "" {
				c.state.Slots.Pickup.Normalized = e.NormalizedAddress
			}
		} else {
			c.state.Slots.Dropoff.Verified = true
			if e.NormalizedAddress != "" {
				c.state.Slots.Dropoff.Normalized = e.NormalizedAddress
			}
		}
		if wasAmend {
			return c.continueAmendAfterVerify()
		}
		return c.goToNextMissingOrConfirm()
	}

	key, clarify, exhausted := RetryPickupVerify, clarifyPickup, exhaustPickupVerify
	if !pickup {
		key, clarify, exhausted = RetryDropoffVerify, clarifyDropoff, exhaustDropoffVerify
	}
	return c.askWithRetry(key, clarify, clarify, exhausted)
}

func (c *Core) handleDispatchResult(e BackendResult) Action {
	if e.OK {
		c.state.BookingID = e.BookingID
		c.state.Stage = StageBooked
		text := fmt.Sprintf("Booked. Your reference is %s. Would you like to amend anything?", e.BookingID)
		c.state.LastPrompt = text
		return Ask{Text: text}
	}
	c.state.Stage = StageEscalate
	return TransferToHuman{Reason: reasonDispatchFail}
}

func (c *Core) handleAmendResult(e BackendResult) Action {
	if e.OK {
		c.state.Stage = StageBooked
		text := "Updated. Would you like to amend anything else?"
		c.state.LastPrompt = text
		return Ask{Text: text}
	}
	c.state.Stage = StageEscalate
	return TransferToHuman{Reason: reasonAmendFail}
}

// triggerPickupGeocode emits GeocodePickup for raw, unless the address
// parser collaborator reports a street-type address with no house number,
// in which case it surfaces an additional reprompt instead (spec.md §4.F) --
// never as a distinct stage, just a bounded retry on the Pickup key.
func (c *Core) triggerPickupGeocode(raw string, amend bool) Action {
	stage := StageCollectPickup
	if amend {
		stage = StageAmendCollectPickup
	}
	c.state.Stage = stage

	if c.addressParser != nil {
		parsed := c.addressParser.Parse(raw)
		if parsed.IsStreetType && !parsed.HasHouseNumber {
			return c.askWithRetry(RetryPickup, askHouseNumber, askHouseNumberRetry, exhaustPickup)
		}
	}
	c.state.PendingVerification = PendingPickup
	return GeocodePickup{Raw: raw}
}

func (c *Core) triggerDropoffGeocode(raw string, amend bool) Action {
	stage := StageCollectDropoff
	if amend {
		stage = StageAmendCollectDropoff
	}
	c.state.Stage = stage
	c.state.PendingVerification = PendingDropoff
	return GeocodeDropoff{Raw: raw}
}

// askWithRetry implements spec.md §4.E.vi: on the first call for key it
// asks firstAsk; on later calls it either reprompts or escalates once the
// cap is exceeded.
func (c *Core) askWithRetry(key RetryKey, firstAsk, reprompt, exhausted string) Action {
	count := c.state.Retries.Get(key)
	c.state.Retries = c.state.Retries.WithIncrement(key)
	newCount := c.state.Retries.Get(key)

	if count == 0 {
		c.state.LastPrompt = firstAsk
		return Ask{Text: firstAsk}
	}
	if newCount > c.caps.capFor(key) {
		c.state.Stage = StageEscalate
		return TransferToHuman{Reason: exhausted}
	}
	c.state.LastPrompt = reprompt
	return Ask{Text: reprompt}
}

// applyPatch writes a Patch's changed fields into the current slots.
func (c *Core) applyPatch(patch Patch) {
	slots := c.state.Slots
	if patch.PickupChanged {
		slots.Pickup.Raw = patch.PickupRaw
		slots.Pickup.Verified = false
	}
	if patch.DropoffChanged {
		slots.Dropoff.Raw = patch.DropoffRaw
		slots.Dropoff.Verified = false
	}
	if patch.PassengersChanged {
		slots.Passengers = patch.PassengersValue
	}
	if patch.TimeChanged {
		slots.PickupTime = patch.Time
	}
	if patch.SpecialInstructions != "" {
		slots.SpecialInstructions = patch.SpecialInstructions
	}
	c.state.Slots = slots
}
