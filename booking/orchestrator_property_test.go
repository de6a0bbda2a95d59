package booking

import (
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func addressGen() gopter.Gen {
	return gen.AlphaString().SuchThat(func(s string) bool { return s != "" }).Map(func(s string) string {
		return "1 " + s
	})
}

// TestPropertyStageAlwaysValid covers invariant 1: the stage is always one
// of the declared enum values, however the call has progressed so far.
func TestPropertyStageAlwaysValid(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("stage stays within the declared enum after any pickup update", prop.ForAll(
		func(pickup string) bool {
			c := newTestCore()
			c.Start()
			c.Step(ToolSync{TurnID: "t1", Pickup: pickup})
			stage := c.Snapshot().Stage
			return stage >= StageStart && stage <= StageEscalate
		},
		addressGen(),
	))

	properties.TestingRun(t)
}

// TestPropertyAddressChangeResetsVerification covers invariant 6: a raw
// address change (case-insensitive) resets verified=false and the matching
// *Verify retry counter.
func TestPropertyAddressChangeResetsVerification(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("changing pickup clears verified and the verify counter", prop.ForAll(
		func(first, second string) bool {
			if strings.EqualFold(first, second) {
				return true
			}
			c := newTestCore()
			c.Start()
			c.Step(ToolSync{TurnID: "t1", Pickup: first})
			c.Step(BackendResult{Type: BackendGeocodePickup, OK: false})
			c.Step(BackendResult{Type: BackendGeocodePickup, OK: false})

			action := c.Step(ToolSync{TurnID: "t2", Pickup: second})
			_, isGeocode := action.(GeocodePickup)
			_, isAskHouseNumber := action.(Ask)
			if !isGeocode && !isAskHouseNumber {
				return false
			}
			snap := c.Snapshot()
			return !snap.Slots.Pickup.Verified && snap.Retries.Get(RetryPickupVerify) == 0
		},
		addressGen(),
		addressGen(),
	))

	properties.TestingRun(t)
}

// TestPropertyRetryCapNeverExceededWithoutEscalate covers invariant 7.
func TestPropertyRetryCapNeverExceededWithoutEscalate(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("geocode failures never exceed the cap without escalating", prop.ForAll(
		func(attempts int) bool {
			c := newTestCore()
			c.Start()
			c.Step(ToolSync{TurnID: "t1", Pickup: "1 High St"})

			limit := c.caps.capFor(RetryPickupVerify)
			// overflow is the action for the first failure past the cap;
			// any later failure lands on the terminal stage and gets Hangup.
			var overflow Action
			for i := 0; i < attempts; i++ {
				a := c.Step(BackendResult{Type: BackendGeocodePickup, OK: false})
				if i == limit {
					overflow = a
				}
			}
			stage := c.Snapshot().Stage
			if attempts > limit {
				_, isTransfer := overflow.(TransferToHuman)
				return stage == StageEscalate && isTransfer
			}
			return stage != StageEscalate
		},
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

// TestPropertyDispatchOnlyAfterExplicitConfirm covers invariant 3: Dispatch
// is emitted only when the immediately prior event was a ToolSync with
// intent=Confirm while stage was ConfirmDetails.
func TestPropertyDispatchOnlyAfterExplicitConfirm(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	reachConfirmDetails := func(c *Core) {
		c.Start()
		c.Step(ToolSync{TurnID: "t1", Pickup: "1 High St"})
		c.Step(BackendResult{Type: BackendGeocodePickup, OK: true, NormalizedAddress: "1 High St, AB1 2CD"})
		c.Step(ToolSync{TurnID: "t2", Destination: "1 Main Square"})
		c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "1 Main Square, AB1 3EF"})
		c.Step(ToolSync{TurnID: "t3", Passengers: 2})
		c.Step(ToolSync{TurnID: "t4", PickupTime: "ASAP"})
	}

	properties.Property("only a confirm intent dispatches", prop.ForAll(
		func(intent string) bool {
			c := newTestCore()
			reachConfirmDetails(c)
			if c.Snapshot().Stage != StageConfirmDetails {
				return true
			}
			action := c.Step(ToolSync{TurnID: "t5", Intent: intent})
			_, dispatched := action.(Dispatch)
			wantDispatch := parseIntent(intent) == IntentConfirm
			return dispatched == wantDispatch
		},
		gen.OneConstOf("yes", "y", "confirm", "no", "decline", "cancel", "huh", "banana"),
	))

	properties.TestingRun(t)
}

// TestPropertyConfirmReadbackNeverClosesEarly covers invariant 4.
func TestPropertyConfirmReadbackNeverClosesEarly(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	closingWords := []string{"booked", "arranged", "safe travels", "goodbye", "all set"}

	properties.Property("the readback never contains a closing word", prop.ForAll(
		func(passengers int) bool {
			c := newTestCore()
			c.Start()
			c.Step(ToolSync{TurnID: "t1", Pickup: "1 High St"})
			c.Step(BackendResult{Type: BackendGeocodePickup, OK: true, NormalizedAddress: "1 High St, AB1 2CD"})
			c.Step(ToolSync{TurnID: "t2", Destination: "1 Main Square"})
			c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "1 Main Square, AB1 3EF"})
			c.Step(ToolSync{TurnID: "t3", Passengers: passengers})
			action := c.Step(ToolSync{TurnID: "t4", PickupTime: "ASAP"})
			ask, ok := action.(Ask)
			if !ok {
				return true
			}
			lower := strings.ToLower(ask.Text)
			for _, w := range closingWords {
				if strings.Contains(lower, w) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

// TestPropertyDuplicateTurnIsIdempotent covers invariant 5.
func TestPropertyDuplicateTurnIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("replaying the same turn id is a no-op", prop.ForAll(
		func(pickup string) bool {
			c := newTestCore()
			c.Start()
			ev := ToolSync{TurnID: "dup", Pickup: pickup}
			c.Step(ev)
			before := c.Snapshot()
			action := c.Step(ev)
			_, isNone := action.(None)
			return isNone && reflect.DeepEqual(before, c.Snapshot())
		},
		addressGen(),
	))

	properties.TestingRun(t)
}
