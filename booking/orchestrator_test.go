package booking

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCore() *Core {
	return New(Options{
		AddressParser: fakeAddressParser{},
		TimeParser:    fakeTimeParser{},
		CallID:        "call-1",
	})
}

// TestHappyPath exercises S1 from spec.md §8 end to end.
func TestHappyPath(t *testing.T) {
	c := newTestCore()

	ask := c.Start()
	require.Equal(t, Ask{Text: askPickupFirst}, ask)

	action := c.Step(ToolSync{TurnID: "t1", Pickup: "10 High St"})
	require.Equal(t, GeocodePickup{Raw: "10 High St"}, action)
	require.Equal(t, StageCollectPickup, c.Snapshot().Stage)

	action = c.Step(BackendResult{Type: BackendGeocodePickup, OK: true, NormalizedAddress: "10 High St, AB1 2CD"})
	askAction, ok := action.(Ask)
	require.True(t, ok)
	require.Equal(t, askDropoffFirst, askAction.Text)

	action = c.Step(ToolSync{TurnID: "t2", Destination: "Main Square"})
	require.Equal(t, GeocodeDropoff{Raw: "Main Square"}, action)

	action = c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "Main Square, AB1 3EF"})
	askAction, ok = action.(Ask)
	require.True(t, ok)
	require.Equal(t, askPassengersFirst, askAction.Text)

	action = c.Step(ToolSync{TurnID: "t3", Passengers: 2})
	askAction, ok = action.(Ask)
	require.True(t, ok)
	require.Equal(t, askTimeFirst, askAction.Text)

	action = c.Step(ToolSync{TurnID: "t4", PickupTime: "ASAP"})
	askAction, ok = action.(Ask)
	require.True(t, ok)
	require.Contains(t, askAction.Text, "10 High St, AB1 2CD")
	require.Contains(t, askAction.Text, "Main Square, AB1 3EF")
	require.Contains(t, askAction.Text, "2 passenger")
	require.Contains(t, askAction.Text, "ASAP")
	require.Equal(t, StageConfirmDetails, c.Snapshot().Stage)

	action = c.Step(ToolSync{TurnID: "t5", Intent: "yes"})
	require.Equal(t, Dispatch{Slots: c.Snapshot().Slots}, action)
	require.Equal(t, StageDispatching, c.Snapshot().Stage)

	action = c.Step(BackendResult{Type: BackendDispatch, OK: true, BookingID: "BK-001"})
	askAction, ok = action.(Ask)
	require.True(t, ok)
	require.Contains(t, askAction.Text, "BK-001")
	require.Equal(t, StageBooked, c.Snapshot().Stage)
	require.Equal(t, "BK-001", c.Snapshot().BookingID)
}

// TestMidFlowDestinationCorrection exercises S2.
func TestMidFlowDestinationCorrection(t *testing.T) {
	c := newTestCore()
	c.Start()
	c.Step(ToolSync{TurnID: "t1", Pickup: "10 High St"})
	c.Step(BackendResult{Type: BackendGeocodePickup, OK: true, NormalizedAddress: "10 High St, AB1 2CD"})
	c.Step(ToolSync{TurnID: "t2", Destination: "Main Square"})
	c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "Main Square, AB1 3EF"})
	c.Step(ToolSync{TurnID: "t3", Passengers: 2})

	action := c.Step(ToolSync{TurnID: "t4", Destination: "Station Rd"})
	require.Equal(t, GeocodeDropoff{Raw: "Station Rd"}, action)
	require.False(t, c.Snapshot().Slots.Dropoff.Verified)

	action = c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "Station Rd, AB1 9ZZ"})
	askAction, ok := action.(Ask)
	require.True(t, ok)
	require.Equal(t, askTimeFirst, askAction.Text)
	require.True(t, c.Snapshot().Slots.Dropoff.Verified)
}

// TestDuplicateTurnIgnored exercises S3.
func TestDuplicateTurnIgnored(t *testing.T) {
	c := newTestCore()
	c.Start()

	c.Step(ToolSync{TurnID: "t1", Pickup: "X"})
	before := c.Snapshot()

	action := c.Step(ToolSync{TurnID: "t1", Pickup: "Y"})
	require.Equal(t, None{Reason: "duplicate"}, action)
	require.Equal(t, before, c.Snapshot())
	require.Equal(t, "X", c.Snapshot().Slots.Pickup.Raw)
}

// TestGeocodeExhaustionEscalates exercises S4.
func TestGeocodeExhaustionEscalates(t *testing.T) {
	c := newTestCore()
	c.Start()
	c.Step(ToolSync{TurnID: "t1", Pickup: "10 High St"})

	for i := 0; i < 3; i++ {
		action := c.Step(BackendResult{Type: BackendGeocodePickup, OK: false})
		_, ok := action.(Ask)
		require.Truef(t, ok, "attempt %d expected Ask, got %T", i, action)
	}

	action := c.Step(BackendResult{Type: BackendGeocodePickup, OK: false})
	require.Equal(t, TransferToHuman{Reason: exhaustPickupVerify}, action)
	require.Equal(t, StageEscalate, c.Snapshot().Stage)

	action = c.Step(ToolSync{TurnID: "t2", Pickup: "anything"})
	require.Equal(t, Hangup{Text: hangupComplete}, action)
}

// TestConfirmationAmbiguityCapped exercises S5.
func TestConfirmationAmbiguityCapped(t *testing.T) {
	c := newTestCore()
	c.Start()
	c.Step(ToolSync{TurnID: "t1", Pickup: "10 High St"})
	c.Step(BackendResult{Type: BackendGeocodePickup, OK: true, NormalizedAddress: "10 High St, AB1 2CD"})
	c.Step(ToolSync{TurnID: "t2", Destination: "Main Square"})
	c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "Main Square, AB1 3EF"})
	c.Step(ToolSync{TurnID: "t3", Passengers: 2})
	c.Step(ToolSync{TurnID: "t4", PickupTime: "ASAP"})
	require.Equal(t, StageConfirmDetails, c.Snapshot().Stage)

	for i, turnID := range []string{"t5", "t6"} {
		action := c.Step(ToolSync{TurnID: turnID, Intent: "huh"})
		_, ok := action.(Ask)
		require.Truef(t, ok, "attempt %d expected Ask, got %T", i, action)
	}

	action := c.Step(ToolSync{TurnID: "t7", Intent: "huh"})
	require.Equal(t, TransferToHuman{Reason: exhaustConfirm}, action)
	require.Equal(t, StageEscalate, c.Snapshot().Stage)
}

// TestPostBookingAmendPath exercises S6.
func TestPostBookingAmendPath(t *testing.T) {
	c := newTestCore()
	c.Start()
	c.Step(ToolSync{TurnID: "t1", Pickup: "10 High St"})
	c.Step(BackendResult{Type: BackendGeocodePickup, OK: true, NormalizedAddress: "10 High St, AB1 2CD"})
	c.Step(ToolSync{TurnID: "t2", Destination: "Main Square"})
	c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "Main Square, AB1 3EF"})
	c.Step(ToolSync{TurnID: "t3", Passengers: 2})
	c.Step(ToolSync{TurnID: "t4", PickupTime: "ASAP"})
	c.Step(ToolSync{TurnID: "t5", Intent: "yes"})
	c.Step(BackendResult{Type: BackendDispatch, OK: true, BookingID: "BK-001"})
	require.Equal(t, StageBooked, c.Snapshot().Stage)

	action := c.Step(ToolSync{TurnID: "t6", Passengers: 4})
	require.Equal(t, Amend{BookingID: "BK-001", Slots: c.Snapshot().Slots}, action)
	require.Equal(t, StageAmendConfirm, c.Snapshot().Stage)

	action = c.Step(BackendResult{Type: BackendAmend, OK: true})
	askAction, ok := action.(Ask)
	require.True(t, ok)
	require.Contains(t, askAction.Text, "Updated")
	require.Equal(t, StageBooked, c.Snapshot().Stage)
}

func TestStaleBackendResultIsIgnored(t *testing.T) {
	c := newTestCore()
	c.Start()
	c.Step(ToolSync{TurnID: "t1", Pickup: "10 High St"})

	action := c.Step(BackendResult{Type: BackendGeocodeDropoff, OK: true, NormalizedAddress: "x"})
	require.Equal(t, None{Reason: "stale"}, action)
}

func TestAddressParserSurfacesHouseNumberReprompt(t *testing.T) {
	c := newTestCore()
	c.Start()

	action := c.Step(ToolSync{TurnID: "t1", Pickup: "High Street"})
	require.Equal(t, Ask{Text: askHouseNumber}, action)
	require.Equal(t, PendingNone, c.Snapshot().PendingVerification)

	action = c.Step(ToolSync{TurnID: "t2", Pickup: "12 High Street"})
	require.Equal(t, GeocodePickup{Raw: "12 High Street"}, action)
}
