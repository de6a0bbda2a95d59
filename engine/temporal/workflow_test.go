package temporal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"github.com/ridewire/voicebooking/booking"
	"github.com/ridewire/voicebooking/ledger"
)

type recordingSink struct {
	texts []string
}

func (s *recordingSink) Speak(_ context.Context, _, text string) {
	s.texts = append(s.texts, text)
}

type fixedGeocoder struct{}

func (fixedGeocoder) Geocode(raw string) booking.GeocodeResult {
	return booking.GeocodeResult{OK: true, NormalizedAddress: raw + ", AB1 2CD"}
}

type fixedDispatcher struct{}

func (fixedDispatcher) Dispatch(booking.BookingSlots) booking.DispatchResult {
	return booking.DispatchResult{OK: true, BookingID: "BK-900"}
}

func TestBookingWorkflow_HappyPath(t *testing.T) {
	suite := &testsuite.WorkflowTestSuite{}
	env := suite.NewTestWorkflowEnvironment()

	sink := &recordingSink{}
	store := ledger.NewMemStore()
	acts := &Activities{
		Sink:       sink,
		Geocoder:   fixedGeocoder{},
		Dispatcher: fixedDispatcher{},
		Ledger:     store,
	}
	env.RegisterActivityWithOptions(acts.Speak, activity.RegisterOptions{Name: ActivitySpeak})
	env.RegisterActivityWithOptions(acts.Hangup, activity.RegisterOptions{Name: ActivityHangup})
	env.RegisterActivityWithOptions(acts.Transfer, activity.RegisterOptions{Name: ActivityTransfer})
	env.RegisterActivityWithOptions(acts.GeocodePickup, activity.RegisterOptions{Name: ActivityGeocodePickup})
	env.RegisterActivityWithOptions(acts.GeocodeDropoff, activity.RegisterOptions{Name: ActivityGeocodeDropoff})
	env.RegisterActivityWithOptions(acts.Dispatch, activity.RegisterOptions{Name: ActivityDispatch})
	env.RegisterActivityWithOptions(acts.Amend, activity.RegisterOptions{Name: ActivityAmend})
	env.RegisterActivityWithOptions(acts.RecordLedgerEntry, activity.RegisterOptions{Name: ActivityRecordEntry})

	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ToolSyncSignal, booking.ToolSync{TurnID: "t1", Pickup: "10 High St"})
	}, time.Millisecond)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ToolSyncSignal, booking.ToolSync{TurnID: "t2", Destination: "Main Square"})
	}, 2*time.Millisecond)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ToolSyncSignal, booking.ToolSync{TurnID: "t3", Passengers: 2})
	}, 3*time.Millisecond)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ToolSyncSignal, booking.ToolSync{TurnID: "t4", PickupTime: "ASAP"})
	}, 4*time.Millisecond)
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ToolSyncSignal, booking.ToolSync{TurnID: "t5", Intent: "yes"})
	}, 5*time.Millisecond)
	// The call stays open after booking; declining any change ends it.
	env.RegisterDelayedCallback(func() {
		env.SignalWorkflow(ToolSyncSignal, booking.ToolSync{TurnID: "t6", Intent: "no"})
	}, 6*time.Millisecond)

	env.ExecuteWorkflow(BookingWorkflow, WorkflowInput{CallID: "call-1"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out WorkflowOutput
	require.NoError(t, env.GetWorkflowResult(&out))
	require.Equal(t, "BK-900", out.BookingID)

	require.NotEmpty(t, sink.texts)
	found := false
	for _, text := range sink.texts {
		if strings.Contains(text, "BK-900") {
			found = true
		}
	}
	require.True(t, found, "expected a Speak call mentioning the booking ID, got %v", sink.texts)
}
