package temporal

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"github.com/ridewire/voicebooking/booking"
	"github.com/ridewire/voicebooking/ledger"
)

// WorkflowInput starts a BookingWorkflow execution.
type WorkflowInput struct {
	CallID    string
	RetryCaps booking.RetryCaps
}

// WorkflowOutput is the terminal result of a call. FinalStage mirrors the
// booking.Stage the Core reached when the workflow returned; BookingID is
// set only when a dispatch succeeded before the call ended.
type WorkflowOutput struct {
	FinalStage string
	BookingID  string
}

// ToolSyncSignal is the name of the signal channel external callers use to
// deliver ToolSync events into a running BookingWorkflow execution.
const ToolSyncSignal = "tool-sync"

type amendInput struct {
	BookingID string
	Slots     booking.BookingSlots
}

// BookingWorkflow hosts one booking.Core for the lifetime of a call. Unlike
// spec.md §4.G's description of feeding BackendResults back into the core as
// events arriving on the same channel as ToolSync, this workflow resolves
// Geocode/Dispatch/Amend actions with a synchronous ExecuteActivity call --
// the idiomatic Temporal way to wait on an in-workflow I/O call -- and
// reserves the signal channel for genuinely external input: the caller's
// next turn. Exactly one Core.Step call is ever in flight, matching the
// single-writer posture of engine/inmem.
func BookingWorkflow(ctx workflow.Context, in WorkflowInput) (WorkflowOutput, error) {
	core := booking.New(booking.Options{
		RetryCaps:     in.RetryCaps,
		AddressParser: workflowAddressParser{},
		TimeParser:    workflowTimeParser{ctx: ctx},
		CallID:        in.CallID,
	})

	actx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
	})
	sig := workflow.GetSignalChannel(ctx, ToolSyncSignal)
	seq := 0

	step := func(event booking.Event) booking.Action {
		action := core.Step(event)
		recordLedgerEntry(ctx, actx, in.CallID, &seq, event, action)
		return action
	}

	action := core.Start()
	for {
		switch a := action.(type) {
		case booking.Ask:
			if err := execSpeak(actx, in.CallID, a.Text); err != nil {
				return WorkflowOutput{}, err
			}
			var next booking.ToolSync
			sig.Receive(ctx, &next)
			action = step(next)

		case booking.Hangup:
			if err := execSpeak(actx, in.CallID, a.Text); err != nil {
				return WorkflowOutput{}, err
			}
			var ignored struct{}
			if err := workflow.ExecuteActivity(actx, ActivityHangup, in.CallID, a.Text).Get(actx, &ignored); err != nil {
				return WorkflowOutput{}, err
			}
			snap := core.Snapshot()
			return WorkflowOutput{FinalStage: snap.Stage.String(), BookingID: snap.BookingID}, nil

		case booking.TransferToHuman:
			var ignored struct{}
			_ = workflow.ExecuteActivity(actx, ActivityTransfer, in.CallID, a.Reason).Get(actx, &ignored)
			var next booking.ToolSync
			sig.Receive(ctx, &next)
			action = step(next)

		case booking.GeocodePickup:
			var result booking.BackendResult
			if err := workflow.ExecuteActivity(actx, ActivityGeocodePickup, a.Raw).Get(actx, &result); err != nil {
				result = booking.BackendResult{Type: booking.BackendGeocodePickup, OK: false, Error: err.Error()}
			}
			action = step(result)

		case booking.GeocodeDropoff:
			var result booking.BackendResult
			if err := workflow.ExecuteActivity(actx, ActivityGeocodeDropoff, a.Raw).Get(actx, &result); err != nil {
				result = booking.BackendResult{Type: booking.BackendGeocodeDropoff, OK: false, Error: err.Error()}
			}
			action = step(result)

		case booking.Dispatch:
			var result booking.BackendResult
			if err := workflow.ExecuteActivity(actx, ActivityDispatch, a.Slots).Get(actx, &result); err != nil {
				result = booking.BackendResult{Type: booking.BackendDispatch, OK: false, Error: err.Error()}
			}
			action = step(result)

		case booking.Amend:
			var result booking.BackendResult
			input := amendInput{BookingID: a.BookingID, Slots: a.Slots}
			if err := workflow.ExecuteActivity(actx, ActivityAmend, input).Get(actx, &result); err != nil {
				result = booking.BackendResult{Type: booking.BackendAmend, OK: false, Error: err.Error()}
			}
			action = step(result)

		case booking.None:
			var next booking.ToolSync
			sig.Receive(ctx, &next)
			action = step(next)

		default:
			var next booking.ToolSync
			sig.Receive(ctx, &next)
			action = step(next)
		}
	}
}

func execSpeak(ctx workflow.Context, callID, text string) error {
	var ignored struct{}
	return workflow.ExecuteActivity(ctx, ActivitySpeak, callID, text).Get(ctx, &ignored)
}

// recordLedgerEntry fires the audit-entry activity in its own coroutine so
// it never holds up the call's critical path; failures are not retried
// beyond the activity's own retry policy and are otherwise swallowed, since
// a missed audit row must never fail a live call.
func recordLedgerEntry(ctx, actx workflow.Context, callID string, seq *int, event booking.Event, action booking.Action) {
	in := recordEntryInput{
		CallID:    callID,
		Seq:       *seq,
		Timestamp: workflow.Now(ctx).UTC(),
		Event:     ledger.SummarizeEvent(event),
		Action:    ledger.SummarizeAction(action),
	}
	*seq++
	workflow.Go(ctx, func(gctx workflow.Context) {
		var ignored struct{}
		_ = workflow.ExecuteActivity(actx, ActivityRecordEntry, in).Get(gctx, &ignored)
	})
}
