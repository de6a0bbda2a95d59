package temporal

import (
	"context"
	"time"

	"github.com/ridewire/voicebooking/booking"
	"github.com/ridewire/voicebooking/ledger"
)

// Activity names registered with the Temporal worker. BookingWorkflow refers
// to activities by these names rather than by function value so that the
// workflow definition and the activity implementations can be registered
// independently of each other.
const (
	ActivitySpeak          = "voicebooking.Speak"
	ActivityHangup         = "voicebooking.Hangup"
	ActivityTransfer       = "voicebooking.Transfer"
	ActivityGeocodePickup  = "voicebooking.GeocodePickup"
	ActivityGeocodeDropoff = "voicebooking.GeocodeDropoff"
	ActivityDispatch       = "voicebooking.Dispatch"
	ActivityAmend          = "voicebooking.Amend"
	ActivityRecordEntry    = "voicebooking.RecordLedgerEntry"
)

// recordEntryInput is the Temporal-serializable form of one ledger entry.
// workflow.Now(ctx) supplies Timestamp so the recorded time stays
// deterministic across workflow replays.
type recordEntryInput struct {
	CallID    string
	Seq       int
	Timestamp time.Time
	Event     ledger.Summary
	Action    ledger.Summary
}

// Sink receives the caller-facing side of an Ask or Hangup action, same
// contract as engine.Sink -- kept as a separate type so this package doesn't
// need to import engine just for one interface.
type Sink interface {
	Speak(ctx context.Context, callID, text string)
}

// Activities bundles the real collaborator implementations as Temporal
// activity methods. Each method is a thin adapter between the Temporal
// activity calling convention (context + single input + (output, error))
// and the synchronous booking.* collaborator interfaces, so the same
// adapters package used by engine/inmem also backs this engine.
type Activities struct {
	Sink          Sink
	Geocoder      booking.Geocoder
	Dispatcher    booking.Dispatcher
	Amender       booking.Amender
	HumanTransfer booking.HumanTransfer
	HangupSink    booking.HangupSink
	// Ledger, if set, receives one entry per Step call. A nil Ledger
	// records nothing.
	Ledger ledger.Store
}

// RecordLedgerEntry implements ActivityRecordEntry.
func (a *Activities) RecordLedgerEntry(ctx context.Context, in recordEntryInput) (struct{}, error) {
	if a.Ledger == nil {
		return struct{}{}, nil
	}
	entry := ledger.Entry{CallID: in.CallID, Seq: in.Seq, Timestamp: in.Timestamp, Event: in.Event, Action: in.Action}
	return struct{}{}, a.Ledger.Append(ctx, entry)
}

// Speak implements ActivitySpeak.
func (a *Activities) Speak(ctx context.Context, callID, text string) (struct{}, error) {
	if a.Sink != nil {
		a.Sink.Speak(ctx, callID, text)
	}
	return struct{}{}, nil
}

// Hangup implements ActivityHangup.
func (a *Activities) Hangup(ctx context.Context, callID, text string) (struct{}, error) {
	if a.HangupSink != nil {
		a.HangupSink.Hangup(text)
	}
	return struct{}{}, nil
}

// Transfer implements ActivityTransfer.
func (a *Activities) Transfer(ctx context.Context, callID, reason string) (struct{}, error) {
	if a.HumanTransfer != nil {
		a.HumanTransfer.Transfer(reason)
	}
	return struct{}{}, nil
}

// GeocodePickup implements ActivityGeocodePickup.
func (a *Activities) GeocodePickup(ctx context.Context, raw string) (booking.BackendResult, error) {
	return a.geocode(booking.BackendGeocodePickup, raw)
}

// GeocodeDropoff implements ActivityGeocodeDropoff.
func (a *Activities) GeocodeDropoff(ctx context.Context, raw string) (booking.BackendResult, error) {
	return a.geocode(booking.BackendGeocodeDropoff, raw)
}

func (a *Activities) geocode(kind booking.BackendType, raw string) (booking.BackendResult, error) {
	if a.Geocoder == nil {
		return booking.BackendResult{Type: kind, OK: false, Error: "no geocoder configured"}, nil
	}
	res := a.Geocoder.Geocode(raw)
	return booking.BackendResult{
		Type:              kind,
		OK:                res.OK,
		NormalizedAddress: res.NormalizedAddress,
		Ambiguous:         res.Ambiguous,
		Alternatives:      res.Alternatives,
	}, nil
}

// Dispatch implements ActivityDispatch.
func (a *Activities) Dispatch(ctx context.Context, slots booking.BookingSlots) (booking.BackendResult, error) {
	if a.Dispatcher == nil {
		return booking.BackendResult{Type: booking.BackendDispatch, OK: false, Error: "no dispatcher configured"}, nil
	}
	res := a.Dispatcher.Dispatch(slots)
	return booking.BackendResult{Type: booking.BackendDispatch, OK: res.OK, BookingID: res.BookingID, Error: res.Error}, nil
}

// Amend implements ActivityAmend.
func (a *Activities) Amend(ctx context.Context, in amendInput) (booking.BackendResult, error) {
	if a.Amender == nil {
		return booking.BackendResult{Type: booking.BackendAmend, OK: false, Error: "no amender configured"}, nil
	}
	res := a.Amender.Amend(in.BookingID, in.Slots)
	return booking.BackendResult{Type: booking.BackendAmend, OK: res.OK, Error: res.Error}, nil
}
