// Package engine hosts a booking.Core for the lifetime of one call,
// delivering ToolSync events to it in order and executing the Action each
// Step call returns. booking.Core itself never performs I/O; engine is the
// seam where the collaborator contracts (spec.md §4.F) are actually wired
// to real implementations.
package engine

import (
	"context"

	"github.com/ridewire/voicebooking/booking"
	"github.com/ridewire/voicebooking/ledger"
)

// Collaborators bundles the backend implementations a call's actions are
// dispatched to. Any field may be nil; an engine treats a nil collaborator
// as a failed backend call (BackendResult{OK:false}), never a panic.
type Collaborators struct {
	Geocoder      booking.Geocoder
	Dispatcher    booking.Dispatcher
	Amender       booking.Amender
	HumanTransfer booking.HumanTransfer
	HangupSink    booking.HangupSink
}

// Sink receives the caller-facing side of an Ask or Hangup action. The
// engine never speaks to the caller itself -- that stays outside the
// module's scope (spec.md §1 Non-goals).
type Sink interface {
	Speak(ctx context.Context, callID, text string)
}

// CallOptions configures a single hosted call.
type CallOptions struct {
	CallID        string
	Core          *booking.Core
	Collaborators Collaborators
	Sink          Sink
	// Ledger, if set, receives one entry per Step call for after-the-fact
	// observability (spec.md §4.J). A nil Ledger records nothing.
	Ledger ledger.Store
}

// Handle lets the outer shell deliver ToolSync events to a running call.
type Handle interface {
	// Deliver enqueues a ToolSync for processing. It returns once the event
	// has been accepted onto the call's mailbox, not once it has been
	// processed -- Step itself always runs on the call's single writer.
	Deliver(ctx context.Context, event booking.ToolSync) error
	// Close stops the call. Deliver after Close returns ErrClosed.
	Close(ctx context.Context) error
}

// Engine starts and hosts calls. Implementations: engine/inmem
// (goroutine+channel, non-durable, used by the demo binary and tests) and
// engine/temporal (one workflow execution per call, durable).
type Engine interface {
	StartCall(ctx context.Context, opts CallOptions) (Handle, error)
}
