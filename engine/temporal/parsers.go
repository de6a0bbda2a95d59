package temporal

import (
	"go.temporal.io/sdk/workflow"

	"github.com/ridewire/voicebooking/adapters/addressparser"
	"github.com/ridewire/voicebooking/adapters/timeparser"
	"github.com/ridewire/voicebooking/booking"
)

// workflowAddressParser and workflowTimeParser call booking's pure-function
// collaborators directly inside workflow code rather than through an
// activity, avoiding an activity round trip for every turn. Address parsing
// has no time dependency and is safe to call as-is; time parsing resolves
// relative phrases ("in 20 minutes") against a reference instant, so
// workflowTimeParser pins that reference to workflow.Now at construction
// time instead of the wall clock, keeping workflow replay deterministic.
type workflowAddressParser struct{}

func (workflowAddressParser) Parse(raw string) booking.ParsedAddress {
	return addressparser.Parse(raw)
}

type workflowTimeParser struct {
	ctx workflow.Context
}

func (p workflowTimeParser) Parse(raw string) booking.ParsedTime {
	return timeparser.ParseAt(raw, workflow.Now(p.ctx).UTC())
}
