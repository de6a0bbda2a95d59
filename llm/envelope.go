package llm

import "encoding/json"

// ToolCallEnvelope is the raw tool-use turn from the speech model before its
// arguments have been validated and converted into a booking.ToolSync.
type ToolCallEnvelope struct {
	ToolName      string
	ToolUseID     string
	ArgumentsJSON json.RawMessage
}

// Turn is one exchange in the running transcript handed to the model. A
// deliberately small surface compared to the teacher's generic
// model.Message/Part hierarchy, since this client only ever drives a single
// tool ("sync_slots") rather than an arbitrary agent toolset.
type Turn struct {
	Role string // "user" or "assistant"
	Text string
}
