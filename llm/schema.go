package llm

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// syncSlotsSchemaJSON mirrors booking.ToolSync's fields. It is the single
// source of truth both for the tool definition advertised to the model and
// for validating the arguments a tool_use block returns, so the two can
// never drift apart.
const syncSlotsSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "pickup": {"type": "string"},
    "destination": {"type": "string"},
    "passengers": {"type": "integer", "minimum": 0, "maximum": 8},
    "pickup_time": {"type": "string"},
    "intent": {"type": "string"},
    "special_instructions": {"type": "string"}
  }
}`

// syncSlotsDescription is the tool description advertised to the model.
const syncSlotsDescription = "Report the caller's current pickup, destination, " +
	"passenger count, pickup time, confirmation intent, and any special " +
	"instructions gathered so far this turn. Omit fields that were not " +
	"mentioned."

// compileSyncSlotsSchema compiles syncSlotsSchemaJSON once at Client
// construction time so a malformed schema fails fast instead of on the
// first call.
func compileSyncSlotsSchema() (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(syncSlotsSchemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("llm: unmarshal sync_slots schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("sync_slots.json", doc); err != nil {
		return nil, fmt.Errorf("llm: add sync_slots schema resource: %w", err)
	}
	schema, err := c.Compile("sync_slots.json")
	if err != nil {
		return nil, fmt.Errorf("llm: compile sync_slots schema: %w", err)
	}
	return schema, nil
}

// validateArguments checks raw tool_use arguments against the compiled
// schema before they are unmarshalled into a booking.ToolSync.
func validateArguments(schema *jsonschema.Schema, raw json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("llm: unmarshal tool arguments: %w", err)
	}
	return schema.Validate(doc)
}
