package models

import (
	"encoding/json"
	"strconv"
	"time"
)

// EntryTypeRequest is the type tag stored with every request entry.
const EntryTypeRequest = "request"

// Entry is one monitoring record as stored in the entries repository.
// UUID, BatchID, Type and CreatedAt are stamped by the recorder; Sequence
// is assigned by the repository that stores it.
type Entry struct {
	Sequence  int64        `json:"sequence"`
	UUID      string       `json:"uuid"`
	BatchID   string       `json:"batch_id"`
	Type      string       `json:"type"`
	Content   EntryContent `json:"content"`
	CreatedAt time.Time    `json:"created_at"`
}

// EntryContent mirrors the shape of a regular HTTP request record so the
// UI can render reactive-component calls and plain requests alike.
type EntryContent struct {
	IPAddress        string         `json:"ip_address"`
	URI              string         `json:"uri"`
	Method           string         `json:"method"`
	ControllerAction string         `json:"controller_action"`
	Middleware       []string       `json:"middleware"`
	Headers          map[string]any `json:"headers"`
	Payload          map[string]any `json:"payload"`
	Session          map[string]any `json:"session"`
	ResponseStatus   int            `json:"response_status"`
	Response         any            `json:"response"`
	// Duration is in milliseconds; nil when no start time was known.
	Duration *int64  `json:"duration"`
	Memory   float64 `json:"memory"`
}

// UpdateRequest is the body of a reactive-component update call.
type UpdateRequest struct {
	Components []ComponentPayload `json:"components"`
}

// ComponentPayload is one batched component: its serialized snapshot and
// the calls made against it during this request.
type ComponentPayload struct {
	Snapshot string         `json:"snapshot"`
	Calls    []Call         `json:"calls"`
	Updates  map[string]any `json:"updates,omitempty"`
}

// Call is a single method invocation on a component.
type Call struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// UpdateResponse is returned by the reactive-component endpoint.
type UpdateResponse struct {
	Components []ComponentResult `json:"components"`
}

// ComponentResult echoes a component's snapshot and its call effects.
type ComponentResult struct {
	Snapshot string         `json:"snapshot"`
	Effects  map[string]any `json:"effects"`
}

// ParamsMap returns the call parameters as a map. Positional parameters are
// keyed by their index; absent or unparseable parameters yield an empty map.
func (c Call) ParamsMap() map[string]any {
	out := map[string]any{}
	if len(c.Params) == 0 {
		return out
	}

	var v any
	if err := json.Unmarshal(c.Params, &v); err != nil {
		return out
	}

	switch p := v.(type) {
	case map[string]any:
		return p
	case []any:
		for i, item := range p {
			out[strconv.Itoa(i)] = item
		}
	}
	return out
}

// Component is what hydrating a snapshot yields: the registered component
// name and the concrete class serving it.
type Component struct {
	Name  string
	Class string
}
