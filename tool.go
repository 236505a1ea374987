package relay

import "encoding/json"

// CallerAny is the wildcard caller identifier. A tool whose Callers set
// contains it (or is nil) is visible to every caller.
const CallerAny = "*"

// Tool describes a function that can be called by the model.
type Tool struct {
	// Name is the unique identifier for the tool.
	Name string
	// Description explains what the tool does (helps the model decide when to use it).
	Description string
	// Parameters is a JSON Schema object defining the function parameters.
	// It is sent to the model and used to validate arguments locally.
	Parameters json.RawMessage
	// Category is a grouping label used for discovery and listing only.
	Category string
	// Callers is the set of caller identifiers allowed to invoke the tool.
	// A nil set, or a set containing CallerAny, allows every caller. A
	// non-nil empty set allows no one: a restricted tool whose callers
	// were all removed stays locked rather than falling open.
	Callers []string
	// RequiresConfirmation marks tools whose pending calls should be
	// surfaced to the caller's environment before execution. The runtime
	// still executes the call and flags it in the trace; gating on an
	// actual human decision belongs to the layer above.
	RequiresConfirmation bool
}

// AllowsCaller reports whether the given caller may invoke the tool.
func (t Tool) AllowsCaller(callerID string) bool {
	if t.Callers == nil {
		return true
	}
	for _, c := range t.Callers {
		if c == CallerAny || c == callerID {
			return true
		}
	}
	return false
}

// ToolCall represents a request from the model to invoke a tool.
type ToolCall struct {
	// ID is a unique identifier for this call (used to match results).
	// Adapters assign one when the backend does not supply it.
	ID string `json:"id"`
	// Name is the name of the tool to invoke.
	Name string `json:"name"`
	// Arguments is a JSON string containing the arguments to pass.
	Arguments string `json:"arguments"`
}

// ToolResult represents the result of executing a tool call.
type ToolResult struct {
	// ToolCallID matches the ID from the corresponding ToolCall.
	ToolCallID string `json:"toolCallId"`
	// Content is the result content to return to the model.
	Content string `json:"content"`
	// IsError indicates if the result represents an error.
	IsError bool `json:"isError,omitempty"`
}

// ToolChoice controls how the model uses tools.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide when to use tools (default).
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone disables tool use for the request.
	ToolChoiceNone ToolChoice = "none"
	// ToolChoiceRequired forces the model to use a tool.
	ToolChoiceRequired ToolChoice = "required"
)
