package relay

import "time"

// summaryLimit caps the amount of tool output kept in a trace record.
// The full output still travels to the model in the ToolResult.
const summaryLimit = 256

// Record is one finalized trace entry for a tool call. Every call that
// reaches the registry produces exactly one Record, whatever the outcome:
// denied, rejected, failed, timed out, or succeeded.
type Record struct {
	// ToolCallID correlates the record with the model's request.
	ToolCallID string `json:"toolCallId"`
	// ToolName is the name the model asked for, even when no such tool exists.
	ToolName string `json:"toolName"`
	// CallerID identifies the caller on whose behalf the call ran.
	CallerID string `json:"callerId"`
	// Arguments is the raw JSON argument string from the model.
	Arguments string `json:"arguments,omitempty"`
	// Summary is a truncated copy of the result content.
	Summary string `json:"summary,omitempty"`
	// Err holds the failure for unsuccessful calls, nil on success.
	Err error `json:"-"`
	// StartedAt is when the registry began processing the call.
	StartedAt time.Time `json:"startedAt"`
	// Duration is the wall time spent on the call, including validation.
	Duration time.Duration `json:"duration"`
	// NeedsConfirmation mirrors the tool's RequiresConfirmation flag so a
	// supervising layer can surface the call to its environment.
	NeedsConfirmation bool `json:"needsConfirmation,omitempty"`
}

// OK reports whether the call completed without error.
func (r Record) OK() bool {
	return r.Err == nil
}

// Summarize truncates tool output for inclusion in a Record.
func Summarize(content string) string {
	if len(content) <= summaryLimit {
		return content
	}
	return content[:summaryLimit] + "..."
}
