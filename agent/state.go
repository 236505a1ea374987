package agent

import (
	ai "github.com/coleremick/relay"
)

// State identifies where a run is in its lifecycle.
type State string

const (
	// StateAwaitModel means a backend call is pending or in flight.
	StateAwaitModel State = "await_model"

	// StateDispatchingTools means requested tool calls are executing.
	StateDispatchingTools State = "dispatching_tools"

	// StateDone is the terminal success state: a final answer exists.
	StateDone State = "done"

	// StateFailed is the terminal failure state.
	StateFailed State = "failed"
)

// TerminationReason indicates why the run stopped.
type TerminationReason string

const (
	// TerminationComplete indicates the model answered in plain text.
	TerminationComplete TerminationReason = "complete"

	// TerminationForced indicates the iteration cap was hit and the
	// forced final-answer turn produced text.
	TerminationForced TerminationReason = "forced"

	// TerminationCancelled indicates context cancellation or deadline.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationError indicates an unrecoverable error.
	TerminationError TerminationReason = "error"
)

// Result represents the final outcome of a run.
type Result struct {
	// FinalText is the model's answer. Empty unless State is StateDone.
	FinalText string

	// Response is the last model response received.
	Response *ai.Response

	// State is the terminal state, StateDone or StateFailed.
	State State

	// Termination indicates why the run stopped.
	Termination TerminationReason

	// Iterations is the number of backend calls made, including the
	// forced final-answer call if one was issued.
	Iterations int

	// Trace holds one record per tool call in dispatch order across all
	// iterations, whatever each call's outcome.
	Trace []ai.Record

	// Usage aggregates token usage across all backend calls.
	Usage ai.Usage

	// Messages is the conversation as it stood when the run ended.
	Messages []ai.Message

	// Err is the failure that ended the run, nil when State is StateDone.
	Err error
}
