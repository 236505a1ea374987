package agent

import "errors"

// Sentinel errors for run failures.
var (
	// ErrEmptyResponse indicates the model returned neither text nor tool
	// calls. There is nothing to feed back, so the run fails.
	ErrEmptyResponse = errors.New("agent: model returned an empty response")

	// ErrIterationLimit indicates the run hit the iteration cap and the
	// forced final-answer turn still did not produce text.
	ErrIterationLimit = errors.New("agent: iteration limit reached without a final answer")

	// ErrBackendUnavailable wraps a failed backend call. The engine does
	// not retry; wrap the provider with retry.Provider for that.
	ErrBackendUnavailable = errors.New("agent: backend unavailable")
)
