package tool

import (
	"fmt"
	"time"
)

// ErrToolNotFound is returned when a tool call references an unregistered tool.
type ErrToolNotFound struct {
	Name string
}

// Error returns a formatted error message including the tool name.
func (e *ErrToolNotFound) Error() string {
	return fmt.Sprintf("tool: not found: %s", e.Name)
}

// ErrDuplicateTool is returned when registering a tool with a name that is
// already taken. The original registration stays active.
type ErrDuplicateTool struct {
	Name string
}

// Error returns a formatted error message including the duplicate tool name.
func (e *ErrDuplicateTool) Error() string {
	return fmt.Sprintf("tool: already registered: %s", e.Name)
}

// ErrAccessDenied is returned when a caller invokes a tool outside its
// allowed-caller set. The handler is never invoked.
type ErrAccessDenied struct {
	Name   string
	Caller string
}

// Error returns a formatted error message including the tool and caller.
func (e *ErrAccessDenied) Error() string {
	return fmt.Sprintf("tool: access denied: %s for caller %s", e.Name, e.Caller)
}

// ErrInvalidArguments is returned when a call's arguments fail schema
// validation. Reason describes the first violation found.
type ErrInvalidArguments struct {
	Name   string
	Reason string
}

// Error returns a formatted error message including the violation.
func (e *ErrInvalidArguments) Error() string {
	return fmt.Sprintf("tool: invalid arguments for %s: %s", e.Name, e.Reason)
}

// ErrInvalidSchema is returned at registration time when a tool's parameter
// schema does not compile.
type ErrInvalidSchema struct {
	Name string
	Err  error
}

// Error returns a formatted error message including the tool name and cause.
func (e *ErrInvalidSchema) Error() string {
	return fmt.Sprintf("tool: invalid schema for %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ErrInvalidSchema) Unwrap() error {
	return e.Err
}

// ErrToolTimeout is returned when a handler does not finish within the
// registry's execution timeout.
type ErrToolTimeout struct {
	Name    string
	Timeout time.Duration
}

// Error returns a formatted error message including the timeout.
func (e *ErrToolTimeout) Error() string {
	return fmt.Sprintf("tool: %s timed out after %s", e.Name, e.Timeout)
}

// ErrToolExecution wraps errors from tool handler execution, including
// recovered panics.
type ErrToolExecution struct {
	Name string
	Err  error
}

// Error returns a formatted error message including the tool name and cause.
func (e *ErrToolExecution) Error() string {
	return fmt.Sprintf("tool: %s execution failed: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ErrToolExecution) Unwrap() error {
	return e.Err
}
