package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"

	ai "github.com/coleremick/relay"
)

// DefaultTimeout bounds handler execution when WithTimeout is not given.
const DefaultTimeout = 30 * time.Second

// emptyObjectSchema stands in for tools registered without parameters.
var emptyObjectSchema = json.RawMessage(`{"type":"object","properties":{}}`)

// registeredTool combines a tool definition with its handler and the
// schema compiled at registration time.
type registeredTool struct {
	tool    ai.Tool
	handler Handler
	schema  *gojsonschema.Schema
}

// Registry manages registered tools and their handlers, enforcing caller
// access and argument validation before any handler runs.
// It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]registeredTool
	order   []string
	timeout time.Duration
	logger  zerolog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTimeout sets the per-call handler execution timeout.
func WithTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.timeout = d
	}
}

// WithLogger sets the logger for handler failures and registry activity.
func WithLogger(logger zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// NewRegistry creates an empty tool registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools:   make(map[string]registeredTool),
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a tool with its handler to the registry. The parameter
// schema is compiled here so a registered tool can always validate
// arguments; a schema that does not compile fails with ErrInvalidSchema.
// Registering a name that is already taken fails with ErrDuplicateTool and
// leaves the original registration active.
func (r *Registry) Register(t ai.Tool, handler Handler) error {
	if t.Name == "" {
		return &ErrInvalidSchema{Name: t.Name, Err: fmt.Errorf("tool name is empty")}
	}

	params := t.Parameters
	if len(params) == 0 {
		params = emptyObjectSchema
		t.Parameters = params
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(params))
	if err != nil {
		return &ErrInvalidSchema{Name: t.Name, Err: err}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name]; exists {
		return &ErrDuplicateTool{Name: t.Name}
	}

	r.tools[t.Name] = registeredTool{
		tool:    t,
		handler: handler,
		schema:  schema,
	}
	r.order = append(r.order, t.Name)
	r.logger.Debug().Str("tool", t.Name).Str("category", t.Category).Msg("tool registered")
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t ai.Tool, handler Handler) {
	if err := r.Register(t, handler); err != nil {
		panic(err)
	}
}

// Unregister removes a tool from the registry.
// Returns ErrToolNotFound if no such tool is registered.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tools[name]; !ok {
		return &ErrToolNotFound{Name: name}
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Assign replaces the allowed-caller set of a registered tool.
// Pass relay.CallerAny to open the tool to every caller; passing no
// callers locks the tool entirely.
func (r *Registry) Assign(name string, callers ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tools[name]
	if !ok {
		return &ErrToolNotFound{Name: name}
	}
	set := make([]string, 0, len(callers))
	rt.tool.Callers = append(set, callers...)
	r.tools[name] = rt
	return nil
}

// Unassign removes callers from a tool's allowed-caller set. Removing the
// last caller locks the tool: nobody may invoke it until Assign grants
// access again. An unrestricted tool (nil set) is left unrestricted.
func (r *Registry) Unassign(name string, callers ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt, ok := r.tools[name]
	if !ok {
		return &ErrToolNotFound{Name: name}
	}
	if rt.tool.Callers == nil {
		return nil
	}
	// Keep the set non-nil so a fully emptied set denies every caller
	// instead of falling open.
	kept := make([]string, 0, len(rt.tool.Callers))
	for _, c := range rt.tool.Callers {
		remove := false
		for _, rm := range callers {
			if c == rm {
				remove = true
				break
			}
		}
		if !remove {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 && len(rt.tool.Callers) > 0 {
		r.logger.Warn().Str("tool", name).Msg("tool allows no callers")
	}
	rt.tool.Callers = kept
	r.tools[name] = rt
	return nil
}

// Get retrieves a tool definition by name.
// Returns the tool and true if found, or empty tool and false if not found.
func (r *Registry) Get(name string) (ai.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rt, ok := r.tools[name]
	if !ok {
		return ai.Tool{}, false
	}
	return rt.tool, true
}

// Visible returns the tool definitions the given caller may execute, in
// registration order. This is the set to offer the model on the caller's
// behalf: visibility and executability are the same check.
func (r *Registry) Visible(callerID string) []ai.Tool {
	return r.VisibleInCategory(callerID, "")
}

// VisibleInCategory is Visible restricted to one category. An empty
// category matches every tool.
func (r *Registry) VisibleInCategory(callerID, category string) []ai.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]ai.Tool, 0, len(r.order))
	for _, name := range r.order {
		rt := r.tools[name]
		if category != "" && rt.tool.Category != category {
			continue
		}
		if rt.tool.AllowsCaller(callerID) {
			tools = append(tools, rt.tool)
		}
	}
	return tools
}

// Categories returns the distinct tool categories in first-appearance
// order. Tools without a category are not represented.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var categories []string
	for _, name := range r.order {
		c := r.tools[name].tool.Category
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		categories = append(categories, c)
	}
	return categories
}

// Names returns the names of all registered tools in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs the full pipeline for one tool call on behalf of callerID:
// lookup, access check, argument validation, then the handler under the
// registry timeout with panic containment.
//
// The returned ToolResult is always usable as model feedback: on failure it
// carries IsError and a safe description. Validation failures quote the
// first violation so the model can correct itself; handler errors are
// logged in full here and reduced to a short label, since handler error
// text can carry untrusted upstream content. The Record traces the call
// with its duration and typed error, and the returned error mirrors
// Record.Err. A parent context cancellation is returned as ctx.Err.
func (r *Registry) Execute(ctx context.Context, callerID string, call ai.ToolCall) (ai.ToolResult, ai.Record, error) {
	start := time.Now()
	rec := ai.Record{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		CallerID:   callerID,
		Arguments:  call.Arguments,
		StartedAt:  start,
	}

	fail := func(err error, content string) (ai.ToolResult, ai.Record, error) {
		rec.Err = err
		rec.Duration = time.Since(start)
		rec.Summary = ai.Summarize(content)
		return ai.ToolResult{ToolCallID: call.ID, Content: content, IsError: true}, rec, err
	}

	r.mu.RLock()
	rt, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return fail(&ErrToolNotFound{Name: call.Name},
			fmt.Sprintf("unknown tool: %s", call.Name))
	}

	rec.NeedsConfirmation = rt.tool.RequiresConfirmation

	if !rt.tool.AllowsCaller(callerID) {
		r.logger.Warn().Str("tool", call.Name).Str("caller", callerID).Msg("access denied")
		return fail(&ErrAccessDenied{Name: call.Name, Caller: callerID},
			fmt.Sprintf("access denied: %s", call.Name))
	}

	if call.Arguments == "" {
		call.Arguments = "{}"
	}
	validation, err := rt.schema.Validate(gojsonschema.NewStringLoader(call.Arguments))
	if err != nil {
		return fail(&ErrInvalidArguments{Name: call.Name, Reason: err.Error()},
			fmt.Sprintf("invalid arguments: %v", err))
	}
	if !validation.Valid() {
		reason := validation.Errors()[0].String()
		return fail(&ErrInvalidArguments{Name: call.Name, Reason: reason},
			fmt.Sprintf("invalid arguments: %s", reason))
	}

	content, err := r.runHandler(ctx, rt.handler, call)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			rec.Err = ctxErr
			rec.Duration = time.Since(start)
			return ai.ToolResult{}, rec, ctxErr
		}
		r.logger.Error().Err(err).Str("tool", call.Name).Str("caller", callerID).Msg("tool execution failed")
		if timeoutErr, ok := err.(*ErrToolTimeout); ok {
			return fail(timeoutErr, fmt.Sprintf("tool timed out: %s", call.Name))
		}
		// Short label only: the raw error may echo untrusted tool input.
		return fail(&ErrToolExecution{Name: call.Name, Err: err},
			fmt.Sprintf("tool execution failed: %s", call.Name))
	}

	rec.Duration = time.Since(start)
	rec.Summary = ai.Summarize(content)
	return ai.ToolResult{ToolCallID: call.ID, Content: content}, rec, nil
}

// runHandler invokes the handler in its own goroutine so a stuck handler
// cannot block the pipeline past the timeout, and a panicking handler is
// contained as an error.
func (r *Registry) runHandler(ctx context.Context, h Handler, call ai.ToolCall) (string, error) {
	execCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		content string
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", p)}
			}
		}()
		content, err := h(execCtx, call)
		done <- outcome{content: content, err: err}
	}()

	select {
	case out := <-done:
		// A handler that notices the deadline and returns its own error
		// races the execCtx.Done arm; classify by the deadline, not by
		// which arm the select picked.
		if out.err != nil && execCtx.Err() != nil && ctx.Err() == nil {
			return "", &ErrToolTimeout{Name: call.Name, Timeout: r.timeout}
		}
		return out.content, out.err
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &ErrToolTimeout{Name: call.Name, Timeout: r.timeout}
	}
}

// Registration holds a tool and its handler for fluent registration.
type Registration struct {
	Tool    ai.Tool
	Handler Handler
}

// ToolOption adjusts a tool descriptor during registration.
type ToolOption func(*ai.Tool)

// ForCallers restricts the tool to the given caller identifiers.
func ForCallers(callers ...string) ToolOption {
	return func(t *ai.Tool) {
		t.Callers = callers
	}
}

// InCategory places the tool in a category for discovery.
func InCategory(category string) ToolOption {
	return func(t *ai.Tool) {
		t.Category = category
	}
}

// WithConfirmation marks the tool's calls for confirmation by the caller's
// environment.
func WithConfirmation() ToolOption {
	return func(t *ai.Tool) {
		t.RequiresConfirmation = true
	}
}

// Func creates a Registration with the schema derived from the typed
// handler's argument struct.
//
// Example:
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("weather", "Get weather", func(ctx context.Context, args WeatherArgs) (string, error) {
//	        return getWeather(args.Location), nil
//	    }, tool.ForCallers("concierge")),
//	)
func Func[T any](name, description string, fn TypedHandler[T], opts ...ToolOption) Registration {
	t := ai.Tool{
		Name:        name,
		Description: description,
		Parameters:  ai.SchemaFor[T]().Build(),
	}
	for _, opt := range opts {
		opt(&t)
	}
	handler := func(ctx context.Context, call ai.ToolCall) (string, error) {
		var args T
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return "", err
		}
		return fn(ctx, args)
	}
	return Registration{Tool: t, Handler: handler}
}

// WithHandler creates a Registration from a Handler and an explicit schema.
// Use this when you have a pre-built Handler implementation.
func WithHandler(name, description string, schema json.RawMessage, h Handler, opts ...ToolOption) Registration {
	t := ai.Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return Registration{Tool: t, Handler: h}
}

// WithTool creates a Registration from an existing Tool and Handler.
// Use this when you have pre-built tool definitions.
func WithTool(t ai.Tool, h Handler) Registration {
	return Registration{Tool: t, Handler: h}
}

// Add registers one or more tools to the registry.
// Panics if any registration fails.
// Returns the registry for fluent chaining.
func (r *Registry) Add(regs ...Registration) *Registry {
	for _, reg := range regs {
		r.MustRegister(reg.Tool, reg.Handler)
	}
	return r
}
