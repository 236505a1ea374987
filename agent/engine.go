package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	ai "github.com/coleremick/relay"
	"github.com/coleremick/relay/tool"
)

// Engine orchestrates autonomous tool-calling conversations.
type Engine struct {
	provider ai.ChatProvider
	registry *tool.Registry
	logger   zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for run progress and tool failures.
func WithLogger(logger zerolog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine with the given backend and tool registry.
func New(provider ai.ChatProvider, registry *tool.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		provider: provider,
		registry: registry,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the loop on behalf of callerID and blocks until it reaches a
// terminal state. The caller determines which tools are offered to the
// model: exactly the registry's Visible set for that caller.
//
// The returned Result is populated in every case, including failures; the
// returned error equals Result.Err. Tool-level failures (unknown tool,
// access denied, invalid arguments, timeout, handler error) never end the
// run: they are fed back to the model as failed tool results. Only a failed
// backend call, an empty model response, an exhausted iteration cap, or
// cancellation ends a run unsuccessfully.
func (e *Engine) Run(ctx context.Context, callerID string, messages []ai.Message, opts ...Option) (*Result, error) {
	options := ApplyOptions(opts...)

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	history := append([]ai.Message(nil), messages...)
	result := &Result{State: StateAwaitModel}
	tools := e.registry.Visible(callerID)

	fail := func(reason TerminationReason, err error) (*Result, error) {
		result.State = StateFailed
		result.Termination = reason
		result.Err = err
		result.Messages = history
		return result, err
	}
	done := func(reason TerminationReason, text string) (*Result, error) {
		history = append(history, ai.Message{Role: ai.RoleAssistant, Content: text})
		result.State = StateDone
		result.Termination = reason
		result.FinalText = text
		result.Messages = history
		return result, nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return fail(TerminationCancelled, err)
		}

		// The cap counts tool-bearing calls. Once spent, one last call is
		// made with tools hidden so the model must answer in text.
		forced := result.Iterations >= options.MaxIterations

		chatOpts := make([]ai.Option, 0, len(options.ChatOptions)+1)
		if !forced {
			chatOpts = append(chatOpts, ai.WithTools(tools...))
		}
		chatOpts = append(chatOpts, options.ChatOptions...)

		result.State = StateAwaitModel
		e.logger.Debug().Int("iteration", result.Iterations+1).Bool("forced", forced).Msg("awaiting model")

		response, err := e.provider.Chat(ctx, history, chatOpts...)
		result.Iterations++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(TerminationCancelled, ctxErr)
			}
			return fail(TerminationError, fmt.Errorf("%w: %w", ErrBackendUnavailable, err))
		}

		result.Response = response
		result.Usage.Add(response.Usage)

		// The forced turn is judged first: anything short of a text answer
		// there, including an empty response, exhausts the run.
		if forced {
			if len(response.ToolCalls) > 0 || response.Content == "" {
				return fail(TerminationError, ErrIterationLimit)
			}
			return done(TerminationForced, response.Content)
		}

		if response.Content == "" && len(response.ToolCalls) == 0 {
			return fail(TerminationError, ErrEmptyResponse)
		}

		if len(response.ToolCalls) == 0 {
			return done(TerminationComplete, response.Content)
		}

		result.State = StateDispatchingTools
		history = append(history, ai.Message{
			Role:      ai.RoleAssistant,
			Content:   response.Content,
			ToolCalls: response.ToolCalls,
		})

		results, records, err := e.dispatch(ctx, callerID, response.ToolCalls, options.MaxParallel)
		result.Trace = append(result.Trace, records...)
		if err != nil {
			return fail(TerminationCancelled, err)
		}

		history = append(history, ai.NewToolResultMessage(results...))
	}
}

// dispatch executes one turn's tool calls with bounded parallelism. Results
// and records land at the index of their originating call, so order is
// preserved no matter how execution interleaves. Cancellation is
// all-or-nothing: once the context is done, the whole batch is discarded
// and the error returned.
func (e *Engine) dispatch(ctx context.Context, callerID string, calls []ai.ToolCall, maxParallel int) ([]ai.ToolResult, []ai.Record, error) {
	results := make([]ai.ToolResult, len(calls))
	records := make([]ai.Record, len(calls))

	sem := make(chan struct{}, maxParallel)
	var wg sync.WaitGroup

	for i, tc := range calls {
		wg.Add(1)
		go func(idx int, call ai.ToolCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, rec, err := e.registry.Execute(ctx, callerID, call)
			if err != nil {
				e.logger.Warn().Err(err).Str("tool", call.Name).Str("caller", callerID).Msg("tool call failed")
			}
			results[idx] = res
			records[idx] = rec
		}(i, tc)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, records, err
	}
	return results, records, nil
}
