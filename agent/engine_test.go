package agent

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	ai "github.com/coleremick/relay"
	"github.com/coleremick/relay/tool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scriptedProvider replays canned responses and records the options of
// every call it receives.
type scriptedProvider struct {
	mu     sync.Mutex
	seen   []*ai.Options
	script []func(messages []ai.Message, o *ai.Options) (*ai.Response, error)
}

func (p *scriptedProvider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o := ai.ApplyOptions(opts...)
	p.mu.Lock()
	i := len(p.seen)
	p.seen = append(p.seen, o)
	p.mu.Unlock()
	if i >= len(p.script) {
		return nil, fmt.Errorf("unexpected backend call %d", i+1)
	}
	return p.script[i](messages, o)
}

func textTurn(text string, usage ai.Usage) func([]ai.Message, *ai.Options) (*ai.Response, error) {
	return func([]ai.Message, *ai.Options) (*ai.Response, error) {
		return &ai.Response{Content: text, Usage: usage, FinishReason: "stop"}, nil
	}
}

func toolTurn(usage ai.Usage, calls ...ai.ToolCall) func([]ai.Message, *ai.Options) (*ai.Response, error) {
	return func([]ai.Message, *ai.Options) (*ai.Response, error) {
		return &ai.Response{ToolCalls: calls, Usage: usage, FinishReason: "tool_use"}, nil
	}
}

type addArgs struct {
	A int `json:"a" desc:"First addend"`
	B int `json:"b" desc:"Second addend"`
}

func calcRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	return tool.NewRegistry().Add(
		tool.Func("add", "Add two numbers", func(ctx context.Context, args addArgs) (string, error) {
			return fmt.Sprintf("%d", args.A+args.B), nil
		}, tool.ForCallers("calc")),
	)
}

func TestRunTextOnly(t *testing.T) {
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		textTurn("hello", ai.Usage{InputTokens: 10, OutputTokens: 2}),
	}}
	engine := New(provider, calcRegistry(t))

	result, err := engine.Run(context.Background(), "calc", []ai.Message{ai.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	assert.Equal(t, TerminationComplete, result.Termination)
	assert.Equal(t, "hello", result.FinalText)
	assert.Equal(t, 1, result.Iterations)
	assert.Empty(t, result.Trace)
	assert.Equal(t, ai.Usage{InputTokens: 10, OutputTokens: 2}, result.Usage)

	// user turn plus final assistant turn
	require.Len(t, result.Messages, 2)
	assert.Equal(t, ai.RoleAssistant, result.Messages[1].Role)
}

func TestRunSingleToolRound(t *testing.T) {
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		toolTurn(ai.Usage{InputTokens: 10, OutputTokens: 5},
			ai.ToolCall{ID: "c1", Name: "add", Arguments: `{"a":2,"b":3}`}),
		func(messages []ai.Message, o *ai.Options) (*ai.Response, error) {
			// The tool result must be in the conversation by now.
			last := messages[len(messages)-1]
			if last.Role != ai.RoleTool || len(last.ToolResults) != 1 || last.ToolResults[0].Content != "5" {
				return nil, fmt.Errorf("tool results not fed back: %+v", last)
			}
			return &ai.Response{Content: "2+3 is 5", Usage: ai.Usage{InputTokens: 20, OutputTokens: 4}}, nil
		},
	}}
	engine := New(provider, calcRegistry(t))

	result, err := engine.Run(context.Background(), "calc", []ai.Message{ai.NewUserMessage("what is 2+3?")})
	require.NoError(t, err)
	assert.Equal(t, "2+3 is 5", result.FinalText)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, ai.Usage{InputTokens: 30, OutputTokens: 9}, result.Usage)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, "add", result.Trace[0].ToolName)
	assert.True(t, result.Trace[0].OK())

	// user, assistant tool request, tool results, final assistant
	require.Len(t, result.Messages, 4)
	assert.Len(t, result.Messages[1].ToolCalls, 1)
	assert.Len(t, result.Messages[2].ToolResults, 1)
}

func TestRunOffersVisibleToolsOnly(t *testing.T) {
	registry := tool.NewRegistry().Add(
		tool.Func("add", "Add", func(ctx context.Context, args addArgs) (string, error) { return "", nil },
			tool.ForCallers("calc")),
		tool.Func("secret", "Hidden", func(ctx context.Context, args addArgs) (string, error) { return "", nil },
			tool.ForCallers("other")),
	)
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		textTurn("ok", ai.Usage{}),
	}}
	engine := New(provider, registry)

	_, err := engine.Run(context.Background(), "calc", []ai.Message{ai.NewUserMessage("hi")})
	require.NoError(t, err)

	require.Len(t, provider.seen, 1)
	require.Len(t, provider.seen[0].Tools, 1)
	assert.Equal(t, "add", provider.seen[0].Tools[0].Name)
}

func TestRunToolFailureFeedsBack(t *testing.T) {
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		toolTurn(ai.Usage{},
			ai.ToolCall{ID: "c1", Name: "no_such_tool", Arguments: `{}`}),
		func(messages []ai.Message, o *ai.Options) (*ai.Response, error) {
			last := messages[len(messages)-1]
			if len(last.ToolResults) != 1 || !last.ToolResults[0].IsError {
				return nil, fmt.Errorf("expected failed tool result, got %+v", last)
			}
			return &ai.Response{Content: "I cannot do that"}, nil
		},
	}}
	engine := New(provider, calcRegistry(t))

	result, err := engine.Run(context.Background(), "calc", []ai.Message{ai.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, StateDone, result.State)
	require.Len(t, result.Trace, 1)
	assert.False(t, result.Trace[0].OK())
}

func TestRunForcedFinalAnswer(t *testing.T) {
	t.Run("forced turn with text completes", func(t *testing.T) {
		call := ai.ToolCall{ID: "c", Name: "add", Arguments: `{"a":1,"b":1}`}
		provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
			toolTurn(ai.Usage{}, call),
			toolTurn(ai.Usage{}, call),
			textTurn("best effort answer", ai.Usage{}),
		}}
		engine := New(provider, calcRegistry(t))

		result, err := engine.Run(context.Background(), "calc",
			[]ai.Message{ai.NewUserMessage("loop forever")},
			WithMaxIterations(2))
		require.NoError(t, err)
		assert.Equal(t, StateDone, result.State)
		assert.Equal(t, TerminationForced, result.Termination)
		assert.Equal(t, "best effort answer", result.FinalText)
		assert.Equal(t, 3, result.Iterations)

		// The forced call must not offer tools.
		require.Len(t, provider.seen, 3)
		assert.NotEmpty(t, provider.seen[0].Tools)
		assert.NotEmpty(t, provider.seen[1].Tools)
		assert.Empty(t, provider.seen[2].Tools)
	})

	t.Run("forced turn still requesting tools fails", func(t *testing.T) {
		call := ai.ToolCall{ID: "c", Name: "add", Arguments: `{"a":1,"b":1}`}
		provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
			toolTurn(ai.Usage{}, call),
			toolTurn(ai.Usage{}, call),
		}}
		engine := New(provider, calcRegistry(t))

		result, err := engine.Run(context.Background(), "calc",
			[]ai.Message{ai.NewUserMessage("loop forever")},
			WithMaxIterations(1))
		require.ErrorIs(t, err, ErrIterationLimit)
		assert.Equal(t, StateFailed, result.State)
		assert.Equal(t, TerminationError, result.Termination)
		assert.Empty(t, result.FinalText)
		assert.Equal(t, 2, result.Iterations)
	})

	t.Run("forced turn with empty response fails at the limit", func(t *testing.T) {
		call := ai.ToolCall{ID: "c", Name: "add", Arguments: `{"a":1,"b":1}`}
		provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
			toolTurn(ai.Usage{}, call),
			func([]ai.Message, *ai.Options) (*ai.Response, error) {
				return &ai.Response{}, nil
			},
		}}
		engine := New(provider, calcRegistry(t))

		result, err := engine.Run(context.Background(), "calc",
			[]ai.Message{ai.NewUserMessage("loop forever")},
			WithMaxIterations(1))
		require.ErrorIs(t, err, ErrIterationLimit)
		assert.Equal(t, StateFailed, result.State)
		assert.Equal(t, TerminationError, result.Termination)
		assert.Equal(t, 2, result.Iterations)

		require.Len(t, provider.seen, 2)
		assert.Empty(t, provider.seen[1].Tools)
	})
}

func TestRunEmptyResponse(t *testing.T) {
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		func([]ai.Message, *ai.Options) (*ai.Response, error) {
			return &ai.Response{}, nil
		},
	}}
	engine := New(provider, calcRegistry(t))

	result, err := engine.Run(context.Background(), "calc", []ai.Message{ai.NewUserMessage("hi")})
	require.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, 1, result.Iterations)
}

func TestRunBackendFailure(t *testing.T) {
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		func([]ai.Message, *ai.Options) (*ai.Response, error) {
			return nil, ai.NewTransientError("overloaded", 529, nil)
		},
	}}
	engine := New(provider, calcRegistry(t))

	result, err := engine.Run(context.Background(), "calc", []ai.Message{ai.NewUserMessage("hi")})
	require.ErrorIs(t, err, ErrBackendUnavailable)
	assert.True(t, ai.IsTransient(err))
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, TerminationError, result.Termination)
}

func TestRunCancellation(t *testing.T) {
	started := make(chan struct{})
	registry := tool.NewRegistry().Add(
		tool.Func("wait", "Blocks until cancelled", func(ctx context.Context, args addArgs) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		}, tool.ForCallers("calc")),
	)
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		toolTurn(ai.Usage{}, ai.ToolCall{ID: "c1", Name: "wait", Arguments: `{"a":1,"b":1}`}),
	}}
	engine := New(provider, registry)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	result, err := engine.Run(ctx, "calc", []ai.Message{ai.NewUserMessage("hi")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, TerminationCancelled, result.Termination)
	assert.Empty(t, result.FinalText)
}

func TestRunParallelDispatchPreservesOrder(t *testing.T) {
	type delayArgs struct {
		ID    string `json:"id" desc:"Result marker"`
		Sleep int    `json:"sleep" desc:"Delay in milliseconds"`
	}
	registry := tool.NewRegistry().Add(
		tool.Func("delay", "Sleep then echo", func(ctx context.Context, args delayArgs) (string, error) {
			time.Sleep(time.Duration(args.Sleep) * time.Millisecond)
			return args.ID, nil
		}, tool.ForCallers("calc")),
	)

	// Later calls finish first; results must still land in request order.
	calls := []ai.ToolCall{
		{ID: "c1", Name: "delay", Arguments: `{"id":"first","sleep":40}`},
		{ID: "c2", Name: "delay", Arguments: `{"id":"second","sleep":20}`},
		{ID: "c3", Name: "delay", Arguments: `{"id":"third","sleep":1}`},
	}
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		toolTurn(ai.Usage{}, calls...),
		func(messages []ai.Message, o *ai.Options) (*ai.Response, error) {
			last := messages[len(messages)-1]
			if len(last.ToolResults) != 3 {
				return nil, fmt.Errorf("expected 3 results, got %d", len(last.ToolResults))
			}
			for i, want := range []string{"first", "second", "third"} {
				if last.ToolResults[i].Content != want {
					return nil, fmt.Errorf("result %d out of order: %q", i, last.ToolResults[i].Content)
				}
			}
			return &ai.Response{Content: "ordered"}, nil
		},
	}}
	engine := New(provider, registry)

	result, err := engine.Run(context.Background(), "calc",
		[]ai.Message{ai.NewUserMessage("go")},
		WithMaxParallel(3))
	require.NoError(t, err)
	assert.Equal(t, "ordered", result.FinalText)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, "c1", result.Trace[0].ToolCallID)
	assert.Equal(t, "c2", result.Trace[1].ToolCallID)
	assert.Equal(t, "c3", result.Trace[2].ToolCallID)
}

func TestRunParallelBound(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	type noArgs struct{}
	registry := tool.NewRegistry().Add(
		tool.Func("busy", "Tracks concurrency", func(ctx context.Context, args noArgs) (string, error) {
			mu.Lock()
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			inFlight--
			mu.Unlock()
			return "done", nil
		}, tool.ForCallers("calc")),
	)

	calls := make([]ai.ToolCall, 8)
	for i := range calls {
		calls[i] = ai.ToolCall{ID: fmt.Sprintf("c%d", i), Name: "busy", Arguments: `{}`}
	}
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		toolTurn(ai.Usage{}, calls...),
		textTurn("done", ai.Usage{}),
	}}
	engine := New(provider, registry)

	_, err := engine.Run(context.Background(), "calc",
		[]ai.Message{ai.NewUserMessage("go")},
		WithMaxParallel(2))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, 2)
	assert.Greater(t, peak, 0)
}

func TestRunTimeoutOption(t *testing.T) {
	type noArgs struct{}
	registry := tool.NewRegistry().Add(
		tool.Func("slow", "Sleeps", func(ctx context.Context, args noArgs) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "late", nil
			}
		}, tool.ForCallers("calc")),
	)
	provider := &scriptedProvider{script: []func([]ai.Message, *ai.Options) (*ai.Response, error){
		toolTurn(ai.Usage{}, ai.ToolCall{ID: "c1", Name: "slow", Arguments: `{}`}),
	}}
	engine := New(provider, registry)

	result, err := engine.Run(context.Background(), "calc",
		[]ai.Message{ai.NewUserMessage("hi")},
		WithTimeout(30*time.Millisecond))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, TerminationCancelled, result.Termination)
}

func TestApplyOptionsDefaults(t *testing.T) {
	o := ApplyOptions()
	assert.Equal(t, 5, o.MaxIterations)
	assert.Equal(t, 4, o.MaxParallel)

	o = ApplyOptions(WithMaxIterations(0), WithMaxParallel(-1))
	assert.Equal(t, 1, o.MaxIterations)
	assert.Equal(t, 1, o.MaxParallel)
}
