// Package relay is the core of a conversational agent runtime: it drives a
// language model through rounds of tool invocation until a final answer is
// produced.
//
// The root package holds the canonical, backend-independent types. Model
// backends encode "the model wants to call a tool" in different shapes
// (inline function-call objects, typed content blocks); the adapters in
// provider/anthropic, provider/openai, and provider/google normalize every
// backend payload into a [Response] carrying plain text, ordered
// [ToolCall] requests, and [Usage] counters. Nothing outside a provider
// package ever sees a backend-specific type.
//
// # Tools
//
// A [Tool] describes one unit of executable capability: a name, a
// description for the model, a JSON Schema for its arguments, and the set
// of callers allowed to invoke it. Tools live in a
// [github.com/coleremick/relay/tool.Registry], which enforces access
// control and validates arguments before any handler runs:
//
//	registry := tool.NewRegistry().Add(
//	    tool.Func("add", "Add two numbers",
//	        func(ctx context.Context, args AddArgs) (string, error) {
//	            return strconv.Itoa(args.A + args.B), nil
//	        },
//	        tool.ForCallers("calc"),
//	    ),
//	)
//
// # The agentic loop
//
// The [github.com/coleremick/relay/agent.Engine] owns the turn-by-turn
// protocol: send the conversation and the caller's visible tool schemas to
// the backend, execute any requested tools through the registry, feed the
// results back, and repeat until the model answers in plain text or the
// iteration cap forces a final answer:
//
//	engine := agent.New(provider, registry)
//	result, err := engine.Run(ctx, "calc", []relay.Message{
//	    {Role: relay.RoleUser, Content: "What is 2+3?"},
//	})
//	fmt.Println(result.FinalText)
//
// Every run returns the full trace of [Record] entries and the summed
// token usage alongside the answer.
//
// # Schemas
//
// Parameter schemas are authored explicitly. [SchemaFor] derives a draft
// schema from a struct's tags for the author to review, and
// [SchemaBuilder] builds one by hand:
//
//	schema := relay.NewSchema().
//	    Str("city", "City name").
//	    Required("city").
//	    Build()
package relay
