// Package agent drives the turn-by-turn protocol between a model backend
// and a tool registry until the model produces a final answer.
//
// The Engine alternates between two working states: awaiting the model and
// dispatching the tools it requested. A turn that carries tool calls is
// never a final answer; its calls are executed through the registry with
// bounded parallelism and the results are fed back in request order. A
// plain-text turn ends the run.
//
// An iteration cap bounds the number of backend calls. When the model is
// still requesting tools at the cap, the engine issues one last call with
// tools hidden to force a final answer.
//
//	engine := agent.New(provider, registry)
//	result, err := engine.Run(ctx, "concierge", []relay.Message{
//	    relay.NewUserMessage("What is the weather in Paris?"),
//	})
//
// The Result carries the final text alongside the full tool-call trace,
// summed token usage, and the conversation as it stood when the run ended.
package agent
