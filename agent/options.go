package agent

import (
	"time"

	ai "github.com/coleremick/relay"
)

// Options contains configuration for a run.
type Options struct {
	// MaxIterations caps the number of backend calls that may request
	// tools. When the cap is hit, one extra call is made with tools
	// hidden to force a final answer. Default is 5.
	MaxIterations int

	// MaxParallel bounds concurrent tool execution within one turn.
	// Default is 4.
	MaxParallel int

	// Timeout sets a deadline for the entire run.
	// A value of 0 means no timeout (context deadline applies).
	Timeout time.Duration

	// ChatOptions are passed through to the ChatProvider on every call.
	ChatOptions []ai.Option
}

// Option is a functional option for configuring a run.
type Option func(*Options)

// WithMaxIterations sets the iteration cap. Default is 5.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		o.MaxIterations = n
	}
}

// WithMaxParallel bounds concurrent tool execution. Default is 4.
func WithMaxParallel(n int) Option {
	return func(o *Options) {
		o.MaxParallel = n
	}
}

// WithTimeout sets a deadline for the entire run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithChatOptions passes options through to the ChatProvider.
// These options are applied to every chat call made by the engine.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithModel is a convenience option to set the model for chat calls.
func WithModel(model string) Option {
	return WithChatOptions(ai.WithModel(model))
}

// WithMaxTokens is a convenience option to set max tokens for chat calls.
func WithMaxTokens(n int) Option {
	return WithChatOptions(ai.WithMaxTokens(n))
}

// WithTemperature is a convenience option to set temperature for chat calls.
func WithTemperature(t float64) Option {
	return WithChatOptions(ai.WithTemperature(t))
}

// WithSystem is a convenience option to set the system instruction.
func WithSystem(text string) Option {
	return WithChatOptions(ai.WithSystem(text))
}

// ApplyOptions applies functional options to an Options struct with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxIterations: 5,
		MaxParallel:   4,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.MaxIterations < 1 {
		o.MaxIterations = 1
	}
	if o.MaxParallel < 1 {
		o.MaxParallel = 1
	}
	return o
}
