package retry

import (
	"context"
	"time"

	ai "github.com/coleremick/relay"
)

// Do executes the given function with retry logic.
// It respects context cancellation during backoff waits and honors a
// server-suggested retry delay when the error carries one.
// Returns the result on success, or the last error if all attempts fail.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if !IsTransient(err) {
			return zero, err
		}

		// Don't sleep after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			delay := cfg.Delay(attempt)
			if suggested := ai.RetryAfterOf(err); suggested > delay {
				delay = suggested
			}

			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return zero, lastErr
}

// Provider wraps a ChatProvider with retry on transient failures.
type Provider struct {
	inner ai.ChatProvider
	cfg   Config
}

// NewProvider wraps the given provider. A zero-attempt config falls back
// to DefaultConfig.
func NewProvider(inner ai.ChatProvider, cfg Config) *Provider {
	if cfg.MaxAttempts < 1 {
		cfg = DefaultConfig()
	}
	return &Provider{inner: inner, cfg: cfg}
}

// Chat calls the wrapped provider, retrying transient failures with
// exponential backoff.
func (p *Provider) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return Do(ctx, p.cfg, func() (*ai.Response, error) {
		return p.inner.Chat(ctx, messages, opts...)
	})
}

var _ ai.ChatProvider = (*Provider)(nil)
