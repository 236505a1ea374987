package relay

import "context"

// Provider identifies an AI backend.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// ChatProvider is a backend that can answer one model turn. Implementations
// normalize the backend payload into the canonical Response shape; callers
// never see a backend-specific type.
//
// A Chat failure must be reported through the returned error, categorized
// with the root error types so wrappers can decide about retries. Chat must
// honor ctx cancellation.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}
