// Package client provides a unified chat client that routes requests to the
// right provider based on the model in use.
//
// Models from the model package know their provider, so a single client can
// serve several backends:
//
//	c := client.New(client.Config{
//	    APIKeys: client.APIKeys{
//	        Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
//	        OpenAI:    os.Getenv("OPENAI_API_KEY"),
//	    },
//	    Default: model.ClaudeSonnet45,
//	})
//
//	// Routes to Anthropic
//	resp, err := c.Chat(ctx, messages)
//
//	// Routes to OpenAI
//	resp, err = c.Chat(ctx, messages, relay.WithModel(model.GPT4o.String()))
//
// The client implements relay.ChatProvider, so it can back an agent.Engine
// directly. Transient backend failures are retried per the configured
// retry.Config.
package client

import (
	"context"
	"fmt"
	"sync"

	ai "github.com/coleremick/relay"
	"github.com/coleremick/relay/model"
	"github.com/coleremick/relay/provider/anthropic"
	"github.com/coleremick/relay/provider/google"
	"github.com/coleremick/relay/provider/openai"
	"github.com/coleremick/relay/retry"
)

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// Config holds configuration for creating a unified client.
type Config struct {
	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// Default is the model used when a request does not carry one.
	Default model.ChatModel

	// Retry configures retry behavior for transient errors.
	// If nil, retry.DefaultConfig is used.
	Retry *retry.Config
}

// ErrMissingAPIKey is returned when a model is used but no API key
// is configured for that model's provider.
type ErrMissingAPIKey struct {
	Provider string
	Model    string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no API key configured for %s (required by model %q)", e.Provider, e.Model)
	}
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrNoModel is returned when no model is specified and no default is configured.
type ErrNoModel struct{}

func (e *ErrNoModel) Error() string {
	return "no model specified: set client.Config.Default or use relay.WithModel()"
}

// ErrUnknownModel is returned when a request names a model the catalog
// cannot route to a provider.
type ErrUnknownModel struct {
	Model string
}

func (e *ErrUnknownModel) Error() string {
	return fmt.Sprintf("unknown model %q: not in the model catalog", e.Model)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultTemperature sets the default temperature for chat requests.
// Per-request options override this default.
func WithDefaultTemperature(t float64) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithTemperature(t))
	}
}

// WithDefaultMaxTokens sets the default max tokens for chat requests.
// Per-request options override this default.
func WithDefaultMaxTokens(n int) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, ai.WithMaxTokens(n))
	}
}

// WithDefaultChatOptions sets default options for all chat requests.
// Per-request options override these defaults.
func WithDefaultChatOptions(opts ...ai.Option) ClientOption {
	return func(c *Client) {
		c.defaultChatOpts = append(c.defaultChatOpts, opts...)
	}
}

// Client routes chat requests to provider backends by model.
// Provider clients are lazily initialized when first needed.
type Client struct {
	apiKeys         APIKeys
	defaultModel    model.ChatModel
	retryConfig     retry.Config
	defaultChatOpts []ai.Option

	// Lazy-initialized providers (protected by mutex)
	mu              sync.RWMutex
	anthropicClient *anthropic.Client
	openaiClient    *openai.Client
	googleClient    *google.Client
	googleInitErr   error
}

// New creates a unified client with the given configuration.
// Provider clients are lazily initialized when first needed based on the model used.
func New(cfg Config, opts ...ClientOption) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.Retry != nil {
		retryConfig = *cfg.Retry
	}

	c := &Client{
		apiKeys:      cfg.APIKeys,
		defaultModel: cfg.Default,
		retryConfig:  retryConfig,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// getAnthropicClient returns the Anthropic client, initializing it if needed.
func (c *Client) getAnthropicClient() (*anthropic.Client, error) {
	c.mu.RLock()
	if c.anthropicClient != nil {
		defer c.mu.RUnlock()
		return c.anthropicClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.anthropicClient != nil {
		return c.anthropicClient, nil
	}

	if c.apiKeys.Anthropic == "" {
		return nil, &ErrMissingAPIKey{Provider: "anthropic"}
	}

	c.anthropicClient = anthropic.New(c.apiKeys.Anthropic)
	return c.anthropicClient, nil
}

// getOpenAIClient returns the OpenAI client, initializing it if needed.
func (c *Client) getOpenAIClient() (*openai.Client, error) {
	c.mu.RLock()
	if c.openaiClient != nil {
		defer c.mu.RUnlock()
		return c.openaiClient, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openaiClient != nil {
		return c.openaiClient, nil
	}

	if c.apiKeys.OpenAI == "" {
		return nil, &ErrMissingAPIKey{Provider: "openai"}
	}

	c.openaiClient = openai.New(c.apiKeys.OpenAI)
	return c.openaiClient, nil
}

// getGoogleClient returns the Google client, initializing it if needed.
// The genai SDK constructor can fail, so the error is cached too.
func (c *Client) getGoogleClient(ctx context.Context) (*google.Client, error) {
	c.mu.RLock()
	if c.googleClient != nil {
		defer c.mu.RUnlock()
		return c.googleClient, nil
	}
	if c.googleInitErr != nil {
		defer c.mu.RUnlock()
		return nil, c.googleInitErr
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.googleClient != nil {
		return c.googleClient, nil
	}
	if c.googleInitErr != nil {
		return nil, c.googleInitErr
	}

	if c.apiKeys.Google == "" {
		return nil, &ErrMissingAPIKey{Provider: "google"}
	}

	client, err := google.New(ctx, c.apiKeys.Google)
	if err != nil {
		c.googleInitErr = fmt.Errorf("failed to initialize Google client: %w", err)
		return nil, c.googleInitErr
	}

	c.googleClient = client
	return c.googleClient, nil
}

// resolveModel determines the catalog model for a request: an explicit
// relay.WithModel option wins, then the configured default.
func (c *Client) resolveModel(opts []ai.Option) (model.ChatModel, error) {
	options := ai.ApplyOptions(opts...)
	if options.Model != "" {
		m, ok := model.Lookup(options.Model)
		if !ok {
			return model.ChatModel{}, &ErrUnknownModel{Model: options.Model}
		}
		return m, nil
	}
	if c.defaultModel.String() == "" {
		return model.ChatModel{}, &ErrNoModel{}
	}
	return c.defaultModel, nil
}

// getChatProvider returns the chat provider backing the given model.
func (c *Client) getChatProvider(ctx context.Context, m model.ChatModel) (ai.ChatProvider, error) {
	switch m.Provider() {
	case ai.ProviderAnthropic:
		return c.getAnthropicClient()
	case ai.ProviderOpenAI:
		return c.getOpenAIClient()
	case ai.ProviderGoogle:
		return c.getGoogleClient(ctx)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", m.Provider())
	}
}

// Chat sends a conversation to the provider backing the resolved model and
// returns the complete response. Transient errors are retried per the
// client's retry configuration.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	// Prepend default options so per-request options override them
	opts = append(append([]ai.Option(nil), c.defaultChatOpts...), opts...)

	m, err := c.resolveModel(opts)
	if err != nil {
		return nil, err
	}

	provider, err := c.getChatProvider(ctx, m)
	if err != nil {
		if missing, ok := err.(*ErrMissingAPIKey); ok {
			missing.Model = m.String()
		}
		return nil, err
	}

	// Make the resolved model explicit for the underlying provider
	opts = append([]ai.Option{ai.WithModel(m.String())}, opts...)

	return retry.Do(ctx, c.retryConfig, func() (*ai.Response, error) {
		return provider.Chat(ctx, messages, opts...)
	})
}

var _ ai.ChatProvider = (*Client)(nil)
