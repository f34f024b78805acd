package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/radar/providers/ai"
	"github.com/leofalp/radar/providers/observability"
)

// ErrEmptyResponse is returned when the provider answers a completion with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Client issues completion and extraction calls against one provider. A Client
// is immutable after New and safe for concurrent use by parallel graph branches.
type Client struct {
	provider         ai.Provider
	send             SendFunc
	observer         observability.Provider
	model            string
	generationConfig *ai.GenerationConfig
}

// ClientOptions collects the settings applied by functional options.
type ClientOptions struct {
	Observer         observability.Provider
	Model            string
	GenerationConfig *ai.GenerationConfig
	Middlewares      []Middleware
}

// WithObserver enables tracing, metrics and logging for every provider call.
func WithObserver(observer observability.Provider) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Observer = observer
	}
}

// WithModel sets the model requested on every call. Empty leaves the provider default.
func WithModel(model string) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Model = model
	}
}

// WithGenerationConfig sets sampling parameters for every call.
func WithGenerationConfig(config ai.GenerationConfig) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.GenerationConfig = &config
	}
}

// WithMiddleware appends middlewares to the send chain. Earlier entries wrap
// later ones.
func WithMiddleware(middlewares ...Middleware) func(*ClientOptions) {
	return func(o *ClientOptions) {
		o.Middlewares = append(o.Middlewares, middlewares...)
	}
}

// New builds a Client around provider. Usage recording and, when an observer
// is configured, the observability middleware wrap every other middleware so
// they see the final outcome after retries and timeouts.
func New(provider ai.Provider, opts ...func(*ClientOptions)) (*Client, error) {
	if provider == nil {
		return nil, errors.New("client: provider must not be nil")
	}

	options := &ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}
	for i, middleware := range options.Middlewares {
		if middleware == nil {
			return nil, fmt.Errorf("client: middleware at index %d is nil", i)
		}
	}

	middlewares := options.Middlewares
	if options.Observer != nil {
		middlewares = append([]Middleware{NewObservabilityMiddleware(options.Observer, options.Model)}, middlewares...)
	}
	middlewares = append([]Middleware{recordUsage}, middlewares...)

	return &Client{
		provider:         provider,
		send:             buildSendChain(provider, middlewares),
		observer:         options.Observer,
		model:            options.Model,
		generationConfig: options.GenerationConfig,
	}, nil
}

// Provider returns the underlying provider.
func (c *Client) Provider() ai.Provider {
	return c.provider
}

// newRequest builds a single-turn request.
func (c *Client) newRequest(systemPrompt, userPrompt string) ai.ChatRequest {
	return ai.ChatRequest{
		Model:            c.model,
		SystemPrompt:     systemPrompt,
		Messages:         []ai.Message{{Role: ai.RoleUser, Content: userPrompt}},
		GenerationConfig: c.generationConfig,
	}
}

// Complete runs a free-text completion and returns the model's text.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if userPrompt == "" {
		return "", errors.New("client: user prompt must not be empty")
	}

	response, err := c.send(ctx, c.newRequest(systemPrompt, userPrompt))
	if err != nil {
		return "", err
	}
	if response == nil || response.Content == "" {
		return "", ErrEmptyResponse
	}
	return response.Content, nil
}
