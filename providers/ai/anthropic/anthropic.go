package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/leofalp/radar/internal/utils"
	"github.com/leofalp/radar/providers"
	"github.com/leofalp/radar/providers/ai"
	"github.com/leofalp/radar/providers/observability"
)

const (
	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "/messages"

	// anthropicVersion is the required anthropic-version header value.
	anthropicVersion = "2023-06-01"

	// DefaultModel is used when neither the request nor ANTHROPIC_MODEL names one.
	DefaultModel = "claude-sonnet-4-5"

	// DefaultMaxTokens is sent when the request carries no generation config.
	DefaultMaxTokens = 4096

	adapterName = "anthropic"
)

// ErrMissingAPIKey is returned before any network call when no key is configured.
var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY is not set")

// AnthropicProvider implements [ai.Provider] for Anthropic's Messages API.
type AnthropicProvider struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

var _ ai.Provider = (*AnthropicProvider)(nil)

// New returns a provider initialized from ANTHROPIC_API_KEY,
// ANTHROPIC_API_BASE_URL and ANTHROPIC_MODEL.
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = DefaultModel
	}

	return &AnthropicProvider{
		apiKey:    os.Getenv("ANTHROPIC_API_KEY"),
		baseURL:   baseURL,
		model:     model,
		maxTokens: DefaultMaxTokens,
		client:    &http.Client{},
	}
}

// WithAPIKey overrides the value read from ANTHROPIC_API_KEY.
func (p *AnthropicProvider) WithAPIKey(apiKey string) ai.Provider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the API base URL, typically for a proxy or a test server.
func (p *AnthropicProvider) WithBaseURL(baseURL string) ai.Provider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the HTTP client used for API calls.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) ai.Provider {
	p.client = httpClient
	return p
}

// WithModel sets the model used when a request does not name one.
func (p *AnthropicProvider) WithModel(model string) *AnthropicProvider {
	p.model = model
	return p
}

// Model returns the default model of this provider.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// buildHeaders returns the headers every request needs. Anthropic
// authenticates via x-api-key, not a bearer token.
func (p *AnthropicProvider) buildHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		utils.WithHeader("x-api-key", p.apiKey),
		utils.WithHeader("anthropic-version", anthropicVersion),
	}
}

// SendMessage sends one synchronous Messages API call and maps the response to
// [ai.ChatResponse]. Failures are returned as *providers.AdapterError; a
// non-2xx status keeps the underlying *utils.StatusError reachable through
// errors.As so the retry middleware can classify it.
func (p *AnthropicProvider) SendMessage(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	model := request.Model
	if model == "" {
		model = p.model
	}

	if span != nil {
		span.AddEvent(observability.EventLLMRequestStart)
		span.SetAttributes(
			observability.String(observability.AttrLLMProvider, adapterName),
			observability.String(observability.AttrLLMEndpoint, p.baseURL),
			observability.String(observability.AttrLLMModel, model),
		)
		defer span.AddEvent(observability.EventLLMRequestEnd)
	}

	if observer != nil {
		observer.Trace(ctx, "Anthropic provider preparing request",
			observability.String(observability.AttrLLMModel, model),
			observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			observability.Int(observability.AttrRequestToolsCount, len(request.Tools)),
		)
	}

	if p.apiKey == "" {
		return nil, providers.Wrap(adapterName, "messages", ErrMissingAPIKey)
	}

	anthropicReq, err := requestToAnthropic(request, model, p.maxTokens)
	if err != nil {
		return nil, providers.Wrap(adapterName, "messages", fmt.Errorf("failed to build request: %w", err))
	}

	httpResponse, resp, err := utils.DoPostSync[anthropicResponse](ctx, p.client, p.baseURL+messagesEndpoint, anthropicReq, p.buildHeaders()...)
	if err != nil {
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) {
			err = fmt.Errorf("%s: %w", errorMessage(statusErr.Body), statusErr)
		}
		if observer != nil {
			observer.Trace(ctx, "HTTP request failed", observability.Error(err))
		}
		return nil, providers.Wrap(adapterName, "messages", err)
	}

	result := anthropicToGeneric(*resp)
	if result.Model == "" {
		result.Model = model
	}

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrLLMResponseID, result.Id),
			observability.String(observability.AttrLLMFinishReason, result.FinishReason),
			observability.Int(observability.AttrHTTPStatusCode, httpResponse.StatusCode),
		)
		span.AddEvent(observability.EventTokensReceived,
			observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalTokens),
		)
	}

	return result, nil
}

// IsStopMessage reports whether message is terminal. Responses carrying tool
// calls are never terminal.
func (p *AnthropicProvider) IsStopMessage(message *ai.ChatResponse) bool {
	if message == nil {
		return true
	}
	if len(message.ToolCalls) > 0 {
		return false
	}
	switch message.FinishReason {
	case ai.FinishReasonStop, ai.FinishReasonLength, ai.FinishReasonRefusal:
		return true
	}
	return message.Content == ""
}
