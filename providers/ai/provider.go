package ai

import (
	"context"
	"net/http"
)

// Provider is the interface every LLM backend implements. It covers one
// request/response round trip plus the knobs needed to point the backend at
// a different account or endpoint.
type Provider interface {
	// SendMessage sends a chat request and returns the completed response.
	// Errors cover transport failures, non-2xx statuses, cancellation and
	// undecodable responses.
	SendMessage(ctx context.Context, request ChatRequest) (*ChatResponse, error)

	// IsStopMessage reports whether the response is a terminal completion,
	// using the backend's own finish-reason semantics.
	IsStopMessage(message *ChatResponse) bool

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Provider

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Provider

	// WithHttpClient sets the HTTP client used for outbound requests.
	WithHttpClient(httpClient *http.Client) Provider
}
