package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leofalp/radar/providers/observability"
)

// maxResponseBodySize caps how much of a response body Do reads.
var maxResponseBodySize int64 = 32 << 20

// ErrResponseTooLarge is returned when a response body exceeds the read cap.
var ErrResponseTooLarge = errors.New("response body too large")

// StatusError reports a non-2xx HTTP response. Body holds the raw response
// payload so callers can surface provider error messages.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.StatusCode, TruncateString(e.Body, DefaultMaxStringLength))
}

// Retryable reports whether the status is worth retrying (429 and 5xx).
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// HeaderOption customizes an outgoing request.
type HeaderOption func(*http.Request)

// WithHeader sets a single request header.
func WithHeader(key, value string) HeaderOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// Do performs an HTTP request and returns the raw response body. A non-nil
// body is marshaled to JSON and sent with Content-Type application/json.
// Non-2xx responses are returned as *StatusError together with the response.
//
// When a span is attached to ctx, request and response events are recorded on it.
// The response body is always closed; close errors are logged, never returned.
func Do(ctx context.Context, client *http.Client, method, url string, body any, opts ...HeaderOption) (*http.Response, []byte, error) {
	span := observability.SpanFromContext(ctx)

	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	var reader io.Reader
	var payloadSize int
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("error marshaling body: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
		payloadSize = len(jsonBody)
	}

	if span != nil {
		span.AddEvent("http.request.prepared",
			observability.String(observability.AttrHTTPMethod, method),
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, payloadSize),
		)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for _, opt := range opts {
		opt(req)
	}

	requestStart := time.Now()
	res, err := httpClient.Do(req)
	requestDuration := time.Since(requestStart)
	if err != nil {
		if span != nil {
			span.AddEvent("http.request.error",
				observability.Error(err),
				observability.Duration("http.request.duration", requestDuration),
			)
		}
		return res, nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if closeErr := Body.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", url)
		}
	}(res.Body)

	respBody, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBodySize+1))
	if err != nil {
		return res, nil, fmt.Errorf("error reading response body: %w", err)
	}
	if int64(len(respBody)) > maxResponseBodySize {
		return res, nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, maxResponseBodySize)
	}

	if span != nil {
		span.AddEvent("http.response.received",
			observability.Int(observability.AttrHTTPStatusCode, res.StatusCode),
			observability.Int(observability.AttrHTTPResponseBodySize, len(respBody)),
			observability.Duration("http.request.duration", requestDuration),
		)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return res, respBody, &StatusError{StatusCode: res.StatusCode, Body: string(respBody)}
	}
	return res, respBody, nil
}

// DoJSON performs a request through Do and unmarshals the 2xx response body
// into OutputStruct.
func DoJSON[OutputStruct any](ctx context.Context, client *http.Client, method, url string, body any, opts ...HeaderOption) (*http.Response, *OutputStruct, error) {
	res, respBody, err := Do(ctx, client, method, url, body, opts...)
	if err != nil {
		return res, nil, err
	}

	var resStruct OutputStruct
	if err = json.Unmarshal(respBody, &resStruct); err != nil {
		return res, nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s", res.StatusCode, err, TruncateString(string(respBody), DefaultMaxStringLength))
	}
	return res, &resStruct, nil
}

// DoPostSync POSTs body as JSON and decodes the JSON response.
func DoPostSync[OutputStruct any](ctx context.Context, client *http.Client, url string, body any, opts ...HeaderOption) (*http.Response, *OutputStruct, error) {
	return DoJSON[OutputStruct](ctx, client, http.MethodPost, url, body, opts...)
}
