// Package middleware provides send middlewares for [client.Client]:
//
//   - [NewRetryMiddleware] retries transient provider failures (429, 5xx,
//     network errors) with exponential backoff and jitter.
//   - [NewTimeoutMiddleware] bounds every provider call with a deadline.
//   - [NewLoggingMiddleware] writes slog entries around each call.
//
// Middlewares run outermost-first in the order given to client.WithMiddleware:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(
//	        middleware.NewRetryMiddleware(middleware.RetryConfig{MaxRetries: 3}),
//	        middleware.NewTimeoutMiddleware(60*time.Second),
//	    ),
//	)
//
// With that order each attempt gets its own 60 second budget.
package middleware
