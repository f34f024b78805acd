package middleware

import (
	"context"
	"time"

	"github.com/leofalp/radar/core/client"
	"github.com/leofalp/radar/providers/ai"
)

// NewTimeoutMiddleware enforces a per-call deadline. A shorter deadline already
// present on the caller's context wins. A non-positive timeout disables it.
func NewTimeoutMiddleware(timeout time.Duration) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			if timeout <= 0 {
				return next(ctx, request)
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}
