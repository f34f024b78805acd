package client

import (
	"context"

	"github.com/leofalp/radar/core/overview"
	"github.com/leofalp/radar/providers/ai"
)

// SendFunc sends a chat request to the provider and returns the completed
// response. It is the unit threaded through the middleware chain.
type SendFunc func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error)

// Middleware wraps the next SendFunc in the chain. The first middleware given
// to WithMiddleware is the outermost wrapper.
type Middleware func(next SendFunc) SendFunc

// buildSendChain wraps the direct provider call with middlewares, applied in
// reverse so that middlewares[0] runs first.
func buildSendChain(provider ai.Provider, middlewares []Middleware) SendFunc {
	var chain SendFunc = func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		return provider.SendMessage(ctx, request)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i](chain)
	}
	return chain
}

// recordUsage accounts the final outcome of every call into the Overview
// carried by ctx, if any.
func recordUsage(next SendFunc) SendFunc {
	return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
		response, err := next(ctx, request)
		if tracker := overview.FromContext(ctx); tracker != nil {
			tracker.Record(response, err)
		}
		return response, err
	}
}
