// Package client sits between radar's nodes and a raw [ai.Provider]. It offers
// two call shapes: [Client.Complete] for free-text completions, and
// [Extractor] for structured extraction that validates the model output
// against a schema inferred from a Go type and fails closed with
// [ErrValidation].
//
// Every provider call flows through a send-middleware chain configured with
// [WithMiddleware]; [WithObserver] prepends tracing, metrics and logging.
package client
