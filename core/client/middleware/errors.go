package middleware

import "errors"

// ErrRetryExhausted is returned by the retry middleware when every attempt
// failed with a retryable error. It is joined with the last provider error so
// both can be matched with errors.Is and errors.As.
var ErrRetryExhausted = errors.New("all retry attempts exhausted")
