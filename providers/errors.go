// Package providers holds what the external-service adapters (anthropic,
// reddit, slack) share: a common error type that names the adapter and the
// operation that failed.
package providers

import "fmt"

// AdapterError reports a failed call to an external collaborator.
type AdapterError struct {
	Adapter string // "anthropic", "reddit", "slack"
	Op      string // operation, e.g. "fetch_top", "messages", "post"
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Adapter, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// Wrap returns err as an *AdapterError, or nil when err is nil.
func Wrap(adapter, op string, err error) error {
	if err == nil {
		return nil
	}
	return &AdapterError{Adapter: adapter, Op: op, Err: err}
}
