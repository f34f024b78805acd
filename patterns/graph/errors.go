package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCompile matches every *CompileError.
	ErrCompile = errors.New("graph compile error")

	// ErrMerge matches every *MergeError.
	ErrMerge = errors.New("state merge error")

	// ErrInvalidRoute is returned when a router picks a target it did not
	// declare, or spawns onto a node that cannot be spawned.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrInvalidInput is returned by Run for input keys or values the shape rejects.
	ErrInvalidInput = errors.New("invalid run input")
)

// CompileError collects every structural problem found by Compile.
type CompileError struct {
	Problems []error
}

func (e *CompileError) Error() string {
	messages := make([]string, len(e.Problems))
	for i, problem := range e.Problems {
		messages[i] = problem.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCompile, strings.Join(messages, "; "))
}

func (e *CompileError) Unwrap() []error {
	return append([]error{ErrCompile}, e.Problems...)
}

// MergeError reports a fragment that could not be applied to the run state.
type MergeError struct {
	Node   string
	Field  string
	Reason string
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%s: node %q field %q: %s", ErrMerge, e.Node, e.Field, e.Reason)
}

func (e *MergeError) Unwrap() error {
	return ErrMerge
}

// RunError is the terminal error of a failed run. Node names the node whose
// function or router failed; Router is true when the router failed.
type RunError struct {
	RunID  string
	Node   string
	Router bool
	Err    error
}

func (e *RunError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("run %s: %v", e.RunID, e.Err)
	}
	where := "node"
	if e.Router {
		where = "router of"
	}
	return fmt.Sprintf("run %s: %s %q: %v", e.RunID, where, e.Node, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
