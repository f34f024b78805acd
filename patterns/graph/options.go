package graph

import (
	"time"

	"github.com/leofalp/radar/providers/observability"
)

// Option configures graph-wide behavior.
type Option func(*graphConfig)

// NodeOption configures a single node.
type NodeOption func(*nodeSpec)

// EdgeOption configures a conditional edge.
type EdgeOption func(*edgeSpec)

// WithMaxConcurrency caps how many fan-out branches run at once.
// Zero or less (the default) means one goroutine per branch.
func WithMaxConcurrency(maxConcurrency int) Option {
	return func(config *graphConfig) {
		config.maxConcurrency = maxConcurrency
	}
}

// WithExecutionTimeout bounds a whole run. Zero means no bound.
func WithExecutionTimeout(timeout time.Duration) Option {
	return func(config *graphConfig) {
		config.executionTimeout = timeout
	}
}

// WithObserver sets the observability provider for runs. When unset, the
// observer attached to the run's context (if any) is used.
func WithObserver(observer observability.Provider) Option {
	return func(config *graphConfig) {
		config.observer = observer
	}
}

// WithReads restricts the snapshot a node receives to fields. By default a
// node reads every field of its state shape.
func WithReads(fields ...string) NodeOption {
	return func(spec *nodeSpec) {
		spec.reads = append(spec.reads, fields...)
		spec.readsSet = true
	}
}

// WithWrites declares the overall-state fields a node may return in its fragment.
func WithWrites(fields ...string) NodeOption {
	return func(spec *nodeSpec) {
		spec.writes = append(spec.writes, fields...)
	}
}

// WithScope makes a node run against a scoped state of the given shape
// instead of the overall state. Spawned branches are validated against it;
// when reached through a plain edge, the node sees the overall fields of the
// same names.
func WithScope(scope *Shape) NodeOption {
	return func(spec *nodeSpec) {
		spec.scope = scope
	}
}

// WithNodeTimeout bounds each invocation of the node. Zero means no bound.
func WithNodeTimeout(timeout time.Duration) NodeOption {
	return func(spec *nodeSpec) {
		spec.timeout = timeout
	}
}

// WithRouteOnly declares that the router only ever picks a single next node.
// Its targets are then exempt from the fan-out restrictions, and a Fanout
// from it fails the run.
func WithRouteOnly() EdgeOption {
	return func(spec *edgeSpec) {
		spec.routeOnly = true
	}
}
