package graph

import (
	"context"
	"time"

	"github.com/leofalp/radar/providers/observability"
)

const (
	// Start is the sentinel source of the entry edge: AddEdge(Start, "first").
	Start = "__start__"

	// End is the sentinel target that finishes a run.
	End = "__end__"
)

// NodeStatus is the lifecycle status of a node invocation.
type NodeStatus string

const (
	NodeRunning   NodeStatus = "running"
	NodeCompleted NodeStatus = "completed"
	NodeFailed    NodeStatus = "failed"
	NodeSpawned   NodeStatus = "spawned"
	NodeDiscarded NodeStatus = "discarded"
)

// NodeFunc is the work of a node. It receives a snapshot of the fields it
// reads and the run configuration, and returns the fragment to merge.
// A nil fragment merges nothing.
type NodeFunc[C any] func(ctx context.Context, state State, config C) (Fragment, error)

// RouterFunc picks what follows its source node, from the state after the
// source's fragment was merged.
type RouterFunc[C any] func(ctx context.Context, state State, config C) (Route, error)

// Route is a router decision: either a single next node or a fan-out.
type Route struct {
	next   string
	spawns []Spawn
	fanout bool
}

// Goto continues the run at node name (or End).
func Goto(name string) Route {
	return Route{next: name}
}

// Fanout runs one branch per spawn concurrently and waits for all of them.
// Zero spawns is a valid, empty fan-out.
func Fanout(spawns ...Spawn) Route {
	return Route{spawns: spawns, fanout: true}
}

// Spawn is one branch of a fan-out: the node to run and the scoped state it runs against.
type Spawn struct {
	Node  string
	State State
}

// node is a registered node. It is immutable once the graph is compiled.
type node[C any] struct {
	name    string
	fn      NodeFunc[C]
	reads   []string
	writes  []string
	scope   *Shape
	timeout time.Duration

	writeSet map[string]bool
	// required lists written overwrite fields that have no default.
	required []string
}

type nodeSpec struct {
	reads    []string
	readsSet bool
	writes   []string
	scope    *Shape
	timeout  time.Duration
}

type router[C any] struct {
	from      string
	fn        RouterFunc[C]
	targets   []string
	routeOnly bool
}

type edgeSpec struct {
	routeOnly bool
}

type graphConfig struct {
	maxConcurrency   int
	executionTimeout time.Duration
	observer         observability.Provider
}

// Graph is a compiled, immutable graph. It is reusable, and concurrent runs
// share nothing but the graph itself.
type Graph[C any] struct {
	shape   *Shape
	entry   string
	nodes   map[string]*node[C]
	edges   map[string]string
	routers map[string]*router[C]
	// joins maps a spawn-capable router source to the node every branch continues to.
	joins  map[string]string
	config graphConfig
}

// Shape returns the overall state shape.
func (g *Graph[C]) Shape() *Shape {
	return g.shape
}

// Entry returns the entry node.
func (g *Graph[C]) Entry() string {
	return g.entry
}
