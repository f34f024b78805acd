package graph

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/leofalp/radar/providers/observability"
)

// run is the state of one Run call. Nothing in it outlives the call.
type run[C any] struct {
	graph    *Graph[C]
	id       string
	config   C
	observer observability.Provider
	rootSpan observability.Span
}

// Run executes the graph once from its entry node until END.
//
// input seeds the overall state on top of the shape's defaults; unknown keys
// or mistyped values fail the run before any node executes. config is handed
// unchanged to every node and router. The run id comes from
// [ContextWithRunID] or is a fresh UUID. On success Run returns the final
// overall state. On failure it returns a *RunError naming the failing node
// and no partial state.
func (g *Graph[C]) Run(ctx context.Context, input map[string]any, config C) (State, error) {
	r := &run[C]{
		graph:    g,
		id:       RunID(ctx),
		config:   config,
		observer: g.config.observer,
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.observer == nil {
		r.observer = observability.ObserverFromContext(ctx)
	}

	runStart := time.Now()
	ctx = context.WithValue(ctx, runIDKey{}, r.id)
	ctx = r.observeRunStart(ctx)

	if g.config.executionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.executionTimeout)
		defer cancel()
	}

	state, err := newRunState(g.shape, input)
	if err != nil {
		runErr := &RunError{RunID: r.id, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
		r.observeRunEnd(ctx, runErr, time.Since(runStart))
		return nil, runErr
	}

	if err := r.execute(ctx, state); err != nil {
		r.observeRunEnd(ctx, err, time.Since(runStart))
		return nil, err
	}

	r.observeRunEnd(ctx, nil, time.Since(runStart))
	return state.snapshot(g.shape.Names()), nil
}

// RunID returns the id of the run ctx belongs to, when ctx was handed to a
// node or router by Run.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// ContextWithRunID makes the next Run on ctx use id instead of generating
// one, so callers can correlate their own logs with the run.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

type runIDKey struct{}

// execute walks the graph: sequential nodes one after another, fan-outs
// behind a full join barrier.
func (r *run[C]) execute(ctx context.Context, state *runState) error {
	g := r.graph
	current := g.entry

	for current != End {
		if err := ctx.Err(); err != nil {
			return &RunError{RunID: r.id, Node: current, Err: err}
		}

		n := g.nodes[current]
		fragment, err := r.invoke(ctx, n, state.snapshot(n.reads), -1)
		if err != nil {
			return &RunError{RunID: r.id, Node: current, Err: err}
		}
		if err := state.merge(n.name, fragment, n.writeSet, n.required); err != nil {
			return &RunError{RunID: r.id, Node: current, Err: err}
		}

		if next, ok := g.edges[current]; ok {
			current = next
			continue
		}

		rt := g.routers[current]
		route, err := rt.fn(ctx, state.snapshot(g.shape.Names()), r.config)
		if err != nil {
			return &RunError{RunID: r.id, Node: current, Router: true, Err: err}
		}

		if !route.fanout {
			if !slices.Contains(rt.targets, route.next) {
				return &RunError{RunID: r.id, Node: current, Router: true,
					Err: fmt.Errorf("%w: %q is not a declared target", ErrInvalidRoute, route.next)}
			}
			r.observeRoute(ctx, current, route.next)
			current = route.next
			continue
		}

		scopes, err := r.prepareSpawns(rt, route.spawns)
		if err != nil {
			return &RunError{RunID: r.id, Node: current, Router: true, Err: err}
		}
		if err := r.fanout(ctx, state, current, route.spawns, scopes); err != nil {
			return err
		}
		current = g.joins[current]
	}
	return nil
}

// prepareSpawns checks every spawn request and builds its scoped state
// (scope defaults plus the requested values).
func (r *run[C]) prepareSpawns(rt *router[C], spawns []Spawn) ([]State, error) {
	if rt.routeOnly {
		return nil, fmt.Errorf("%w: router is route-only but returned a fan-out", ErrInvalidRoute)
	}
	if _, ok := r.graph.joins[rt.from]; !ok {
		return nil, fmt.Errorf("%w: router has no spawnable targets", ErrInvalidRoute)
	}

	scopes := make([]State, len(spawns))
	for i, spawn := range spawns {
		if spawn.Node == End || !slices.Contains(rt.targets, spawn.Node) {
			return nil, fmt.Errorf("%w: spawn %d targets %q, which is not a spawnable target", ErrInvalidRoute, i, spawn.Node)
		}
		shape := r.graph.nodes[spawn.Node].scope
		if shape == nil {
			shape = r.graph.shape
		}
		scoped, err := shape.seed(spawn.State)
		if err != nil {
			return nil, fmt.Errorf("%w: spawn %d for %q: %w", ErrInvalidRoute, i, spawn.Node, err)
		}
		scopes[i] = scoped
	}
	return scopes, nil
}

// fanout runs one branch per spawn and returns once all started branches
// have finished. The first failure is latched: branches not yet started are
// skipped, and results of branches still in flight are discarded.
func (r *run[C]) fanout(ctx context.Context, state *runState, from string, spawns []Spawn, scopes []State) error {
	r.observeFanoutStart(ctx, from, len(spawns))

	var group errgroup.Group
	if r.graph.config.maxConcurrency > 0 {
		group.SetLimit(r.graph.config.maxConcurrency)
	}

	var mu sync.Mutex
	var failure *RunError
	latched := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return failure != nil
	}

	for i, spawn := range spawns {
		if latched() {
			break
		}
		group.Go(func() error {
			n := r.graph.nodes[spawn.Node]
			if latched() {
				r.observeBranchDiscarded(ctx, n.name, i)
				return nil
			}

			fragment, err := r.invoke(ctx, n, project(scopes[i], n.reads), i)

			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				r.observeBranchDiscarded(ctx, n.name, i)
				return nil
			}
			if err == nil {
				err = state.merge(n.name, fragment, n.writeSet, n.required)
			}
			if err != nil {
				failure = &RunError{RunID: r.id, Node: n.name, Err: err}
				return failure
			}
			return nil
		})
	}

	_ = group.Wait()
	if failure != nil {
		return failure
	}
	r.observeJoin(ctx, from, len(spawns))
	return nil
}

// invoke calls a node function under its span and timeout. branch is the
// fan-out index, or -1 for a sequential step.
func (r *run[C]) invoke(ctx context.Context, n *node[C], snapshot State, branch int) (Fragment, error) {
	ctx, span := r.observeNodeStart(ctx, n.name, branch)

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()
	fragment, err := n.fn(ctx, snapshot, r.config)
	duration := time.Since(start)

	if err != nil {
		r.observeNodeFailed(ctx, span, n.name, branch, err, duration)
		return nil, err
	}
	r.observeNodeCompleted(ctx, span, n.name, branch, len(fragment), duration)
	return fragment, nil
}
