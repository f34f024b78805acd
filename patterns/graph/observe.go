package graph

import (
	"context"
	"time"

	"github.com/leofalp/radar/providers/observability"
)

const attrGraphNodeStatus = "graph.node.status"

// logAttrs prefixes attrs with the run id so every engine log line can be
// correlated to its run.
func (r *run[C]) logAttrs(attrs ...observability.Attribute) []observability.Attribute {
	return append([]observability.Attribute{observability.String(observability.AttrRunID, r.id)}, attrs...)
}

// observeRunStart opens the root span and attaches observer and span to ctx
// so adapters called from nodes report under it.
func (r *run[C]) observeRunStart(ctx context.Context) context.Context {
	if r.observer == nil {
		return ctx
	}

	ctx, r.rootSpan = r.observer.StartSpan(ctx, observability.SpanGraphRun,
		observability.String(observability.AttrRunID, r.id),
		observability.String(observability.AttrGraphNode, r.graph.entry),
	)
	ctx = observability.ContextWithSpan(ctx, r.rootSpan)
	ctx = observability.ContextWithObserver(ctx, r.observer)

	r.observer.Info(ctx, "graph run started", r.logAttrs(
		observability.Int("graph.total_nodes", len(r.graph.nodes)),
		observability.Int("graph.max_concurrency", r.graph.config.maxConcurrency),
	)...)
	return ctx
}

func (r *run[C]) observeRunEnd(ctx context.Context, err error, duration time.Duration) {
	if r.observer == nil {
		return
	}

	status := "completed"
	if err != nil {
		status = "failed"
	}
	r.observer.Counter(observability.MetricGraphRunCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, status),
	)

	if err != nil {
		r.observer.Error(ctx, "graph run failed", r.logAttrs(
			observability.Error(err),
			observability.Duration(observability.AttrDuration, duration),
		)...)
		r.rootSpan.RecordError(err)
		r.rootSpan.SetStatus(observability.StatusError, "graph run failed")
	} else {
		r.observer.Info(ctx, "graph run completed", r.logAttrs(
			observability.Duration(observability.AttrDuration, duration),
		)...)
		r.rootSpan.SetStatus(observability.StatusOK, "graph run completed")
	}
	r.rootSpan.End()
}

// observeNodeStart opens the span of one node invocation: graph.node.execute
// for a sequential step, graph.branch.execute for a fan-out branch.
func (r *run[C]) observeNodeStart(ctx context.Context, name string, branch int) (context.Context, observability.Span) {
	if r.observer == nil {
		return ctx, nil
	}

	spanName := observability.SpanGraphNode
	attrs := []observability.Attribute{observability.String(observability.AttrGraphNode, name)}
	if branch >= 0 {
		spanName = observability.SpanGraphBranch
		attrs = append(attrs, observability.Int(observability.AttrGraphBranchIndex, branch))
	}

	ctx, span := r.observer.StartSpan(ctx, spanName, attrs...)
	ctx = observability.ContextWithSpan(ctx, span)
	r.observer.Debug(ctx, "node started",
		r.logAttrs(append(attrs, observability.String(attrGraphNodeStatus, string(NodeRunning)))...)...)
	return ctx, span
}

func (r *run[C]) observeNodeCompleted(ctx context.Context, span observability.Span, name string, branch int, fragmentSize int, duration time.Duration) {
	if r.observer == nil {
		return
	}

	r.observer.Histogram(observability.MetricGraphNodeDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrGraphNode, name),
		observability.String(attrGraphNodeStatus, string(NodeCompleted)),
	)
	r.observer.Info(ctx, "node completed", r.logAttrs(
		observability.String(observability.AttrGraphNode, name),
		observability.Int(observability.AttrGraphBranchIndex, branch),
		observability.Int("graph.fragment.fields", fragmentSize),
		observability.Duration(observability.AttrDuration, duration),
	)...)

	span.SetAttributes(
		observability.String(attrGraphNodeStatus, string(NodeCompleted)),
		observability.Duration(observability.AttrDuration, duration),
	)
	span.SetStatus(observability.StatusOK, "node completed")
	span.End()
}

func (r *run[C]) observeNodeFailed(ctx context.Context, span observability.Span, name string, branch int, err error, duration time.Duration) {
	if r.observer == nil {
		return
	}

	r.observer.Histogram(observability.MetricGraphNodeDuration).Record(ctx, duration.Seconds(),
		observability.String(observability.AttrGraphNode, name),
		observability.String(attrGraphNodeStatus, string(NodeFailed)),
	)
	r.observer.Error(ctx, "node failed", r.logAttrs(
		observability.String(observability.AttrGraphNode, name),
		observability.Int(observability.AttrGraphBranchIndex, branch),
		observability.Error(err),
		observability.Duration(observability.AttrDuration, duration),
	)...)

	span.RecordError(err)
	span.SetAttributes(observability.String(attrGraphNodeStatus, string(NodeFailed)))
	span.SetStatus(observability.StatusError, "node failed")
	span.End()
}

func (r *run[C]) observeRoute(ctx context.Context, from, to string) {
	if r.observer == nil {
		return
	}
	r.observer.Debug(ctx, "router picked next node", r.logAttrs(
		observability.String(observability.AttrGraphRouter, from),
		observability.String(observability.AttrGraphNode, to),
	)...)
}

func (r *run[C]) observeFanoutStart(ctx context.Context, from string, branches int) {
	if r.observer == nil {
		return
	}
	r.observer.Counter(observability.MetricGraphBranchCount).Add(ctx, int64(branches),
		observability.String(observability.AttrGraphRouter, from),
	)
	r.observer.Info(ctx, "fan-out started", r.logAttrs(
		observability.String(observability.AttrGraphRouter, from),
		observability.String(attrGraphNodeStatus, string(NodeSpawned)),
		observability.Int(observability.AttrGraphBranchCount, branches),
	)...)
}

func (r *run[C]) observeBranchDiscarded(ctx context.Context, name string, branch int) {
	if r.observer == nil {
		return
	}
	r.observer.Warn(ctx, "branch discarded after run failure", r.logAttrs(
		observability.String(observability.AttrGraphNode, name),
		observability.String(attrGraphNodeStatus, string(NodeDiscarded)),
		observability.Int(observability.AttrGraphBranchIndex, branch),
	)...)
}

func (r *run[C]) observeJoin(ctx context.Context, from string, branches int) {
	if r.observer == nil {
		return
	}
	r.observer.Info(ctx, "join completed", r.logAttrs(
		observability.String(observability.AttrGraphRouter, from),
		observability.Int(observability.AttrGraphBranchCount, branches),
	)...)
}
