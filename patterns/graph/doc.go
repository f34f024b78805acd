// Package graph is a small state-graph execution engine.
//
// A graph is a set of named nodes over a typed state. Each node receives a
// snapshot of the fields it reads plus an immutable run configuration, and
// returns a fragment: the fields it wants to change. The engine merges
// fragments field by field according to the [Shape]: [PolicyOverwrite]
// replaces a value, [PolicyAppend] concatenates slices. Nodes never touch the
// shared state directly.
//
// Transitions are either unconditional edges or a router attached to a node.
// A router returns [Goto] for a single next node, or [Fanout] with one
// [Spawn] per branch. Fanned-out branches run concurrently (optionally capped
// with [WithMaxConcurrency]) against their own scoped state, merge their
// fragments as they finish, and all continue to the same join node once
// every branch is done. A failure in any node or branch ends the run with a
// [*RunError]; results of branches still in flight are discarded.
//
// [Builder.Compile] validates the structure up front: dangling targets,
// missing or ambiguous entry, nodes with both an edge and a router, cycles,
// unreachable nodes, unknown fields, writes to read-only fields, and fan-out
// targets that could race on an overwrite field are all reported in one
// [*CompileError] before anything runs.
//
// Example:
//
//	shape := graph.MustShape(
//	    graph.Field{Name: "input", ReadOnly: true, Default: ""},
//	    graph.Field{Name: "context"},
//	    graph.Field{Name: "results", Policy: graph.PolicyAppend, Default: []string{}},
//	)
//	g, err := graph.NewBuilder[Config](shape).
//	    AddNode("load", load, graph.WithWrites("context")).
//	    AddNode("work", work, graph.WithScope(branchShape), graph.WithWrites("results")).
//	    SetEntry("load").
//	    AddConditionalEdge("load", split, []string{"work"}).
//	    AddEdge("work", graph.End).
//	    Compile()
//	final, err := g.Run(ctx, map[string]any{"input": "AI"}, cfg)
package graph
