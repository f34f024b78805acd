package graph

import (
	"errors"
	"fmt"
	"sort"
)

// Builder assembles a Graph with a fluent API. Problems found while adding
// nodes and edges are collected and reported together by Compile.
//
// Example:
//
//	g, err := graph.NewBuilder[Config](shape, graph.WithMaxConcurrency(4)).
//	    AddNode("fetch", fetch, graph.WithWrites("context")).
//	    AddNode("summarize", summarize, graph.WithScope(branchShape), graph.WithWrites("results")).
//	    AddEdge(graph.Start, "fetch").
//	    AddConditionalEdge("fetch", splitTopics, []string{"summarize"}).
//	    AddEdge("summarize", graph.End).
//	    Compile()
type Builder[C any] struct {
	shape     *Shape
	config    graphConfig
	nodes     map[string]*node[C]
	nodeOrder []string
	edges     map[string]string
	routers   map[string]*router[C]
	entries   []string
	problems  []error
}

// NewBuilder starts a graph over the overall state shape.
func NewBuilder[C any](shape *Shape, opts ...Option) *Builder[C] {
	builder := &Builder[C]{
		shape:   shape,
		nodes:   make(map[string]*node[C]),
		edges:   make(map[string]string),
		routers: make(map[string]*router[C]),
	}
	for _, opt := range opts {
		opt(&builder.config)
	}
	return builder
}

// AddNode registers fn under name.
func (builder *Builder[C]) AddNode(name string, fn NodeFunc[C], opts ...NodeOption) *Builder[C] {
	switch {
	case name == "":
		builder.problems = append(builder.problems, errors.New("node name must not be empty"))
		return builder
	case name == Start || name == End:
		builder.problems = append(builder.problems, fmt.Errorf("node name %q is reserved", name))
		return builder
	case fn == nil:
		builder.problems = append(builder.problems, fmt.Errorf("node %q has a nil function", name))
		return builder
	}
	if _, exists := builder.nodes[name]; exists {
		builder.problems = append(builder.problems, fmt.Errorf("duplicate node %q", name))
		return builder
	}

	var spec nodeSpec
	for _, opt := range opts {
		opt(&spec)
	}
	builder.nodes[name] = &node[C]{
		name:    name,
		fn:      fn,
		reads:   spec.reads,
		writes:  spec.writes,
		scope:   spec.scope,
		timeout: spec.timeout,
	}
	if spec.readsSet && spec.reads == nil {
		// WithReads() with no fields: the node reads nothing.
		builder.nodes[name].reads = []string{}
	}
	builder.nodeOrder = append(builder.nodeOrder, name)
	return builder
}

// AddEdge adds an unconditional transition. AddEdge(Start, name) declares
// the entry node; to may be End.
func (builder *Builder[C]) AddEdge(from, to string) *Builder[C] {
	switch {
	case from == "" || to == "":
		builder.problems = append(builder.problems, fmt.Errorf("edge endpoints must not be empty (from=%q, to=%q)", from, to))
		return builder
	case from == Start:
		builder.entries = append(builder.entries, to)
		return builder
	case from == End:
		builder.problems = append(builder.problems, errors.New("edge cannot leave END"))
		return builder
	case to == Start:
		builder.problems = append(builder.problems, fmt.Errorf("edge from %q cannot target START", from))
		return builder
	case from == to:
		builder.problems = append(builder.problems, fmt.Errorf("self-loop on node %q", from))
		return builder
	}
	if existing, exists := builder.edges[from]; exists {
		builder.problems = append(builder.problems, fmt.Errorf("node %q has more than one outgoing edge (%q, %q)", from, existing, to))
		return builder
	}
	builder.edges[from] = to
	return builder
}

// AddConditionalEdge attaches a router to from. targets lists every node
// (or End) the router may go to or spawn.
func (builder *Builder[C]) AddConditionalEdge(from string, fn RouterFunc[C], targets []string, opts ...EdgeOption) *Builder[C] {
	switch {
	case from == "" || from == Start || from == End:
		builder.problems = append(builder.problems, fmt.Errorf("router source %q must be a node", from))
		return builder
	case fn == nil:
		builder.problems = append(builder.problems, fmt.Errorf("router of %q is nil", from))
		return builder
	case len(targets) == 0:
		builder.problems = append(builder.problems, fmt.Errorf("router of %q declares no targets", from))
		return builder
	}
	if _, exists := builder.routers[from]; exists {
		builder.problems = append(builder.problems, fmt.Errorf("node %q has more than one router", from))
		return builder
	}

	var spec edgeSpec
	for _, opt := range opts {
		opt(&spec)
	}
	builder.routers[from] = &router[C]{
		from:      from,
		fn:        fn,
		targets:   append([]string(nil), targets...),
		routeOnly: spec.routeOnly,
	}
	return builder
}

// SetEntry declares the entry node; same as AddEdge(Start, name).
func (builder *Builder[C]) SetEntry(name string) *Builder[C] {
	return builder.AddEdge(Start, name)
}

// Compile validates the graph and freezes it. Every problem is reported in
// one *CompileError; no node runs before Compile succeeds.
func (builder *Builder[C]) Compile() (*Graph[C], error) {
	problems := append([]error(nil), builder.problems...)
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	if builder.shape == nil {
		return nil, &CompileError{Problems: append(problems, errors.New("state shape is nil"))}
	}
	if len(builder.nodes) == 0 {
		report("graph has no nodes")
	}

	entry := builder.resolveEntry(report)
	builder.checkTransitions(report)
	nodes := builder.resolveFields(report)
	joins := builder.checkFanouts(nodes, report)
	adjacency := builder.adjacency()
	if cycle := findCycle(adjacency, builder.nodeOrder); len(cycle) > 0 {
		report("cycle detected involving nodes %v", cycle)
	}
	if entry != "" {
		if unreachable := findUnreachable(adjacency, entry, builder.nodeOrder); len(unreachable) > 0 {
			report("nodes unreachable from entry %q: %v", entry, unreachable)
		}
	}

	if len(problems) > 0 {
		return nil, &CompileError{Problems: problems}
	}

	edges := make(map[string]string, len(builder.edges))
	for from, to := range builder.edges {
		edges[from] = to
	}
	routers := make(map[string]*router[C], len(builder.routers))
	for from, r := range builder.routers {
		routers[from] = r
	}
	return &Graph[C]{
		shape:   builder.shape,
		entry:   entry,
		nodes:   nodes,
		edges:   edges,
		routers: routers,
		joins:   joins,
		config:  builder.config,
	}, nil
}

func (builder *Builder[C]) resolveEntry(report func(string, ...any)) string {
	unique := make([]string, 0, len(builder.entries))
	seen := make(map[string]bool)
	for _, name := range builder.entries {
		if !seen[name] {
			seen[name] = true
			unique = append(unique, name)
		}
	}
	switch {
	case len(unique) == 0:
		report("no entry point")
		return ""
	case len(unique) > 1:
		report("multiple entry points %v", unique)
		return ""
	}
	if _, exists := builder.nodes[unique[0]]; !exists {
		report("entry %q is not a declared node", unique[0])
		return ""
	}
	return unique[0]
}

func (builder *Builder[C]) checkTransitions(report func(string, ...any)) {
	for _, from := range sortedKeys(builder.edges) {
		to := builder.edges[from]
		if _, exists := builder.nodes[from]; !exists {
			report("edge source %q is not a declared node", from)
		}
		if _, exists := builder.nodes[to]; !exists && to != End {
			report("edge %q -> %q targets an undeclared node", from, to)
		}
		if _, hasRouter := builder.routers[from]; hasRouter {
			report("node %q has both an unconditional edge and a router", from)
		}
	}
	for _, from := range sortedKeys(builder.routers) {
		if _, exists := builder.nodes[from]; !exists {
			report("router source %q is not a declared node", from)
		}
		for _, target := range builder.routers[from].targets {
			if _, exists := builder.nodes[target]; !exists && target != End {
				report("router of %q targets undeclared node %q", from, target)
			}
		}
	}
	for _, name := range builder.nodeOrder {
		_, hasEdge := builder.edges[name]
		_, hasRouter := builder.routers[name]
		if !hasEdge && !hasRouter {
			report("node %q has no outgoing transition", name)
		}
	}
}

// resolveFields fills reads and writes of every node and checks them
// against the shapes.
func (builder *Builder[C]) resolveFields(report func(string, ...any)) map[string]*node[C] {
	resolved := make(map[string]*node[C], len(builder.nodes))
	for _, name := range builder.nodeOrder {
		original := builder.nodes[name]
		n := *original

		readShape := builder.shape
		if n.scope != nil {
			readShape = n.scope
		}
		if n.reads == nil {
			n.reads = readShape.Names()
		}
		for _, field := range n.reads {
			if _, ok := readShape.Field(field); !ok {
				report("node %q reads unknown field %q", name, field)
			}
		}

		n.writeSet = make(map[string]bool, len(n.writes))
		for _, fieldName := range n.writes {
			field, ok := builder.shape.Field(fieldName)
			if !ok {
				report("node %q writes unknown field %q", name, fieldName)
				continue
			}
			if field.ReadOnly {
				report("node %q writes read-only field %q", name, fieldName)
				continue
			}
			n.writeSet[fieldName] = true
			if field.Policy == PolicyOverwrite && field.Default == nil {
				n.required = append(n.required, fieldName)
			}
		}
		resolved[name] = &n
	}
	return resolved
}

// checkFanouts enforces what makes concurrent branches safe to merge, and
// returns the join node of each spawn-capable router.
func (builder *Builder[C]) checkFanouts(nodes map[string]*node[C], report func(string, ...any)) map[string]string {
	joins := make(map[string]string)
	for _, from := range sortedKeys(builder.routers) {
		r := builder.routers[from]
		if r.routeOnly {
			continue
		}

		successors := make(map[string]bool)
		for _, target := range r.targets {
			n, exists := nodes[target]
			if !exists {
				continue
			}
			for _, fieldName := range n.writes {
				if field, ok := builder.shape.Field(fieldName); ok && field.Policy == PolicyOverwrite {
					report("fan-out target %q of %q writes overwrite field %q", target, from, fieldName)
				}
			}
			if _, hasRouter := builder.routers[target]; hasRouter {
				report("fan-out target %q of %q has its own router", target, from)
			}
			if next, ok := builder.edges[target]; ok {
				successors[next] = true
			}
		}

		switch len(successors) {
		case 0:
		case 1:
			for next := range successors {
				joins[from] = next
			}
		default:
			report("fan-out targets of %q continue to different nodes %v", from, sortedKeys(successors))
		}
	}
	return joins
}

// adjacency returns every static transition between nodes, edges and router
// targets alike. END is left out.
func (builder *Builder[C]) adjacency() map[string][]string {
	adjacency := make(map[string][]string, len(builder.nodes))
	add := func(from, to string) {
		_, fromOK := builder.nodes[from]
		_, toOK := builder.nodes[to]
		if fromOK && toOK {
			adjacency[from] = append(adjacency[from], to)
		}
	}
	for from, to := range builder.edges {
		add(from, to)
	}
	for from, r := range builder.routers {
		for _, target := range r.targets {
			add(from, target)
		}
	}
	return adjacency
}

// findCycle runs Kahn's algorithm and returns the nodes left on a cycle, sorted.
func findCycle(adjacency map[string][]string, nodeOrder []string) []string {
	inDegree := make(map[string]int, len(nodeOrder))
	for _, name := range nodeOrder {
		inDegree[name] = 0
	}
	for _, targets := range adjacency {
		for _, target := range targets {
			inDegree[target]++
		}
	}

	queue := make([]string, 0, len(nodeOrder))
	for _, name := range nodeOrder {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	processed := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		processed++
		for _, next := range adjacency[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}
	if processed == len(nodeOrder) {
		return nil
	}

	cycle := make([]string, 0)
	for name, degree := range inDegree {
		if degree > 0 {
			cycle = append(cycle, name)
		}
	}
	sort.Strings(cycle)
	return cycle
}

func findUnreachable(adjacency map[string][]string, entry string, nodeOrder []string) []string {
	visited := map[string]bool{entry: true}
	stack := []string{entry}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	var unreachable []string
	for _, name := range nodeOrder {
		if !visited[name] {
			unreachable = append(unreachable, name)
		}
	}
	return unreachable
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
