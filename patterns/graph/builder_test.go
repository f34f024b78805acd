package graph

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type testConfig struct {
	Prefix string
}

func noop(_ context.Context, _ State, _ testConfig) (Fragment, error) {
	return nil, nil
}

func goTo(target string) RouterFunc[testConfig] {
	return func(_ context.Context, _ State, _ testConfig) (Route, error) {
		return Goto(target), nil
	}
}

// requireCompileError fails unless err is a *CompileError with a problem containing fragment.
func requireCompileError(testingHelper *testing.T, err error, fragment string) {
	testingHelper.Helper()
	var compileErr *CompileError
	if !errors.As(err, &compileErr) || !errors.Is(err, ErrCompile) {
		testingHelper.Fatalf("expected CompileError, got %v", err)
	}
	for _, problem := range compileErr.Problems {
		if strings.Contains(problem.Error(), fragment) {
			return
		}
	}
	testingHelper.Fatalf("no problem mentions %q: %v", fragment, err)
}

func TestCompile_Minimal(testCase *testing.T) {
	g, err := NewBuilder[testConfig](testShape()).
		AddNode("only", noop).
		SetEntry("only").
		AddEdge("only", End).
		Compile()
	if err != nil {
		testCase.Fatalf("Compile: %v", err)
	}
	if g.Entry() != "only" {
		testCase.Errorf("entry = %q", g.Entry())
	}
}

func TestCompile_GhostEdgeNeverRuns(testCase *testing.T) {
	var calls atomic.Int32
	counting := func(_ context.Context, _ State, _ testConfig) (Fragment, error) {
		calls.Add(1)
		return nil, nil
	}

	g, err := NewBuilder[testConfig](testShape()).
		AddNode("A", counting).
		SetEntry("A").
		AddEdge("A", "ghost").
		Compile()

	requireCompileError(testCase, err, `"ghost"`)
	if g != nil {
		testCase.Error("failed compile must not return a graph")
	}
	if calls.Load() != 0 {
		testCase.Error("no node may run when compilation fails")
	}
}

func TestCompile_OverwriteWriterInFanout(testCase *testing.T) {
	_, err := NewBuilder[testConfig](testShape()).
		AddNode("load", noop).
		AddNode("w1", noop, WithWrites("context")).
		AddNode("w2", noop, WithWrites("context")).
		AddNode("join", noop).
		SetEntry("load").
		AddConditionalEdge("load", goTo("w1"), []string{"w1", "w2"}).
		AddEdge("w1", "join").
		AddEdge("w2", "join").
		AddEdge("join", End).
		Compile()

	requireCompileError(testCase, err, `writes overwrite field "context"`)
}

func TestCompile_RouteOnlyTargetsMayOverwrite(testCase *testing.T) {
	_, err := NewBuilder[testConfig](testShape()).
		AddNode("load", noop).
		AddNode("w1", noop, WithWrites("context")).
		AddNode("w2", noop, WithWrites("context")).
		SetEntry("load").
		AddConditionalEdge("load", goTo("w1"), []string{"w1", "w2"}, WithRouteOnly()).
		AddEdge("w1", End).
		AddEdge("w2", End).
		Compile()
	if err != nil {
		testCase.Fatalf("route-only targets should compile: %v", err)
	}
}

func TestCompile_Problems(testCase *testing.T) {
	tests := []struct {
		name     string
		build    func(*Builder[testConfig]) *Builder[testConfig]
		fragment string
	}{
		{
			name: "no entry",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).AddEdge("a", End)
			},
			fragment: "no entry point",
		},
		{
			name: "multiple entries",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).AddNode("b", noop).
					SetEntry("a").AddEdge(Start, "b").
					AddEdge("a", End).AddEdge("b", End)
			},
			fragment: "multiple entry points",
		},
		{
			name: "edge and router on one node",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).SetEntry("a").
					AddEdge("a", End).AddConditionalEdge("a", goTo(End), []string{End})
			},
			fragment: "both an unconditional edge and a router",
		},
		{
			name: "two routers",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).SetEntry("a").
					AddConditionalEdge("a", goTo(End), []string{End}).
					AddConditionalEdge("a", goTo(End), []string{End})
			},
			fragment: "more than one router",
		},
		{
			name: "two unconditional edges",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).AddNode("b", noop).SetEntry("a").
					AddEdge("a", "b").AddEdge("a", End).AddEdge("b", End)
			},
			fragment: "more than one outgoing edge",
		},
		{
			name: "dead end",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).SetEntry("a")
			},
			fragment: "no outgoing transition",
		},
		{
			name: "router targets undeclared node",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).SetEntry("a").
					AddConditionalEdge("a", goTo("ghost"), []string{"ghost"})
			},
			fragment: `undeclared node "ghost"`,
		},
		{
			name: "read-only write",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop, WithWrites("input")).SetEntry("a").AddEdge("a", End)
			},
			fragment: `read-only field "input"`,
		},
		{
			name: "unknown read",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop, WithReads("topic")).SetEntry("a").AddEdge("a", End)
			},
			fragment: `reads unknown field "topic"`,
		},
		{
			name: "unreachable",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).AddNode("orphan", noop).SetEntry("a").
					AddEdge("a", End).AddEdge("orphan", End)
			},
			fragment: "unreachable",
		},
		{
			name: "cycle through router",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).AddNode("b", noop).SetEntry("a").
					AddEdge("a", "b").
					AddConditionalEdge("b", goTo(End), []string{"a", End}, WithRouteOnly())
			},
			fragment: "cycle detected",
		},
		{
			name: "self loop",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).SetEntry("a").AddEdge("a", "a")
			},
			fragment: "self-loop",
		},
		{
			name: "reserved name",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode(End, noop)
			},
			fragment: "reserved",
		},
		{
			name: "duplicate node",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("a", noop).AddNode("a", noop).SetEntry("a").AddEdge("a", End)
			},
			fragment: `duplicate node "a"`,
		},
		{
			name: "fan-out targets with different successors",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("load", noop).AddNode("x", noop).AddNode("y", noop).AddNode("j", noop).
					SetEntry("load").
					AddConditionalEdge("load", goTo("x"), []string{"x", "y"}).
					AddEdge("x", "j").AddEdge("y", End).AddEdge("j", End)
			},
			fragment: "continue to different nodes",
		},
		{
			name: "fan-out target with its own router",
			build: func(b *Builder[testConfig]) *Builder[testConfig] {
				return b.AddNode("load", noop).AddNode("x", noop).
					SetEntry("load").
					AddConditionalEdge("load", goTo("x"), []string{"x"}).
					AddConditionalEdge("x", goTo(End), []string{End})
			},
			fragment: "has its own router",
		},
	}

	for _, tt := range tests {
		testCase.Run(tt.name, func(testCase *testing.T) {
			_, err := tt.build(NewBuilder[testConfig](testShape())).Compile()
			requireCompileError(testCase, err, tt.fragment)
		})
	}
}

func TestCompile_ReportsAllProblems(testCase *testing.T) {
	_, err := NewBuilder[testConfig](testShape()).
		AddNode("a", noop, WithWrites("input")).
		AddEdge("a", "ghost").
		Compile()

	var compileErr *CompileError
	if !errors.As(err, &compileErr) {
		testCase.Fatalf("expected CompileError, got %v", err)
	}
	if len(compileErr.Problems) < 3 {
		testCase.Errorf("expected entry, ghost and read-only problems, got %v", compileErr.Problems)
	}
}

func TestCompile_NilShape(testCase *testing.T) {
	_, err := NewBuilder[testConfig](nil).Compile()
	requireCompileError(testCase, err, "shape is nil")
}
