package radar

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/leofalp/radar/core/cost"
	"github.com/leofalp/radar/core/overview"
	"github.com/leofalp/radar/patterns/graph"
)

// Stages named by a failed run.
const (
	StageFetch         = "fetch"
	StageTopics        = "topic-generation"
	StageTakes         = "per-topic generation"
	StageFormatting    = "formatting"
	StageDelivery      = "delivery"
	StageConfiguration = "configuration"
	StageRun           = "run"
)

// StageError is the single error of a failed run. Stage tells which step failed.
type StageError struct {
	Stage string
	RunID string
	Err   error
}

func (e *StageError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("radar: %s failed: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("radar: run %s: %s failed: %v", e.RunID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Radar runs the compiled workflow. It is safe for concurrent runs.
type Radar struct {
	graph   *graph.Graph[Config]
	pricing *cost.ModelCost
}

// New validates deps and compiles the workflow graph. opts configure the
// engine, e.g. graph.WithMaxConcurrency to cap parallel topic branches.
func New(deps Dependencies, opts ...graph.Option) (*Radar, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	g, err := buildGraph(deps, opts...)
	if err != nil {
		return nil, err
	}
	return &Radar{graph: g, pricing: deps.Pricing}, nil
}

// Run executes one invocation. It returns every take produced across all
// topics together with the LLM usage of the run, or a *StageError naming the
// first step that failed.
func (r *Radar) Run(ctx context.Context, input Input, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, &StageError{Stage: StageConfiguration, Err: err}
	}

	runID := graph.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = graph.ContextWithRunID(ctx, runID)
	}

	usage := overview.New(r.pricing)
	ctx = usage.ToContext(ctx)

	initial := map[string]any{}
	if input.UserProvidedTopics != "" {
		initial[fieldUserTopics] = input.UserProvidedTopics
	}

	final, err := r.graph.Run(ctx, initial, config)
	if err != nil {
		return nil, &StageError{Stage: stageOf(err), RunID: runID, Err: err}
	}

	takes, _ := graph.Get[[]Take](final, fieldTakes)
	return &Result{RunID: runID, Takes: takes, Usage: usage.Snapshot()}, nil
}

func stageOf(err error) string {
	var runErr *graph.RunError
	if !errors.As(err, &runErr) {
		return StageRun
	}
	switch {
	case runErr.Node == NodeLoadContext && runErr.Router:
		return StageTopics
	case runErr.Node == NodeLoadContext:
		return StageFetch
	case runErr.Node == NodeGenerateTakes && errors.Is(runErr, ErrFormatting):
		return StageFormatting
	case runErr.Node == NodeGenerateTakes:
		return StageTakes
	case runErr.Node == NodeWriteToSlack:
		return StageDelivery
	default:
		return StageRun
	}
}
