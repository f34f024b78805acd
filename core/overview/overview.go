package overview

import (
	"context"
	"sync"

	"github.com/leofalp/radar/core/cost"
	"github.com/leofalp/radar/providers/ai"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// overviewContextKey is the key used to store Overview in context.
const overviewContextKey contextKey = "overview"

// Overview aggregates the requests and token usage of a single execution.
// It is safe for concurrent use.
type Overview struct {
	mu        sync.Mutex
	requests  int
	failures  int
	usage     ai.Usage
	toolCalls map[string]int
	modelCost *cost.ModelCost
}

// Snapshot is a point-in-time copy of an Overview.
type Snapshot struct {
	Requests   int            `json:"requests"`
	Failures   int            `json:"failures,omitempty"`
	TotalUsage ai.Usage       `json:"total_usage"`
	ToolCalls  map[string]int `json:"tool_calls,omitempty"`
	Cost       *cost.Summary  `json:"cost,omitempty"`
}

// New returns an empty Overview. modelCost may be nil when pricing is unknown.
func New(modelCost *cost.ModelCost) *Overview {
	return &Overview{
		toolCalls: make(map[string]int),
		modelCost: modelCost,
	}
}

// FromContext returns the Overview stored in ctx, or nil.
func FromContext(ctx context.Context) *Overview {
	if ctx == nil {
		return nil
	}
	overview, _ := ctx.Value(overviewContextKey).(*Overview)
	return overview
}

// ToContext stores the Overview in the given context and returns the enriched context.
func (overview *Overview) ToContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, overviewContextKey, overview)
}

// Record accounts one provider call. A nil response with a non-nil err counts
// as a failure.
func (overview *Overview) Record(response *ai.ChatResponse, err error) {
	overview.mu.Lock()
	defer overview.mu.Unlock()

	overview.requests++
	if err != nil || response == nil {
		overview.failures++
		return
	}
	if usage := response.Usage; usage != nil {
		overview.usage.PromptTokens += usage.PromptTokens
		overview.usage.CompletionTokens += usage.CompletionTokens
		overview.usage.TotalTokens += usage.TotalTokens
	}
	for _, call := range response.ToolCalls {
		overview.toolCalls[call.Function.Name]++
	}
}

// Snapshot returns the current totals.
func (overview *Overview) Snapshot() Snapshot {
	overview.mu.Lock()
	defer overview.mu.Unlock()

	snapshot := Snapshot{
		Requests:   overview.requests,
		Failures:   overview.failures,
		TotalUsage: overview.usage,
	}
	if len(overview.toolCalls) > 0 {
		snapshot.ToolCalls = make(map[string]int, len(overview.toolCalls))
		for name, count := range overview.toolCalls {
			snapshot.ToolCalls[name] = count
		}
	}
	if overview.modelCost != nil {
		summary := overview.modelCost.Summarize(overview.usage.PromptTokens, overview.usage.CompletionTokens)
		snapshot.Cost = &summary
	}
	return snapshot
}
