package radar

import (
	"context"
	"errors"
	"time"

	"github.com/leofalp/radar/core/cost"
	"github.com/leofalp/radar/patterns/graph"
	"github.com/leofalp/radar/providers/observability"
)

// Node names.
const (
	NodeLoadContext   = "load_context"
	NodeGenerateTakes = "generate_takes"
	NodeWriteToSlack  = "write_to_slack"
)

// State fields.
const (
	fieldContext    = "context"
	fieldUserTopics = "user_provided_topics"
	fieldTakes      = "takes"
	fieldTopic      = "topic"
)

// overallShape is the state of a whole run.
var overallShape = graph.MustShape(
	graph.Field{Name: fieldContext},
	graph.Field{Name: fieldUserTopics, ReadOnly: true, Default: DefaultUserTopics},
	graph.Field{Name: fieldTakes, Policy: graph.PolicyAppend, Default: []Take{}},
)

// topicShape is the state one generate_takes branch runs against.
var topicShape = graph.MustShape(
	graph.Field{Name: fieldTopic, Default: ""},
	graph.Field{Name: fieldContext, Default: ""},
)

// Dependencies are the collaborators the nodes call out to.
type Dependencies struct {
	Fetcher ContentFetcher
	Topics  TopicGenerator
	Writer  TakeWriter
	// Poster delivers takes; nil turns write_to_slack into a dry run.
	Poster MessagePoster
	// NodeTimeout bounds every node invocation; zero means no bound.
	NodeTimeout time.Duration
	// Pricing prices the run's LLM usage; nil reports tokens only.
	Pricing *cost.ModelCost
}

func (d Dependencies) validate() error {
	var problems []error
	if d.Fetcher == nil {
		problems = append(problems, errors.New("radar: content fetcher is required"))
	}
	if d.Topics == nil {
		problems = append(problems, errors.New("radar: topic generator is required"))
	}
	if d.Writer == nil {
		problems = append(problems, errors.New("radar: take writer is required"))
	}
	return errors.Join(problems...)
}

// buildGraph wires the four steps of a run.
func buildGraph(deps Dependencies, opts ...graph.Option) (*graph.Graph[Config], error) {
	timeout := graph.WithNodeTimeout(deps.NodeTimeout)

	return graph.NewBuilder[Config](overallShape, opts...).
		AddNode(NodeLoadContext, loadContext(deps.Fetcher),
			graph.WithReads(), graph.WithWrites(fieldContext), timeout).
		AddNode(NodeGenerateTakes, generateTakes(deps.Writer),
			graph.WithScope(topicShape), graph.WithWrites(fieldTakes), timeout).
		AddNode(NodeWriteToSlack, writeToSlack(deps.Poster),
			graph.WithReads(fieldTakes), timeout).
		SetEntry(NodeLoadContext).
		AddConditionalEdge(NodeLoadContext, initiateAllTakes(deps.Topics), []string{NodeGenerateTakes}).
		AddEdge(NodeGenerateTakes, NodeWriteToSlack).
		AddEdge(NodeWriteToSlack, graph.End).
		Compile()
}

func loadContext(fetcher ContentFetcher) graph.NodeFunc[Config] {
	return func(ctx context.Context, _ graph.State, config Config) (graph.Fragment, error) {
		blob, err := fetcher.Fetch(ctx, config.Source, config.TimeWindow, config.PostLimit, config.CommentLimit)
		if err != nil {
			return nil, err
		}
		return graph.Fragment{fieldContext: blob}, nil
	}
}

// initiateAllTakes asks for topics and spawns one generate_takes branch per
// topic. Zero topics is an empty fan-out; duplicates each get a branch.
func initiateAllTakes(topics TopicGenerator) graph.RouterFunc[Config] {
	return func(ctx context.Context, state graph.State, config Config) (graph.Route, error) {
		userTopics, _ := graph.Get[string](state, fieldUserTopics)
		blob, _ := graph.Get[string](state, fieldContext)

		generated, err := topics.GenerateTopics(ctx, joinInterests(config.DefaultTopics, userTopics))
		if err != nil {
			return graph.Route{}, err
		}

		spawns := make([]graph.Spawn, len(generated))
		for i, topic := range generated {
			spawns[i] = graph.Spawn{
				Node:  NodeGenerateTakes,
				State: graph.State{fieldTopic: topic, fieldContext: blob},
			}
		}
		return graph.Fanout(spawns...), nil
	}
}

func generateTakes(writer TakeWriter) graph.NodeFunc[Config] {
	return func(ctx context.Context, state graph.State, config Config) (graph.Fragment, error) {
		topic, _ := graph.Get[string](state, fieldTopic)
		blob, _ := graph.Get[string](state, fieldContext)

		takes, err := writer.WriteTakes(ctx, TakeRequest{
			Topic:   topic,
			Context: blob,
			Source:  config.Source,
			Persona: config.Persona,
		})
		if err != nil {
			return nil, err
		}
		if len(takes) == 0 {
			return nil, nil
		}
		return graph.Fragment{fieldTakes: takes}, nil
	}
}

// writeToSlack posts one message per take. Delivery failures are logged and
// never fail the run.
func writeToSlack(poster MessagePoster) graph.NodeFunc[Config] {
	return func(ctx context.Context, state graph.State, _ Config) (graph.Fragment, error) {
		takes, _ := graph.Get[[]Take](state, fieldTakes)
		observer := observability.ObserverFromContext(ctx)

		if poster == nil {
			if observer != nil {
				observer.Info(ctx, "dry run, skipping delivery",
					observability.String(observability.AttrRunID, graph.RunID(ctx)),
					observability.Int("radar.takes", len(takes)),
				)
			}
			return nil, nil
		}

		failed := 0
		for i, take := range takes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := poster.Post(ctx, FormatMessage(take)); err != nil {
				failed++
				if observer != nil {
					observer.Warn(ctx, "take delivery failed",
						observability.String(observability.AttrRunID, graph.RunID(ctx)),
						observability.Int("radar.take.index", i),
						observability.String("radar.take.title", take.Title),
						observability.Error(err),
					)
				}
			}
		}

		if observer != nil {
			observer.Info(ctx, "takes delivered",
				observability.String(observability.AttrRunID, graph.RunID(ctx)),
				observability.Int("radar.takes", len(takes)),
				observability.Int("radar.takes.failed", failed),
			)
		}
		return nil, nil
	}
}
