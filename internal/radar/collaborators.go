package radar

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/radar/core/client"
	"github.com/leofalp/radar/providers/slack"
)

// ContentFetcher returns the news of a source as one text blob.
// *reddit.Client satisfies it.
type ContentFetcher interface {
	Fetch(ctx context.Context, source, window string, postLimit, commentLimit int) (string, error)
}

// TopicGenerator turns a comma-joined list of interests into topics.
type TopicGenerator interface {
	GenerateTopics(ctx context.Context, interests string) ([]string, error)
}

// ErrFormatting marks a failure of the structured pass that turns drafted
// takes into Take values.
var ErrFormatting = errors.New("take formatting failed")

// TakeWriter writes the takes of one topic. An empty slice means nothing
// relevant was found and is not an error. Failures of the formatting pass
// wrap ErrFormatting.
type TakeWriter interface {
	WriteTakes(ctx context.Context, request TakeRequest) ([]Take, error)
}

// MessagePoster delivers one chat message. *slack.Webhook satisfies it.
type MessagePoster interface {
	Post(ctx context.Context, message slack.Message) error
}

// TakeRequest carries what a TakeWriter needs for one topic.
type TakeRequest struct {
	Topic   string
	Context string
	Source  string
	Persona string
}

// LLMTopicGenerator generates topics with a structured extraction call.
type LLMTopicGenerator struct {
	extractor *client.Extractor[Topics]
}

// NewLLMTopicGenerator builds a TopicGenerator over c.
func NewLLMTopicGenerator(c *client.Client) (*LLMTopicGenerator, error) {
	extractor, err := client.NewExtractor[Topics](c, "record_topics", "Record the list of topics to research")
	if err != nil {
		return nil, err
	}
	return &LLMTopicGenerator{extractor: extractor}, nil
}

func (g *LLMTopicGenerator) GenerateTopics(ctx context.Context, interests string) ([]string, error) {
	if interests == "" {
		return nil, errors.New("radar: no interests to generate topics from")
	}
	topics, err := g.extractor.Extract(ctx, topicInstructions, topicRequest(interests))
	if err != nil {
		return nil, fmt.Errorf("generate topics: %w", err)
	}
	return topics.UserTopics, nil
}

// LLMTakeWriter drafts takes with a free-text completion, then reviews and
// formats the draft with a structured extraction call that drops takes not
// about the topic.
type LLMTakeWriter struct {
	client    *client.Client
	extractor *client.Extractor[Takes]
}

// NewLLMTakeWriter builds a TakeWriter over c.
func NewLLMTakeWriter(c *client.Client) (*LLMTakeWriter, error) {
	extractor, err := client.NewExtractor[Takes](c, "record_takes", "Record the final, formatted takes")
	if err != nil {
		return nil, err
	}
	return &LLMTakeWriter{client: c, extractor: extractor}, nil
}

func (w *LLMTakeWriter) WriteTakes(ctx context.Context, request TakeRequest) ([]Take, error) {
	values := promptValues{
		Source:  request.Source,
		Topic:   request.Topic,
		Persona: request.Persona,
		Context: request.Context,
	}

	draft, err := w.client.Complete(ctx, values.render(takeInstructions), takeRequest(request.Topic))
	if err != nil {
		return nil, fmt.Errorf("draft takes for %q: %w", request.Topic, err)
	}

	values.Context = draft
	takes, err := w.extractor.Extract(ctx, values.render(takeFormatInstructions), formatRequest(request.Topic))
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %w", ErrFormatting, request.Topic, err)
	}
	return takes.Takes, nil
}
