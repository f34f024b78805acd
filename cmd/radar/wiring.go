package main

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/radar/core/client"
	"github.com/leofalp/radar/core/client/middleware"
	"github.com/leofalp/radar/core/cost"
	"github.com/leofalp/radar/internal/radar"
	"github.com/leofalp/radar/providers/ai"
	"github.com/leofalp/radar/providers/ai/anthropic"
	"github.com/leofalp/radar/providers/observability"
	"github.com/leofalp/radar/providers/observability/promobs"
	"github.com/leofalp/radar/providers/observability/slogobs"
	"github.com/leofalp/radar/providers/reddit"
	"github.com/leofalp/radar/providers/slack"
)

const (
	llmCallTimeout  = 2 * time.Minute
	httpTimeout     = 30 * time.Second
	webhookEnvVar   = "SLACK_WEBHOOK"
	llmMaxRetries   = 3
	llmFirstBackoff = 2 * time.Second
)

var errNoWebhook = errors.New("SLACK_WEBHOOK is not set; use --dry-run to skip posting")

// metricLabels are the attributes promoted to Prometheus labels.
var metricLabels = []string{
	observability.AttrStatus,
	observability.AttrGraphNode,
	observability.AttrGraphRouter,
	observability.AttrAdapter,
	observability.AttrLLMProvider,
}

// newObserver logs through slog and mirrors metrics into registry. Empty
// format or level fall back to the environment.
func newObserver(output io.Writer, format, level string, registry prometheus.Registerer) observability.Provider {
	opts := []slogobs.Option{slogobs.WithOutput(output)}
	if format != "" {
		opts = append(opts, slogobs.WithFormat(slogobs.ParseFormat(format)))
	}
	if level != "" {
		opts = append(opts, slogobs.WithLevel(slogobs.ParseLevel(level)))
	}
	return promobs.New(slogobs.New(opts...), registry, promobs.WithLabels(metricLabels...))
}

type dependencyOptions struct {
	dryRun      bool
	llmLogLevel middleware.LogLevel
	nodeTimeout time.Duration
}

// newDependencies builds the production collaborators from the environment.
func newDependencies(observer observability.Provider, options dependencyOptions) (radar.Dependencies, error) {
	fetcher, err := reddit.New(reddit.WithHTTPClient(&http.Client{Timeout: httpTimeout}))
	if err != nil {
		return radar.Dependencies{}, err
	}

	llm, model, err := newLLMClient(observer, options.llmLogLevel)
	if err != nil {
		return radar.Dependencies{}, err
	}
	topics, err := radar.NewLLMTopicGenerator(llm)
	if err != nil {
		return radar.Dependencies{}, err
	}
	writer, err := radar.NewLLMTakeWriter(llm)
	if err != nil {
		return radar.Dependencies{}, err
	}

	deps := radar.Dependencies{
		Fetcher:     fetcher,
		Topics:      topics,
		Writer:      writer,
		NodeTimeout: options.nodeTimeout,
	}
	if pricing, ok := cost.ForModel(model); ok {
		deps.Pricing = &pricing
	}
	if options.dryRun {
		return deps, nil
	}

	webhook, err := slack.New(os.Getenv(webhookEnvVar), slack.WithHTTPClient(&http.Client{Timeout: httpTimeout}))
	if errors.Is(err, slack.ErrMissingWebhook) {
		return radar.Dependencies{}, errNoWebhook
	}
	if err != nil {
		return radar.Dependencies{}, err
	}
	deps.Poster = webhook
	return deps, nil
}

// newLLMClient builds the Anthropic-backed client: deterministic sampling,
// retries on transient failures and a timeout per attempt. It also returns
// the model the client talks to.
func newLLMClient(observer observability.Provider, logLevel middleware.LogLevel) (*client.Client, string, error) {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, "", anthropic.ErrMissingAPIKey
	}
	provider := anthropic.New()

	var temperature float32
	logger := slogobs.New().Logger()
	if slogObserver, ok := innerSlog(observer); ok {
		logger = slogObserver.Logger()
	}

	llm, err := client.New(provider,
		client.WithObserver(observer),
		client.WithModel(provider.Model()),
		client.WithGenerationConfig(ai.GenerationConfig{
			MaxTokens:   anthropic.DefaultMaxTokens,
			Temperature: &temperature,
		}),
		client.WithMiddleware(
			middleware.NewRetryMiddleware(middleware.RetryConfig{
				MaxRetries:     llmMaxRetries,
				InitialBackoff: llmFirstBackoff,
			}),
			middleware.NewTimeoutMiddleware(llmCallTimeout),
			middleware.NewLoggingMiddleware(logger, logLevel),
		),
	)
	return llm, provider.Model(), err
}

// innerSlog finds the slog observer behind a promobs decorator.
func innerSlog(observer observability.Provider) (*slogobs.Observer, bool) {
	if decorated, ok := observer.(*promobs.Observer); ok {
		observer = decorated.Provider
	}
	slogObserver, ok := observer.(*slogobs.Observer)
	return slogObserver, ok
}

func parseLLMLogLevel(value string) middleware.LogLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "standard":
		return middleware.LogLevelStandard
	case "verbose":
		return middleware.LogLevelVerbose
	default:
		return middleware.LogLevelMinimal
	}
}
