package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/leofalp/radar/core/client/middleware"
	"github.com/leofalp/radar/internal/radar"
	"github.com/leofalp/radar/providers/ai/anthropic"
	"github.com/leofalp/radar/providers/observability"
	"github.com/leofalp/radar/providers/reddit"
)

func TestApplyFlags_OnlyChangedFlags(testCase *testing.T) {
	flags := runCmd.Flags()
	defer func() {
		_ = flags.Set("source", radar.DefaultSource)
		_ = flags.Set("posts", "20")
		flags.Lookup("source").Changed = false
		flags.Lookup("posts").Changed = false
	}()

	if err := flags.Set("source", "MachineLearning"); err != nil {
		testCase.Fatalf("set source: %v", err)
	}
	if err := flags.Set("posts", "5"); err != nil {
		testCase.Fatalf("set posts: %v", err)
	}

	config := radar.DefaultConfig()
	config.Persona = "@from-file"
	applyFlags(&config, flags)

	if config.Source != "MachineLearning" || config.PostLimit != 5 {
		testCase.Errorf("changed flags not applied: %+v", config)
	}
	if config.Persona != "@from-file" {
		testCase.Errorf("unchanged flag overrode persona: %q", config.Persona)
	}
}

func TestParseLLMLogLevel(testCase *testing.T) {
	tests := map[string]middleware.LogLevel{
		"":         middleware.LogLevelMinimal,
		"standard": middleware.LogLevelStandard,
		" Verbose": middleware.LogLevelVerbose,
		"nonsense": middleware.LogLevelMinimal,
	}
	for input, expected := range tests {
		if got := parseLLMLogLevel(input); got != expected {
			testCase.Errorf("parseLLMLogLevel(%q) = %v, want %v", input, got, expected)
		}
	}
}

func TestNewObserver_ExportsMetrics(testCase *testing.T) {
	var logs bytes.Buffer
	registry := prometheus.NewRegistry()
	observer := newObserver(&logs, "json", "info", registry)

	observer.Counter(observability.MetricGraphRunCount).Add(testCase.Context(), 1,
		observability.String(observability.AttrStatus, "completed"))
	observer.Info(testCase.Context(), "hello")

	path := filepath.Join(testCase.TempDir(), "radar.prom")
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		testCase.Fatalf("WriteToTextfile: %v", err)
	}
	exported, err := os.ReadFile(path)
	if err != nil {
		testCase.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(exported), `radar_graph_run_count_total{`) {
		testCase.Errorf("run counter missing from export:\n%s", exported)
	}
	if !strings.Contains(logs.String(), `"msg":"hello"`) {
		testCase.Errorf("log line missing or not JSON: %s", logs.String())
	}
	if _, ok := innerSlog(observer); !ok {
		testCase.Error("slog observer should be reachable behind the prometheus decorator")
	}
}

func TestNewDependencies_RequiresCredentials(testCase *testing.T) {
	testCase.Setenv("REDDIT_CLIENT_ID", "")
	testCase.Setenv("REDDIT_CLIENT_SECRET", "")

	_, err := newDependencies(nil, dependencyOptions{dryRun: true})
	if !errors.Is(err, reddit.ErrMissingCredentials) {
		testCase.Errorf("expected missing reddit credentials, got %v", err)
	}

	testCase.Setenv("REDDIT_CLIENT_ID", "id")
	testCase.Setenv("REDDIT_CLIENT_SECRET", "secret")
	testCase.Setenv("ANTHROPIC_API_KEY", "")
	_, err = newDependencies(nil, dependencyOptions{dryRun: true})
	if !errors.Is(err, anthropic.ErrMissingAPIKey) {
		testCase.Errorf("expected missing anthropic key, got %v", err)
	}
}

func TestNewDependencies_WebhookRequiredUnlessDryRun(testCase *testing.T) {
	testCase.Setenv("REDDIT_CLIENT_ID", "id")
	testCase.Setenv("REDDIT_CLIENT_SECRET", "secret")
	testCase.Setenv("ANTHROPIC_API_KEY", "key")
	testCase.Setenv("SLACK_WEBHOOK", "")

	if _, err := newDependencies(nil, dependencyOptions{}); !errors.Is(err, errNoWebhook) {
		testCase.Errorf("expected missing webhook error, got %v", err)
	}

	deps, err := newDependencies(nil, dependencyOptions{dryRun: true})
	if err != nil {
		testCase.Fatalf("dry run should not need a webhook: %v", err)
	}
	if deps.Poster != nil {
		testCase.Error("dry run must not configure a poster")
	}
}

func TestNewDependencies_PricesKnownModel(testCase *testing.T) {
	testCase.Setenv("REDDIT_CLIENT_ID", "id")
	testCase.Setenv("REDDIT_CLIENT_SECRET", "secret")
	testCase.Setenv("ANTHROPIC_API_KEY", "key")
	testCase.Setenv("ANTHROPIC_MODEL", "claude-sonnet-4-5")

	deps, err := newDependencies(nil, dependencyOptions{dryRun: true})
	if err != nil {
		testCase.Fatalf("newDependencies: %v", err)
	}
	if deps.Pricing == nil || deps.Pricing.InputCostPerMillion != 3 {
		testCase.Errorf("pricing = %+v, want sonnet list price", deps.Pricing)
	}
}
