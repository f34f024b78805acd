package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leofalp/radar/internal/radar"
	"github.com/leofalp/radar/patterns/graph"
	"github.com/leofalp/radar/providers/observability"
)

var runFlags struct {
	configPath     string
	topics         string
	persona        string
	source         string
	window         string
	posts          int
	comments       int
	defaultTopics  string
	maxConcurrency int
	timeout        time.Duration
	nodeTimeout    time.Duration
	dryRun         bool
	metricsFile    string
	logFormat      string
	logLevel       string
	llmLog         string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the radar once and print the takes as JSON",
	Long: "Run fetches the subreddit, generates takes for every topic and posts\n" +
		"each take to SLACK_WEBHOOK. Configuration is resolved from defaults,\n" +
		"then --config, then RADAR_* environment variables, then flags.",
	Args: cobra.NoArgs,
	RunE: runRadar,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.configPath, "config", "", "YAML run configuration file")
	f.StringVar(&runFlags.topics, "topics", "", "extra topics of interest (default \""+radar.DefaultUserTopics+"\")")
	f.StringVar(&runFlags.persona, "persona", radar.DefaultPersona, "who the takes are addressed to")
	f.StringVar(&runFlags.source, "source", radar.DefaultSource, "subreddit to read")
	f.StringVar(&runFlags.window, "window", radar.DefaultTimeWindow, "top-posts window: day, week, month, year or all")
	f.IntVar(&runFlags.posts, "posts", radar.DefaultPostLimit, "number of top posts to fetch")
	f.IntVar(&runFlags.comments, "comments", radar.DefaultCommentLimit, "number of top comments per post")
	f.StringVar(&runFlags.defaultTopics, "default-topics", radar.DefaultTopics, "comma-separated topics always scanned for")
	f.IntVar(&runFlags.maxConcurrency, "max-concurrency", 0, "cap on parallel topic branches (0 = unbounded)")
	f.DurationVar(&runFlags.timeout, "timeout", 10*time.Minute, "bound on the whole run")
	f.DurationVar(&runFlags.nodeTimeout, "node-timeout", 5*time.Minute, "bound on each step of the run")
	f.BoolVar(&runFlags.dryRun, "dry-run", false, "print takes without posting to Slack")
	f.StringVar(&runFlags.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file after the run")
	f.StringVar(&runFlags.logFormat, "log-format", "", "log format: text or json (default from RADAR_LOG_FORMAT)")
	f.StringVar(&runFlags.logLevel, "log-level", "", "log level: trace, debug, info, warn or error (default from RADAR_LOG_LEVEL)")
	f.StringVar(&runFlags.llmLog, "llm-log", "minimal", "LLM call logging: minimal, standard or verbose")
}

func runRadar(cmd *cobra.Command, _ []string) error {
	config, err := radar.LoadConfig(runFlags.configPath)
	if err != nil {
		return err
	}
	applyFlags(&config, cmd.Flags())
	if err = config.Validate(); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	observer := newObserver(cmd.ErrOrStderr(), runFlags.logFormat, runFlags.logLevel, registry)
	ctx := observability.ContextWithObserver(cmd.Context(), observer)

	deps, err := newDependencies(observer, dependencyOptions{
		dryRun:      runFlags.dryRun,
		llmLogLevel: parseLLMLogLevel(runFlags.llmLog),
		nodeTimeout: runFlags.nodeTimeout,
	})
	if err != nil {
		return err
	}

	r, err := radar.New(deps,
		graph.WithObserver(observer),
		graph.WithMaxConcurrency(runFlags.maxConcurrency),
		graph.WithExecutionTimeout(runFlags.timeout),
	)
	if err != nil {
		return err
	}

	result, runErr := r.Run(ctx, radar.Input{UserProvidedTopics: runFlags.topics}, config)

	if runFlags.metricsFile != "" {
		if err = prometheus.WriteToTextfile(runFlags.metricsFile, registry); err != nil {
			observer.Warn(ctx, "writing metrics file failed",
				observability.String("metrics.file", runFlags.metricsFile),
				observability.Error(err),
			)
		}
	}
	if runErr != nil {
		return runErr
	}

	summary := []observability.Attribute{
		observability.String(observability.AttrRunID, result.RunID),
		observability.Int(observability.AttrItemCount, len(result.Takes)),
		observability.Int(observability.AttrLLMTokensTotal, result.Usage.TotalUsage.TotalTokens),
	}
	if result.Usage.Cost != nil {
		summary = append(summary, observability.Float64("llm.cost.usd", result.Usage.Cost.TotalCost))
	}
	observer.Info(ctx, "radar run completed", summary...)

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err = encoder.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// applyFlags overlays the flags the user set explicitly.
func applyFlags(config *radar.Config, flags *pflag.FlagSet) {
	if flags.Changed("persona") {
		config.Persona = runFlags.persona
	}
	if flags.Changed("source") {
		config.Source = runFlags.source
	}
	if flags.Changed("window") {
		config.TimeWindow = runFlags.window
	}
	if flags.Changed("posts") {
		config.PostLimit = runFlags.posts
	}
	if flags.Changed("comments") {
		config.CommentLimit = runFlags.comments
	}
	if flags.Changed("default-topics") {
		config.DefaultTopics = runFlags.defaultTopics
	}
}
