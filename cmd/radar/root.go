package main

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Turn a subreddit's top posts into topic takes posted to Slack",
	Long: "Radar reads the top posts of a subreddit, asks an LLM which topics the\n" +
		"user cares about, writes short takes per topic in parallel and posts\n" +
		"them to a Slack incoming webhook.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.Version = version
}
