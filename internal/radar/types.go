package radar

import "github.com/leofalp/radar/core/overview"

// Take is one newsworthy observation about a topic, ready to post.
type Take struct {
	Title     string `json:"title" jsonschema:"Punchy summary title for the take" validate:"required"`
	Take      string `json:"take" jsonschema:"Fun, punchy observation about the newsworthy topic" validate:"required"`
	SourceURL string `json:"source_url" jsonschema:"Source data URL for information in the take (if applicable)"`
	RedditURL string `json:"reddit_url" jsonschema:"Reddit post URL for the post"`
	Reasoning string `json:"reasoning" jsonschema:"Why the take is relevant to the newsworthy topic"`
}

// Takes is the structured output of the per-topic formatting pass. An empty
// list is a valid answer: nothing relevant was found.
type Takes struct {
	Takes []Take `json:"takes" jsonschema:"A list of takes, each containing a title and a take observation" validate:"dive"`
}

// Topics is the structured output of topic generation.
type Topics struct {
	UserTopics []string `json:"user_topics" jsonschema:"List of user-supplied topics of interest" validate:"dive,required"`
}

// Input is the per-invocation input of a run.
type Input struct {
	// UserProvidedTopics are extra interests; empty means DefaultUserTopics.
	UserProvidedTopics string `json:"user_provided_topics"`
}

// Result is the output of a successful run.
type Result struct {
	RunID string            `json:"run_id"`
	Takes []Take            `json:"takes"`
	Usage overview.Snapshot `json:"usage"`
}
