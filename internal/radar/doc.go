// Package radar is the Reddit Radar workflow built on patterns/graph.
//
// One run fetches the top posts of a subreddit as a text blob, asks the model
// to turn the configured and user-supplied interests into a list of topics,
// fans out one branch per topic that drafts and then re-checks "takes" about
// the news, and finally posts every take to a Slack webhook:
//
//	START -> load_context =(topics)=> generate_takes x N -> write_to_slack -> END
//
// The collaborators (content fetch, topic generation, take writing, message
// delivery) are interfaces so the graph can run against stubs in tests.
package radar
