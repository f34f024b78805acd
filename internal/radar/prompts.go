package radar

import (
	"strings"

	"github.com/leofalp/radar/internal/utils"
)

const topicInstructions = `Turn the user's interests into a short list of distinct research topics.
Keep each topic a few words long. Return only topics the user actually asked about.`

const takeInstructions = `You write fun, punchy takes about the news on one subreddit: {subreddit_name}

Check every news item below against the topic of interest: {topic}

Only write a take when the news item is DIRECTLY about that topic.
Use nothing beyond the news items themselves: no speculation, no outside knowledge.

Write a numbered list. For each take:

- Give it a short, playful subject line.
- Open with "Hey {user}:" followed by a brief summary of the news.
- Copy the exact source URL of the item, when it has one.
- Copy the exact Reddit post URL of the item.
- Explain why the take is relevant to the topic.

Re-read each take afterwards and drop it if it is not about the topic.

If no item is about the topic, say plainly that nothing relevant was found.

The recent news from the subreddit:

{context}`

const takeFormatInstructions = `You review and then format a list of takes written for a reader of the subreddit {subreddit_name}.

Review:
1. If the list below holds no takes, return an empty list and stop.
2. Keep a take only if
   a) it is DIRECTLY about the topic of interest: {topic}
   b) everything it says comes from the take itself.
3. Drop every take that fails either check.

Takes to review:

{context}

---

Format every take that survived the review:
1. A short, playful title.
2. The take text opens with "Hey {user}:" and summarizes only what the news states.
3. The exact source URL, when there is one.
4. The exact Reddit post URL.
5. The reasoning that ties the take to {topic}.

Check all formatted takes once more before answering; each one must start with "Hey {user}:".
If nothing survived the review, return an empty list.`

// promptValues fills the {placeholders} used by the take prompts.
type promptValues struct {
	Source  string
	Topic   string
	Persona string
	Context string
}

func (v promptValues) render(template string) string {
	return strings.NewReplacer(
		"{subreddit_name}", v.Source,
		"{topic}", v.Topic,
		"{user}", v.Persona,
		"{context}", v.Context,
	).Replace(template)
}

func topicRequest(interests string) string {
	return "Here are the user interests: " + interests
}

func takeRequest(topic string) string {
	return "Only generate takes if the news is related to: " + topic
}

func formatRequest(topic string) string {
	return "Only return final, formatted takes that are relevant to " + topic
}

// joinInterests merges the configured default topics with the user's own,
// both comma separated lists, skipping empty entries.
func joinInterests(parts ...string) string {
	var kept []string
	for _, part := range parts {
		kept = append(kept, utils.SplitList(part)...)
	}
	return strings.Join(kept, ", ")
}
