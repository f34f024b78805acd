package radar

import "github.com/leofalp/radar/providers/slack"

// MessageHeader opens every posted message.
const MessageHeader = ":fire: :robot_face: Reddit-Radar is heating up ..."

// FormatMessage lays out one take as a webhook message.
func FormatMessage(take Take) slack.Message {
	return slack.Message{
		Text: take.Title,
		Blocks: []slack.Block{
			slack.Header(MessageHeader),
			slack.Section("*" + take.Title + "*"),
			slack.Divider(),
			slack.Section(take.Take),
			slack.Divider(),
			slack.Section("Source: " + take.SourceURL),
			slack.Divider(),
			slack.Section("Reddit post: " + take.RedditURL),
		},
		UnfurlLinks: true,
		UnfurlMedia: true,
	}
}
