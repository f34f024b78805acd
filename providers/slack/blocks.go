package slack

const (
	textPlain    = "plain_text"
	textMarkdown = "mrkdwn"
)

// Message is the JSON body accepted by an incoming webhook.
type Message struct {
	Text        string  `json:"text,omitempty"`
	Blocks      []Block `json:"blocks"`
	UnfurlLinks bool    `json:"unfurl_links"`
	UnfurlMedia bool    `json:"unfurl_media"`
}

// Block is a single layout block.
type Block struct {
	Type string      `json:"type"`
	Text *TextObject `json:"text,omitempty"`
}

// TextObject is Slack's text composition object.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Header returns a header block; emoji shortcodes are rendered.
func Header(text string) Block {
	return Block{Type: "header", Text: &TextObject{Type: textPlain, Text: text, Emoji: true}}
}

// Section returns a section block with markdown text.
func Section(markdown string) Block {
	return Block{Type: "section", Text: &TextObject{Type: textMarkdown, Text: markdown}}
}

// Divider returns a divider block.
func Divider() Block {
	return Block{Type: "divider"}
}
