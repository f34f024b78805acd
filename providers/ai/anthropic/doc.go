// Package anthropic implements [ai.Provider] for Anthropic's Messages API.
//
// Requests are converted from [ai.ChatRequest] to the Messages wire format and
// responses are mapped back to [ai.ChatResponse]. A request naming a forced
// tool becomes tool_choice {"type": "tool"}, which is how radar obtains
// schema-shaped structured output.
//
// [New] reads ANTHROPIC_API_KEY and ANTHROPIC_API_BASE_URL from the
// environment; the With* methods override them.
package anthropic
