package ai

import (
	"github.com/google/jsonschema-go/jsonschema"
)

/*
	##### PROVIDER INPUT #####
*/

// ChatRequest represents a request to send a chat message
type ChatRequest struct {
	Model            string            `json:"model,omitempty"`              // Model name or identifier
	SystemPrompt     string            `json:"system_prompt,omitempty"`      // Optional system prompt
	Messages         []Message         `json:"messages"`                     // Conversation turns, system prompt excluded
	Tools            []ToolDescription `json:"tools,omitempty"`              // Tool definitions, if any
	ToolChoiceForced string            `json:"tool_choice_forced,omitempty"` // Name of a tool the model must call
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`  // Optional sampling configuration
}

// ToolDescription declares a tool the model may call. For structured
// extraction the tool is never executed: its input schema is the output shape.
type ToolDescription struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Parameters  *jsonschema.Schema `json:"parameters,omitempty"`
}

// Message represents a single message in a conversation
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content,omitempty"`
}

type GenerationConfig struct {
	MaxTokens   int      `json:"max_tokens,omitempty"`  // Upper bound on generated tokens
	Temperature *float32 `json:"temperature,omitempty"` // Sampling temperature; nil leaves the provider default
}

/*
	##### PROVIDER OUTPUT #####
*/

type Usage struct {
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
	TotalTokens      int `json:"total_tokens,omitempty"`
}

// ChatResponse represents the response from a chat completion
type ChatResponse struct {
	Id           string     `json:"id"`
	Model        string     `json:"model"`
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
}

// ToolCall represents a tool call requested by the model
type ToolCall struct {
	ID       string           `json:"id,omitempty"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// FindToolCall returns the first tool call with the given name, or nil.
func (r *ChatResponse) FindToolCall(name string) *ToolCall {
	if r == nil {
		return nil
	}
	for i := range r.ToolCalls {
		if r.ToolCalls[i].Function.Name == name {
			return &r.ToolCalls[i]
		}
	}
	return nil
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
)

// Finish reasons shared by every provider.
const (
	FinishReasonStop      = "stop"
	FinishReasonLength    = "length"
	FinishReasonToolCalls = "tool_calls"
	FinishReasonRefusal   = "refusal"
)
