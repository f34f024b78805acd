package anthropic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/leofalp/radar/providers/ai"
)

// requestToAnthropic converts a generic request into the Messages wire format.
// Consecutive messages with the same role are merged because the API requires
// strictly alternating turns.
func requestToAnthropic(request ai.ChatRequest, defaultModel string, defaultMaxTokens int) (anthropicRequest, error) {
	result := anthropicRequest{
		Model:     request.Model,
		System:    request.SystemPrompt,
		MaxTokens: defaultMaxTokens,
		Messages:  buildMessages(request.Messages),
	}
	if result.Model == "" {
		result.Model = defaultModel
	}
	if len(result.Messages) == 0 {
		return anthropicRequest{}, fmt.Errorf("request has no messages")
	}

	if gc := request.GenerationConfig; gc != nil {
		if gc.MaxTokens > 0 {
			result.MaxTokens = gc.MaxTokens
		}
		if gc.Temperature != nil {
			temperature := float64(*gc.Temperature)
			result.Temperature = &temperature
		}
	}

	tools, err := buildAnthropicTools(request.Tools)
	if err != nil {
		return anthropicRequest{}, err
	}
	result.Tools = tools

	if request.ToolChoiceForced != "" {
		found := false
		for _, tool := range request.Tools {
			if tool.Name == request.ToolChoiceForced {
				found = true
				break
			}
		}
		if !found {
			return anthropicRequest{}, fmt.Errorf("forced tool %q is not among the request tools", request.ToolChoiceForced)
		}
		result.ToolChoice = &anthropicToolChoice{Type: "tool", Name: request.ToolChoiceForced}
	}

	return result, nil
}

func buildMessages(messages []ai.Message) []anthropicMessage {
	var result []anthropicMessage
	for _, message := range messages {
		role := "user"
		if message.Role == ai.RoleAssistant {
			role = "assistant"
		}
		block := anthropicContentBlock{Type: "text", Text: message.Content}

		if last := len(result) - 1; last >= 0 && result[last].Role == role {
			result[last].Content = append(result[last].Content, block)
			continue
		}
		result = append(result, anthropicMessage{Role: role, Content: []anthropicContentBlock{block}})
	}
	return result
}

func buildAnthropicTools(tools []ai.ToolDescription) ([]anthropicTool, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	result := make([]anthropicTool, 0, len(tools))
	for _, tool := range tools {
		// input_schema is mandatory; a tool without parameters takes an empty object.
		schema := json.RawMessage(`{"type":"object","properties":{}}`)
		if tool.Parameters != nil {
			encoded, err := json.Marshal(tool.Parameters)
			if err != nil {
				return nil, fmt.Errorf("failed to encode schema for tool %q: %w", tool.Name, err)
			}
			schema = encoded
		}
		result = append(result, anthropicTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: schema,
		})
	}
	return result, nil
}

// anthropicToGeneric maps a Messages API response onto ai.ChatResponse.
// Thinking blocks and unknown block types are dropped.
func anthropicToGeneric(response anthropicResponse) *ai.ChatResponse {
	result := &ai.ChatResponse{
		Id:    response.ID,
		Model: response.Model,
	}

	var textParts []string
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_use":
			result.ToolCalls = append(result.ToolCalls, ai.ToolCall{
				ID:   block.ID,
				Type: "function",
				Function: ai.ToolCallFunction{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		}
	}

	result.Content = strings.Join(textParts, "\n")
	result.FinishReason = mapStopReason(response.StopReason)
	result.Usage = &ai.Usage{
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
		TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
	}
	return result
}

// mapStopReason converts an Anthropic stop_reason to the shared finish reasons.
func mapStopReason(stopReason string) string {
	switch stopReason {
	case "tool_use":
		return ai.FinishReasonToolCalls
	case "max_tokens":
		return ai.FinishReasonLength
	case "refusal":
		return ai.FinishReasonRefusal
	default:
		return ai.FinishReasonStop
	}
}

// errorMessage extracts the API's error message from a non-2xx body, falling
// back to the raw body.
func errorMessage(body string) string {
	var decoded anthropicErrorResponse
	if err := json.Unmarshal([]byte(body), &decoded); err == nil && decoded.Error.Message != "" {
		return decoded.Error.Type + ": " + decoded.Error.Message
	}
	return body
}
