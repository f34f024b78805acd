package client

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leofalp/radar/providers/ai"
	"github.com/leofalp/radar/providers/observability"
)

type extractedTake struct {
	Title     string `json:"title" jsonschema:"short headline" validate:"required"`
	SourceURL string `json:"source_url" jsonschema:"link to the source" validate:"required,url"`
}

type extractedTakes struct {
	Takes []extractedTake `json:"takes" validate:"dive"`
}

// toolAnswer returns a provider that answers with a forced tool call.
func toolAnswer(arguments string) *mockProvider {
	return &mockProvider{sendMessageFunc: func(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{
			FinishReason: ai.FinishReasonToolCalls,
			ToolCalls: []ai.ToolCall{{
				ID:       "call-1",
				Type:     "function",
				Function: ai.ToolCallFunction{Name: req.ToolChoiceForced, Arguments: arguments},
			}},
		}, nil
	}}
}

func extractTakes(testingHelper *testing.T, client *Client) (extractedTakes, error) {
	testingHelper.Helper()
	extractor, err := NewExtractor[extractedTakes](client, "record_takes", "")
	if err != nil {
		testingHelper.Fatalf("NewExtractor: %v", err)
	}
	return extractor.Extract(context.Background(), "s", "u")
}

func TestExtractor_ValidToolCall(t *testing.T) {
	provider := toolAnswer(`{"takes":[{"title":"Qwen3 lands","source_url":"https://example.com/qwen3"}]}`)
	client, _ := New(provider)

	extractor, err := NewExtractor[extractedTakes](client, "record_takes", "Record the formatted takes")
	if err != nil {
		t.Fatalf("NewExtractor: %v", err)
	}
	got, err := extractor.Extract(context.Background(), "format", "only relevant takes")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	expected := extractedTakes{Takes: []extractedTake{{Title: "Qwen3 lands", SourceURL: "https://example.com/qwen3"}}}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Extract mismatch (-want +got):\n%s", diff)
	}

	request := provider.lastRequest(t)
	if request.ToolChoiceForced != "record_takes" || len(request.Tools) != 1 {
		t.Fatalf("expected forced tool, got %+v", request)
	}
	tool := request.Tools[0]
	if tool.Parameters != extractor.Schema() || tool.Description != "Record the formatted takes" {
		t.Errorf("tool not built from inferred schema: %+v", tool)
	}
	titleSchema := tool.Parameters.Properties["takes"].Items.Properties["title"]
	if titleSchema == nil || titleSchema.Description != "short headline" {
		t.Errorf("jsonschema tag should become description, got %+v", titleSchema)
	}
}

func TestExtractor_FallsBackToRepairedText(t *testing.T) {
	provider := &mockProvider{sendMessageFunc: func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{Content: "```json\n{\"takes\": [{\"title\": \"A\", \"source_url\": \"https://a.test\",}]}\n```"}, nil
	}}
	client, _ := New(provider)

	got, err := extractTakes(t, client)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got.Takes) != 1 || got.Takes[0].Title != "A" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestExtractor_FailsClosed(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
	}{
		{"missing required property", `{"takes":[{"title":"A"}]}`},
		{"wrong type", `{"takes":"none"}`},
		{"additional property", `{"takes":[],"extra":true}`},
		{"validator tag fails", `{"takes":[{"title":"A","source_url":"not a url"}]}`},
		{"empty required string", `{"takes":[{"title":"","source_url":"https://a.test"}]}`},
		{"not JSON at all", `I'd rather not.`},
		{"null array", `{"takes":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := New(toolAnswer(tt.arguments))
			got, err := extractTakes(t, client)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v (value %+v)", err, got)
			}
			if diff := cmp.Diff(extractedTakes{}, got); diff != "" {
				t.Errorf("failed extraction must return the zero value (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractor_EmptyResponse(t *testing.T) {
	provider := &mockProvider{sendMessageFunc: func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{}, nil
	}}
	client, _ := New(provider)
	if _, err := extractTakes(t, client); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestExtractor_ProviderErrorIsNotValidation(t *testing.T) {
	providerErr := errors.New("network down")
	provider := &mockProvider{sendMessageFunc: func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, providerErr
	}}
	client, _ := New(provider)

	_, err := extractTakes(t, client)
	if !errors.Is(err, providerErr) || errors.Is(err, ErrValidation) {
		t.Errorf("expected raw provider error, got %v", err)
	}
}

func TestNewExtractor_Rejects(t *testing.T) {
	client, _ := New(&mockProvider{})
	if _, err := NewExtractor[[]string](client, "t", ""); err == nil {
		t.Error("expected error for non-object target")
	}
	if _, err := NewExtractor[extractedTakes](client, "", ""); err == nil {
		t.Error("expected error for empty tool name")
	}
	if _, err := NewExtractor[extractedTakes](nil, "t", ""); err == nil {
		t.Error("expected error for nil client")
	}
}

func TestExtractor_ObservedAsExtract(t *testing.T) {
	observer := newMockObserver()
	client, _ := New(toolAnswer(`{"takes":[]}`), WithObserver(observer))

	if _, err := extractTakes(t, client); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(observer.spanNames) != 1 || observer.spanNames[0] != observability.SpanClientExtract {
		t.Errorf("span names = %v, want [%s]", observer.spanNames, observability.SpanClientExtract)
	}
}
