package parse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type take struct {
	Title     string `json:"title"`
	Take      string `json:"take"`
	SourceURL string `json:"source_url"`
}

type takeList struct {
	Takes []take `json:"takes"`
}

func TestParseStringAs_Primitives(t *testing.T) {
	if got, err := ParseStringAs[string]("hello\nworld"); err != nil || got != "hello\nworld" {
		t.Errorf("string: got %q, %v", got, err)
	}
	if got, err := ParseStringAs[bool](" true "); err != nil || !got {
		t.Errorf("bool: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[int]("42"); err != nil || got != 42 {
		t.Errorf("int: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[uint8]("7"); err != nil || got != 7 {
		t.Errorf("uint8: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[float64]("3.5"); err != nil || got != 3.5 {
		t.Errorf("float64: got %v, %v", got, err)
	}
	if _, err := ParseStringAs[int]("forty-two"); err == nil {
		t.Error("expected error for non-numeric int")
	}
}

func TestParseStringAs_PrimitiveEnvelope(t *testing.T) {
	if got, err := ParseStringAs[int](`{"type": "integer", "value": 12}`); err != nil || got != 12 {
		t.Errorf("wrapped int: got %v, %v", got, err)
	}
	if got, err := ParseStringAs[string](`{"type": "string", "value": "AI"}`); err != nil || got != "AI" {
		t.Errorf("wrapped string: got %q, %v", got, err)
	}
	if got, err := ParseStringAs[string](`{"topic": "AI"}`); err != nil || got != `{"topic": "AI"}` {
		t.Errorf("plain JSON object should stay verbatim for string targets, got %q, %v", got, err)
	}
}

func TestParseStringAs_Structs(t *testing.T) {
	expected := takeList{Takes: []take{{Title: "Qwen3", Take: "fast", SourceURL: "https://x.test"}}}

	tests := []struct {
		name  string
		input string
	}{
		{"strict JSON", `{"takes":[{"title":"Qwen3","take":"fast","source_url":"https://x.test"}]}`},
		{"markdown fence", "Here you go:\n```json\n{\"takes\":[{\"title\":\"Qwen3\",\"take\":\"fast\",\"source_url\":\"https://x.test\"}]}\n```\nEnjoy."},
		{"prose around object", `Sure! {"takes":[{"title":"Qwen3","take":"fast","source_url":"https://x.test"}]} Hope it helps.`},
		{"trailing comma repaired", `{"takes":[{"title":"Qwen3","take":"fast","source_url":"https://x.test",}]}`},
		{"single quotes repaired", `{'takes':[{'title':'Qwen3','take':'fast','source_url':'https://x.test'}]}`},
		{"schema envelopes unwrapped", `{"takes":[{"title":{"type":"string","value":"Qwen3"},"take":{"type":"string","value":"fast"},"source_url":{"type":"string","value":"https://x.test"}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStringAs[takeList](tt.input)
			if err != nil {
				t.Fatalf("ParseStringAs() error = %v", err)
			}
			if diff := cmp.Diff(expected, got); diff != "" {
				t.Errorf("ParseStringAs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseStringAs_NoJSON(t *testing.T) {
	_, err := ParseStringAs[takeList]("I could not find anything relevant.")
	if !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON, got %v", err)
	}
}

func TestParseStringAs_Slice(t *testing.T) {
	got, err := ParseStringAs[[]string](`Topics: ["New models", "local LLM use-cases"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"New models", "local LLM use-cases"}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"fence without language", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"array in prose", `list: [1,2] done`, `[1,2]`},
		{"unterminated tail", `answer: {"a": 1`, `{"a": 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			if err != nil {
				t.Fatalf("ExtractJSON() error = %v", err)
			}
			if got != tt.expected {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.expected)
			}
		})
	}
}
