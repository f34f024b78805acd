package radar

import (
	"strings"
	"testing"
)

func TestPromptValues_Render(testCase *testing.T) {
	values := promptValues{Source: "LocalLLaMA", Topic: "AI", Persona: "@rlm", Context: "raw {topic} text"}
	rendered := values.render(takeInstructions)

	for _, placeholder := range []string{"{subreddit_name}", "{user}", "{context}"} {
		if strings.Contains(rendered, placeholder) {
			testCase.Errorf("placeholder %s left in prompt", placeholder)
		}
	}
	if !strings.Contains(rendered, `"Hey @rlm:"`) || !strings.Contains(rendered, "subreddit: LocalLLaMA") {
		testCase.Errorf("values not substituted:\n%s", rendered)
	}
	if !strings.Contains(rendered, "raw {topic} text") {
		testCase.Error("context must be inserted verbatim, not expanded again")
	}
}

func TestJoinInterests(testCase *testing.T) {
	tests := []struct {
		parts    []string
		expected string
	}{
		{[]string{"New models, local LLM use-cases", "AI"}, "New models, local LLM use-cases, AI"},
		{[]string{"", "AI"}, "AI"},
		{[]string{" robots ", "  "}, "robots"},
		{[]string{"New models,, local LLM use-cases ,", "AI, robots"}, "New models, local LLM use-cases, AI, robots"},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := joinInterests(tt.parts...); got != tt.expected {
			testCase.Errorf("joinInterests(%q) = %q, want %q", tt.parts, got, tt.expected)
		}
	}
}
