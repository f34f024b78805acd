package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/radar/providers/ai"
)

func blockingSend(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Second):
		return &ai.ChatResponse{Content: "late"}, nil
	}
}

func TestTimeout_CancelsSlowCall(t *testing.T) {
	send := NewTimeoutMiddleware(10 * time.Millisecond)(blockingSend)

	start := time.Now()
	_, err := send(context.Background(), ai.ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestTimeout_DisabledWhenNonPositive(t *testing.T) {
	send := NewTimeoutMiddleware(0)(func(ctx context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		if _, hasDeadline := ctx.Deadline(); hasDeadline {
			t.Error("no deadline expected when timeout is disabled")
		}
		return &ai.ChatResponse{}, nil
	})
	if _, err := send(context.Background(), ai.ChatRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLogging_WritesRequestAndResponse(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buffer, nil))

	send := NewLoggingMiddleware(logger, LogLevelStandard)(func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		return &ai.ChatResponse{Model: "m", FinishReason: "stop", Usage: &ai.Usage{TotalTokens: 9}}, nil
	})
	if _, err := send(context.Background(), ai.ChatRequest{Model: "m", ToolChoiceForced: "record_takes"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buffer.String()
	for _, expected := range []string{"llm send", "forced_tool=record_takes", "llm send completed", "total_tokens=9", "finish_reason=stop"} {
		if !strings.Contains(output, expected) {
			t.Errorf("log output missing %q:\n%s", expected, output)
		}
	}
}

func TestLogging_LogsFailures(t *testing.T) {
	buffer := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buffer, nil))

	send := NewLoggingMiddleware(logger, LogLevelMinimal)(func(_ context.Context, _ ai.ChatRequest) (*ai.ChatResponse, error) {
		return nil, errors.New("boom")
	})
	if _, err := send(context.Background(), ai.ChatRequest{}); err == nil {
		t.Fatal("expected error to propagate")
	}
	if !strings.Contains(buffer.String(), "llm send failed") || !strings.Contains(buffer.String(), "error=boom") {
		t.Errorf("failure not logged: %s", buffer.String())
	}
}
