package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leofalp/radar/internal/utils"
	"github.com/leofalp/radar/providers"
)

func TestNew_RequiresURL(t *testing.T) {
	if _, err := New(""); !errors.Is(err, ErrMissingWebhook) {
		t.Errorf("expected ErrMissingWebhook, got %v", err)
	}
}

func TestPost_SendsBlockKitJSON(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("body is not JSON: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	webhook, err := New(server.URL, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	message := Message{
		Blocks:      []Block{Header(":fire: hot"), Section("*bold*"), Divider()},
		UnfurlLinks: true,
		UnfurlMedia: true,
	}
	if err := webhook.Post(context.Background(), message); err != nil {
		t.Fatalf("Post: %v", err)
	}

	expected := map[string]any{
		"blocks": []any{
			map[string]any{"type": "header", "text": map[string]any{"type": "plain_text", "text": ":fire: hot", "emoji": true}},
			map[string]any{"type": "section", "text": map[string]any{"type": "mrkdwn", "text": "*bold*"}},
			map[string]any{"type": "divider"},
		},
		"unfurl_links": true,
		"unfurl_media": true,
	}
	if diff := cmp.Diff(expected, received); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestPost_NonOKIsAdapterError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("invalid_token"))
	}))
	defer server.Close()

	webhook, _ := New(server.URL, WithHTTPClient(server.Client()))
	err := webhook.Post(context.Background(), Message{Blocks: []Block{Divider()}})

	var adapterErr *providers.AdapterError
	if !errors.As(err, &adapterErr) || adapterErr.Adapter != "slack" {
		t.Fatalf("expected slack AdapterError, got %v", err)
	}
	var statusErr *utils.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusForbidden || statusErr.Body != "invalid_token" {
		t.Errorf("status not preserved: %v", err)
	}
}
