package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/leofalp/radar/internal/utils"
	"github.com/leofalp/radar/providers"
)

const topListing = `{"kind":"Listing","data":{"children":[
	{"kind":"t3","data":{"id":"abc","subreddit":"LocalLLaMA","title":"Qwen3 released","url":"https://qwen.ai/blog","score":812}},
	{"kind":"t3","data":{"id":"def","subreddit":"LocalLLaMA","title":"Running 70B on a laptop","url":"https://example.com/70b","score":95,
		"selftext":"raw","selftext_html":"<div class=\"md\"><p>Works with <em>llama.cpp</em></p></div>"}}
]}}`

const commentsAbc = `[
	{"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"abc"}}]}},
	{"kind":"Listing","data":{"children":[
		{"kind":"t1","data":{"id":"c1","body":"raw","body_html":"<div class=\"md\"><p>Finally a <strong>good</strong> 8B</p></div>","score":120}},
		{"kind":"t1","data":{"id":"c2","body":"plain body","score":40}},
		{"kind":"more","data":{"id":"m1","children":["c9"]}}
	]}}
]`

const commentsDef = `[
	{"kind":"Listing","data":{"children":[]}},
	{"kind":"Listing","data":{"children":[{"kind":"t1","data":{"id":"d1","body":"needs 64GB","score":7}}]}}
]`

type fakeReddit struct {
	server      *httptest.Server
	tokenCalls  atomic.Int32
	apiCalls    atomic.Int32
	topStatus   int
	lastTopPath string
}

func newFakeReddit(testingHelper *testing.T) *fakeReddit {
	testingHelper.Helper()
	fake := &fakeReddit{topStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		fake.tokenCalls.Add(1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "id" || pass != "secret" {
			http.Error(w, "bad client auth", http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil || r.Form.Get("grant_type") != "client_credentials" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		if r.Header.Get("User-Agent") != "radar-test" {
			http.Error(w, "missing user agent", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fake.apiCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Header.Get("User-Agent") != "radar-test" {
			http.Error(w, "missing user agent", http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/r/LocalLLaMA/top":
			fake.lastTopPath = r.URL.RequestURI()
			if fake.topStatus != http.StatusOK {
				w.WriteHeader(fake.topStatus)
				fmt.Fprint(w, `{"message":"slow down"}`)
				return
			}
			fmt.Fprint(w, topListing)
		case r.URL.Path == "/comments/abc":
			fmt.Fprint(w, commentsAbc)
		case r.URL.Path == "/comments/def":
			fmt.Fprint(w, commentsDef)
		default:
			http.NotFound(w, r)
		}
	})

	fake.server = httptest.NewServer(mux)
	testingHelper.Cleanup(fake.server.Close)
	return fake
}

func (fake *fakeReddit) client(testingHelper *testing.T) *Client {
	testingHelper.Helper()
	client, err := New(
		WithCredentials("id", "secret"),
		WithBaseURL(fake.server.URL),
		WithTokenURL(fake.server.URL+"/api/v1/access_token"),
		WithUserAgent("radar-test"),
		WithHTTPClient(fake.server.Client()),
		WithRateLimit(0),
	)
	if err != nil {
		testingHelper.Fatalf("New: %v", err)
	}
	return client
}

func TestNew_RequiresCredentials(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")
	if _, err := New(); !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestTopPosts(t *testing.T) {
	fake := newFakeReddit(t)
	posts, err := fake.client(t).TopPosts(context.Background(), "LocalLLaMA", "week", 2)
	if err != nil {
		t.Fatalf("TopPosts: %v", err)
	}

	expected := []Post{
		{ID: "abc", Subreddit: "LocalLLaMA", Title: "Qwen3 released", URL: "https://qwen.ai/blog", Shortlink: "https://redd.it/abc", Score: 812},
		{ID: "def", Subreddit: "LocalLLaMA", Title: "Running 70B on a laptop", URL: "https://example.com/70b", Shortlink: "https://redd.it/def", Score: 95, Text: "Works with *llama.cpp*"},
	}
	if diff := cmp.Diff(expected, posts); diff != "" {
		t.Errorf("TopPosts mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(fake.lastTopPath, "t=week") || !strings.Contains(fake.lastTopPath, "limit=2") {
		t.Errorf("query not forwarded: %s", fake.lastTopPath)
	}
}

func TestTopPosts_InvalidWindow(t *testing.T) {
	fake := newFakeReddit(t)
	_, err := fake.client(t).TopPosts(context.Background(), "LocalLLaMA", "hour", 2)
	if !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
	if fake.apiCalls.Load() != 0 {
		t.Error("invalid window must not reach the API")
	}
}

func TestTopComments(t *testing.T) {
	fake := newFakeReddit(t)
	comments, err := fake.client(t).TopComments(context.Background(), "abc", 5)
	if err != nil {
		t.Fatalf("TopComments: %v", err)
	}

	expected := []Comment{
		{ID: "c1", Body: "Finally a **good** 8B", Score: 120},
		{ID: "c2", Body: "plain body", Score: 40},
	}
	if diff := cmp.Diff(expected, comments); diff != "" {
		t.Errorf("TopComments mismatch (-want +got):\n%s", diff)
	}
}

func TestTopComments_LimitZeroSkipsRequest(t *testing.T) {
	fake := newFakeReddit(t)
	comments, err := fake.client(t).TopComments(context.Background(), "abc", 0)
	if err != nil || comments != nil {
		t.Fatalf("expected no comments and no error, got %v, %v", comments, err)
	}
	if fake.apiCalls.Load() != 0 {
		t.Error("limit 0 must not call the API")
	}
}

func TestFetch_RendersContext(t *testing.T) {
	fake := newFakeReddit(t)
	blob, err := fake.client(t).Fetch(context.Background(), "LocalLLaMA", "day", 2, 1)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	separator := strings.Repeat("=", 50) + "\n\n"
	expected := "ID: abc\n" +
		"Subreddit: LocalLLaMA\n" +
		"Title: Qwen3 released\n" +
		"Source Data URL: https://qwen.ai/blog\n" +
		"Reddit Post URL: https://redd.it/abc\n" +
		"Score: 812\n" +
		"Top Comment 1: Finally a **good** 8B\n" +
		"Comment Score: 120\n\n" +
		"Comment ID: c1\n\n" +
		separator +
		"ID: def\n" +
		"Subreddit: LocalLLaMA\n" +
		"Title: Running 70B on a laptop\n" +
		"Source Data URL: https://example.com/70b\n" +
		"Reddit Post URL: https://redd.it/def\n" +
		"Score: 95\n" +
		"Text: Works with *llama.cpp*\n" +
		"Top Comment 1: needs 64GB\n" +
		"Comment Score: 7\n\n" +
		"Comment ID: d1\n\n" +
		separator
	if diff := cmp.Diff(expected, blob); diff != "" {
		t.Errorf("context mismatch (-want +got):\n%s", diff)
	}
	if fake.tokenCalls.Load() != 1 {
		t.Errorf("token should be fetched once and reused, got %d calls", fake.tokenCalls.Load())
	}
}

func TestFetch_StatusErrorIsAdapterError(t *testing.T) {
	fake := newFakeReddit(t)
	fake.topStatus = http.StatusTooManyRequests

	_, err := fake.client(t).Fetch(context.Background(), "LocalLLaMA", "day", 2, 1)
	var adapterErr *providers.AdapterError
	if !errors.As(err, &adapterErr) || adapterErr.Adapter != "reddit" || adapterErr.Op != "top_posts" {
		t.Fatalf("expected reddit AdapterError, got %v", err)
	}
	var statusErr *utils.StatusError
	if !errors.As(err, &statusErr) || !statusErr.Retryable() {
		t.Errorf("429 should stay reachable and retryable, got %v", err)
	}
}

func TestFetch_BadCredentials(t *testing.T) {
	fake := newFakeReddit(t)
	client, err := New(
		WithCredentials("id", "wrong"),
		WithBaseURL(fake.server.URL),
		WithTokenURL(fake.server.URL+"/api/v1/access_token"),
		WithUserAgent("radar-test"),
		WithHTTPClient(fake.server.Client()),
		WithRateLimit(0),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Fetch(context.Background(), "LocalLLaMA", "day", 2, 1); err == nil {
		t.Fatal("expected token failure to surface")
	}
	if fake.apiCalls.Load() != 0 {
		t.Error("API must not be called without a token")
	}
}

func TestFormatContext_Empty(t *testing.T) {
	if got := FormatContext("LocalLLaMA", nil); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}
