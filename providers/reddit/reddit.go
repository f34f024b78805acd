package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/leofalp/radar/internal/utils"
	"github.com/leofalp/radar/providers"
	"github.com/leofalp/radar/providers/observability"
)

const (
	defaultBaseURL   = "https://oauth.reddit.com"
	defaultTokenURL  = "https://www.reddit.com/api/v1/access_token"
	defaultUserAgent = "go:radar:v1 (reddit topic radar)"
	shortlinkPrefix  = "https://redd.it/"

	// DefaultRequestsPerMinute stays under Reddit's OAuth quota of 100 QPM.
	DefaultRequestsPerMinute = 90

	adapterName = "reddit"
)

// ErrMissingCredentials is returned by New when no client id or secret is configured.
var ErrMissingCredentials = errors.New("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET must be set")

// ErrInvalidWindow is returned for a time window Reddit does not support.
var ErrInvalidWindow = errors.New("invalid time window")

// Windows lists the accepted values for the top-posts time filter.
var Windows = []string{"day", "week", "month", "year", "all"}

// Post is a top post together with its leading top-level comments.
type Post struct {
	ID        string
	Subreddit string
	Title     string
	URL       string
	Shortlink string
	Score     int
	// Text is the self-post body as markdown; empty for link posts.
	Text     string
	Comments []Comment
}

// Comment is a top-level comment, with its body as markdown.
type Comment struct {
	ID    string
	Body  string
	Score int
}

// Client reads subreddit listings through Reddit's OAuth API using the
// application-only client-credentials grant.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	baseURL      string
	userAgent    string
	transport    *http.Client
	limiter      *rate.Limiter

	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials overrides REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET.
func WithCredentials(clientID, clientSecret string) Option {
	return func(c *Client) {
		c.clientID = clientID
		c.clientSecret = clientSecret
	}
}

// WithBaseURL points API calls at another host, typically a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithTokenURL overrides the OAuth token endpoint.
func WithTokenURL(tokenURL string) Option {
	return func(c *Client) { c.tokenURL = tokenURL }
}

// WithUserAgent sets the User-Agent Reddit requires on every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// WithHTTPClient sets the client used for both token and API requests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.transport = httpClient }
}

// WithRateLimit caps API requests per minute. Zero or less disables limiting.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Client) {
		if requestsPerMinute <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), 1)
	}
}

// New returns a client initialized from REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET
// and REDDIT_USER_AGENT, then applies opts.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		clientID:     os.Getenv("REDDIT_CLIENT_ID"),
		clientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		tokenURL:     defaultTokenURL,
		baseURL:      defaultBaseURL,
		userAgent:    os.Getenv("REDDIT_USER_AGENT"),
		transport:    &http.Client{Timeout: 30 * time.Second},
	}
	WithRateLimit(DefaultRequestsPerMinute)(c)
	for _, opt := range opts {
		opt(c)
	}
	if c.clientID == "" || c.clientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}

	credentials := &clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	// The token request goes through the same transport, so it carries the User-Agent too.
	base := &http.Client{
		Timeout:   c.transport.Timeout,
		Transport: &userAgentTransport{userAgent: c.userAgent, next: c.transport.Transport},
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	c.httpClient = credentials.Client(tokenCtx)
	c.httpClient.Timeout = c.transport.Timeout

	return c, nil
}

type userAgentTransport struct {
	userAgent string
	next      http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return next.RoundTrip(clone)
}

// ValidWindow reports whether window is an accepted top-posts filter.
func ValidWindow(window string) bool {
	for _, w := range Windows {
		if w == window {
			return true
		}
	}
	return false
}

// TopPosts lists the top posts of subreddit within window, without comments.
func (c *Client) TopPosts(ctx context.Context, subreddit, window string, limit int) ([]Post, error) {
	if !ValidWindow(window) {
		return nil, providers.Wrap(adapterName, "top_posts", fmt.Errorf("%w %q", ErrInvalidWindow, window))
	}
	if subreddit == "" {
		return nil, providers.Wrap(adapterName, "top_posts", errors.New("subreddit is empty"))
	}

	query := url.Values{}
	query.Set("t", window)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")
	endpoint := fmt.Sprintf("%s/r/%s/top?%s", c.baseURL, url.PathEscape(subreddit), query.Encode())

	page, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, providers.Wrap(adapterName, "top_posts", err)
	}
	var out listing
	if err := json.Unmarshal(page, &out); err != nil {
		return nil, providers.Wrap(adapterName, "top_posts", fmt.Errorf("error decoding listing: %w", err))
	}

	posts := make([]Post, 0, len(out.Data.Children))
	for _, child := range out.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		text, err := toMarkdown(child.Data.SelftextHTML, child.Data.Selftext)
		if err != nil {
			return nil, providers.Wrap(adapterName, "top_posts", fmt.Errorf("error converting post %s: %w", child.Data.ID, err))
		}
		posts = append(posts, Post{
			ID:        child.Data.ID,
			Subreddit: child.Data.Subreddit,
			Title:     child.Data.Title,
			URL:       child.Data.URL,
			Shortlink: shortlinkPrefix + child.Data.ID,
			Score:     child.Data.Score,
			Text:      text,
		})
	}
	return posts, nil
}

// TopComments returns up to limit top-level comments of a post, best first.
// "load more" placeholders are dropped. A limit of zero makes no request.
func (c *Client) TopComments(ctx context.Context, postID string, limit int) ([]Comment, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("depth", "1")
	query.Set("sort", "top")
	query.Set("raw_json", "1")
	endpoint := fmt.Sprintf("%s/comments/%s?%s", c.baseURL, url.PathEscape(postID), query.Encode())

	page, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, providers.Wrap(adapterName, "comments", err)
	}
	var listings []listing
	if err := json.Unmarshal(page, &listings); err != nil {
		return nil, providers.Wrap(adapterName, "comments", fmt.Errorf("error decoding comments: %w", err))
	}
	if len(listings) < 2 {
		return nil, nil
	}

	comments := make([]Comment, 0, limit)
	for _, child := range listings[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		body, err := toMarkdown(child.Data.BodyHTML, child.Data.Body)
		if err != nil {
			return nil, providers.Wrap(adapterName, "comments", fmt.Errorf("error converting comment %s: %w", child.Data.ID, err))
		}
		comments = append(comments, Comment{ID: child.Data.ID, Body: body, Score: child.Data.Score})
		if len(comments) == limit {
			break
		}
	}
	return comments, nil
}

// Fetch loads the top posts of subreddit with their comments and renders
// them as one text blob (see FormatContext).
func (c *Client) Fetch(ctx context.Context, subreddit, window string, postLimit, commentLimit int) (string, error) {
	observer := observability.ObserverFromContext(ctx)
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanRedditFetch,
			observability.String(observability.AttrAdapter, adapterName),
			observability.String(observability.AttrSourceName, subreddit),
		)
		defer span.End()
	}

	posts, err := c.fetchPosts(ctx, subreddit, window, postLimit, commentLimit)
	if observer != nil {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		} else {
			span.SetAttributes(observability.Int(observability.AttrItemCount, len(posts)))
			span.SetStatus(observability.StatusOK, "")
		}
		observer.Counter(observability.MetricAdapterRequestCount).Add(ctx, 1,
			observability.String(observability.AttrAdapter, adapterName),
			observability.String(observability.AttrAdapterOperation, "fetch"),
			observability.String(observability.AttrStatus, status),
		)
	}
	if err != nil {
		return "", err
	}
	if observer != nil {
		observer.Debug(ctx, "reddit posts fetched",
			observability.String(observability.AttrSourceName, subreddit),
			observability.Int(observability.AttrItemCount, len(posts)),
		)
	}
	return FormatContext(subreddit, posts), nil
}

func (c *Client) fetchPosts(ctx context.Context, subreddit, window string, postLimit, commentLimit int) ([]Post, error) {
	posts, err := c.TopPosts(ctx, subreddit, window, postLimit)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		comments, err := c.TopComments(ctx, posts[i].ID, commentLimit)
		if err != nil {
			return nil, err
		}
		posts[i].Comments = comments
	}
	return posts, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	_, body, err := utils.Do(ctx, c.httpClient, http.MethodGet, endpoint, nil, utils.WithHeader("User-Agent", c.userAgent))
	return body, err
}

// toMarkdown prefers the rendered HTML of a post or comment body, which
// carries decoded entities, and falls back to the raw text.
func toMarkdown(html, raw string) (string, error) {
	if html == "" {
		return strings.TrimSpace(raw), nil
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(markdown), nil
}

// FormatContext renders posts in the layout the prompts expect: one block
// per post with its comments, each block closed by a line of 50 '='.
// The Subreddit line names the requested subreddit.
func FormatContext(subreddit string, posts []Post) string {
	var b strings.Builder
	for _, post := range posts {
		fmt.Fprintf(&b, "ID: %s\n", post.ID)
		fmt.Fprintf(&b, "Subreddit: %s\n", subreddit)
		fmt.Fprintf(&b, "Title: %s\n", post.Title)
		fmt.Fprintf(&b, "Source Data URL: %s\n", post.URL)
		fmt.Fprintf(&b, "Reddit Post URL: %s\n", post.Shortlink)
		fmt.Fprintf(&b, "Score: %d\n", post.Score)
		if post.Text != "" {
			fmt.Fprintf(&b, "Text: %s\n", post.Text)
		}
		for i, comment := range post.Comments {
			fmt.Fprintf(&b, "Top Comment %d: %s\n", i+1, comment.Body)
			fmt.Fprintf(&b, "Comment Score: %d\n\n", comment.Score)
			fmt.Fprintf(&b, "Comment ID: %s\n\n", comment.ID)
		}
		b.WriteString(strings.Repeat("=", 50))
		b.WriteString("\n\n")
	}
	return b.String()
}

type listing struct {
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string    `json:"kind"`
	Data thingData `json:"data"`
}

// thingData holds the fields radar reads from both posts (t3) and comments (t1).
type thingData struct {
	ID        string `json:"id"`
	Subreddit string `json:"subreddit"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Score     int    `json:"score"`
	Body      string `json:"body"`
	BodyHTML  string `json:"body_html"`

	Selftext     string `json:"selftext"`
	SelftextHTML string `json:"selftext_html"`
}
