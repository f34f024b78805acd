package slack

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/leofalp/radar/internal/utils"
	"github.com/leofalp/radar/providers"
	"github.com/leofalp/radar/providers/observability"
)

const adapterName = "slack"

// ErrMissingWebhook is returned by New when no webhook URL is given.
var ErrMissingWebhook = errors.New("slack webhook URL is empty")

// Webhook delivers messages to one incoming-webhook URL.
type Webhook struct {
	url    string
	client *http.Client
}

// Option configures a Webhook.
type Option func(*Webhook)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(client *http.Client) Option {
	return func(w *Webhook) { w.client = client }
}

// New returns a Webhook posting to url.
func New(url string, opts ...Option) (*Webhook, error) {
	if url == "" {
		return nil, ErrMissingWebhook
	}
	w := &Webhook{url: url, client: &http.Client{Timeout: 10 * time.Second}}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Post sends message. Slack answers a plain "ok" on success; any non-2xx
// status comes back as an *providers.AdapterError wrapping *utils.StatusError.
func (w *Webhook) Post(ctx context.Context, message Message) error {
	observer := observability.ObserverFromContext(ctx)
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanSlackPost,
			observability.String(observability.AttrAdapter, adapterName),
			observability.Int(observability.AttrItemCount, len(message.Blocks)),
		)
		defer span.End()
	}

	_, _, err := utils.Do(ctx, w.client, http.MethodPost, w.url, message)
	err = providers.Wrap(adapterName, "post", err)

	if observer != nil {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(observability.StatusError, err.Error())
		} else {
			span.SetStatus(observability.StatusOK, "")
		}
		observer.Counter(observability.MetricAdapterRequestCount).Add(ctx, 1,
			observability.String(observability.AttrAdapter, adapterName),
			observability.String(observability.AttrAdapterOperation, "post"),
			observability.String(observability.AttrStatus, status),
		)
	}
	return err
}
