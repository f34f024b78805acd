// Package promobs decorates an observability.Provider so that every counter
// and histogram update is also exported as a Prometheus metric.
//
// Tracing and logging are delegated untouched to the wrapped provider.
// Metric names are sanitized (dots become underscores) and attribute keys
// listed with WithLabels become Prometheus labels; other attributes only reach
// the wrapped provider.
package promobs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leofalp/radar/providers/observability"
)

// DefaultBuckets covers sub-millisecond in-memory steps up to multi-minute LLM calls.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// Observer is an observability.Provider that mirrors metrics into Prometheus.
type Observer struct {
	observability.Provider

	factory promauto.Factory
	labels  []string
	buckets []float64

	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
}

var _ observability.Provider = (*Observer)(nil)

// Option configures an Observer.
type Option func(*Observer)

// WithLabels sets the attribute keys promoted to Prometheus labels.
func WithLabels(keys ...string) Option {
	return func(observer *Observer) {
		observer.labels = append([]string(nil), keys...)
	}
}

// WithBuckets overrides DefaultBuckets for every histogram.
func WithBuckets(buckets ...float64) Option {
	return func(observer *Observer) {
		observer.buckets = append([]float64(nil), buckets...)
	}
}

// New wraps inner. Metrics are registered on registerer; pass
// prometheus.DefaultRegisterer for the process-wide registry.
func New(inner observability.Provider, registerer prometheus.Registerer, opts ...Option) *Observer {
	observer := &Observer{
		Provider:   inner,
		factory:    promauto.With(registerer),
		buckets:    DefaultBuckets,
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
	}
	for _, opt := range opts {
		opt(observer)
	}
	return observer
}

// Counter returns a counter that updates both the wrapped provider and a
// Prometheus CounterVec named after the sanitized metric name with a _total
// suffix.
func (o *Observer) Counter(name string) observability.Counter {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.counters[name]; ok {
		return existing
	}
	created := &counter{
		inner:  o.innerCounter(name),
		labels: o.labels,
		vec: o.factory.NewCounterVec(prometheus.CounterOpts{
			Name: MetricName(name) + "_total",
			Help: fmt.Sprintf("Counter mirrored from %s", name),
		}, labelNames(o.labels)),
	}
	o.counters[name] = created
	return created
}

// Histogram returns a histogram that updates both the wrapped provider and a
// Prometheus HistogramVec.
func (o *Observer) Histogram(name string) observability.Histogram {
	o.mu.Lock()
	defer o.mu.Unlock()

	if existing, ok := o.histograms[name]; ok {
		return existing
	}
	created := &histogram{
		inner:  o.innerHistogram(name),
		labels: o.labels,
		vec: o.factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricName(name),
			Help:    fmt.Sprintf("Histogram mirrored from %s", name),
			Buckets: o.buckets,
		}, labelNames(o.labels)),
	}
	o.histograms[name] = created
	return created
}

func (o *Observer) innerCounter(name string) observability.Counter {
	if o.Provider == nil {
		return nil
	}
	return o.Provider.Counter(name)
}

func (o *Observer) innerHistogram(name string) observability.Histogram {
	if o.Provider == nil {
		return nil
	}
	return o.Provider.Histogram(name)
}

// MetricName converts a dotted metric name into a valid Prometheus name.
func MetricName(name string) string {
	var builder strings.Builder
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				builder.WriteRune('_')
			}
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

// labelNames sanitizes attribute keys ("graph.node") into label names ("graph_node").
func labelNames(keys []string) []string {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = MetricName(key)
	}
	return names
}

// labelValues picks the configured label keys out of attrs. Missing keys
// produce empty label values.
func labelValues(keys []string, attrs []observability.Attribute) []string {
	values := make([]string, len(keys))
	for i, key := range keys {
		for _, attr := range attrs {
			if attr.Key == key {
				values[i] = fmt.Sprint(attr.Value)
			}
		}
	}
	return values
}

type counter struct {
	inner  observability.Counter
	labels []string
	vec    *prometheus.CounterVec
}

func (c *counter) Add(ctx context.Context, value int64, attrs ...observability.Attribute) {
	if c.inner != nil {
		c.inner.Add(ctx, value, attrs...)
	}
	if value < 0 {
		return
	}
	c.vec.WithLabelValues(labelValues(c.labels, attrs)...).Add(float64(value))
}

type histogram struct {
	inner  observability.Histogram
	labels []string
	vec    *prometheus.HistogramVec
}

func (h *histogram) Record(ctx context.Context, value float64, attrs ...observability.Attribute) {
	if h.inner != nil {
		h.inner.Record(ctx, value, attrs...)
	}
	h.vec.WithLabelValues(labelValues(h.labels, attrs)...).Observe(value)
}
