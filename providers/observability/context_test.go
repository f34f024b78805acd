package observability

import (
	"context"
	"errors"
	"testing"
)

// mockSpan is a no-op Span used to verify context propagation.
type mockSpan struct {
	name string
}

func (span *mockSpan) End()                              {}
func (span *mockSpan) SetAttributes(_ ...Attribute)      {}
func (span *mockSpan) SetStatus(_ StatusCode, _ string)  {}
func (span *mockSpan) RecordError(_ error)               {}
func (span *mockSpan) AddEvent(_ string, _ ...Attribute) {}

// mockObserver is a no-op Provider used to verify context propagation.
type mockObserver struct{}

func (observer *mockObserver) StartSpan(ctx context.Context, name string, _ ...Attribute) (context.Context, Span) {
	return ctx, &mockSpan{name: name}
}
func (observer *mockObserver) Counter(_ string) Counter                          { return nil }
func (observer *mockObserver) Histogram(_ string) Histogram                      { return nil }
func (observer *mockObserver) Trace(_ context.Context, _ string, _ ...Attribute) {}
func (observer *mockObserver) Debug(_ context.Context, _ string, _ ...Attribute) {}
func (observer *mockObserver) Info(_ context.Context, _ string, _ ...Attribute)  {}
func (observer *mockObserver) Warn(_ context.Context, _ string, _ ...Attribute)  {}
func (observer *mockObserver) Error(_ context.Context, _ string, _ ...Attribute) {}

func TestSpanFromContext_Empty(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("Expected nil span from empty context, got %v", span)
	}
}

func TestContextWithSpan_RoundTrip(t *testing.T) {
	span := &mockSpan{name: "test-span"}
	ctx := ContextWithSpan(context.Background(), span)

	if got := SpanFromContext(ctx); got != span {
		t.Errorf("Expected the stored span instance, got %v", got)
	}
}

func TestContextWithObserver_RoundTrip(t *testing.T) {
	observer := &mockObserver{}
	ctx := ContextWithObserver(context.Background(), observer)

	retrieved := ObserverFromContext(ctx)
	if retrieved == nil {
		t.Fatal("ObserverFromContext returned nil; expected the stored observer")
	}
	if retrieved != observer {
		t.Errorf("ObserverFromContext returned a different instance; pointer equality expected")
	}
}

func TestObserverFromContext_MissingKey(t *testing.T) {
	if observer := ObserverFromContext(context.Background()); observer != nil {
		t.Errorf("Expected nil observer, got %v", observer)
	}
}

func TestSpanAndObserverKeysDoNotCollide(t *testing.T) {
	span := &mockSpan{name: "span"}
	observer := &mockObserver{}

	ctx := ContextWithSpan(context.Background(), span)
	ctx = ContextWithObserver(ctx, observer)

	if SpanFromContext(ctx) != span {
		t.Error("span lost after attaching observer")
	}
	if ObserverFromContext(ctx) != observer {
		t.Error("observer not retrievable")
	}
}

func TestErrorAttribute(t *testing.T) {
	if attr := Error(nil); attr.Key != AttrError || attr.Value != "" {
		t.Errorf("Error(nil) = %+v, want empty error attribute", attr)
	}
	if attr := Error(errors.New("boom")); attr.Value != "boom" {
		t.Errorf("Error(boom).Value = %v, want boom", attr.Value)
	}
}

func TestStringSliceCopies(t *testing.T) {
	values := []string{"a", "b"}
	attr := StringSlice("k", values)
	values[0] = "mutated"

	stored := attr.Value.([]string)
	if stored[0] != "a" {
		t.Errorf("StringSlice did not copy input, got %v", stored)
	}
}
