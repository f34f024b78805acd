package client

import (
	"context"
	"time"

	"github.com/leofalp/radar/internal/utils"
	"github.com/leofalp/radar/providers/ai"
	"github.com/leofalp/radar/providers/observability"
)

const (
	callKindComplete = "complete"
	callKindExtract  = "extract"
)

// NewObservabilityMiddleware wraps every provider call in a span
// (client.complete or client.extract, depending on whether a tool is forced)
// and records request count, duration and token metrics. The span and observer
// are placed in the context so providers can add events to them.
func NewObservabilityMiddleware(observer observability.Provider, defaultModel string) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
			model := request.Model
			if model == "" {
				model = defaultModel
			}
			kind, spanName := callKindComplete, observability.SpanClientComplete
			if request.ToolChoiceForced != "" {
				kind, spanName = callKindExtract, observability.SpanClientExtract
			}

			ctx, span := observer.StartSpan(ctx, spanName,
				observability.String(observability.AttrLLMModel, model),
				observability.String(observability.AttrLLMCallKind, kind),
			)
			ctx = observability.ContextWithSpan(ctx, span)
			ctx = observability.ContextWithObserver(ctx, observer)

			observer.Debug(ctx, "llm send",
				observability.String(observability.AttrLLMModel, model),
				observability.String(observability.AttrLLMCallKind, kind),
				observability.Int(observability.AttrRequestMessagesCount, len(request.Messages)),
			)

			start := time.Now()
			response, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				span.RecordError(err)
				span.SetStatus(observability.StatusError, "llm send failed")
				span.End()

				observer.Error(ctx, "llm send failed",
					observability.Error(err),
					observability.Duration(observability.AttrDuration, elapsed),
					observability.String(observability.AttrLLMModel, model),
				)
				observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
					observability.String(observability.AttrStatus, "error"),
					observability.String(observability.AttrLLMCallKind, kind),
				)
				return nil, err
			}

			recordSuccess(ctx, span, observer, response, elapsed, model, kind)
			return response, nil
		}
	}
}

func recordSuccess(ctx context.Context, span observability.Span, observer observability.Provider, response *ai.ChatResponse, elapsed time.Duration, model, kind string) {
	observer.Histogram(observability.MetricClientRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrLLMCallKind, kind),
	)
	observer.Counter(observability.MetricClientRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrLLMCallKind, kind),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrLLMModel, model),
		observability.String(observability.AttrLLMFinishReason, response.FinishReason),
		observability.Duration(observability.AttrDuration, elapsed),
	}

	if response.Usage != nil {
		observer.Counter(observability.MetricClientTokensTotal).Add(ctx, int64(response.Usage.TotalTokens),
			observability.String(observability.AttrLLMCallKind, kind),
		)
		span.SetAttributes(observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens))
		logAttrs = append(logAttrs, observability.Int(observability.AttrLLMTokensTotal, response.Usage.TotalTokens))
	}
	if response.Content != "" {
		logAttrs = append(logAttrs, observability.String("response", utils.TruncateString(response.Content, 100)))
	}

	observer.Info(ctx, "llm send completed", logAttrs...)

	span.SetStatus(observability.StatusOK, "success")
	span.End()
}
