package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrWong99/soulsync"

// Tracer returns the SoulSync tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a span on [Tracer]. Finish it with [EndSpan] or
// span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// EndSpan marks span as failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CorrelationID is the hex trace ID of the span in ctx, or "" when ctx
// carries no valid trace. It is echoed to clients as X-Correlation-ID.
func CorrelationID(ctx context.Context) string {
	if sc, ok := spanContext(ctx); ok {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns the default logger with args attached, plus trace_id and
// span_id when ctx carries a trace.
func Logger(ctx context.Context, args ...any) *slog.Logger {
	if sc, ok := spanContext(ctx); ok {
		args = append(args,
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	if len(args) == 0 {
		return slog.Default()
	}
	return slog.Default().With(args...)
}

func spanContext(ctx context.Context) (trace.SpanContext, bool) {
	sc := trace.SpanContextFromContext(ctx)
	return sc, sc.HasTraceID()
}
