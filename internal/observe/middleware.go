package observe

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
	"go.opentelemetry.io/otel/trace"
)

// statusRecorder wraps [http.ResponseWriter] to capture the status code
// written by the downstream handler.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code and delegates to the wrapped writer.
func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets WebSocket upgrades pass through the middleware. A hijacked
// connection is reported with status 101.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("observe: %T does not support hijacking", r.ResponseWriter)
	}
	r.statusCode = http.StatusSwitchingProtocols
	return hj.Hijack()
}

// Flush delegates to the wrapped writer when it supports flushing.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer to [http.ResponseController].
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// MiddlewareOption configures [Middleware].
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	quiet map[string]bool
	prop  propagation.TextMapPropagator
}

// WithQuietPaths logs requests for the given exact paths at debug level
// instead of info. Probes and scrapes are typical candidates.
func WithQuietPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, p := range paths {
			c.quiet[p] = true
		}
	}
}

// WithPropagator overrides the W3C Trace Context propagator.
func WithPropagator(p propagation.TextMapPropagator) MiddlewareOption {
	return func(c *middlewareConfig) {
		if p != nil {
			c.prop = p
		}
	}
}

// Middleware returns an [http.Handler] wrapper that:
//
//  1. Extracts W3C Trace Context from incoming request headers (or starts a
//     new trace).
//  2. Starts a server span and sets the X-Correlation-ID response header
//     from its trace ID.
//  3. Labels the span and the duration metric with the matched ServeMux
//     route pattern (for example "/api/entities/{id}"), falling back to the
//     raw path when no pattern matched.
//  4. Records request duration to [Metrics.HTTPRequestDuration].
//  5. Logs request completion with status code, duration and trace ID.
func Middleware(m *Metrics, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{
		quiet: make(map[string]bool),
		prop:  propagation.TraceContext{},
	}
	for _, o := range opts {
		o(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := cfg.prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := StartSpan(ctx, "HTTP "+r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()

			cid := CorrelationID(ctx)
			if cid != "" {
				w.Header().Set("X-Correlation-ID", cid)
			}
			cfg.prop.Inject(ctx, propagation.HeaderCarrier(w.Header()))

			// The mux records the matched pattern on this request value.
			r = r.WithContext(ctx)
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := routeOf(r)
			if route != r.URL.Path {
				span.SetName("HTTP " + r.Method + " " + route)
				span.SetAttributes(semconv.HTTPRoute(route))
			}
			span.SetAttributes(semconv.HTTPResponseStatusCode(rec.statusCode))

			duration := time.Since(start)
			m.HTTPRequestDuration.Record(ctx, duration.Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
				),
			)

			level := slog.LevelInfo
			if cfg.quiet[r.URL.Path] {
				level = slog.LevelDebug
			}
			slog.LogAttrs(ctx, level, "request completed",
				slog.String("trace_id", cid),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", route),
				slog.Int("status", rec.statusCode),
				slog.Duration("duration", duration),
			)
		})
	}
}

// routeOf returns the path part of the pattern that matched r, or the raw
// path when r was not routed by a ServeMux.
func routeOf(r *http.Request) string {
	if r.Pattern == "" {
		return r.URL.Path
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}
