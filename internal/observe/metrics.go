// Package observe provides application-wide observability primitives for
// SoulSync: OpenTelemetry metrics, distributed tracing, structured logging,
// and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [NewProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all SoulSync metrics.
const meterName = "github.com/MrWong99/soulsync"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Graph counters ---

	// EntitiesCreated counts stored entities. Use with attribute:
	//   attribute.String("origin", ...): rest, mcp, seed
	EntitiesCreated metric.Int64Counter

	// InteractionsCreated counts appended interactions. Use with attribute:
	//   attribute.String("type", ...)
	InteractionsCreated metric.Int64Counter

	// InteractionsRejected counts failed proposals. Use with attribute:
	//   attribute.String("reason", ...)
	InteractionsRejected metric.Int64Counter

	// Selections counts pointer hit tests. Use with attribute:
	//   attribute.Bool("hit", ...)
	Selections metric.Int64Counter

	// Translations counts translator calls. Use with attribute:
	//   attribute.String("category", ...)
	Translations metric.Int64Counter

	// ToolCalls counts MCP tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("status", ...)
	ToolCalls metric.Int64Counter

	// --- Rendering ---

	// RenderFrames counts painted frames.
	RenderFrames metric.Int64Counter

	// RenderFrameDuration tracks the time to paint and present one frame.
	RenderFrameDuration metric.Float64Histogram

	// --- Gauges ---

	// ActiveLoops tracks the number of running render loops.
	ActiveLoops metric.Int64UpDownCounter

	// CanvasClients tracks the number of connected canvas WebSockets.
	CanvasClients metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// frameBuckets defines histogram bucket boundaries (in seconds) sized around
// a 30 fps frame budget.
var frameBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.02, 0.033, 0.05, 0.1, 0.25,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Counters.
	if met.EntitiesCreated, err = m.Int64Counter("soulsync.entities.created",
		metric.WithDescription("Total entities created by origin."),
	); err != nil {
		return nil, err
	}
	if met.InteractionsCreated, err = m.Int64Counter("soulsync.interactions.created",
		metric.WithDescription("Total interactions appended by type."),
	); err != nil {
		return nil, err
	}
	if met.InteractionsRejected, err = m.Int64Counter("soulsync.interactions.rejected",
		metric.WithDescription("Total rejected interaction proposals by reason."),
	); err != nil {
		return nil, err
	}
	if met.Selections, err = m.Int64Counter("soulsync.selections",
		metric.WithDescription("Total pointer hit tests by outcome."),
	); err != nil {
		return nil, err
	}
	if met.Translations, err = m.Int64Counter("soulsync.translations",
		metric.WithDescription("Total translator calls by category."),
	); err != nil {
		return nil, err
	}
	if met.ToolCalls, err = m.Int64Counter("soulsync.tool.calls",
		metric.WithDescription("Total MCP tool invocations by tool name and status."),
	); err != nil {
		return nil, err
	}

	// Rendering.
	if met.RenderFrames, err = m.Int64Counter("soulsync.render.frames",
		metric.WithDescription("Total frames painted across all render loops."),
	); err != nil {
		return nil, err
	}
	if met.RenderFrameDuration, err = m.Float64Histogram("soulsync.render.frame.duration",
		metric.WithDescription("Time to paint and present one frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(frameBuckets...),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveLoops, err = m.Int64UpDownCounter("soulsync.render.active_loops",
		metric.WithDescription("Number of running render loops."),
	); err != nil {
		return nil, err
	}
	if met.CanvasClients, err = m.Int64UpDownCounter("soulsync.canvas.clients",
		metric.WithDescription("Number of connected canvas WebSockets."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("soulsync.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordEntitiesCreated records n created entities.
func (m *Metrics) RecordEntitiesCreated(ctx context.Context, origin string, n int) {
	m.EntitiesCreated.Add(ctx, int64(n), metric.WithAttributes(attribute.String("origin", origin)))
}

// RecordInteraction records one appended interaction.
func (m *Metrics) RecordInteraction(ctx context.Context, typ string) {
	m.InteractionsCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("type", typ)))
}

// RecordRejection records one rejected proposal.
func (m *Metrics) RecordRejection(ctx context.Context, reason string) {
	m.InteractionsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordSelection records one hit test.
func (m *Metrics) RecordSelection(ctx context.Context, hit bool) {
	m.Selections.Add(ctx, 1, metric.WithAttributes(attribute.Bool("hit", hit)))
}

// RecordTranslation records one translator call.
func (m *Metrics) RecordTranslation(ctx context.Context, category string) {
	m.Translations.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// RecordToolCall is a convenience method that records a tool call counter
// increment with the standard attribute set.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	m.ToolCalls.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("status", status),
		),
	)
}

// RecordFrame records one painted frame and its duration in seconds.
func (m *Metrics) RecordFrame(ctx context.Context, seconds float64) {
	m.RenderFrames.Add(ctx, 1)
	m.RenderFrameDuration.Record(ctx, seconds)
}
