package observe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// ProviderConfig configures the OpenTelemetry SDK providers.
type ProviderConfig struct {
	// ServiceName is the service name reported in telemetry. Default: "soulsync".
	ServiceName string

	// ServiceVersion is the service version reported in telemetry.
	ServiceVersion string

	// TraceExporter is an optional span exporter. When nil, spans are
	// recorded for correlation IDs but not exported.
	TraceExporter sdktrace.SpanExporter

	// SampleRatio is the fraction of root traces sampled, in (0, 1].
	// Zero samples everything. Child spans follow their parent.
	SampleRatio float64

	// SetGlobal registers the providers and the W3C propagator as the
	// global OTel defaults.
	SetGlobal bool
}

// Provider owns the SDK meter and tracer providers and the Prometheus
// registry their metrics are exported to.
type Provider struct {
	meters   *sdkmetric.MeterProvider
	tracers  *sdktrace.TracerProvider
	registry *prometheus.Registry
}

// NewProvider builds the SDK providers:
//
//   - a [sdkmetric.MeterProvider] exporting to a dedicated Prometheus
//     registry that also carries the Go runtime and process collectors;
//   - a [sdktrace.TracerProvider] with a parent-based ratio sampler and the
//     configured exporter, if any.
//
// Call [Provider.Shutdown] to flush and close exporters.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "soulsync"
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("observe: sample ratio %v out of range [0, 1]", cfg.SampleRatio)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: build resource: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exp, err := promexporter.New(promexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
	}

	sampler := sdktrace.AlwaysSample()
	if cfg.SampleRatio > 0 && cfg.SampleRatio < 1 {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRatio)
	}
	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler)),
	}
	if cfg.TraceExporter != nil {
		tpOpts = append(tpOpts, sdktrace.WithBatcher(cfg.TraceExporter))
	}

	p := &Provider{
		meters: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exp),
		),
		tracers:  sdktrace.NewTracerProvider(tpOpts...),
		registry: reg,
	}
	if cfg.SetGlobal {
		otel.SetMeterProvider(p.meters)
		otel.SetTracerProvider(p.tracers)
		otel.SetTextMapPropagator(propagation.TraceContext{})
	}
	return p, nil
}

// MeterProvider returns the SDK meter provider, for [NewMetrics].
func (p *Provider) MeterProvider() metric.MeterProvider { return p.meters }

// Handler serves the provider's registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Shutdown flushes and closes both providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	return errors.Join(p.meters.Shutdown(ctx), p.tracers.Shutdown(ctx))
}

// MetricsHandler serves the default Prometheus registry. It is the fallback
// when no [Provider] is configured.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
