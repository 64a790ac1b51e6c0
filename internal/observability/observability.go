// Package observability provides OpenTelemetry-based tracing and metrics
// for model building. It is configured through functional options and is
// entirely optional: a nil *Config disables all instrumentation.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// instrumentationName identifies this library in telemetry backends.
const instrumentationName = "github.com/ElizabethOkerio/ModelBuilder"

// Config holds the observability configuration for a model builder.
// Create one with NewConfig and call Initialize before use.
type Config struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	serviceVersion string
	logger         *slog.Logger

	tracer  *Tracer
	metrics *Metrics
}

// Option configures a Config.
type Option func(*Config)

// WithTracerProvider sets the OpenTelemetry tracer provider used for spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider used for metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Config) {
		c.meterProvider = mp
	}
}

// WithServiceName sets the service name reported on telemetry.
func WithServiceName(name string) Option {
	return func(c *Config) {
		c.serviceName = name
	}
}

// WithServiceVersion sets the service version reported on telemetry.
func WithServiceVersion(version string) Option {
	return func(c *Config) {
		c.serviceVersion = version
	}
}

// WithLogger sets the structured logger used for observability diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// NewConfig creates an observability configuration from the given options.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{
		serviceName: "modelbuilder",
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Initialize creates the tracer and metric instruments. It must be called
// once before the config is handed to a builder.
func (c *Config) Initialize() error {
	var tracer trace.Tracer
	if c.tracerProvider != nil {
		tracer = c.tracerProvider.Tracer(instrumentationName,
			trace.WithInstrumentationVersion(c.serviceVersion))
	} else {
		tracer = noop.NewTracerProvider().Tracer(instrumentationName)
	}
	c.tracer = &Tracer{tracer: tracer, serviceName: c.serviceName}

	metrics, err := newMetrics(c.meterProvider, c.serviceVersion)
	if err != nil {
		return fmt.Errorf("failed to create metric instruments: %w", err)
	}
	c.metrics = metrics
	return nil
}

// Tracer returns the tracer wrapper. It is valid only after Initialize.
func (c *Config) Tracer() *Tracer {
	return c.tracer
}

// Metrics returns the metrics recorder. It is valid only after Initialize.
func (c *Config) Metrics() *Metrics {
	return c.metrics
}

// Logger returns the configured structured logger.
func (c *Config) Logger() *slog.Logger {
	return c.logger
}

// Tracer wraps an OpenTelemetry tracer with spans specific to model building.
type Tracer struct {
	tracer      trace.Tracer
	serviceName string
}

// StartRegistration starts a span covering the registration of a single type.
func (t *Tracer) StartRegistration(ctx context.Context, kind, typeName string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "modelbuilder.register",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			TypeKindAttr(kind),
			TypeNameAttr(typeName),
			attribute.String("service.name", t.serviceName),
		))
}

// StartBuild starts a span covering a full model build.
func (t *Tracer) StartBuild(ctx context.Context) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "modelbuilder.build",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("service.name", t.serviceName)))
}

// Metrics records counters and histograms for model building activity.
// All record methods are safe to call on instruments backed by a no-op
// meter provider.
type Metrics struct {
	typesRegistered metric.Int64Counter
	buildsTotal     metric.Int64Counter
	buildDuration   metric.Float64Histogram
}

func newMetrics(mp metric.MeterProvider, version string) (*Metrics, error) {
	if mp == nil {
		return &Metrics{}, nil
	}
	meter := mp.Meter(instrumentationName, metric.WithInstrumentationVersion(version))

	typesRegistered, err := meter.Int64Counter("modelbuilder.types.registered",
		metric.WithDescription("Number of types registered with the model builder"))
	if err != nil {
		return nil, err
	}
	buildsTotal, err := meter.Int64Counter("modelbuilder.builds.total",
		metric.WithDescription("Number of model builds, by outcome"))
	if err != nil {
		return nil, err
	}
	buildDuration, err := meter.Float64Histogram("modelbuilder.build.duration",
		metric.WithDescription("Model build duration in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		typesRegistered: typesRegistered,
		buildsTotal:     buildsTotal,
		buildDuration:   buildDuration,
	}, nil
}

// RecordTypeRegistered counts a type registration by kind.
func (m *Metrics) RecordTypeRegistered(ctx context.Context, kind string) {
	if m == nil || m.typesRegistered == nil {
		return
	}
	m.typesRegistered.Add(ctx, 1, metric.WithAttributes(TypeKindAttr(kind)))
}

// RecordBuild counts a build and records its duration.
func (m *Metrics) RecordBuild(ctx context.Context, duration time.Duration, succeeded bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !succeeded {
		outcome = "error"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	if m.buildsTotal != nil {
		m.buildsTotal.Add(ctx, 1, attrs)
	}
	if m.buildDuration != nil {
		m.buildDuration.Record(ctx, float64(duration)/float64(time.Millisecond), attrs)
	}
}

// TypeNameAttr returns the span attribute carrying a type's schema name.
func TypeNameAttr(name string) attribute.KeyValue {
	return attribute.String("modelbuilder.type.name", name)
}

// TypeKindAttr returns the span attribute carrying a type's kind.
func TypeKindAttr(kind string) attribute.KeyValue {
	return attribute.String("modelbuilder.type.kind", kind)
}

// TypeCountAttr returns the span attribute carrying the number of types in a model.
func TypeCountAttr(n int) attribute.KeyValue {
	return attribute.Int("modelbuilder.type.count", n)
}

// OperationCountAttr returns the span attribute carrying the number of
// operations in a model.
func OperationCountAttr(n int) attribute.KeyValue {
	return attribute.Int("modelbuilder.operation.count", n)
}
