package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"atscore/internal/config"
	"atscore/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const defaultCollectionInterval = 15 * time.Second

// Manager owns the tracer and meter providers and the domain metrics
type Manager struct {
	settings       Settings
	cfg            config.ObservabilityConfig
	logger         *errors.Logger
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewManager sets up OpenTelemetry. A disabled manager hands out noop
// tracers and records nothing.
func NewManager(settings Settings, cfg config.ObservabilityConfig, logger *errors.Logger) (*Manager, error) {
	if logger == nil {
		logger = errors.NewDiscardLogger()
	}
	om := &Manager{
		settings: settings,
		cfg:      cfg,
		logger:   logger,
		metrics:  &Metrics{},
	}
	if !settings.Enabled {
		return om, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(settings.ServiceName),
			semconv.ServiceVersion(settings.ServiceVersion),
			attribute.String("service.instance.id", settings.ServiceInstance),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	om.resource = res

	if settings.TracingEnabled {
		if err := om.initTracing(); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if settings.MetricsEnabled {
		if err := om.initMetrics(); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return om, nil
}

func (om *Manager) initTracing() error {
	var exporter trace.SpanExporter
	var err error

	switch {
	case om.settings.ConsoleOutput:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case om.cfg.OTLP.Enabled:
		exporter, err = om.createOTLPTraceExporter()
	default:
		exporter = noOpSpanExporter{}
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.settings.SampleRate))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *Manager) initMetrics() error {
	var readers []sdkmetric.Reader

	if om.settings.ConsoleOutput {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.collectionInterval())))
	}

	if om.cfg.OTLP.Enabled {
		exporter, err := om.createOTLPMetricExporter()
		if err != nil {
			return fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(om.collectionInterval())))
	}

	if om.settings.Prometheus.Enabled {
		reader, mux, err := newPrometheusReader(om.settings.Prometheus)
		if err != nil {
			return err
		}
		shutdown, err := startPrometheusServer(mux, om.settings.Prometheus.Port, om.logger)
		if err != nil {
			return err
		}
		readers = append(readers, reader)
		om.shutdownFuncs = append(om.shutdownFuncs, shutdown)
	}

	if len(readers) == 0 {
		readers = append(readers, sdkmetric.NewManualReader())
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}
	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	metrics, err := newMetrics(mp.Meter(om.settings.ServiceName), om.cfg.CustomMetrics)
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

func (om *Manager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(om.cfg.OTLP.Endpoint)}
	if om.cfg.OTLP.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(om.cfg.OTLP.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(om.cfg.OTLP.Headers))
	}
	return otlptracehttp.New(context.Background(), opts...)
}

func (om *Manager) createOTLPMetricExporter() (sdkmetric.Exporter, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(om.cfg.OTLP.Endpoint)}
	if om.cfg.OTLP.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(om.cfg.OTLP.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(om.cfg.OTLP.Headers))
	}
	return otlpmetrichttp.New(context.Background(), opts...)
}

func (om *Manager) collectionInterval() time.Duration {
	if om.cfg.Metrics.CollectionInterval > 0 {
		return om.cfg.Metrics.CollectionInterval
	}
	return defaultCollectionInterval
}

// Metrics returns the domain metrics. Never nil.
func (om *Manager) Metrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// HTTPMiddleware instruments handlers with otelhttp
func (om *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om == nil || !om.settings.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	opts := []otelhttp.Option{}
	if om.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(om.tracerProvider))
	}
	if om.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(om.meterProvider))
	}
	return otelhttp.NewMiddleware(om.settings.ServiceName, opts...)
}

// Tracer returns a tracer for the service
func (om *Manager) Tracer(name string) oteltrace.Tracer {
	if om == nil || om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes exporters and stops the Prometheus server
func (om *Manager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			return err
		}
	}
	return nil
}

type noOpSpanExporter struct{}

func (noOpSpanExporter) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }

func (noOpSpanExporter) Shutdown(context.Context) error { return nil }
