package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "demand-pulse"
	ServiceVersion = "1.0.0"
	MeterName      = "demandcli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	traceExporter := "none"
	if env == "development" {
		traceExporter = "stdout"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  traceExporter,
		MetricExporter: "prometheus",
		SampleRatio:    1.0,
	}
}

// InitializeOTel initializes tracing and metrics for the extraction service
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentName(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := initializeMetrics(cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	return providers, nil
}

func initializeTracing(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	if cfg.TraceExporter == "none" {
		providers.Tracer = otel.Tracer(MeterName)
		return nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)
	return nil
}

func initializeMetrics(cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	if cfg.MetricExporter == "none" {
		providers.Meter = otel.Meter(MeterName)
		return nil
	}

	// A dedicated registry keeps repeated initialization (tests, restarts)
	// from tripping duplicate collector registration
	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetMeterProvider(mp)
	return nil
}

// Shutdown flushes and stops the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ExtractionMetrics holds the extraction pipeline's business metrics
type ExtractionMetrics struct {
	WorkbooksProcessed metric.Int64Counter
	ProductsDetected   metric.Int64Counter
	StructuralFailures metric.Int64Counter
	ExtractionDuration metric.Float64Histogram
}

// NewExtractionMetrics creates the extraction business metrics
func NewExtractionMetrics(meter metric.Meter) (*ExtractionMetrics, error) {
	workbooks, err := meter.Int64Counter(
		"extraction_workbooks_processed_total",
		metric.WithDescription("Total number of workbooks processed"),
	)
	if err != nil {
		return nil, err
	}

	products, err := meter.Int64Counter(
		"extraction_products_detected_total",
		metric.WithDescription("Total number of product blocks detected"),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"extraction_structural_failures_total",
		metric.WithDescription("Total number of workbooks with no recognizable structure"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"extraction_duration_seconds",
		metric.WithDescription("End-to-end extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &ExtractionMetrics{
		WorkbooksProcessed: workbooks,
		ProductsDetected:   products,
		StructuralFailures: failures,
		ExtractionDuration: duration,
	}, nil
}

// RecordExtraction records one completed extraction
func (m *ExtractionMetrics) RecordExtraction(ctx context.Context, products int, seconds float64, source string) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.WorkbooksProcessed.Add(ctx, 1, attrs)
	m.ProductsDetected.Add(ctx, int64(products), attrs)
	m.ExtractionDuration.Record(ctx, seconds, attrs)
}

// RecordStructuralFailure records one workbook that carried no demand table
func (m *ExtractionMetrics) RecordStructuralFailure(ctx context.Context, source string) {
	if m == nil {
		return
	}
	m.StructuralFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
