package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/carelocate/waitline"

// Metrics holds the engine's application metrics.
type Metrics struct {
	FetchCount       metric.Int64Counter
	FetchDuration    metric.Float64Histogram
	BreakerOpenCount metric.Int64Counter
	CycleCount       metric.Int64Counter
	CycleDuration    metric.Float64Histogram
	CrowdLogCount    metric.Int64Counter
}

// Setup initializes OpenTelemetry tracing with an OTLP gRPC exporter.
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tracerProvider.Shutdown, nil
}

// InitMetrics initializes the engine metrics.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(scopeName)

	fetchCount, err := meter.Int64Counter(
		"waitline.fetch.count",
		metric.WithDescription("Number of outbound source fetch attempts by source and outcome"),
	)
	if err != nil {
		return nil, err
	}

	fetchDuration, err := meter.Float64Histogram(
		"waitline.fetch.duration",
		metric.WithDescription("Source fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	breakerOpenCount, err := meter.Int64Counter(
		"waitline.breaker.open.count",
		metric.WithDescription("Number of circuit-breaker open transitions"),
	)
	if err != nil {
		return nil, err
	}

	cycleCount, err := meter.Int64Counter(
		"waitline.refresh.cycle.count",
		metric.WithDescription("Number of refresh cycles run"),
	)
	if err != nil {
		return nil, err
	}

	cycleDuration, err := meter.Float64Histogram(
		"waitline.refresh.cycle.duration",
		metric.WithDescription("Refresh cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	crowdLogCount, err := meter.Int64Counter(
		"waitline.crowdlog.count",
		metric.WithDescription("Number of accepted crowd log submissions and confirmations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		FetchCount:       fetchCount,
		FetchDuration:    fetchDuration,
		BreakerOpenCount: breakerOpenCount,
		CycleCount:       cycleCount,
		CycleDuration:    cycleDuration,
		CrowdLogCount:    crowdLogCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(scopeName)
	return tracer.Start(ctx, spanName)
}

// RecordFetch records one source fetch attempt.
func RecordFetch(ctx context.Context, m *Metrics, source, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	}
	m.FetchCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.FetchDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordBreakerOpen records a circuit transition to open.
func RecordBreakerOpen(ctx context.Context, m *Metrics, facilityID, source string) {
	if m == nil {
		return
	}
	m.BreakerOpenCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("facility_id", facilityID),
		attribute.String("source", source),
	))
}

// RecordCycle records one completed refresh cycle.
func RecordCycle(ctx context.Context, m *Metrics, trigger string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{attribute.String("trigger", trigger)}
	m.CycleCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.CycleDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordCrowdLog records an accepted crowd log event.
func RecordCrowdLog(ctx context.Context, m *Metrics, event string) {
	if m == nil {
		return
	}
	m.CrowdLogCount.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}
