// Package telemetry wires OpenTelemetry tracing and metrics for the service.
//
// Initialize must be called once at startup. When an OTLP endpoint is
// configured, spans are exported over gRPC; otherwise, in development mode,
// they are pretty-printed to stdout. Without either, tracing is a no-op and
// every helper in this package stays safe to call.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/itsneelabh/stockbrief"

// Config controls exporter selection and identification.
type Config struct {
	// ServiceName identifies this process in traces.
	ServiceName string

	// Endpoint is an OTLP/gRPC collector address (host:port). Optional.
	Endpoint string

	// StdoutExport enables the stdout span exporter when no endpoint is set.
	// Intended for development only.
	StdoutExport bool
}

var (
	mu       sync.Mutex
	provider *sdktrace.TracerProvider
)

// Initialize sets up the global tracer provider and propagators.
// Calling it twice replaces the previous provider.
func Initialize(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	var exporter sdktrace.SpanExporter
	var err error

	switch {
	case cfg.Endpoint != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
	case cfg.StdoutExport:
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
	default:
		// No exporter configured; leave the global no-op provider in place.
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		return nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName)),
	)
	if err != nil {
		return fmt.Errorf("failed to build resource: %w", err)
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return nil
}

// Shutdown flushes pending spans. Safe to call when Initialize never ran.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if provider == nil {
		return nil
	}
	err := provider.Shutdown(ctx)
	provider = nil
	return err
}

// StartSpan starts a span under the service tracer.
func StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name)
}

// AddSpanEvent records an event on the active span, if any.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// RecordSpanError records an error on the active span, if any.
func RecordSpanError(ctx context.Context, err error) {
	if err == nil {
		return
	}
	trace.SpanFromContext(ctx).RecordError(err)
}

var (
	counterOnce       sync.Once
	invocationCounter metric.Int64Counter
)

// CountInvocation emits a capability invocation counter metric.
// Uses the global meter provider; a no-op unless one is registered.
func CountInvocation(ctx context.Context, capability string, success bool) {
	counterOnce.Do(func() {
		var err error
		invocationCounter, err = otel.Meter(instrumentationName).Int64Counter(
			"capability.invocations",
			metric.WithDescription("Count of capability invocations by outcome"),
		)
		if err != nil {
			invocationCounter = nil
		}
	})
	if invocationCounter == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	invocationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("capability", capability),
		attribute.String("outcome", outcome),
	))
}
