// Package telemetry sets up OpenTelemetry tracing for treesync.
//
// Tracing is off unless OTEL_EXPORTER_OTLP_ENDPOINT is set, in which case
// spans are exported over OTLP/HTTP with a batch processor.
package telemetry

import (
	"context"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	mu sync.RWMutex
	// tracer starts as a noop tracer so packages can create spans without Init.
	tracer trace.Tracer = noop.NewTracerProvider().Tracer("treesync")
)

// Tracer returns the tracer used by all instrumented code.
func Tracer() trace.Tracer {
	mu.RLock()
	defer mu.RUnlock()
	return tracer
}

// SetTracerProvider replaces the tracer, mainly for tests using an in-memory
// span recorder.
func SetTracerProvider(tp trace.TracerProvider) {
	mu.Lock()
	defer mu.Unlock()
	tracer = tp.Tracer("treesync")
}

// Init configures the OTLP exporter when OTEL_EXPORTER_OTLP_ENDPOINT is set.
// It returns a shutdown function that flushes pending spans.
func Init(ctx context.Context, serviceName, version string) func(context.Context) error {
	noopShutdown := func(context.Context) error { return nil }

	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		return noopShutdown
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		// Keep the noop tracer so the CLI is not blocked.
		return noopShutdown
	}

	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	SetTracerProvider(tp)

	return tp.Shutdown
}
