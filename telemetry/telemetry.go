// Package telemetry registers the service with an external observability
// collector over OTLP/gRPC. Registration is lazy: the exporter is only
// created once an API key shows up in the runtime configuration, matching
// how keys arrive through the dashboard rather than at boot.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/hairizuan-noorazman/webtester/logger"
)

const serviceName = "webtester"

// Telemetry manages the lifecycle of the OTLP trace exporter. Until
// EnsureStarted succeeds with a non-empty key, Tracer returns a noop tracer
// and nothing leaves the process.
type Telemetry struct {
	mu       sync.Mutex
	endpoint string
	version  string
	tp       *sdktrace.TracerProvider
	logger   logger.Logger
}

// New creates a Telemetry targeting the given collector endpoint.
func New(endpoint, version string, log logger.Logger) *Telemetry {
	return &Telemetry{
		endpoint: endpoint,
		version:  version,
		logger:   log,
	}
}

// EnsureStarted initializes the exporter if an API key is available and it
// has not been initialized yet. Safe to call before every run.
func (t *Telemetry) EnsureStarted(ctx context.Context, apiKey string) error {
	if apiKey == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tp != nil {
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(t.version),
		),
	)
	if err != nil {
		return fmt.Errorf("create otel resource: %w", err)
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(t.endpoint),
		otlptracegrpc.WithHeaders(map[string]string{
			"authorization": "Bearer " + apiKey,
		}),
	)
	if err != nil {
		return fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.tp = tp

	t.logger.Info(ctx, "observability collector registered", map[string]interface{}{
		"endpoint": t.endpoint,
	})
	return nil
}

// Tracer returns the tracer for run spans. Noop until EnsureStarted ran.
func (t *Telemetry) Tracer() trace.Tracer {
	return otel.Tracer(serviceName)
}

// Shutdown flushes pending spans. No-op when never started.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tp == nil {
		return nil
	}
	return t.tp.Shutdown(ctx)
}
