// Package telemetry wires up OpenTelemetry tracing for the interview
// service. Spans are emitted around each engine operation and each model
// call; export goes to an OTLP/HTTP collector configured via the standard
// OTEL_EXPORTER_OTLP_* environment variables.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/crafty-arl/etherith/internal/logger"
)

const (
	serviceName    = "etherith"
	serviceVersion = "1.0.0"
)

// Provider manages the tracing pipeline lifecycle.
type Provider struct {
	enabled bool
	tp      *sdktrace.TracerProvider
}

// NewProvider initializes tracing. When disabled it installs nothing and
// Shutdown is a no-op.
func NewProvider(ctx context.Context, enabled bool, environment string, log *logger.Logger) (*Provider, error) {
	if !enabled {
		log.Info("telemetry disabled")
		return &Provider{enabled: false}, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName),
			semconv.ServiceVersionKey.String(serviceVersion),
			semconv.DeploymentEnvironmentKey.String(environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("telemetry initialized", "service", serviceName, "environment", environment)

	return &Provider{enabled: true, tp: tp}, nil
}

// Shutdown flushes and stops the tracing pipeline.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.enabled || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}
