// Package telemetry installs the process wide OpenTelemetry tracer
// provider.
package telemetry

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const ServiceName = "loginhandler"

// Options selects where spans go. An empty Endpoint or Enabled=false leaves
// the global no-op provider in place.
type Options struct {
	Endpoint string
	Enabled  bool
}

// Setup registers an OTLP/HTTP exporting tracer provider and the W3C trace
// context propagator. The returned shutdown flushes pending spans and must
// be called before exit; it is a no-op when tracing is off.
func Setup(
	ctx context.Context,
	serviceName string,
	opts Options,
) (
	shutdown func(context.Context) error,
	err error,
) {
	noop := func(context.Context) error { return nil }

	if !opts.Enabled || opts.Endpoint == "" {
		log.Debug().Msg("tracing disabled")
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(opts.Endpoint),
	)
	if err != nil {
		return noop, fmt.Errorf("trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return noop, fmt.Errorf("trace resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	log.Info().Str("endpoint", opts.Endpoint).Msg("tracing enabled")
	return tp.Shutdown, nil
}
