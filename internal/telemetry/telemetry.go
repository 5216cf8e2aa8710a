// Package telemetry wires the optional OTLP trace exporter. When export is
// disabled the global tracer provider stays the default no-op and agent spans
// cost nothing.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/mediaiq/miq/internal/config"
)

// Init installs the OTLP-HTTP trace pipeline when enabled. The returned
// shutdown func flushes pending spans; it is a no-op when export is off.
// The collector endpoint comes from the standard OTEL_EXPORTER_OTLP_*
// environment variables.
func Init(ctx context.Context, settings *config.Settings) (func(context.Context) error, error) {
	if !settings.OTELExportEnabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(settings.OTELServiceName),
	))
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	slog.Info("trace export enabled", "service", settings.OTELServiceName)
	return tp.Shutdown, nil
}
