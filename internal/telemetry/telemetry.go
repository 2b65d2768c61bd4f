// Package telemetry wires OpenTelemetry into ghimport.
//
// Nothing is recorded unless GHIMPORT_OTEL_ENABLED=true. When enabled, spans
// and metrics go to the OTLP/HTTP endpoint from OTEL_EXPORTER_OTLP_ENDPOINT
// (or the per-signal variables), and to stderr when no endpoint is set.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const instrumentationScope = "github.com/steveyegge/ghimport"

var shutdownFns []func(context.Context) error

// Enabled reports whether telemetry is active (GHIMPORT_OTEL_ENABLED=true).
func Enabled() bool {
	return os.Getenv("GHIMPORT_OTEL_ENABLED") == "true"
}

// Init installs the global tracer and meter providers. When telemetry is
// disabled they are no-ops.
func Init(ctx context.Context, serviceName, version string) error {
	if !Enabled() {
		otel.SetTracerProvider(tracenoop.NewTracerProvider())
		otel.SetMeterProvider(metricnoop.NewMeterProvider())
		return nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName), semconv.ServiceVersion(version)),
		resource.WithHost(),
	)
	if err != nil {
		return fmt.Errorf("telemetry: resource: %w", err)
	}

	spans, err := spanExporter(ctx)
	if err != nil {
		return fmt.Errorf("telemetry: span exporter: %w", err)
	}
	reader, err := metricReader(ctx)
	if err != nil {
		return fmt.Errorf("telemetry: metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res), sdktrace.WithBatcher(spans))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(reader))
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	// Metrics flush first so the final remote-call counts are exported.
	shutdownFns = append(shutdownFns, mp.Shutdown, tp.Shutdown)
	return nil
}

// otlpEndpointSet reports whether an OTLP endpoint is configured for signal
// ("TRACES" or "METRICS").
func otlpEndpointSet(signal string) bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" ||
		os.Getenv("OTEL_EXPORTER_OTLP_"+signal+"_ENDPOINT") != ""
}

func spanExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if otlpEndpointSet("TRACES") {
		return otlptracehttp.New(ctx)
	}
	return stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
}

// metricReader exports periodically; a CLI run usually ends first and the
// remainder is flushed by Shutdown.
func metricReader(ctx context.Context) (sdkmetric.Reader, error) {
	var (
		exp sdkmetric.Exporter
		err error
	)
	if otlpEndpointSet("METRICS") {
		exp, err = buildOTLPMetricExporter(ctx)
	} else {
		exp, err = stdoutmetric.New(stdoutmetric.WithWriter(os.Stderr))
	}
	if err != nil {
		return nil, err
	}
	return sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second)), nil
}

// Tracer returns a tracer for name, or for the module scope when name is empty.
func Tracer(name string) trace.Tracer {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Tracer(name)
}

// Meter returns a meter for name, or for the module scope when name is empty.
func Meter(name string) metric.Meter {
	if name == "" {
		name = instrumentationScope
	}
	return otel.Meter(name)
}

// Shutdown flushes and stops the providers Init installed. It returns the
// joined shutdown errors.
func Shutdown(ctx context.Context) error {
	var errs []error
	for _, fn := range shutdownFns {
		errs = append(errs, fn(ctx))
	}
	shutdownFns = nil
	return errors.Join(errs...)
}
