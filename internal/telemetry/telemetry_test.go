package telemetry

import (
	"context"
	"testing"
)

func TestInit_Disabled(t *testing.T) {
	t.Setenv("GHIMPORT_OTEL_ENABLED", "")
	if err := Init(context.Background(), "ghimport", "test"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer func() { _ = Shutdown(context.Background()) }()

	_, span := Tracer("").Start(context.Background(), "noop")
	defer span.End()
	if span.IsRecording() {
		t.Error("span is recording with telemetry disabled")
	}
}

func TestInit_EnabledWithoutEndpoint(t *testing.T) {
	t.Setenv("GHIMPORT_OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")

	if err := Init(context.Background(), "ghimport", "test"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	_, span := Tracer("").Start(context.Background(), "recorded")
	if !span.IsRecording() {
		t.Error("span is not recording with telemetry enabled")
	}
	span.End()

	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
	if len(shutdownFns) != 0 {
		t.Errorf("shutdownFns not cleared: %d left", len(shutdownFns))
	}
}

func TestOTLPEndpointSet(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		signal  string
		wantSet bool
	}{
		{"none", nil, "TRACES", false},
		{"shared endpoint", map[string]string{"OTEL_EXPORTER_OTLP_ENDPOINT": "http://localhost:4318"}, "METRICS", true},
		{"matching signal", map[string]string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "http://localhost:4318"}, "TRACES", true},
		{"other signal only", map[string]string{"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "http://localhost:4318"}, "METRICS", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got := otlpEndpointSet(tt.signal); got != tt.wantSet {
				t.Errorf("otlpEndpointSet(%q) = %v, want %v", tt.signal, got, tt.wantSet)
			}
		})
	}
}
