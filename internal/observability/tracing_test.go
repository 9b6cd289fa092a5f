package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
)

func TestTracingConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("IFR_TRACING_ENABLED", "")
	t.Setenv("IFR_TRACING_EXPORTER", "")
	t.Setenv("IFR_TRACING_SERVICE_NAME", "")
	t.Setenv("IFR_TRACING_SAMPLE_RATIO", "7")

	cfg := TracingConfigFromEnv()

	if cfg.Enabled || cfg.Exporter != "stdout" || cfg.ServiceName != "ifrsim" || cfg.SampleRatio != 1 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	defer ShutdownWithTimeout(context.Background(), shutdown)

	_, span := otel.Tracer("test").Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Fatal("expected an invalid span context from the noop provider")
	}
	span.End()
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		ServiceName: "ifrsim-test",
		Exporter:    "stdout",
		Writer:      &buf,
		SampleRatio: 1,
	})
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "scenario")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if !strings.Contains(buf.String(), `"Name": "scenario"`) {
		t.Fatalf("expected exported span in output:\n%s", buf.String())
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"})
	if err == nil || !strings.Contains(err.Error(), "zipkin") {
		t.Fatalf("expected unsupported exporter error, got %v", err)
	}
}
