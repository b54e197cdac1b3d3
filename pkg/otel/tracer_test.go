package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracer_DisabledStillPropagates(t *testing.T) {
	cfg := DefaultConfig("authz-gatekeeper")

	tr, err := InitTracer(cfg)
	require.NoError(t, err)
	require.NotNil(t, tr)

	fields := otelglobal.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")

	assert.NoError(t, Shutdown(context.Background()))
}

func TestConfig_ResourceAttributes(t *testing.T) {
	cfg := DefaultConfig("authz-gatekeeper")
	cfg.Environment = "staging"
	cfg.ResourceAttributes["deployment.environment"] = "ignored"
	cfg.ResourceAttributes["team"] = "platform"

	attrs := cfg.toResourceAttributes()

	assert.ElementsMatch(t, []attribute.KeyValue{
		attribute.String("service.name", "authz-gatekeeper"),
		attribute.String("deployment.environment", "staging"),
		attribute.String("team", "platform"),
	}, attrs)
}

func TestConfig_NoEnvironment(t *testing.T) {
	attrs := DefaultConfig("authz-gatekeeper").toResourceAttributes()

	assert.Equal(t, []attribute.KeyValue{attribute.String("service.name", "authz-gatekeeper")}, attrs)
}

func TestConfig_Exporting(t *testing.T) {
	cfg := DefaultConfig("authz-gatekeeper")
	assert.False(t, cfg.exporting())

	cfg.Enabled = true
	assert.False(t, cfg.exporting(), "no endpoint, nothing to export to")

	cfg.EndpointURL = "grpc://collector:4317"
	assert.True(t, cfg.exporting())
}

func TestConfig_Sampler(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sampledParent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))

	tests := []struct {
		name  string
		ratio float64
		ctx   context.Context
		want  sdktrace.SamplingDecision
	}{
		{name: "zero drops roots", ratio: 0, ctx: context.Background(), want: sdktrace.Drop},
		{name: "above one samples everything", ratio: 3, ctx: context.Background(), want: sdktrace.RecordAndSample},
		{name: "sampled parent wins", ratio: 0, ctx: sampledParent, want: sdktrace.RecordAndSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("authz-gatekeeper")
			cfg.SampleRatio = tt.ratio

			res := cfg.sampler().ShouldSample(sdktrace.SamplingParameters{
				ParentContext: tt.ctx,
				TraceID:       traceID,
				Name:          "gatekeeper.Authorize",
			})
			assert.Equal(t, tt.want, res.Decision)
		})
	}
}
