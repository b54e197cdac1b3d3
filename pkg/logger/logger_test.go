package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/astro-web3/authz-gatekeeper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestNewLogger_JSONAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&buf, "debug", "json")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	log.InfoContext(ctx, "usage recorded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "usage recorded", line["msg"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", line["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", line["span_id"])
	assert.Contains(t, line, "timestamp")
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLogger(&buf, "warn", "text")

	log.Info("dropped")
	log.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestL_FallsBackToDefault(t *testing.T) {
	assert.NotNil(t, logger.L())
}
