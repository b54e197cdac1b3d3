package tracer

import (
	"context"
	"sync"

	"github.com/astro-web3/authz-gatekeeper/pkg/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	defaultTracer trace.Tracer
	initOnce      sync.Once
	errInit       error

	noopTracer = noop.NewTracerProvider().Tracer("noop")
)

func InitTracer(serviceName string, cfg otel.Config) error {
	initOnce.Do(func() {
		cfg.ServiceName = serviceName
		t, err := otel.InitTracer(cfg)
		if err != nil {
			errInit = err
			return
		}

		defaultTracer = t
	})

	return errInit
}

// Start opens a span on the process tracer. Before InitTracer it returns a
// non-recording span that still carries the parent span context.
func Start(ctx context.Context, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if defaultTracer == nil {
		return noopTracer.Start(ctx, spanName, opts...)
	}
	return defaultTracer.Start(ctx, spanName, opts...)
}
