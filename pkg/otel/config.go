package otel

import (
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config controls span export. Trace context is propagated whether or not
// spans leave the process.
type Config struct {
	ServiceName string
	// Environment is reported as deployment.environment when set.
	Environment string
	EndpointURL string
	Enabled     bool
	// SampleRatio is the fraction of root traces exported, clamped to [0, 1].
	SampleRatio float64
	// Insecure disables TLS towards the collector.
	Insecure           bool
	ResourceAttributes map[string]string
}

func DefaultConfig(serviceName string) Config {
	return Config{
		ServiceName:        serviceName,
		SampleRatio:        1.0,
		Insecure:           true,
		ResourceAttributes: make(map[string]string),
	}
}

func (c Config) exporting() bool {
	return c.Enabled && c.EndpointURL != ""
}

// sampler honours the parent's decision so a trace started upstream of the
// gatekeeper is not split by a second coin toss.
func (c Config) sampler() sdktrace.Sampler {
	var root sdktrace.Sampler
	switch {
	case c.SampleRatio <= 0:
		root = sdktrace.NeverSample()
	case c.SampleRatio >= 1:
		root = sdktrace.AlwaysSample()
	default:
		root = sdktrace.TraceIDRatioBased(c.SampleRatio)
	}
	return sdktrace.ParentBased(root)
}

func (c Config) toResourceAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(c.ResourceAttributes)+2)
	attrs = append(attrs, attribute.String("service.name", c.ServiceName))
	if c.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment", c.Environment))
	}

	for k, v := range c.ResourceAttributes {
		if k == "service.name" || (k == "deployment.environment" && c.Environment != "") {
			continue
		}
		attrs = append(attrs, attribute.String(k, v))
	}

	return attrs
}
