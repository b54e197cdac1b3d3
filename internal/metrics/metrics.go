// Package metrics holds the gatekeeper's Prometheus collectors.
//
// Collectors are created against an explicit registerer so the server and
// tests can each use their own registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatekeeper"

// Validation outcomes.
const (
	OutcomeAllowed         = "allowed"
	OutcomeForbidden       = "forbidden"
	OutcomeUnavailable     = "unavailable"
	OutcomeUnauthenticated = "unauthenticated"
)

// Usage record outcomes.
const (
	OutcomeRecorded = "recorded"
	OutcomeFailed   = "failed"
)

type Metrics struct {
	registry prometheus.Gatherer

	// Validations counts authorization attempts by outcome.
	Validations *prometheus.CounterVec
	// ValidationDuration observes the remote validate call latency.
	ValidationDuration prometheus.Histogram
	// UsageRecords counts usage record deliveries by outcome.
	UsageRecords *prometheus.CounterVec
}

func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total number of request authorizations by outcome.",
			},
			[]string{"outcome"},
		),
		ValidationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "validation_duration_seconds",
				Help:      "Latency of calls to the remote validate endpoint.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		UsageRecords: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "usage_records_total",
				Help:      "Total number of usage records by delivery outcome.",
			},
			[]string{"outcome"},
		),
	}
}

// NewNop returns collectors that are not exported anywhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
