// Package metrics exposes Prometheus instrumentation for the miner.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ppiankov/subnet-miner/internal/dispatch"
	"github.com/ppiankov/subnet-miner/internal/model"
)

const namespace = "subnet_miner"

// Metrics holds the verification collectors registered on one registry
type Metrics struct {
	registry *prometheus.Registry

	// verifications counts responses by outcome and resolution.
	// Labels: strategy, outcome (ok, invalid, error, panic, timeout), resolution
	verifications *prometheus.CounterVec

	// latency measures end-to-end verification time.
	// Labels: strategy, outcome
	latency *prometheus.HistogramVec

	// confidence tracks the distribution of reported confidence.
	// Labels: strategy, resolution
	confidence *prometheus.HistogramVec

	// rejected counts requests refused before reaching an agent.
	// Labels: reason (blacklisted, rate_limited)
	rejected *prometheus.CounterVec

	strategy string
}

// New creates the collectors on a fresh registry that also carries the
// Go runtime and process collectors
func New(strategy string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		strategy: strategy,
		verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "responses_total",
			Help:      "Total verification responses by outcome and resolution",
		}, []string{"strategy", "outcome", "resolution"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "duration_seconds",
			Help:      "Verification latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"strategy", "outcome"}),
		confidence: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verification",
			Name:      "confidence",
			Help:      "Distribution of reported confidence scores",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100},
		}, []string{"strategy", "resolution"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "requests",
			Name:      "rejected_total",
			Help:      "Requests rejected before verification",
		}, []string{"reason"}),
	}
}

// Registry returns the registry to serve on /metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record implements dispatch.Recorder
func (m *Metrics) Record(_ context.Context, _ model.Statement, resp *model.MinerResponse, outcome dispatch.Outcome, elapsed time.Duration) {
	resolution := string(resp.Resolution)
	m.verifications.WithLabelValues(m.strategy, string(outcome), resolution).Inc()
	m.latency.WithLabelValues(m.strategy, string(outcome)).Observe(elapsed.Seconds())
	m.confidence.WithLabelValues(m.strategy, resolution).Observe(resp.Confidence)
}

// Rejected counts a request refused for reason
func (m *Metrics) Rejected(reason string) {
	m.rejected.WithLabelValues(reason).Inc()
}
