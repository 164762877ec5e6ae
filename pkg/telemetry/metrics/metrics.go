// Package metrics provides Prometheus metrics for the policy engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineMetrics tracks policy engine activity.
//
// Metrics:
//   - regolith_engine_evaluations_total: Query evaluations by outcome
//   - regolith_engine_evaluation_duration_seconds: Query evaluation duration
//   - regolith_engine_policies_loaded: Number of compiled policy modules
//   - regolith_engine_extraction_duration_seconds: Rule inventory extraction duration
//   - regolith_engine_reloads_total: Policy set reloads by result
type EngineMetrics struct {
	// Query evaluations by outcome (defined, undefined, error)
	evaluationsTotal *prometheus.CounterVec

	// Query evaluation duration histogram
	evaluationDuration prometheus.Histogram

	// Number of compiled policy modules
	policiesLoaded prometheus.Gauge

	// Rule inventory extraction duration histogram
	extractionDuration prometheus.Histogram

	// Policy set reloads by result (ok, error)
	reloadsTotal *prometheus.CounterVec
}

// Config contains configuration for metric registration.
type Config struct {
	// Namespace is the metric name prefix (default "regolith").
	Namespace string

	// Subsystem is the metric subsystem (default "engine").
	Subsystem string
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Namespace: "regolith",
		Subsystem: "engine",
	}
}

// NewEngineMetrics creates and registers engine metrics with the
// provided registry.
func NewEngineMetrics(cfg *Config, registry *prometheus.Registry) *EngineMetrics {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	em := &EngineMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of query evaluations by outcome",
			},
			[]string{"outcome"},
		),

		evaluationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of query evaluation in seconds",
				// Evaluations should be fast (< 10ms)
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
		),

		policiesLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "policies_loaded",
				Help:      "Number of compiled policy modules",
			},
		),

		extractionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "extraction_duration_seconds",
				Help:      "Duration of rule inventory extraction in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15),
			},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reloads_total",
				Help:      "Total number of policy set reloads by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.policiesLoaded,
		em.extractionDuration,
		em.reloadsTotal,
	)

	return em
}

// RecordEvaluation records one query evaluation.
// Outcome is "defined", "undefined", or "error".
func (em *EngineMetrics) RecordEvaluation(outcome string, duration time.Duration) {
	em.evaluationsTotal.WithLabelValues(outcome).Inc()
	em.evaluationDuration.Observe(duration.Seconds())
}

// SetPoliciesLoaded updates the compiled module count.
func (em *EngineMetrics) SetPoliciesLoaded(n int) {
	em.policiesLoaded.Set(float64(n))
}

// RecordExtraction records one rule inventory extraction.
func (em *EngineMetrics) RecordExtraction(duration time.Duration) {
	em.extractionDuration.Observe(duration.Seconds())
}

// RecordReload records a policy set reload. Result is "ok" or "error".
func (em *EngineMetrics) RecordReload(result string) {
	em.reloadsTotal.WithLabelValues(result).Inc()
}

// Collector owns a metrics registry and the engine metrics registered
// against it.
type Collector struct {
	registry *prometheus.Registry

	// Engine contains the policy engine metrics.
	Engine *EngineMetrics
}

// NewCollector creates a collector with a fresh registry.
func NewCollector(cfg *Config) *Collector {
	registry := prometheus.NewRegistry()
	return &Collector{
		registry: registry,
		Engine:   NewEngineMetrics(cfg, registry),
	}
}

// Handler returns an HTTP handler exposing the registry in Prometheus
// exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
