// Package metrics exposes the platform's Prometheus instrumentation.  All
// collectors are created against an injected registry so tests can use a
// private one, and every Record helper is nil-receiver safe so callers that
// run without metrics (one-shot CLI commands) pass nil instead of wiring a
// registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "intel"

// Metrics bundles the platform collectors.
type Metrics struct {
	registry *prometheus.Registry

	resolutions   *prometheus.CounterVec
	matchScore    prometheus.Histogram
	linksCreated  prometheus.Counter
	refreshTotals *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New creates and registers the platform collectors on the given registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Candidate resolutions by outcome action.",
		}, []string{"action"}),
		matchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_score",
			Help:      "Best combined similarity score per accepted match.",
			Buckets:   prometheus.LinearBuckets(0.5, 0.05, 11),
		}),
		linksCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Intelligence links created (idempotent replays excluded).",
		}),
		refreshTotals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_records_total",
			Help:      "Batch refresh record outcomes by source type and result.",
		}, []string{"source_type", "result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(m.resolutions, m.matchScore, m.linksCreated, m.refreshTotals, m.httpDuration)
	return m
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordResolution counts one resolution outcome ("created", "updated",
// "skipped", "rejected").
func (m *Metrics) RecordResolution(action string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(action).Inc()
}

// RecordMatchScore observes the accepted combined similarity score.
func (m *Metrics) RecordMatchScore(score float64) {
	if m == nil {
		return
	}
	m.matchScore.Observe(score)
}

// RecordLinkCreated counts one newly created intelligence link.
func (m *Metrics) RecordLinkCreated() {
	if m == nil {
		return
	}
	m.linksCreated.Inc()
}

// RecordRefreshOutcome counts one refresh record outcome for a source type.
func (m *Metrics) RecordRefreshOutcome(sourceType, result string) {
	if m == nil {
		return
	}
	m.refreshTotals.WithLabelValues(sourceType, result).Inc()
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(route, method, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}
