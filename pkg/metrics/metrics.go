// Package metrics exposes Prometheus counters for sync runs. A Metrics value
// can be written to a node_exporter textfile after each run, which suits a
// batch job better than serving /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the namespace for all behancesync metrics.
	Namespace = "behancesync"
)

// Asset outcomes
const (
	AssetMirrored = "mirrored"
	AssetCached   = "cached"
	AssetFailed   = "failed"
)

// Metrics holds all Prometheus metrics for a sync. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal        *prometheus.CounterVec
	RateLimitWaitSeconds prometheus.Histogram
	AssetsTotal          *prometheus.CounterVec
	RecordsTotal         *prometheus.CounterVec
	RunDurationSeconds   prometheus.Histogram
	LastRunSuccess       prometheus.Gauge
	LastRunTimestamp     prometheus.Gauge
}

// New creates and registers all metrics on reg. A nil reg gets a fresh
// registry so independent instances never collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "api_requests_total",
				Help:      "Behance API requests by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		RateLimitWaitSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "rate_limit_wait_seconds",
				Help:      "Time requests spent waiting for their rate limit slot",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		AssetsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "assets_total",
				Help:      "Assets processed by outcome",
			},
			[]string{"outcome"},
		),
		RecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "records_total",
				Help:      "Records emitted by type and store status",
			},
			[]string{"type", "status"},
		),
		RunDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of complete sync runs",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		LastRunSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_run_success",
				Help:      "1 if the last run completed, 0 if it failed",
			},
		),
		LastRunTimestamp: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time the last run finished",
			},
		),
	}
}

// Registry returns the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one API request and how long it waited for its slot
func (m *Metrics) ObserveRequest(endpoint, outcome string, wait time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.RateLimitWaitSeconds.Observe(wait.Seconds())
}

// ObserveAsset records one asset outcome
func (m *Metrics) ObserveAsset(outcome string) {
	if m == nil {
		return
	}
	m.AssetsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRecord records one emitted record
func (m *Metrics) ObserveRecord(recordType, status string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(recordType, status).Inc()
}

// ObserveRun records a finished run
func (m *Metrics) ObserveRun(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RunDurationSeconds.Observe(d.Seconds())
	m.LastRunTimestamp.SetToCurrentTime()
	if err != nil {
		m.LastRunSuccess.Set(0)
		return
	}
	m.LastRunSuccess.Set(1)
}

// WriteTextfile writes all metrics in the node_exporter textfile format.
// The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
