// Package metrics provides Prometheus metrics for the tracking engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	ActivitiesTotal *prometheus.CounterVec
	SyncCyclesTotal *prometheus.CounterVec
	SyncDuration    prometheus.Histogram
	ErrorsTotal     *prometheus.CounterVec
	PendingEntries  prometheus.Gauge
	AutoSyncActive  prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ActivitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackd_activities_total",
				Help: "Activities processed by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		SyncCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackd_sync_cycles_total",
				Help: "Sync cycles by result.",
			},
			[]string{"result"},
		),
		SyncDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "trackd_sync_duration_seconds",
				Help:    "Duration of a full sync cycle.",
				Buckets: prometheus.DefBuckets,
			},
		),
		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trackd_errors_total",
				Help: "Total errors by stage and type.",
			},
			[]string{"stage", "type"},
		),
		PendingEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trackd_pending_entries",
				Help: "Number of entries awaiting human review.",
			},
		),
		AutoSyncActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "trackd_auto_sync_active",
				Help: "Whether the periodic sync loop is running (0 or 1).",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.ActivitiesTotal)
	reg.MustRegister(m.SyncCyclesTotal)
	reg.MustRegister(m.SyncDuration)
	reg.MustRegister(m.ErrorsTotal)
	reg.MustRegister(m.PendingEntries)
	reg.MustRegister(m.AutoSyncActive)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordActivity increments the processed-activity counter.
func (m *Metrics) RecordActivity(kind, outcome string) {
	if m == nil {
		return
	}
	m.ActivitiesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordSyncCycle increments the sync-cycle counter and observes duration.
func (m *Metrics) RecordSyncCycle(result string, seconds float64) {
	if m == nil {
		return
	}
	m.SyncCyclesTotal.WithLabelValues(result).Inc()
	m.SyncDuration.Observe(seconds)
}

// RecordError increments the error counter.
func (m *Metrics) RecordError(stage, errType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(stage, errType).Inc()
}

// SetPendingEntries updates the pending-entry gauge.
func (m *Metrics) SetPendingEntries(n int) {
	if m == nil {
		return
	}
	m.PendingEntries.Set(float64(n))
}

// SetAutoSyncActive updates the auto-sync gauge.
func (m *Metrics) SetAutoSyncActive(active bool) {
	if m == nil {
		return
	}
	if active {
		m.AutoSyncActive.Set(1)
	} else {
		m.AutoSyncActive.Set(0)
	}
}
