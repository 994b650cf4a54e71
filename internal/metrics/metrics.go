// Package metrics exposes trainer instrumentation as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the trainer's collectors. A nil *Metrics is valid and all
// observation methods become no-ops, so instrumentation stays optional.
type Metrics struct {
	stepsTotal     *prometheus.CounterVec
	exportsTotal   prometheus.Counter
	exportDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "traingraph_steps_total",
				Help: "Number of step calls, labeled by mode (train or eval).",
			},
			[]string{"mode"},
		),
		exportsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "traingraph_exports_total",
				Help: "Number of completed graph exports.",
			},
		),
		exportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "traingraph_export_duration_seconds",
				Help:    "Wall-clock duration of graph export.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
	reg.MustRegister(m.stepsTotal, m.exportsTotal, m.exportDuration)
	return m
}

// ObserveStep counts one step call for the given mode.
func (m *Metrics) ObserveStep(mode string) {
	if m == nil {
		return
	}
	m.stepsTotal.WithLabelValues(mode).Inc()
}

// ObserveExport records one completed export and its duration.
func (m *Metrics) ObserveExport(d time.Duration) {
	if m == nil {
		return
	}
	m.exportsTotal.Inc()
	m.exportDuration.Observe(d.Seconds())
}
