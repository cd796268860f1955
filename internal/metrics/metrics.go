// Package metrics exposes update-run metrics in the Prometheus text format,
// written to a node-exporter textfile.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"repowiki/internal/reconcile"
)

const namespace = "repowiki"

// Metrics holds the collectors of one process.
type Metrics struct {
	reg *prometheus.Registry

	runs         *prometheus.CounterVec
	changes      *prometheus.GaugeVec
	records      prometheus.Gauge
	skipped      prometheus.Gauge
	categorySize *prometheus.GaugeVec
	duration     prometheus.Gauge
	lastSuccess  prometheus.Gauge
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "update_runs_total",
			Help:      "Update runs by outcome.",
		}, []string{"status"}),
		changes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_changes",
			Help:      "Diff entries of the last run by kind.",
		}, []string{"kind"}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Records in the persisted collection.",
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_skipped_records",
			Help:      "Observed records dropped for missing identity in the last run.",
		}),
		categorySize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "category_records",
			Help:      "Records per category.",
		}, []string{"category"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
	m.reg.MustRegister(m.runs, m.changes, m.records, m.skipped, m.categorySize, m.duration, m.lastSuccess)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Run describes a finished update for ObserveRun.
type Run struct {
	Status     string
	Counts     reconcile.Counts
	Total      int
	Skipped    int
	Categories map[string]int
	Duration   time.Duration
	Finished   time.Time
	Failed     bool
}

// ObserveRun records the outcome of one run.
func (m *Metrics) ObserveRun(r Run) {
	m.runs.WithLabelValues(r.Status).Inc()
	m.duration.Set(r.Duration.Seconds())
	if r.Failed {
		return
	}

	m.changes.WithLabelValues(reconcile.KindAdded).Set(float64(r.Counts.Added))
	m.changes.WithLabelValues(reconcile.KindUpdated).Set(float64(r.Counts.Updated))
	m.changes.WithLabelValues(reconcile.KindRemoved).Set(float64(r.Counts.Removed))
	m.records.Set(float64(r.Total))
	m.skipped.Set(float64(r.Skipped))

	m.categorySize.Reset()
	for cat, n := range r.Categories {
		m.categorySize.WithLabelValues(cat).Set(float64(n))
	}
	m.lastSuccess.Set(float64(r.Finished.Unix()))
}

// WriteTextfile writes every metric to path, replacing it atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
