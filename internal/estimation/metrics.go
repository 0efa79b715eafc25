package estimation

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rshade/finfocus-energy-engine/internal/carbon"
)

const metricsNamespace = "energy_engine"

// Metrics collects batch counters. A nil *Metrics records nothing.
type Metrics struct {
	RowsProcessed       *prometheus.CounterVec
	BatchFailures       *prometheus.CounterVec
	CatalogBuildSeconds *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RowsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "rows_processed_total",
				Help:      "Rows estimated successfully.",
			},
			[]string{"strategy"},
		),
		BatchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "batch_failures_total",
				Help:      "Batches aborted by a failing row.",
			},
			[]string{"strategy", "kind"},
		),
		CatalogBuildSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "catalog_build_seconds",
				Help:      "Time spent loading and merging a vendor's reference tables.",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
			},
			[]string{"vendor"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.RowsProcessed, m.BatchFailures, m.CatalogBuildSeconds)
	}
	return m
}

func (m *Metrics) rowsProcessed(strategy string, n int) {
	if m == nil {
		return
	}
	m.RowsProcessed.WithLabelValues(strategy).Add(float64(n))
}

func (m *Metrics) batchFailed(strategy string, err error) {
	if m == nil {
		return
	}
	m.BatchFailures.WithLabelValues(strategy, carbon.KindOf(err).String()).Inc()
}

func (m *Metrics) catalogBuilt(vendor carbon.Vendor, d time.Duration) {
	if m == nil {
		return
	}
	m.CatalogBuildSeconds.WithLabelValues(string(vendor)).Observe(d.Seconds())
}
