package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts import outcomes. Orphan removals are observable only here
// and in the log.
type Metrics struct {
	entries  *prometheus.CounterVec
	removals *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers import metrics with reg. A nil reg creates metrics
// that are not registered anywhere.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		entries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmrestore",
			Name:      "import_entries_total",
			Help:      "Archive script entries processed, by outcome.",
		}, []string{"outcome"}),

		removals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmrestore",
			Name:      "orphan_removals_total",
			Help:      "Uninstall requests for scripts absent from the archive, by result.",
		}, []string{"result"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gmrestore",
			Name:      "import_duration_seconds",
			Help:      "Wall time of one archive pass, excluding detached removals.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) entry(o Outcome) {
	m.entries.WithLabelValues(string(o)).Inc()
}

func (m *Metrics) removal(ok bool) {
	result := "succeeded"
	if !ok {
		result = "failed"
	}
	m.removals.WithLabelValues(result).Inc()
}
