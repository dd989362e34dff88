package ranker

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricEvaluationsTotal      = "desarank_evaluations_total"
	MetricEvaluationDuration    = "desarank_evaluation_duration_seconds"
	MetricConsistencyRatio      = "desarank_consistency_ratio"
	MetricRankedVillages        = "desarank_ranked_villages"
	MetricImportedVillagesTotal = "desarank_imported_villages_total"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the ranker's Prometheus collectors. They are not registered
// until Register is called.
type Metrics struct {
	evaluations      *prometheus.CounterVec
	duration         prometheus.Histogram
	consistencyRatio prometheus.Gauge
	rankedVillages   prometheus.Gauge
	imported         *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricEvaluationsTotal,
				Help: "Total number of ranking evaluations by status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricEvaluationDuration,
				Help:    "Histogram of ranking evaluation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
		),
		consistencyRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricConsistencyRatio,
				Help: "Consistency ratio of the current pairwise comparison matrix",
			},
		),
		rankedVillages: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: MetricRankedVillages,
				Help: "Number of villages in the latest ranking",
			},
		),
		imported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricImportedVillagesTotal,
				Help: "Total number of villages appended to the dataset by source",
			},
			[]string{"source"},
		),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.evaluations,
		m.duration,
		m.consistencyRatio,
		m.rankedVillages,
		m.imported,
	}
}

func (m *Metrics) observeEvaluation(status string, seconds float64) {
	m.evaluations.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) setRanking(cr float64, villages int) {
	m.consistencyRatio.Set(cr)
	m.rankedVillages.Set(float64(villages))
}

func (m *Metrics) addImported(source string, n int) {
	m.imported.WithLabelValues(source).Add(float64(n))
}
