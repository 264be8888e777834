package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "maritime_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the extraction pipeline.
type Metrics struct {
	PagesFetched    prometheus.Counter
	FetchErrors     prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Outcomes counts per-area results. labels: status={success,no_data,failed,error}
	Outcomes *prometheus.CounterVec
	// FieldResolutions counts resolved fields. labels: field, strategy={markup,label,script,cells}
	FieldResolutions *prometheus.CounterVec

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram
	Published               prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PagesFetched,
		m.FetchErrors,
		m.PipelineRunning,
		m.Outcomes,
		m.FieldResolutions,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Published,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Total BMKG pages fetched with a 200 response.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Total fetches that failed at the transport level or returned a non-200 status.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "Number of dataset batches in progress.",
		}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "area_outcomes_total",
			Help:      "Per-area batch outcomes by status.",
		}, []string{"status"}),
		FieldResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_resolutions_total",
			Help:      "Resolved observation fields by field and extraction strategy.",
		}, []string{"field", "strategy"}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of areas per batch.",
			Buckets:   []float64{1, 10, 25, 50, 100, 150, 200, 300},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete fetch-extract-load batch.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		Published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observations_published_total",
			Help:      "Total area results written to the Kafka topic.",
		}),
	}
}
