package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// ingestion pipeline and the lazy measurement fetch path.
type Metrics struct {
	IndexFetchAttempts *prometheus.CounterVec // labels: outcome={success,error}
	IndexRecordsParsed prometheus.Counter
	ProfilesIngested   prometheus.Counter
	FloatsUpserted     prometheus.Counter

	PathsResolved        prometheus.Counter
	PathResolutionMisses prometheus.Counter

	MeasurementFetches      *prometheus.CounterVec // labels: outcome={success,no_data,error}
	MeasurementRowsPersisted prometheus.Counter
	LazyFetchesInFlight      prometheus.Gauge

	IndexFetchDuration   prometheus.Histogram
	ProfileFetchDuration prometheus.Histogram
	ExtractDuration      prometheus.Histogram
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.IndexFetchAttempts,
		m.IndexRecordsParsed,
		m.ProfilesIngested,
		m.FloatsUpserted,
		m.PathsResolved,
		m.PathResolutionMisses,
		m.MeasurementFetches,
		m.MeasurementRowsPersisted,
		m.LazyFetchesInFlight,
		m.IndexFetchDuration,
		m.ProfileFetchDuration,
		m.ExtractDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics left unregistered to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		IndexFetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "index_fetch_attempts_total",
			Help:      "Index download attempts across all mirrors, by outcome.",
		}, []string{"outcome"}),
		IndexRecordsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "index_records_parsed_total",
			Help:      "Index lines successfully parsed into records.",
		}),
		ProfilesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "profiles_ingested_total",
			Help:      "Profile rows created by the bulk ingest job.",
		}),
		FloatsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "floats_upserted_total",
			Help:      "Float upserts attempted during ingestion (insert-if-absent).",
		}),
		PathsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "archive_paths_resolved_total",
			Help:      "Profiles whose archive path was discovered.",
		}),
		PathResolutionMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "archive_path_misses_total",
			Help:      "Resolution attempts with no index candidate for the platform.",
		}),
		MeasurementFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "measurement_fetches_total",
			Help:      "Profile file fetch-and-extract runs, by outcome.",
		}, []string{"outcome"}),
		MeasurementRowsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "argo",
			Name:      "measurement_rows_persisted_total",
			Help:      "Depth-level rows written to storage.",
		}),
		LazyFetchesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "argo",
			Name:      "lazy_fetches_in_flight",
			Help:      "Measurement fetches currently running from the query path.",
		}),
		IndexFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "argo",
			Name:      "index_fetch_duration_seconds",
			Help:      "Duration of a successful index download.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ProfileFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "argo",
			Name:      "profile_fetch_duration_seconds",
			Help:      "Duration of a NetCDF profile file download.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 180, 300},
		}),
		ExtractDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "argo",
			Name:      "extract_duration_seconds",
			Help:      "Duration of NetCDF decode and series assembly.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
	}
}
