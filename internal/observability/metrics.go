package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_attribution"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// track pipeline and the attribution API.
type Metrics struct {
	ReportsConsumed  prometheus.Counter
	TracksPublished  prometheus.Counter
	MalformedReports prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch cycle metrics.
	ReportBatchSize    prometheus.Histogram
	BatchCycleDuration prometheus.Histogram

	// Tally metrics.
	TracksTallied *prometheus.CounterVec // labels: period={baseline,comparison,outside}

	// Attribution API metrics.
	AttributionRequests *prometheus.CounterVec // labels: endpoint, outcome={ok,undefined,invalid}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "track_reports_consumed_total",
			Help:      "Total track reports read from the source topic.",
		}),
		TracksPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segmented_tracks_published_total",
			Help:      "Total segmented tracks written to the sink topic.",
		}),
		MalformedReports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_track_reports_total",
			Help:      "Track reports dropped because they could not be parsed or segmented.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the track pipeline is consuming, 0 after shutdown.",
		}),
		ReportBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "track_report_batch_size",
			Help:      "Number of track reports per batch fetched from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchCycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "track_batch_cycle_duration_seconds",
			Help:      "Time from fetching a batch of track reports to publishing its segmented tracks.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		TracksTallied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_tallied_total",
			Help:      "Distinct extreme storms counted, by attribution period.",
		}, []string{"period"}),
		AttributionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attribution_requests_total",
			Help:      "Attribution API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding enrichment is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsConsumed,
		m.TracksPublished,
		m.MalformedReports,
		m.PipelineRunning,
		m.ReportBatchSize,
		m.BatchCycleDuration,
		m.TracksTallied,
		m.AttributionRequests,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
