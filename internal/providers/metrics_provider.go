package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"tracer/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncStoreFailures(operation string)
	SetFeedSubscribers(count int)
}

// StoreStats is the read side of the store the gauges sample.
type StoreStats interface {
	DataPointCount() int
	SeriesCount() int
	Revision() uint64
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	storeFailures       *prometheus.CounterVec
	feedSubscribers     prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncStoreFailures(operation string) {
	m.storeFailures.WithLabelValues(operation).Inc()
}

func (m *MetricsProvider) SetFeedSubscribers(count int) {
	m.feedSubscribers.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, store StoreStats) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracer_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracer_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracer_view_cache_hits_total",
			Help: "Total number of view cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tracer_view_cache_misses_total",
			Help: "Total number of view cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracer_backup_duration_seconds",
			Help:    "Duration of backup writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		storeFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "tracer_store_failures_total",
			Help: "Store operations rejected by storage or validation",
		}, []string{"operation"}),

		feedSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tracer_feed_subscribers",
			Help: "Open WebSocket change feed connections",
		}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tracer_datapoints_total",
		Help: "Data points in the store cache",
	}, func() float64 {
		return float64(store.DataPointCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tracer_series_total",
		Help: "Series in the store cache",
	}, func() float64 {
		return float64(store.SeriesCount())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "tracer_store_revision",
		Help: "Current store revision",
	}, func() float64 {
		return float64(store.Revision())
	})

	return m
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncStoreFailures(_ string)                        {}
func (n *noopMetrics) SetFeedSubscribers(_ int)                         {}
