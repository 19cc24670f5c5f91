package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ExtractMetrics tracks upstream export downloads.
type ExtractMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseBytes   *prometheus.HistogramVec
	rowsFetched     *prometheus.GaugeVec

	collectors []prometheus.Collector
}

// NewExtractMetrics creates and registers extraction metrics
func NewExtractMetrics(registry *prometheus.Registry) (*ExtractMetrics, error) {
	m := &ExtractMetrics{}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extract_requests_total",
			Help: "Total number of export requests",
		},
		[]string{"table", "status_code"},
	)
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extract_request_duration_seconds",
			Help:    "Time taken to download an export",
			Buckets: prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount12), // 100ms to ~200s
		},
		[]string{"table"},
	)
	m.responseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "extract_response_size_bytes",
			Help:    "Size of export response bodies",
			Buckets: prometheus.ExponentialBuckets(BucketStart1KB, BucketFactor4, BucketCount10), // 1KB to ~256MB
		},
		[]string{"table"},
	)
	m.rowsFetched = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "extract_rows",
			Help: "Number of rows in the last downloaded export",
		},
		[]string{"table"},
	)

	m.collectors = []prometheus.Collector{m.requestsTotal, m.requestDuration, m.responseBytes, m.rowsFetched}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *ExtractMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *ExtractMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordRequest records one export request. statusCode is "error" when no
// response was received.
func (m *ExtractMetrics) RecordRequest(table, statusCode string, seconds float64) {
	m.requestsTotal.WithLabelValues(table, statusCode).Inc()
	m.requestDuration.WithLabelValues(table).Observe(seconds)
}

// RecordResponse records the body size and row count of a successful export.
func (m *ExtractMetrics) RecordResponse(table string, bytes int64, rows int) {
	m.responseBytes.WithLabelValues(table).Observe(float64(bytes))
	m.rowsFetched.WithLabelValues(table).Set(float64(rows))
}
