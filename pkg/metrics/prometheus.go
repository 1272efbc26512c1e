// Package metrics provides Prometheus metrics for the ingestion pipeline.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by the ingestion commands.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Mapping
	documentsMapped  *prometheus.CounterVec
	documentsDropped *prometheus.CounterVec

	// Reading
	windowsRead *prometheus.CounterVec
	rowsSkipped *prometheus.CounterVec

	// Bulk loading
	bulkRequests     *prometheus.CounterVec
	bulkLatency      *prometheus.HistogramVec
	documentsIndexed *prometheus.CounterVec
	documentsFailed  *prometheus.CounterVec

	// Crawling
	partitions   *prometheus.CounterVec
	fetchBytes   *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ingestor",
		subsystem:        "pipeline",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.documentsMapped = m.counterVec("documents_mapped_total",
		"Raw records successfully mapped into documents", "kind")
	m.documentsDropped = m.counterVec("documents_dropped_total",
		"Raw records that produced no document", "kind", "reason")

	m.windowsRead = m.counterVec("windows_read_total",
		"Bounded windows handed to the mapper", "reader")
	m.rowsSkipped = m.counterVec("rows_skipped_total",
		"Malformed rows skipped while reading", "reader")

	m.bulkRequests = m.counterVec("bulk_requests_total",
		"Bulk submissions by index and outcome", "index", "status")
	m.bulkLatency = m.histogramVec("bulk_latency_milliseconds",
		"Bulk submission latency in milliseconds", "index")
	m.documentsIndexed = m.counterVec("documents_indexed_total",
		"Documents accepted by the destination", "index")
	m.documentsFailed = m.counterVec("documents_failed_total",
		"Documents rejected by the destination or lost with a failed bulk", "index")

	m.partitions = m.counterVec("partitions_total",
		"Partitions by source and terminal state", "source", "state")
	m.fetchBytes = m.counterVec("fetch_bytes_total",
		"Bytes downloaded from remote sources", "source")
	m.fetchLatency = m.histogramVec("fetch_latency_milliseconds",
		"Remote fetch latency in milliseconds", "source")
}

// RecordDocumentMapped counts one mapped document of kind.
func RecordDocumentMapped(kind string) {
	globalManager.documentsMapped.WithLabelValues(kind).Inc()
}

// RecordDocumentDropped counts one record of kind that produced no document.
func RecordDocumentDropped(kind, reason string) {
	globalManager.documentsDropped.WithLabelValues(kind, reason).Inc()
}

// RecordWindow counts one window emitted by reader.
func RecordWindow(reader string) {
	globalManager.windowsRead.WithLabelValues(reader).Inc()
}

// RecordRowSkipped counts one malformed row skipped by reader.
func RecordRowSkipped(reader string) {
	globalManager.rowsSkipped.WithLabelValues(reader).Inc()
}

// RecordBulk records the outcome and latency of one bulk submission.
func RecordBulk(index, status string, latencyMs float64) {
	globalManager.bulkRequests.WithLabelValues(index, status).Inc()
	globalManager.bulkLatency.WithLabelValues(index).Observe(latencyMs)
}

// RecordIndexed adds n accepted documents for index.
func RecordIndexed(index string, n int) {
	globalManager.documentsIndexed.WithLabelValues(index).Add(float64(n))
}

// RecordFailed adds n rejected documents for index.
func RecordFailed(index string, n int) {
	globalManager.documentsFailed.WithLabelValues(index).Add(float64(n))
}

// RecordPartition counts a partition reaching a terminal state.
func RecordPartition(source, state string) {
	globalManager.partitions.WithLabelValues(source, state).Inc()
}

// RecordFetch records a completed download.
func RecordFetch(source string, bytes int64, latencyMs float64) {
	globalManager.fetchBytes.WithLabelValues(source).Add(float64(bytes))
	globalManager.fetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// Gatherer exposes the process registry, e.g. for tests or a scrape handler.
func Gatherer() prometheus.Gatherer {
	return customRegistry
}

// WriteTextfile dumps the process registry in the node-exporter textfile
// format. Batch commands call it once before exiting.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
