// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "therapy_sessions"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Upload pipeline metrics
	UploadsTotal    prometheus.Counter
	UploadsActive   prometheus.Gauge
	UploadsSuccess  prometheus.Counter
	UploadsFailed   *prometheus.CounterVec
	UploadDuration  prometheus.Histogram
	UploadSizeBytes prometheus.Histogram

	// Per-stage metrics
	StageLatency *prometheus.HistogramVec
	StageErrors  *prometheus.CounterVec

	// Store metrics
	StoreInserts      prometheus.Counter
	StoreInsertErrors prometheus.Counter
	StoreReads        *prometheus.CounterVec

	// Similarity search metrics
	SearchesTotal prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Upload pipeline metrics
		UploadsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Total number of upload requests started",
		}),
		UploadsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uploads_active",
			Help:      "Number of uploads currently being processed",
		}),
		UploadsSuccess: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_success_total",
			Help:      "Total number of uploads that produced a stored session",
		}),
		UploadsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_failed_total",
			Help:      "Total number of failed uploads",
		}, []string{"stage"}),
		UploadDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_duration_seconds",
			Help:      "End-to-end upload pipeline duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		UploadSizeBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_size_bytes",
			Help:      "Size of uploaded audio files in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),

		// Per-stage metrics
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_seconds",
			Help:      "Latency of each pipeline stage in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		StageErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Total number of pipeline stage failures",
		}, []string{"stage"}),

		// Store metrics
		StoreInserts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_inserts_total",
			Help:      "Total number of session records inserted",
		}),
		StoreInsertErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_insert_errors_total",
			Help:      "Total number of failed session inserts",
		}),
		StoreReads: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_reads_total",
			Help:      "Total number of store read operations",
		}, []string{"operation"}),

		// Similarity search metrics
		SearchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of similarity searches",
		}),

		// Kafka publish metrics
		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordUploadStart records a new upload entering the pipeline.
func (m *Metrics) RecordUploadStart(sizeBytes int64) {
	m.UploadsTotal.Inc()
	m.UploadsActive.Inc()
	m.UploadSizeBytes.Observe(float64(sizeBytes))
}

// RecordUploadEnd records an upload leaving the pipeline. failedStage is
// empty on success.
func (m *Metrics) RecordUploadEnd(failedStage string, durationSeconds float64) {
	m.UploadsActive.Dec()
	m.UploadDuration.Observe(durationSeconds)
	if failedStage == "" {
		m.UploadsSuccess.Inc()
	} else {
		m.UploadsFailed.WithLabelValues(failedStage).Inc()
	}
}

// RecordStage records one pipeline stage completing.
func (m *Metrics) RecordStage(stage string, err error, latencySeconds float64) {
	m.StageLatency.WithLabelValues(stage).Observe(latencySeconds)
	if err != nil {
		m.StageErrors.WithLabelValues(stage).Inc()
	}
}

// RecordInsert records a store insert attempt.
func (m *Metrics) RecordInsert(err error) {
	if err != nil {
		m.StoreInsertErrors.Inc()
		return
	}
	m.StoreInserts.Inc()
}

// RecordRead records a store read operation (list, get, search).
func (m *Metrics) RecordRead(operation string) {
	m.StoreReads.WithLabelValues(operation).Inc()
}

// RecordSearch records a similarity search request.
func (m *Metrics) RecordSearch() {
	m.SearchesTotal.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
