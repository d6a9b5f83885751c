// Package observability holds the Prometheus metrics and OpenTelemetry spans
// emitted by the watcher.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric name.
const Namespace = "meetsum"

// Metrics holds all Prometheus metrics for the transcript pipeline.
type Metrics struct {
	// Scan metrics
	ScansTotal          prometheus.Counter
	ScanDurationSeconds prometheus.Histogram
	FilesTotal          *prometheus.CounterVec

	// Summarization metrics
	SummariesTotal    *prometheus.CounterVec
	LLMLatencySeconds *prometheus.HistogramVec

	// Failure metrics
	TranscriptErrorsTotal  *prometheus.CounterVec
	WriteBackFailuresTotal *prometheus.CounterVec

	// Worker pool
	JobsInFlight prometheus.Gauge
}

// DefaultMetrics registers the metrics with the default registry.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ScansTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "scans_total",
				Help:      "Total completed scan cycles",
			},
		),
		ScanDurationSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "scan_duration_seconds",
				Help:      "Duration of the discovery and gating phase of a scan",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
		),
		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "files_total",
				Help:      "Files seen by the scanner, by outcome",
			},
			[]string{"outcome"},
		),
		SummariesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "summaries_total",
				Help:      "Summarization attempts by provider and status",
			},
			[]string{"provider", "status"},
		),
		LLMLatencySeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "llm_latency_seconds",
				Help:      "Summarization latency including retries",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30, 60, 120},
			},
			[]string{"provider"},
		),
		TranscriptErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transcript_errors_total",
				Help:      "Transcripts moved to error, by error code",
			},
			[]string{"code"},
		),
		WriteBackFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "writeback_failures_total",
				Help:      "Failed summary write-backs by source kind",
			},
			[]string{"source"},
		),
		JobsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "jobs_in_flight",
				Help:      "Summarization jobs currently running",
			},
		),
	}
}

// RecordScan records a finished scan and its duration.
func (m *Metrics) RecordScan(seconds float64) {
	m.ScansTotal.Inc()
	m.ScanDurationSeconds.Observe(seconds)
}

// RecordFile records the outcome of one file in a scan.
func (m *Metrics) RecordFile(outcome string) {
	m.FilesTotal.WithLabelValues(outcome).Inc()
}

// RecordSummary records a summarization attempt.
func (m *Metrics) RecordSummary(provider, status string, seconds float64) {
	m.SummariesTotal.WithLabelValues(provider, status).Inc()
	m.LLMLatencySeconds.WithLabelValues(provider).Observe(seconds)
}

// RecordTranscriptError records a transcript moving to the error state.
func (m *Metrics) RecordTranscriptError(code string) {
	m.TranscriptErrorsTotal.WithLabelValues(code).Inc()
}

// RecordWriteBackFailure records a failed write-back.
func (m *Metrics) RecordWriteBackFailure(sourceKind string) {
	m.WriteBackFailuresTotal.WithLabelValues(sourceKind).Inc()
}

// JobStarted increments the in-flight gauge.
func (m *Metrics) JobStarted() {
	m.JobsInFlight.Inc()
}

// JobFinished decrements the in-flight gauge.
func (m *Metrics) JobFinished() {
	m.JobsInFlight.Dec()
}
