package ingestion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRecordsSubmitted = "records_submitted_total"
	MetricRecordsFailed    = "records_failed_total"
	MetricLinesSkipped     = "lines_skipped_total"
	MetricFlushAttempts    = "flush_attempts_total"
	MetricFlushDuration    = "flush_duration_seconds"
)

// Metrics holds the loader's Prometheus collectors on a private registry,
// so several loaders (and tests) never collide on global registration.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	submitted     prometheus.Counter
	failed        prometheus.Counter
	skipped       prometheus.Counter
	flushAttempts prometheus.Counter
	flushDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the loader collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talentload",
			Name:      MetricRecordsSubmitted,
			Help:      "Records accepted by the store.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talentload",
			Name:      MetricRecordsFailed,
			Help:      "Records that could not be stored after retries or were rejected.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talentload",
			Name:      MetricLinesSkipped,
			Help:      "Input lines skipped because they could not be decoded.",
		}),
		flushAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "talentload",
			Name:      MetricFlushAttempts,
			Help:      "Batch insert round trips, including retries.",
		}),
		flushDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "talentload",
			Name:      MetricFlushDuration,
			Help:      "Wall time of a batch flush including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"outcome"}),
	}
	m.registry.MustRegister(m.submitted, m.failed, m.skipped, m.flushAttempts, m.flushDuration)
	return m
}

// Registry returns the registry holding the loader collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metric values in the node_exporter
// textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) recordSubmitted(n int) {
	if m != nil {
		m.submitted.Add(float64(n))
	}
}

func (m *Metrics) recordFailed(n int) {
	if m != nil {
		m.failed.Add(float64(n))
	}
}

func (m *Metrics) recordSkipped() {
	if m != nil {
		m.skipped.Inc()
	}
}

func (m *Metrics) recordAttempt() {
	if m != nil {
		m.flushAttempts.Inc()
	}
}

func (m *Metrics) observeFlush(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.flushDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
