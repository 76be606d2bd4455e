// Package metrics collects run counters for the Prometheus textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters for one process. Methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	TagsFound      prometheus.Counter
	Attachments    *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	RemoteErrors   *prometheus.CounterVec
}

// New creates Metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		TagsFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trello_link_tags_found_total",
			Help: "Distinct tag references extracted from event payloads",
		}),
		Attachments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trello_link_attachments_total",
			Help: "Tag reference outcomes by result",
		}, []string{"outcome"}), // attached, not_found, errored, skipped

		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trello_link_runs_total",
			Help: "Runs by result kind",
		}, []string{"result"}),

		RemoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trello_link_remote_call_duration_seconds",
			Help:    "Duration of Trello API calls by operation",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation"}),

		RemoteErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trello_link_remote_call_errors_total",
			Help: "Failed Trello API calls by operation",
		}, []string{"operation"}),
	}

	m.registry.MustRegister(m.TagsFound, m.Attachments, m.Runs, m.RemoteDuration, m.RemoteErrors)
	return m
}

// AddTagsFound records n extracted references.
func (m *Metrics) AddTagsFound(n int) {
	if m != nil {
		m.TagsFound.Add(float64(n))
	}
}

// IncrementOutcome records one per-tag outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.Attachments.WithLabelValues(outcome).Inc()
	}
}

// IncrementRun records a finished run.
func (m *Metrics) IncrementRun(result string) {
	if m != nil {
		m.Runs.WithLabelValues(result).Inc()
	}
}

// ObserveRemoteCall records a Trello API call. Its signature matches
// trello.ClientOptions.Observe.
func (m *Metrics) ObserveRemoteCall(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.RemoteDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		m.RemoteErrors.WithLabelValues(op).Inc()
	}
}

// WriteTextfile writes the metrics in text exposition format to path,
// replacing it atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
