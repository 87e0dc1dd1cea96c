// Package metrics exposes Prometheus instruments for decoding runs and
// background jobs. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/JonMunkholm/setdecoder/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "setdecoder"

// Metrics records operation timings, expansion volume and job outcomes.
type Metrics struct {
	opDuration *prometheus.HistogramVec
	opFailure  *prometheus.CounterVec
	lines      *prometheus.CounterVec
	bundles    prometheus.Counter
	jobRuns    *prometheus.CounterVec
	jobLast    *prometheus.GaugeVec
}

// New registers the decoder metrics on reg. A nil registerer yields a
// Metrics whose methods do nothing.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		opDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of workspace operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		opFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed workspace operations.",
		}, []string{"operation"}),
		lines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansion_lines_total",
			Help:      "Order lines seen and produced by expansion, by kind.",
		}, []string{"kind"}),
		bundles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundles_expanded_total",
			Help:      "Set lines replaced by their components.",
		}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job executions by outcome.",
		}, []string{"job", "outcome"}),
		jobLast: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful job run.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.opDuration, m.opFailure, m.lines, m.bundles, m.jobRuns, m.jobLast)
	return m
}

// ObserveOperation records the duration of op and counts it as failed
// when err is non-nil.
func (m *Metrics) ObserveOperation(op string, d time.Duration, err error) {
	if m == nil || m.opDuration == nil {
		return
	}
	op = normalizeLabel(op)
	m.opDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.opFailure.WithLabelValues(op).Inc()
	}
}

// ObserveExpansion adds the counts of one expansion run.
func (m *Metrics) ObserveExpansion(stats core.ExpansionStats) {
	if m == nil || m.lines == nil {
		return
	}
	m.lines.WithLabelValues("input").Add(float64(stats.InputLines))
	m.lines.WithLabelValues("output").Add(float64(stats.OutputLines))
	m.lines.WithLabelValues("component").Add(float64(stats.ComponentsEmitted))
	m.lines.WithLabelValues("addition").Add(float64(stats.AdditionsApplied))
	m.lines.WithLabelValues("passthrough").Add(float64(stats.PassThroughLines))
	m.lines.WithLabelValues("dropped").Add(float64(stats.EmptyBundlesDropped))
	m.bundles.Add(float64(stats.BundlesExpanded))
}

// ObserveJob records one run of a background job.
func (m *Metrics) ObserveJob(job string, err error) {
	if m == nil || m.jobRuns == nil {
		return
	}
	job = normalizeLabel(job)
	if err != nil {
		m.jobRuns.WithLabelValues(job, "failure").Inc()
		return
	}
	m.jobRuns.WithLabelValues(job, "success").Inc()
	m.jobLast.WithLabelValues(job).SetToCurrentTime()
}

func normalizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
