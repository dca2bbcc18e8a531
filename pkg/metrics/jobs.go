package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records outcomes of background jobs executed by the runner.
type JobMetrics struct {
	duration       *prometheus.HistogramVec
	success        *prometheus.CounterVec
	failure        *prometheus.CounterVec
	claimConflicts *prometheus.CounterVec
	persistFailure *prometheus.CounterVec
}

// NewJobMetrics registers the job metrics on the provided registerer.
func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of background job handlers in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Background jobs that completed.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Background jobs that failed.",
	}, []string{"job"})
	claimConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_claim_conflicts_total",
		Help: "Claims lost because the job was no longer pending.",
	}, []string{"job"})
	persistFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_persist_failures_total",
		Help: "Terminal job transitions that could not be written.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, claimConflicts, persistFailure)
	return &JobMetrics{
		duration:       duration,
		success:        success,
		failure:        failure,
		claimConflicts: claimConflicts,
		persistFailure: persistFailure,
	}
}

// ObserveDuration records the duration for the named job type.
func (m *JobMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (m *JobMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) IncClaimConflict(job string) {
	if m == nil || m.claimConflicts == nil {
		return
	}
	m.claimConflicts.WithLabelValues(normalizeLabel(job)).Inc()
}

func (m *JobMetrics) IncPersistFailure(job string) {
	if m == nil || m.persistFailure == nil {
		return
	}
	m.persistFailure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
