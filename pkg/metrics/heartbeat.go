package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HeartbeatMetrics exposes worker liveness locally alongside the database row.
type HeartbeatMetrics struct {
	lastSuccess prometheus.Gauge
	failures    prometheus.Counter
}

func NewHeartbeatMetrics(reg prometheus.Registerer) *HeartbeatMetrics {
	if reg == nil {
		return &HeartbeatMetrics{}
	}
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "worker_heartbeat_last_success_timestamp_seconds",
		Help: "Unix time of the last successful heartbeat write.",
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "worker_heartbeat_failures_total",
		Help: "Heartbeat writes that failed.",
	})
	reg.MustRegister(lastSuccess, failures)
	return &HeartbeatMetrics{lastSuccess: lastSuccess, failures: failures}
}

func (m *HeartbeatMetrics) MarkSuccess(at time.Time) {
	if m == nil || m.lastSuccess == nil {
		return
	}
	m.lastSuccess.Set(float64(at.Unix()))
}

func (m *HeartbeatMetrics) IncFailure() {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.Inc()
}
