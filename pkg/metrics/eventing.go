package metrics

import "github.com/prometheus/client_golang/prometheus"

// BusMetrics counts event bus activity per event type.
type BusMetrics struct {
	emitted         *prometheus.CounterVec
	handlerFailures *prometheus.CounterVec
}

func NewBusMetrics(reg prometheus.Registerer) *BusMetrics {
	if reg == nil {
		return &BusMetrics{}
	}
	emitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_events_emitted_total",
		Help: "Domain events emitted on the in-process bus.",
	}, []string{"event_type"})
	handlerFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "eventbus_handler_failures_total",
		Help: "Bus handler invocations that returned an error or panicked.",
	}, []string{"event_type"})
	reg.MustRegister(emitted, handlerFailures)
	return &BusMetrics{emitted: emitted, handlerFailures: handlerFailures}
}

func (m *BusMetrics) IncEmitted(eventType string) {
	if m == nil || m.emitted == nil {
		return
	}
	m.emitted.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *BusMetrics) IncHandlerFailure(eventType string) {
	if m == nil || m.handlerFailures == nil {
		return
	}
	m.handlerFailures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// NotificationMetrics tracks the persist-then-push pipeline and live sockets.
type NotificationMetrics struct {
	created          *prometheus.CounterVec
	persistFailures  *prometheus.CounterVec
	dispatchFailures *prometheus.CounterVec
	connections      prometheus.Gauge
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_created_total",
		Help: "Notifications persisted, by severity.",
	}, []string{"severity"})
	persistFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_persist_failures_total",
		Help: "Drafts that could not be persisted and were not pushed.",
	}, []string{"event_type"})
	dispatchFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatch_failures_total",
		Help: "Realtime pushes that failed after persistence.",
	}, []string{"event_type"})
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Open dashboard websocket connections.",
	})
	reg.MustRegister(created, persistFailures, dispatchFailures, connections)
	return &NotificationMetrics{
		created:          created,
		persistFailures:  persistFailures,
		dispatchFailures: dispatchFailures,
		connections:      connections,
	}
}

func (m *NotificationMetrics) IncCreated(severity string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(severity)).Inc()
}

func (m *NotificationMetrics) IncPersistFailure(eventType string) {
	if m == nil || m.persistFailures == nil {
		return
	}
	m.persistFailures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

func (m *NotificationMetrics) IncDispatchFailure(eventType string) {
	if m == nil || m.dispatchFailures == nil {
		return
	}
	m.dispatchFailures.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// AddConnections adjusts the open connection gauge by delta.
func (m *NotificationMetrics) AddConnections(delta int) {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.Add(float64(delta))
}
