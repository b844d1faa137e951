package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotificationMetrics tracks the notification dispatch pipeline.
type NotificationMetrics struct {
	dispatched *prometheus.CounterVec
	failed     *prometheus.CounterVec
	dropped    prometheus.Counter
	queueDepth prometheus.Gauge
}

// NewNotificationMetrics registers the pipeline metrics on the provided registerer.
func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	if reg == nil {
		return &NotificationMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_dispatched",
		Help: "Notification events handled by the automation engine.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_events_failed",
		Help: "Notification events whose handler reported a failure.",
	}, []string{"event_type"})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_events_dropped",
		Help: "Notification events dropped because the dispatch queue was full.",
	})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "notification_dispatch_queue_depth",
		Help: "Events currently waiting in the dispatch queue.",
	})
	reg.MustRegister(dispatched, failed, dropped, queueDepth)
	return &NotificationMetrics{
		dispatched: dispatched,
		failed:     failed,
		dropped:    dropped,
		queueDepth: queueDepth,
	}
}

// IncDispatched counts a handled event.
func (n *NotificationMetrics) IncDispatched(eventType string) {
	if n == nil || n.dispatched == nil {
		return
	}
	n.dispatched.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncFailed counts a handler failure.
func (n *NotificationMetrics) IncFailed(eventType string) {
	if n == nil || n.failed == nil {
		return
	}
	n.failed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDropped counts an event rejected by a full queue.
func (n *NotificationMetrics) IncDropped() {
	if n == nil || n.dropped == nil {
		return
	}
	n.dropped.Inc()
}

// SetQueueDepth reports the current dispatch backlog.
func (n *NotificationMetrics) SetQueueDepth(depth int) {
	if n == nil || n.queueDepth == nil {
		return
	}
	n.queueDepth.Set(float64(depth))
}
