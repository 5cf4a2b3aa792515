// ================================
// internal/metrics/metrics.go - Self-monitoring for BEACON-CORE
// ================================

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_core_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beacon_core_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Heartbeat ingestion metrics
	HeartbeatsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_core_heartbeats_total",
			Help: "Total number of heartbeat items processed",
		},
		[]string{"result"}, // ok / auth_failed / error
	)

	// ServiceStatus reports the current liveness state per service:
	// 0=unknown, 1=up, 2=degraded, 3=down
	ServiceStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "beacon_core_service_status",
			Help: "Current liveness status per monitored service (0=unknown 1=up 2=degraded 3=down)",
		},
		[]string{"service_id"},
	)

	// Alert normalization metrics
	AlertsReceivedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_core_alerts_received_total",
			Help: "Total number of canonical alerts produced by the normalizer",
		},
		[]string{"schema", "severity"},
	)

	AlertsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_core_alerts_rejected_total",
			Help: "Total number of inbound alert payloads rejected as invalid",
		},
		[]string{"reason"},
	)

	// Notification dispatch metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_core_notifications_sent_total",
			Help: "Total number of notification dispatch attempts per channel",
		},
		[]string{"channel", "success"},
	)

	NotificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "beacon_core_notification_duration_seconds",
			Help:    "Outbound notification call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	// Evaluator metrics
	EvaluatorSweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_core_evaluator_sweeps_total",
			Help: "Total number of liveness evaluation sweeps",
		},
	)

	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_core_status_transitions_total",
			Help: "Total number of service status transitions",
		},
		[]string{"from", "to"},
	)

	// Cache metrics
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_core_cache_requests_total",
			Help: "Total number of cache requests",
		},
		[]string{"operation", "result"}, // get/set/delete/append, hit/miss/error/ok
	)
)

// RecordCacheOperation tracks a single cache operation outcome.
func RecordCacheOperation(operation, result string) {
	CacheRequestsTotal.WithLabelValues(operation, result).Inc()
}
