// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of push notification dispatch attempts by terminal status",
		},
		[]string{"status"},
	)

	NotificationsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_swept_total",
			Help: "Total number of notification records deleted by the retention sweeper",
		},
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "notification_dispatch_duration_seconds",
			Help: "Duration of push notification dispatch in seconds",
		},
	)

	CallableRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "callable_requests_total",
			Help: "Total number of callable endpoint invocations by endpoint and result code",
		},
		[]string{"endpoint", "code"},
	)
)
