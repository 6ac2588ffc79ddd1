package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request processing time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	httpErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP error responses",
		},
		[]string{"method", "endpoint", "status"},
	)

	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Number of active WebSocket sessions",
		},
	)

	broadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "room_broadcasts_total",
			Help: "Total number of room broadcasts",
		},
		[]string{"room_kind", "event"},
	)

	droppedDeliveriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "room_dropped_deliveries_total",
			Help: "Broadcast deliveries dropped because a session queue was full",
		},
	)
)

// RecordHTTPMetrics records counters and latency for a finished HTTP request.
func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())

	if status >= 400 {
		httpErrorsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	}
}

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

func RecordBroadcast(roomKind, event string) {
	broadcastsTotal.WithLabelValues(roomKind, event).Inc()
}

func RecordDroppedDelivery() {
	droppedDeliveriesTotal.Inc()
}
