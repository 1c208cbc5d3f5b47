package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "castctl_http_requests_total",
		Help: "Total number of bridge HTTP requests, by route, method and status code",
	}, []string{"route", "method", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "castctl_http_request_duration_seconds",
		Help:    "Bridge HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	wsClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "castctl_websocket_clients",
		Help: "Number of connected WebSocket status subscribers",
	})
)

// ObserveHTTPRequest records one bridge request
func ObserveHTTPRequest(route, method string, code int, elapsed time.Duration) {
	route = label(route)
	httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// AddWebSocketClients adjusts the connected subscriber gauge by delta
func AddWebSocketClients(delta int) {
	wsClients.Add(float64(delta))
}
