package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Adapter labels
const (
	AdapterOptimization = "optimization"
	AdapterPath         = "path"
	AdapterPlaces       = "places"
)

var (
	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "planner",
		Name:      "plans_total",
		Help:      "Planning requests by outcome (complete, degraded, empty, config_error)",
	}, []string{"outcome"})

	FallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "planner",
		Name:      "fallbacks_total",
		Help:      "Fallbacks and repairs applied during planning, by note code",
	}, []string{"kind"})

	AdapterCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "adapter",
		Name:      "calls_total",
		Help:      "Outbound adapter calls by adapter and result",
	}, []string{"adapter", "result"})

	AdapterDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routeplanner",
		Subsystem: "adapter",
		Name:      "call_duration_seconds",
		Help:      "Outbound adapter call latency",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"adapter"})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Plan cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Plan cache misses",
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "routeplanner",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "routeplanner",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})
)

// ObserveAdapterCall records the outcome and latency of one outbound call
func ObserveAdapterCall(adapter string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	AdapterCalls.WithLabelValues(adapter, result).Inc()
	AdapterDuration.WithLabelValues(adapter).Observe(time.Since(start).Seconds())
}

// ObserveHTTPRequest records one served HTTP request
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Handler serves the Prometheus /metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
