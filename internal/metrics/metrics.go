// Package metrics exposes the Prometheus instrumentation shared by the
// transport layer and the ticker caches.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_apis_provider_requests_total",
			Help: "Total number of requests sent to provider APIs",
		},
		[]string{"provider", "endpoint", "status_code"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crypto_apis_provider_request_duration_seconds",
			Help:    "Provider API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "endpoint"},
	)

	ProviderRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_apis_provider_retries_total",
			Help: "Total number of retried provider API requests",
		},
		[]string{"provider", "endpoint"},
	)

	TickerCacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crypto_apis_ticker_cache_operations_total",
			Help: "Total number of ticker cache operations",
		},
		[]string{"backend", "operation", "result"},
	)
)

// RecordProviderRequest records one completed (or failed) provider request.
// A zero statusCode means the request never produced a response.
func RecordProviderRequest(provider, endpoint string, statusCode int, duration time.Duration) {
	ProviderRequestsTotal.WithLabelValues(provider, endpoint, strconv.Itoa(statusCode)).Inc()
	ProviderRequestDuration.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
}

// RecordProviderRetry records one retry attempt against a provider endpoint.
func RecordProviderRetry(provider, endpoint string) {
	ProviderRetriesTotal.WithLabelValues(provider, endpoint).Inc()
}

// RecordTickerCacheOperation records a cache get/put/invalidate with its
// result (hit, miss, success, error).
func RecordTickerCacheOperation(backend, operation, result string) {
	TickerCacheOperationsTotal.WithLabelValues(backend, operation, result).Inc()
}
