// Package metrics registers the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled API requests by method, route and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtfolio_http_requests_total",
		Help: "Total HTTP requests handled, by method, path and status code.",
	}, []string{"method", "path", "status"})

	// RemoteStoreCalls counts calls to the spreadsheet store by action and
	// outcome (ok, validation_error, not_found, network_error).
	RemoteStoreCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtfolio_remote_store_calls_total",
		Help: "Total remote store calls, by action and outcome.",
	}, []string{"action", "outcome"})

	// RemoteStoreDuration observes remote store call latency by action.
	RemoteStoreDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "debtfolio_remote_store_call_duration_seconds",
		Help:    "Latency of remote store calls, by action.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
