package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ProviderRequests counts outbound requests to external data providers,
	// labelled by provider name and outcome.
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptomonitor_provider_requests_total",
			Help: "Outbound requests to external data providers.",
		},
		[]string{"provider", "outcome"},
	)

	// ProviderRequestDuration observes outbound request latency per provider.
	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cryptomonitor_provider_request_duration_seconds",
			Help:    "Latency of outbound requests to external data providers.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

// MustRegister registers all application metrics with the default registry.
// Call once from the process entry point.
func MustRegister() {
	prometheus.MustRegister(ProviderRequests, ProviderRequestDuration)
}

// ObserveRequest records one outbound provider request.
func ObserveRequest(provider string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	ProviderRequests.WithLabelValues(provider, outcome).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}
