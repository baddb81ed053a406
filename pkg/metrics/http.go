package metrics

import "time"

// HTTPMetrics records requests served by the API router.
type HTTPMetrics interface {
	// ObserveRequest records one finished request. route is the chi route
	// pattern, not the raw path, to keep label cardinality bounded.
	ObserveRequest(route, method string, status int, duration time.Duration)

	// InFlight adjusts the number of requests being served.
	InFlight(delta int)
}

// NewHTTPMetrics returns the Prometheus-backed HTTPMetrics, or nil when
// metrics are disabled.
func NewHTTPMetrics() HTTPMetrics {
	if !IsEnabled() || newPrometheusHTTPMetrics == nil {
		return nil
	}
	return newPrometheusHTTPMetrics()
}

var newPrometheusHTTPMetrics func() HTTPMetrics

// RegisterHTTPMetricsConstructor registers the Prometheus HTTP metrics
// constructor. Called by pkg/metrics/prometheus during init.
func RegisterHTTPMetricsConstructor(constructor func() HTTPMetrics) {
	newPrometheusHTTPMetrics = constructor
}
