package metrics

import "github.com/marmos91/sharegate/pkg/session"

// NewSessionMetrics returns the Prometheus-backed session.StoreMetrics, or
// nil when metrics are disabled.
func NewSessionMetrics() session.StoreMetrics {
	if !IsEnabled() || newPrometheusSessionMetrics == nil {
		return nil
	}
	return newPrometheusSessionMetrics()
}

var newPrometheusSessionMetrics func() session.StoreMetrics

// RegisterSessionMetricsConstructor registers the Prometheus session store
// metrics constructor. Called by pkg/metrics/prometheus during init.
func RegisterSessionMetricsConstructor(constructor func() session.StoreMetrics) {
	newPrometheusSessionMetrics = constructor
}
