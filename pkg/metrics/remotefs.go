package metrics

import "github.com/marmos91/sharegate/pkg/remotefs"

// NewRemoteMetrics returns the Prometheus-backed remotefs.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called). Pass the
// result straight to remotefs.Instrument; a nil value records nothing.
func NewRemoteMetrics() remotefs.Metrics {
	if !IsEnabled() || newPrometheusRemoteMetrics == nil {
		return nil
	}
	return newPrometheusRemoteMetrics()
}

// newPrometheusRemoteMetrics is set by pkg/metrics/prometheus. The
// indirection keeps this package free of the implementation import.
var newPrometheusRemoteMetrics func() remotefs.Metrics

// RegisterRemoteMetricsConstructor registers the Prometheus remote backend
// metrics constructor. Called by pkg/metrics/prometheus during init.
func RegisterRemoteMetricsConstructor(constructor func() remotefs.Metrics) {
	newPrometheusRemoteMetrics = constructor
}
