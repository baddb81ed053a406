package metrics

import "github.com/marmos91/sharegate/pkg/content"

// NewStreamMetrics returns the Prometheus-backed content.StreamMetrics, or
// nil when metrics are disabled.
func NewStreamMetrics() content.StreamMetrics {
	if !IsEnabled() || newPrometheusStreamMetrics == nil {
		return nil
	}
	return newPrometheusStreamMetrics()
}

var newPrometheusStreamMetrics func() content.StreamMetrics

// RegisterStreamMetricsConstructor registers the Prometheus stream metrics
// constructor. Called by pkg/metrics/prometheus during init.
func RegisterStreamMetricsConstructor(constructor func() content.StreamMetrics) {
	newPrometheusStreamMetrics = constructor
}
