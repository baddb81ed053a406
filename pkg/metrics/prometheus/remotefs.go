// Package prometheus implements the metric sets declared in pkg/metrics.
// Importing it registers the constructors; until then pkg/metrics hands
// out nil metrics.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/sharegate/pkg/metrics"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

func init() {
	metrics.RegisterRemoteMetricsConstructor(NewRemoteMetrics)
	metrics.RegisterStreamMetricsConstructor(NewStreamMetrics)
	metrics.RegisterHTTPMetricsConstructor(NewHTTPMetrics)
	metrics.RegisterSessionMetricsConstructor(NewSessionMetrics)
}

// remoteMetrics is the Prometheus implementation of remotefs.Metrics.
type remoteMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

// NewRemoteMetrics creates a new Prometheus-backed remotefs.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewRemoteMetrics() remotefs.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &remoteMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sharegate_remote_operations_total",
				Help: "Total number of remote share operations by scheme, operation and outcome",
			},
			[]string{"scheme", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sharegate_remote_operation_duration_milliseconds",
				Help: "Duration of remote share operations in milliseconds",
				Buckets: []float64{
					1,     // 1ms - local roots
					10,    // 10ms - LAN stat
					50,    // 50ms
					100,   // 100ms - SMB negotiate
					500,   // 500ms - WAN S3
					1000,  // 1s
					5000,  // 5s - large listings
					30000, // 30s - timeouts
				},
			},
			[]string{"scheme", "operation"},
		),
	}
}

func (m *remoteMetrics) ObserveOperation(scheme, op string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	m.operationsTotal.WithLabelValues(scheme, op, outcome(err)).Inc()
	m.operationDuration.WithLabelValues(scheme, op).Observe(duration.Seconds() * 1000)
}

// outcome maps an error to the status label: "success", or the remotefs
// error code name.
func outcome(err error) string {
	if err == nil {
		return "success"
	}
	return remotefs.CodeOf(err).String()
}
