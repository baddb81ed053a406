package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/sharegate/pkg/metrics"
	"github.com/marmos91/sharegate/pkg/session"
)

// sessionMetrics is the Prometheus implementation of session.StoreMetrics.
type sessionMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	lookups           *prometheus.CounterVec
}

// NewSessionMetrics creates a new Prometheus-backed session.StoreMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewSessionMetrics() session.StoreMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &sessionMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sharegate_session_store_operations_total",
				Help: "Total number of session store operations by store, operation and status",
			},
			[]string{"store", "operation", "status"}, // store: "memory", "badger"
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "sharegate_session_store_operation_duration_milliseconds",
				Help: "Duration of session store operations in milliseconds",
				Buckets: []float64{
					0.01, // in-memory
					0.1,
					1, // badger memtable
					5,
					10,
					50, // badger value log
				},
			},
			[]string{"store", "operation"},
		),
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sharegate_session_lookups_total",
				Help: "Session lookups by store and result",
			},
			[]string{"store", "result"}, // "hit", "miss"
		),
	}
}

func (m *sessionMetrics) ObserveOperation(store, op string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(store, op, status).Inc()
	m.operationDuration.WithLabelValues(store, op).Observe(duration.Seconds() * 1000)
}

func (m *sessionMetrics) RecordLookup(store string, found bool) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	m.lookups.WithLabelValues(store, result).Inc()
}
