package prometheus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sharegate/pkg/metrics"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

func enableMetrics(t *testing.T) {
	t.Helper()
	metrics.Reset()
	metrics.InitRegistry()
	t.Cleanup(metrics.Reset)
}

func TestConstructorsNilWhenDisabled(t *testing.T) {
	metrics.Reset()

	assert.Nil(t, NewRemoteMetrics())
	assert.Nil(t, NewStreamMetrics())
	assert.Nil(t, NewHTTPMetrics())
	assert.Nil(t, NewSessionMetrics())

	assert.Nil(t, metrics.NewRemoteMetrics())
	assert.Nil(t, metrics.NewStreamMetrics())
	assert.Nil(t, metrics.NewHTTPMetrics())
	assert.Nil(t, metrics.NewSessionMetrics())
}

func TestRegisteredConstructors(t *testing.T) {
	enableMetrics(t)

	assert.NotNil(t, metrics.NewRemoteMetrics())
	assert.NotNil(t, metrics.NewStreamMetrics())
	assert.NotNil(t, metrics.NewHTTPMetrics())
	assert.NotNil(t, metrics.NewSessionMetrics())
}

func TestRemoteMetrics(t *testing.T) {
	enableMetrics(t)
	m := NewRemoteMetrics().(*remoteMetrics)

	m.ObserveOperation("smb", "stat", 3*time.Millisecond, nil)
	m.ObserveOperation("smb", "stat", time.Millisecond, remotefs.NewError(remotefs.ErrCodeNotFound, "stat", "/x", nil))
	m.ObserveOperation("smb", "connect", time.Millisecond, errors.New("dial tcp: refused"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("smb", "stat", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("smb", "stat", "NotFound")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("smb", "connect", "IOError")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.operationDuration))
}

func TestStreamMetrics(t *testing.T) {
	enableMetrics(t)
	m := NewStreamMetrics().(*streamMetrics)

	m.StreamStarted("range")
	m.StreamStarted("range")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.active.WithLabelValues("range")))

	m.StreamFinished("range", 1024, time.Second, nil)
	m.StreamFinished("range", 10, time.Second, context.Canceled)
	m.RangeRejected("multipart")

	assert.Equal(t, 0.0, testutil.ToFloat64(m.active.WithLabelValues("range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsTotal.WithLabelValues("range", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamsTotal.WithLabelValues("range", "aborted")))
	assert.Equal(t, 1034.0, testutil.ToFloat64(m.bytesSent.WithLabelValues("range")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rangeRejected.WithLabelValues("multipart")))
}

func TestHTTPMetrics(t *testing.T) {
	enableMetrics(t)
	m := NewHTTPMetrics().(*httpMetrics)

	m.InFlight(1)
	m.ObserveRequest("/get/*", "GET", 206, 20*time.Millisecond)
	m.ObserveRequest("", "GET", 404, time.Millisecond)
	m.InFlight(-1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/get/*", "GET", "206")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("unmatched", "GET", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestSessionMetrics(t *testing.T) {
	enableMetrics(t)
	m := NewSessionMetrics().(*sessionMetrics)

	m.ObserveOperation("badger", "get", time.Millisecond, nil)
	m.RecordLookup("badger", true)
	m.RecordLookup("badger", false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("badger", "get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("badger", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("badger", "miss")))
}

func TestNilReceiversAreNoops(t *testing.T) {
	var r *remoteMetrics
	var s *streamMetrics
	var h *httpMetrics
	var ss *sessionMetrics

	require.NotPanics(t, func() {
		r.ObserveOperation("s3", "open", time.Second, nil)
		s.StreamStarted("full")
		s.StreamFinished("full", 1, time.Second, nil)
		s.RangeRejected("malformed")
		h.ObserveRequest("/", "GET", 200, time.Second)
		h.InFlight(1)
		ss.ObserveOperation("memory", "put", time.Second, nil)
		ss.RecordLookup("memory", true)
	})
}
