package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. HTTP keys follow the OpenTelemetry semantic conventions;
// share keys use the "share." prefix.
const (
	AttrClientIP = "client.address"

	AttrHTTPMethod   = "http.request.method"
	AttrHTTPRoute    = "http.route"
	AttrHTTPStatus   = "http.response.status_code"
	AttrHTTPRange    = "http.request.header.range"
	AttrRequestID    = "http.request.id"
	AttrContentRange = "http.response.header.content_range"

	AttrScheme    = "share.scheme"
	AttrHost      = "share.host"
	AttrPath      = "share.path"
	AttrKind      = "share.kind"
	AttrSize      = "share.size"
	AttrEntries   = "share.entries"
	AttrOperation = "share.operation"

	AttrBytesWritten = "stream.bytes_written"
	AttrChunks       = "stream.chunks"
)

// Span names.
const (
	SpanHTTPRequest = "http.request"

	SpanRemoteConnect = "remote.connect"
	SpanRemoteStat    = "remote.stat"
	SpanRemoteList    = "remote.list"
	SpanRemoteOpen    = "remote.open"

	SpanStreamFull  = "stream.full"
	SpanStreamRange = "stream.range"
)

// ClientIP returns an attribute for the client address
func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

// HTTPMethod returns an attribute for the request method
func HTTPMethod(m string) attribute.KeyValue {
	return attribute.String(AttrHTTPMethod, m)
}

// HTTPRoute returns an attribute for the matched route pattern
func HTTPRoute(r string) attribute.KeyValue {
	return attribute.String(AttrHTTPRoute, r)
}

// HTTPStatus returns an attribute for the response status
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// HTTPRange returns an attribute for the raw Range header
func HTTPRange(h string) attribute.KeyValue {
	return attribute.String(AttrHTTPRange, h)
}

// RequestID returns an attribute for the request id
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// ContentRange returns an attribute for the served window
func ContentRange(cr string) attribute.KeyValue {
	return attribute.String(AttrContentRange, cr)
}

// Scheme returns an attribute for the location scheme
func Scheme(s string) attribute.KeyValue {
	return attribute.String(AttrScheme, s)
}

// Host returns an attribute for the remote host or bucket
func Host(h string) attribute.KeyValue {
	return attribute.String(AttrHost, h)
}

// Path returns an attribute for the path inside the share
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// Kind returns an attribute for an entry kind
func Kind(k string) attribute.KeyValue {
	return attribute.String(AttrKind, k)
}

// Size returns an attribute for a content length
func Size(n int64) attribute.KeyValue {
	return attribute.Int64(AttrSize, n)
}

// Entries returns an attribute for a directory entry count
func Entries(n int) attribute.KeyValue {
	return attribute.Int(AttrEntries, n)
}

// Operation returns an attribute for a backend operation name
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// BytesWritten returns an attribute for bytes sent to the client
func BytesWritten(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesWritten, n)
}

// Chunks returns an attribute for the number of chunks sent
func Chunks(n int) attribute.KeyValue {
	return attribute.Int(AttrChunks, n)
}

// StartRemoteSpan starts a client span for an operation against a remote share.
func StartRemoteSpan(ctx context.Context, name, scheme, host, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Scheme(scheme), Host(host), Path(path)}, attrs...)
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(all...),
	)
}

// StartStreamSpan starts an internal span covering one response body.
func StartStreamSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}
