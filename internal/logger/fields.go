package logger

import "log/slog"

// Standard field keys for structured logging. Use these keys consistently so
// request logs, backend logs and stream logs can be joined on them.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id"
	KeySpanID  = "span_id"

	// ========================================================================
	// HTTP Request
	// ========================================================================
	KeyRequestID = "request_id" // chi request id
	KeyMethod    = "method"     // GET, HEAD, POST
	KeyRoute     = "route"      // chi route pattern
	KeyStatus    = "status"     // HTTP status code
	KeyClientIP  = "client_ip"  // Client IP address
	KeyUserAgent = "user_agent"
	KeySessionID = "session_id"

	// ========================================================================
	// Remote Share
	// ========================================================================
	KeyScheme   = "scheme"   // smb, s3, local
	KeyShare    = "share"    // scheme://host/share
	KeyPath     = "path"     // path inside the share
	KeyFilename = "filename" // basename
	KeyKind     = "kind"     // dir, file, share, printer...
	KeySize     = "size"     // content length in bytes
	KeyEntries  = "entries"  // number of directory entries
	KeyUsername = "username"
	KeyDomain   = "domain"
	KeyBucket   = "bucket"
	KeyKey      = "key"

	// ========================================================================
	// Streaming
	// ========================================================================
	KeyRange        = "range"         // raw Range header
	KeyContentRange = "content_range" // resolved first-last/total
	KeyOffset       = "offset"
	KeyBytesWritten = "bytes_written"
	KeyContentType  = "content_type"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyOperation  = "operation"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
)

// TraceID returns a slog.Attr for an OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for an OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// RequestID returns a slog.Attr for the request id
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Method returns a slog.Attr for the HTTP method
func Method(m string) slog.Attr {
	return slog.String(KeyMethod, m)
}

// Route returns a slog.Attr for the matched route pattern
func Route(r string) slog.Attr {
	return slog.String(KeyRoute, r)
}

// Status returns a slog.Attr for an HTTP status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// ClientIP returns a slog.Attr for the client address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// SessionID returns a slog.Attr for a browser session id
func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

// Scheme returns a slog.Attr for a location scheme
func Scheme(s string) slog.Attr {
	return slog.String(KeyScheme, s)
}

// Share returns a slog.Attr for a remote share
func Share(name string) slog.Attr {
	return slog.String(KeyShare, name)
}

// Path returns a slog.Attr for a path inside a share
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Filename returns a slog.Attr for a file name
func Filename(name string) slog.Attr {
	return slog.String(KeyFilename, name)
}

// Kind returns a slog.Attr for an entry kind
func Kind(k string) slog.Attr {
	return slog.String(KeyKind, k)
}

// Size returns a slog.Attr for a content length
func Size(s int64) slog.Attr {
	return slog.Int64(KeySize, s)
}

// Entries returns a slog.Attr for a directory entry count
func Entries(n int) slog.Attr {
	return slog.Int(KeyEntries, n)
}

// Username returns a slog.Attr for a share user name
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// Domain returns a slog.Attr for an SMB domain
func Domain(name string) slog.Attr {
	return slog.String(KeyDomain, name)
}

// Bucket returns a slog.Attr for an S3 bucket
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an S3 object key
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// Range returns a slog.Attr for a raw Range header
func Range(h string) slog.Attr {
	return slog.String(KeyRange, h)
}

// ContentRange returns a slog.Attr for a resolved byte window
func ContentRange(cr string) slog.Attr {
	return slog.String(KeyContentRange, cr)
}

// Offset returns a slog.Attr for a byte offset
func Offset(off int64) slog.Attr {
	return slog.Int64(KeyOffset, off)
}

// BytesWritten returns a slog.Attr for bytes sent to the client
func BytesWritten(n int64) slog.Attr {
	return slog.Int64(KeyBytesWritten, n)
}

// ContentType returns a slog.Attr for a media type
func ContentType(ct string) slog.Attr {
	return slog.String(KeyContentType, ct)
}

// Operation returns a slog.Attr for a backend operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error; nil errors produce an empty attr.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a classified error code
func ErrorCode(code string) slog.Attr {
	return slog.String(KeyErrorCode, code)
}
