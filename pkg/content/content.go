// Package content turns remote files into HTTP response bodies.
//
// A Streamer opens a remotefs.File and returns a Content: the status code,
// the response headers and a single-pass body produced in fixed-size chunks.
// FullStreamer serves the whole file (200); RangeStreamer serves one byte
// window selected by a Range header (206).
//
// Opening happens before any byte is written, so every failure that should
// change the status code (missing file, bad credentials, unsatisfiable range)
// is reported by Open. Failures after that point can only abort the body.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/internal/telemetry"
	"github.com/marmos91/sharegate/pkg/bufpool"
	"github.com/marmos91/sharegate/pkg/httprange"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

// DefaultChunkSize is the capacity of the buffer each response is copied
// through (128 KiB).
const DefaultChunkSize = 128 << 10

// Stream kinds reported to StreamMetrics.
const (
	KindFull  = "full"
	KindRange = "range"
)

// ErrConsumed is returned when a Content body is iterated a second time.
var ErrConsumed = errors.New("content: body already consumed")

// Streamer opens a file for serving. FullStreamer ignores rangeHeader.
type Streamer interface {
	Open(ctx context.Context, f remotefs.File, rangeHeader string) (*Content, error)
}

// StreamMetrics records response bodies. A nil StreamMetrics records nothing.
type StreamMetrics interface {
	StreamStarted(kind string)
	StreamFinished(kind string, bytes int64, duration time.Duration, err error)

	// RangeRejected counts Range headers answered with 416, by reason
	// ("malformed", "unsatisfiable", "multipart").
	RangeRejected(reason string)
}

// Options configures both streamers.
type Options struct {
	// ChunkSize is the buffer capacity; zero means DefaultChunkSize.
	ChunkSize int

	// RateLimit caps each response at this many bytes per second; zero
	// disables limiting.
	RateLimit int64

	// Mime resolves Content-Type; nil uses the default resolver.
	Mime *MimeResolver

	// Sniff detects the type of files whose extension is unknown from
	// their first bytes instead of sending the fallback type.
	Sniff bool

	// Pool supplies chunk buffers; nil uses the global pool.
	Pool *bufpool.Pool

	Metrics StreamMetrics
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Mime == nil {
		o.Mime = NewMimeResolver(nil, "")
	}
	return o
}

func (o Options) getBuffer() []byte {
	if o.Pool != nil {
		return o.Pool.Get(o.ChunkSize)
	}
	return bufpool.Get(o.ChunkSize)
}

func (o Options) putBuffer(buf []byte) {
	if o.Pool != nil {
		o.Pool.Put(buf)
		return
	}
	bufpool.Put(buf)
}

func (o Options) limiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), o.ChunkSize)
}

// Content is an opened response: status, headers and a body that can be
// consumed once. Close must always be called; it releases the remote handle
// and the chunk buffer and is safe to call more than once.
type Content struct {
	Status int
	Header http.Header

	// Length is the number of bytes the body will produce.
	Length int64

	// Range is the served window for 206 responses, nil otherwise.
	Range *httprange.ByteRange

	kind    string
	path    string
	rc      io.ReadCloser
	opts    Options
	limiter *rate.Limiter

	mu       sync.Mutex
	buf      []byte
	consumed bool
	closed   bool
	started  time.Time
	written  int64
	chunks   int
	err      error
	span     trace.Span
}

func newContent(kind string, f remotefs.File, rc io.ReadCloser, length int64, opts Options) *Content {
	return &Content{
		Header:  make(http.Header),
		Length:  length,
		kind:    kind,
		path:    f.Location().Path,
		rc:      rc,
		opts:    opts,
		limiter: opts.limiter(),
	}
}

// Chunks yields the body in increasing offset order. Each chunk is at most
// the configured chunk size and chunk lengths sum to Length. The yielded
// slice is reused for the next chunk, so callers must not keep it.
//
// Iteration stops at the first error, which is yielded with a nil chunk:
// ctx cancellation (checked before every chunk), a read failure, or content
// ending before Length bytes. The remote handle is closed when iteration
// ends for any reason, including the caller breaking out of the loop.
func (c *Content) Chunks(ctx context.Context) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		c.mu.Lock()
		if c.consumed || c.closed {
			c.mu.Unlock()
			yield(nil, ErrConsumed)
			return
		}
		c.consumed = true
		c.buf = c.opts.getBuffer()
		c.started = time.Now()
		c.mu.Unlock()

		name := telemetry.SpanStreamFull
		if c.kind == KindRange {
			name = telemetry.SpanStreamRange
		}
		ctx, c.span = telemetry.StartStreamSpan(ctx, name, telemetry.Path(c.path), telemetry.Size(c.Length))
		if c.opts.Metrics != nil {
			c.opts.Metrics.StreamStarted(c.kind)
		}
		defer c.Close()

		remaining := c.Length
		for remaining > 0 {
			if err := ctx.Err(); err != nil {
				c.fail(err)
				yield(nil, err)
				return
			}

			want := int(min(remaining, int64(len(c.buf))))
			n, err := io.ReadFull(c.rc, c.buf[:want])
			if n > 0 {
				remaining -= int64(n)
				c.mu.Lock()
				c.written += int64(n)
				c.chunks++
				c.mu.Unlock()
			}
			if err != nil {
				err = c.readError(err, remaining)
				c.fail(err)
				if n > 0 {
					// Deliver what was read before reporting the failure.
					if !yield(c.buf[:n], nil) {
						return
					}
				}
				yield(nil, err)
				return
			}

			if !yield(c.buf[:n], nil) {
				return
			}
		}
	}
}

func (c *Content) readError(err error, remaining int64) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return remotefs.NewError(remotefs.ErrCodeIO, "read", c.path,
			fmt.Errorf("content ended %d bytes early", remaining))
	}
	var rerr *remotefs.Error
	if errors.As(err, &rerr) {
		return err
	}
	return remotefs.NewError(remotefs.ErrCodeIO, "read", c.path, err)
}

func (c *Content) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

// WriteTo copies the body to w, honouring the configured rate limit. It
// returns the number of bytes written. A failed write (typically a client
// that went away) stops the stream and releases the handle.
func (c *Content) WriteTo(ctx context.Context, w io.Writer) (int64, error) {
	if c.limiter != nil {
		w = Throttle(ctx, w, c.limiter)
	}
	flusher, _ := w.(http.Flusher)

	var total int64
	for chunk, err := range c.Chunks(ctx) {
		if err != nil {
			return total, err
		}
		n, werr := w.Write(chunk)
		total += int64(n)
		if werr != nil {
			c.fail(werr)
			return total, werr
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	return total, nil
}

// Close releases the remote handle and the chunk buffer. It reports the
// stream outcome to metrics and tracing the first time it is called.
func (c *Content) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	buf := c.buf
	c.buf = nil
	consumed, written, chunks, streamErr := c.consumed, c.written, c.chunks, c.err
	if consumed && streamErr == nil && written < c.Length {
		streamErr = context.Canceled
	}
	c.mu.Unlock()

	err := c.rc.Close()
	if buf != nil {
		c.opts.putBuffer(buf)
	}

	if !consumed {
		return err
	}

	elapsed := time.Since(c.started)
	if c.span != nil {
		c.span.SetAttributes(telemetry.BytesWritten(written), telemetry.Chunks(chunks))
		if streamErr != nil && !errors.Is(streamErr, context.Canceled) {
			c.span.RecordError(streamErr)
		}
		c.span.End()
	}
	if c.opts.Metrics != nil {
		c.opts.Metrics.StreamFinished(c.kind, written, elapsed, streamErr)
	}
	logger.Debug("Stream finished",
		logger.Path(c.path), logger.KeyOperation, c.kind,
		logger.BytesWritten(written), logger.DurationMs(float64(elapsed.Microseconds())/1000.0),
		logger.Err(streamErr))
	return err
}

// Err returns the first error that ended the body, if any.
func (c *Content) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
