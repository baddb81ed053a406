package content

import (
	"context"
	"io"

	"golang.org/x/time/rate"
)

// Throttle returns a writer that waits on limiter before every write.
// Writes larger than the limiter burst are split so each piece can be
// admitted. Waiting stops early when ctx is cancelled.
func Throttle(ctx context.Context, w io.Writer, limiter *rate.Limiter) io.Writer {
	if limiter == nil {
		return w
	}
	return &throttledWriter{ctx: ctx, w: w, limiter: limiter}
}

type throttledWriter struct {
	ctx     context.Context
	w       io.Writer
	limiter *rate.Limiter
}

func (t *throttledWriter) Write(p []byte) (int, error) {
	burst := t.limiter.Burst()
	if burst <= 0 {
		burst = len(p)
	}

	var written int
	for len(p) > 0 {
		n := min(len(p), burst)
		if err := t.limiter.WaitN(t.ctx, n); err != nil {
			return written, err
		}
		m, err := t.w.Write(p[:n])
		written += m
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}

// Flush forwards to the underlying writer when it supports flushing.
func (t *throttledWriter) Flush() {
	if f, ok := t.w.(interface{ Flush() }); ok {
		f.Flush()
	}
}
