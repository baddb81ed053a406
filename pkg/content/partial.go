package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/marmos91/sharegate/pkg/httprange"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

// RangeStreamer serves one byte window of a file with status 206.
type RangeStreamer struct {
	opts Options
}

// NewRangeStreamer returns a RangeStreamer.
func NewRangeStreamer(opts Options) *RangeStreamer {
	return &RangeStreamer{opts: opts.withDefaults()}
}

// Open parses rangeHeader against the current size of f, opens a seekable
// handle and positions it at the first requested byte.
//
// Malformed headers fail with *httprange.MalformedRangeError; empty windows
// and multipart requests fail with *httprange.UnsatisfiableRangeError. In
// both cases no handle is opened.
func (s *RangeStreamer) Open(ctx context.Context, f remotefs.File, rangeHeader string) (*Content, error) {
	if !f.IsFile() {
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", f.Location().Path, fmt.Errorf("%s is not a file", f.Kind()))
	}

	set, err := httprange.Parse(rangeHeader, f.Size())
	if err != nil {
		s.rejected(err)
		return nil, err
	}
	window, err := set.Single()
	if err != nil {
		s.rejected(err)
		return nil, err
	}

	rc, err := f.OpenRandom(ctx)
	if err != nil {
		return nil, err
	}

	bounded, _ := rc.(remotefs.BoundedReader)

	contentType, ok := s.opts.Mime.Lookup(f.Name())
	if !ok {
		if bounded != nil && s.opts.Sniff {
			bounded.SetLimit(sniffLimit)
		}
		if contentType, _, err = s.opts.sniff(rc, f.Size()); err != nil {
			_ = rc.Close()
			return nil, remotefs.NewError(remotefs.ErrCodeIO, "read", f.Location().Path, err)
		}
	}

	if _, err := rc.Seek(window.First, io.SeekStart); err != nil {
		_ = rc.Close()
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "seek", f.Location().Path, err)
	}
	if bounded != nil {
		bounded.SetLimit(window.Last + 1)
	}

	c := newContent(KindRange, f, rc, window.BytesToRead(), s.opts)
	c.Status = http.StatusPartialContent
	c.Range = &window
	setCommonHeaders(c.Header, f, contentType)
	c.Header.Set("Content-Range", window.HeaderValue())
	return c, nil
}

func (s *RangeStreamer) rejected(err error) {
	if s.opts.Metrics == nil {
		return
	}
	reason := "unsatisfiable"
	if httprange.IsMalformed(err) {
		reason = "malformed"
	} else if u := (*httprange.UnsatisfiableRangeError)(nil); errors.As(err, &u) && u.Reason == httprange.ReasonMultipart {
		reason = "multipart"
	}
	s.opts.Metrics.RangeRejected(reason)
}

// ForRequest picks the streamer for a request: the range streamer when a
// Range header is present, the full streamer otherwise.
func ForRequest(full *FullStreamer, partial *RangeStreamer, rangeHeader string) Streamer {
	if rangeHeader == "" {
		return full
	}
	return partial
}
