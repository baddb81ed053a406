package content

import (
	"context"
	"fmt"
	"net/http"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// FullStreamer serves a whole file with status 200.
type FullStreamer struct {
	opts Options
}

// NewFullStreamer returns a FullStreamer.
func NewFullStreamer(opts Options) *FullStreamer {
	return &FullStreamer{opts: opts.withDefaults()}
}

// Open opens f for sequential reading from offset 0. The Range header is
// ignored. The body ends after Size() bytes; a file that turns out shorter
// aborts the body with an I/O error.
func (s *FullStreamer) Open(ctx context.Context, f remotefs.File, _ string) (*Content, error) {
	if !f.IsFile() {
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", f.Location().Path, fmt.Errorf("%s is not a file", f.Kind()))
	}

	rc, err := f.Open(ctx)
	if err != nil {
		return nil, err
	}

	size := f.Size()
	contentType, ok := s.opts.Mime.Lookup(f.Name())
	if !ok {
		var head []byte
		if contentType, head, err = s.opts.sniff(rc, size); err != nil {
			_ = rc.Close()
			return nil, remotefs.NewError(remotefs.ErrCodeIO, "read", f.Location().Path, err)
		}
		rc = prepend(head, rc)
	}

	c := newContent(KindFull, f, rc, size, s.opts)
	c.Status = http.StatusOK
	setCommonHeaders(c.Header, f, contentType)
	c.Header.Set("Content-Length", formatLength(size))
	return c, nil
}
