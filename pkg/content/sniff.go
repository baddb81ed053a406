package content

import (
	"bytes"
	"errors"
	"io"
)

// sniffLimit is how much of a file is read to detect its type.
const sniffLimit = 3072

// sniff reads the head of r and detects its type. With sniffing disabled
// it returns the fallback without reading. The head is returned so
// sequential readers can replay it.
func (o Options) sniff(r io.Reader, size int64) (string, []byte, error) {
	if !o.Sniff || size == 0 {
		return o.Mime.fallback, nil, nil
	}

	head := make([]byte, min(size, sniffLimit))
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	return o.Mime.Sniff(head), head, nil
}

// prepend replays head before the rest of rc.
func prepend(head []byte, rc io.ReadCloser) io.ReadCloser {
	if len(head) == 0 {
		return rc
	}
	return struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), rc), rc}
}
