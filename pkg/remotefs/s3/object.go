package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// object is a remotefs.File for one S3 object.
type object struct {
	session *session
	loc     remotefs.Location
	key     string
	size    int64
	modTime time.Time
}

func (o *object) Name() string                { return o.loc.Base() }
func (o *object) Location() remotefs.Location { return o.loc }
func (o *object) Size() int64                 { return o.size }
func (o *object) ModTime() time.Time          { return o.modTime }
func (o *object) Kind() remotefs.Kind         { return remotefs.KindFile }
func (o *object) IsDir() bool                 { return false }
func (o *object) IsFile() bool                { return true }

func (o *object) Open(ctx context.Context) (io.ReadCloser, error) {
	return o.get(ctx, "")
}

// OpenRandom returns a seeker that defers the GetObject call until the
// first Read, so Seek followed by Read costs one ranged request.
func (o *object) OpenRandom(ctx context.Context) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &rangeReader{ctx: ctx, obj: o}, nil
}

func (o *object) Children(context.Context) ([]remotefs.File, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "list", o.loc.Path, errors.New("not a directory"))
}

func (o *object) get(ctx context.Context, rangeHeader string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(o.session.bucket),
		Key:    aws.String(o.key),
	}
	if rangeHeader != "" {
		input.Range = aws.String(rangeHeader)
	}

	out, err := withRetry(ctx, o.session.retry, "GetObject", o.key, func() (*s3.GetObjectOutput, error) {
		return o.session.api.GetObject(ctx, input)
	})
	if err != nil {
		return nil, translateError("open", o.loc.Path, err)
	}
	return out.Body, nil
}

// rangeReader reads an object from an arbitrary offset. With a limit set,
// each GetObject asks for the bytes up to the limit only.
type rangeReader struct {
	ctx    context.Context
	obj    *object
	offset int64
	limit  int64
	body   io.ReadCloser
	closed bool
}

// end is the offset reads stop at.
func (r *rangeReader) end() int64 {
	if r.limit > 0 && r.limit < r.obj.size {
		return r.limit
	}
	return r.obj.size
}

// SetLimit bounds later requests to [offset, n). An open body fetched under
// another bound is dropped.
func (r *rangeReader) SetLimit(n int64) {
	if n == r.limit {
		return
	}
	if r.body != nil {
		_ = r.body.Close()
		r.body = nil
	}
	r.limit = n
}

func (r *rangeReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errors.New("read on closed object")
	}
	end := r.end()
	if r.offset >= end {
		return 0, io.EOF
	}
	if r.body == nil {
		spec := fmt.Sprintf("bytes=%d-", r.offset)
		if end < r.obj.size {
			spec += strconv.FormatInt(end-1, 10)
		}
		body, err := r.obj.get(r.ctx, spec)
		if err != nil {
			return 0, err
		}
		r.body = body
	}
	if rest := end - r.offset; int64(len(p)) > rest {
		p = p[:rest]
	}

	n, err := r.body.Read(p)
	r.offset += int64(n)
	return n, err
}

func (r *rangeReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.offset + offset
	case io.SeekEnd:
		abs = r.obj.size + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek: negative position %d", abs)
	}
	if abs != r.offset && r.body != nil {
		_ = r.body.Close()
		r.body = nil
	}
	r.offset = abs
	return abs, nil
}

func (r *rangeReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.body != nil {
		return r.body.Close()
	}
	return nil
}

// prefix is a remotefs.File for a key prefix or the bucket itself.
type prefix struct {
	session *session
	loc     remotefs.Location
}

func (p *prefix) Name() string {
	if p.loc.IsRoot() {
		return p.session.bucket
	}
	return p.loc.Base()
}

func (p *prefix) Location() remotefs.Location { return p.loc }
func (p *prefix) Size() int64                 { return 0 }
func (p *prefix) ModTime() time.Time          { return time.Time{} }
func (p *prefix) IsDir() bool                 { return true }
func (p *prefix) IsFile() bool                { return false }

func (p *prefix) Kind() remotefs.Kind {
	if p.loc.IsRoot() {
		return remotefs.KindShare
	}
	return remotefs.KindDir
}

func (p *prefix) Open(context.Context) (io.ReadCloser, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", p.loc.Path, errors.New("not a file"))
}

func (p *prefix) OpenRandom(context.Context) (io.ReadSeekCloser, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", p.loc.Path, errors.New("not a file"))
}

// Children lists objects and sub-prefixes directly below the prefix,
// following continuation tokens.
func (p *prefix) Children(ctx context.Context) ([]remotefs.File, error) {
	keyPrefix := objectKey(p.loc.AsDir().Path)
	paginator := s3.NewListObjectsV2Paginator(p.session.api, &s3.ListObjectsV2Input{
		Bucket:    aws.String(p.session.bucket),
		Prefix:    aws.String(keyPrefix),
		Delimiter: aws.String("/"),
	})

	var out []remotefs.File
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateError("list", p.loc.Path, err)
		}

		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), keyPrefix), "/")
			if name == "" {
				continue
			}
			out = append(out, &prefix{session: p.session, loc: p.loc.Child(name, true)})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, keyPrefix)
			// Skip the zero-byte folder marker some tools create.
			if name == "" {
				continue
			}
			out = append(out, &object{
				session: p.session,
				loc:     p.loc.Child(name, false),
				key:     key,
				size:    aws.ToInt64(obj.Size),
				modTime: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}
