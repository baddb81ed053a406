// Package remotefstest provides an in-memory remotefs backend for tests.
package remotefstest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// DefaultModTime is the modification time given to entries built here.
var DefaultModTime = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

// File is an in-memory remotefs.File. It counts opened and closed handles
// so tests can check that every handle is released.
type File struct {
	name     string
	loc      remotefs.Location
	kind     remotefs.Kind
	data     []byte
	mod      time.Time
	children []*File

	mu          sync.Mutex
	openErr     error
	childrenErr error
	failAt      int64
	failErr     error
	declared    *int64

	opened atomic.Int32
	closed atomic.Int32
}

// NewFile returns a regular file holding data.
func NewFile(name string, data []byte) *File {
	return &File{name: name, kind: remotefs.KindFile, data: data, mod: DefaultModTime, failAt: -1}
}

// NewDir returns a directory holding children.
func NewDir(name string, children ...*File) *File {
	return &File{name: name, kind: remotefs.KindDir, children: children, mod: DefaultModTime, failAt: -1}
}

// WithKind overrides the entry kind.
func (f *File) WithKind(k remotefs.Kind) *File {
	f.kind = k
	return f
}

// WithModTime overrides the modification time.
func (f *File) WithModTime(t time.Time) *File {
	f.mod = t
	return f
}

// FailOpen makes Open and OpenRandom return err.
func (f *File) FailOpen(err error) *File {
	f.mu.Lock()
	f.openErr = err
	f.mu.Unlock()
	return f
}

// FailChildren makes Children return err.
func (f *File) FailChildren(err error) *File {
	f.mu.Lock()
	f.childrenErr = err
	f.mu.Unlock()
	return f
}

// FailReadAt makes reads fail with err once the read position reaches offset.
func (f *File) FailReadAt(offset int64, err error) *File {
	f.mu.Lock()
	f.failAt, f.failErr = offset, err
	f.mu.Unlock()
	return f
}

// WithDeclaredSize makes Size report n regardless of the content, as a file
// that shrank after being listed would.
func (f *File) WithDeclaredSize(n int64) *File {
	f.declared = &n
	return f
}

// Opened returns the number of handles opened so far.
func (f *File) Opened() int { return int(f.opened.Load()) }

// Closed returns the number of handles closed so far.
func (f *File) Closed() int { return int(f.closed.Load()) }

// Data returns the file content.
func (f *File) Data() []byte { return f.data }

func (f *File) Name() string                { return f.name }
func (f *File) Location() remotefs.Location { return f.loc }
func (f *File) ModTime() time.Time          { return f.mod }
func (f *File) Kind() remotefs.Kind         { return f.kind }
func (f *File) IsDir() bool                 { return f.kind.IsContainer() }
func (f *File) IsFile() bool                { return f.kind == remotefs.KindFile }

func (f *File) Size() int64 {
	if f.kind != remotefs.KindFile {
		return 0
	}
	if f.declared != nil {
		return *f.declared
	}
	return int64(len(f.data))
}

func (f *File) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.OpenRandom(ctx)
}

func (f *File) OpenRandom(ctx context.Context) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !f.IsFile() {
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", f.loc.Path, errors.New("not a file"))
	}

	f.mu.Lock()
	openErr, failAt, failErr := f.openErr, f.failAt, f.failErr
	f.mu.Unlock()
	if openErr != nil {
		return nil, openErr
	}

	f.opened.Add(1)
	return &handle{file: f, r: bytes.NewReader(f.data), failAt: failAt, failErr: failErr}, nil
}

func (f *File) Children(ctx context.Context) ([]remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	err := f.childrenErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]remotefs.File, len(f.children))
	for i, c := range f.children {
		out[i] = c
	}
	return out, nil
}

func (f *File) place(loc remotefs.Location) {
	if f.IsDir() {
		loc = loc.AsDir()
	}
	f.loc = loc
	for _, c := range f.children {
		c.place(f.loc.Child(c.name, false))
	}
}

type handle struct {
	file    *File
	r       *bytes.Reader
	failAt  int64
	failErr error
	closed  atomic.Bool
}

func (h *handle) Read(p []byte) (int, error) {
	if h.closed.Load() {
		return 0, errors.New("read on closed handle")
	}
	if h.failAt >= 0 {
		pos := h.r.Size() - int64(h.r.Len())
		if pos >= h.failAt {
			return 0, h.failErr
		}
		if room := h.failAt - pos; int64(len(p)) > room {
			p = p[:room]
		}
	}
	return h.r.Read(p)
}

func (h *handle) Seek(offset int64, whence int) (int64, error) {
	return h.r.Seek(offset, whence)
}

func (h *handle) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		h.file.closed.Add(1)
	}
	return nil
}

// Backend serves one in-memory tree per host.
type Backend struct {
	scheme string
	hosts  map[string]*File

	// Password, when set, is required by Connect.
	Password string

	connects atomic.Int32
	sessions atomic.Int32
}

// NewBackend returns a backend for scheme with no hosts.
func NewBackend(scheme string) *Backend {
	return &Backend{scheme: scheme, hosts: make(map[string]*File)}
}

// AddHost mounts root as the top of host and assigns locations to the tree.
func (b *Backend) AddHost(host string, root *File) *Backend {
	root.kind = remotefs.KindServer
	root.name = host
	root.place(remotefs.Location{Scheme: b.scheme, Host: host, Path: "/"})
	b.hosts[host] = root
	return b
}

// Connects returns the number of Connect calls.
func (b *Backend) Connects() int { return int(b.connects.Load()) }

// OpenSessions returns the number of sessions not yet closed.
func (b *Backend) OpenSessions() int { return int(b.sessions.Load()) }

func (b *Backend) Scheme() string { return b.scheme }

func (b *Backend) Connect(ctx context.Context, loc remotefs.Location, creds remotefs.Credentials) (remotefs.Session, error) {
	b.connects.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if b.Password != "" && creds.Password != b.Password {
		return nil, remotefs.NewError(remotefs.ErrCodeAuthRequired, "connect", loc.String(), errors.New("logon failure"))
	}
	root, ok := b.hosts[loc.Host]
	if !ok {
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "connect", loc.String(), errors.New("no such host"))
	}
	b.sessions.Add(1)
	return &session{backend: b, root: root}, nil
}

type session struct {
	backend *Backend
	root    *File
	closed  atomic.Bool
}

func (s *session) Stat(ctx context.Context, loc remotefs.Location) (remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cur := s.root
	for _, seg := range loc.Segments() {
		var next *File
		for _, c := range cur.children {
			if c.name == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil, remotefs.NewError(remotefs.ErrCodeNotFound, "stat", loc.Path, nil)
		}
		cur = next
	}
	return cur, nil
}

func (s *session) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.backend.sessions.Add(-1)
	}
	return nil
}
