// Package local serves named directories of the host filesystem as shares.
// A location local://media/films/a.mkv addresses films/a.mkv below the
// directory configured as root "media". Roots are read-only and paths cannot
// escape them.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// Backend is a remotefs.Backend over named afero filesystems.
type Backend struct {
	roots map[string]afero.Fs
}

// New returns a backend serving each directory in roots (name -> path) of
// the OS filesystem.
func New(roots map[string]string) (*Backend, error) {
	osFs := afero.NewOsFs()
	fss := make(map[string]afero.Fs, len(roots))
	for name, dir := range roots {
		info, err := osFs.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("local root %q: %w", name, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("local root %q: %s is not a directory", name, dir)
		}
		fss[name] = afero.NewBasePathFs(osFs, dir)
	}
	return NewWithFs(fss), nil
}

// NewWithFs returns a backend over arbitrary filesystems. Each is wrapped
// read-only.
func NewWithFs(roots map[string]afero.Fs) *Backend {
	b := &Backend{roots: make(map[string]afero.Fs, len(roots))}
	for name, fsys := range roots {
		b.roots[name] = afero.NewReadOnlyFs(fsys)
	}
	return b
}

func (b *Backend) Scheme() string { return remotefs.SchemeLocal }

// Connect ignores credentials: access control is the filesystem's.
func (b *Backend) Connect(ctx context.Context, loc remotefs.Location, _ remotefs.Credentials) (remotefs.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fsys, ok := b.roots[loc.Host]
	if !ok {
		return nil, remotefs.NewError(remotefs.ErrCodeNotFound, "connect", loc.String(),
			fmt.Errorf("no local root named %q", loc.Host))
	}
	return &session{host: loc.Host, fs: fsys}, nil
}

type session struct {
	host string
	fs   afero.Fs
}

func (s *session) Stat(ctx context.Context, loc remotefs.Location) (remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := s.fs.Stat(loc.Path)
	if err != nil {
		return nil, translateError("stat", loc.Path, err)
	}
	if info.IsDir() {
		loc = loc.AsDir()
	}
	return &file{fs: s.fs, loc: loc, info: info}, nil
}

func (s *session) Close() error { return nil }

type file struct {
	fs   afero.Fs
	loc  remotefs.Location
	info os.FileInfo
}

func (f *file) Name() string {
	if f.loc.IsRoot() {
		return f.loc.Host
	}
	return f.loc.Base()
}

func (f *file) Location() remotefs.Location { return f.loc }
func (f *file) ModTime() time.Time          { return f.info.ModTime() }
func (f *file) IsDir() bool                 { return f.info.IsDir() }
func (f *file) IsFile() bool                { return f.info.Mode().IsRegular() }

func (f *file) Size() int64 {
	if f.info.IsDir() {
		return 0
	}
	return f.info.Size()
}

func (f *file) Kind() remotefs.Kind {
	mode := f.info.Mode()
	switch {
	case f.info.IsDir() && f.loc.IsRoot():
		return remotefs.KindShare
	case f.info.IsDir():
		return remotefs.KindDir
	case mode.IsRegular():
		return remotefs.KindFile
	case mode&fs.ModeNamedPipe != 0:
		return remotefs.KindPipe
	case mode&fs.ModeCharDevice != 0:
		return remotefs.KindComm
	default:
		return remotefs.KindUnknown
	}
}

func (f *file) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.OpenRandom(ctx)
}

func (f *file) OpenRandom(ctx context.Context) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !f.IsFile() {
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", f.loc.Path, errors.New("not a regular file"))
	}
	h, err := f.fs.Open(f.loc.Path)
	if err != nil {
		return nil, translateError("open", f.loc.Path, err)
	}
	return h, nil
}

func (f *file) Children(ctx context.Context) ([]remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := afero.ReadDir(f.fs, f.loc.Path)
	if err != nil {
		return nil, translateError("list", f.loc.Path, err)
	}

	out := make([]remotefs.File, 0, len(infos))
	for _, info := range infos {
		out = append(out, &file{fs: f.fs, loc: f.loc.Child(info.Name(), info.IsDir()), info: info})
	}
	return out, nil
}

func translateError(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return remotefs.NewError(remotefs.ErrCodeNotFound, op, path, err)
	case errors.Is(err, fs.ErrPermission):
		return remotefs.NewError(remotefs.ErrCodeAuthRequired, op, path, err)
	default:
		return remotefs.NewError(remotefs.ErrCodeIO, op, path, err)
	}
}
