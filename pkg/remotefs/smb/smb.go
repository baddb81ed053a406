// Package smb exposes SMB2/3 servers through remotefs using NTLM
// authentication. smb://host/ lists the server's shares; smb://host/share/p
// addresses p inside a share.
package smb

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/remotefs"
)

// DefaultPort is the SMB-over-TCP port.
const DefaultPort = 445

// Config configures the SMB backend.
type Config struct {
	// Port defaults to DefaultPort. A port in the location host wins.
	Port int

	// DialTimeout bounds connection setup and authentication.
	DialTimeout time.Duration

	// HideAdminShares drops shares ending in "$" (C$, ADMIN$) from
	// server listings. IPC$ is always listed as a pipe.
	HideAdminShares bool
}

// Backend is a remotefs.Backend for SMB.
type Backend struct {
	cfg  Config
	dial dialFunc
}

// New returns an SMB backend.
func New(cfg Config) *Backend {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	return &Backend{cfg: cfg, dial: dialer(cfg.Port)}
}

func (b *Backend) Scheme() string { return remotefs.SchemeSMB }

// Connect authenticates against loc.Host. Credentials without a user log on
// as GuestUser; a server that refuses the logon yields AuthRequired.
func (b *Backend) Connect(ctx context.Context, loc remotefs.Location, creds remotefs.Credentials) (remotefs.Session, error) {
	if b.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.DialTimeout)
		defer cancel()
	}

	c, err := b.dial(ctx, loc.Host, creds)
	if err != nil {
		return nil, translateError("connect", loc.String(), err)
	}
	logger.DebugCtx(ctx, "SMB session established",
		logger.Share(loc.Host), logger.Username(creds.User), logger.Domain(creds.Domain))

	return &session{
		host:   loc.Host,
		conn:   c,
		hide:   b.cfg.HideAdminShares,
		mounts: make(map[string]mount),
	}, nil
}

type session struct {
	host string
	conn conn
	hide bool

	mu     sync.Mutex
	mounts map[string]mount
	closed bool
}

func (s *session) mount(ctx context.Context, share string) (mount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("session closed")
	}
	if m, ok := s.mounts[strings.ToLower(share)]; ok {
		return m, nil
	}
	m, err := s.conn.Mount(ctx, share)
	if err != nil {
		return nil, err
	}
	s.mounts[strings.ToLower(share)] = m
	return m, nil
}

// splitShare returns the share name and the path inside it ("." for the
// share root).
func splitShare(loc remotefs.Location) (string, string) {
	segs := loc.Segments()
	if len(segs) == 0 {
		return "", ""
	}
	if len(segs) == 1 {
		return segs[0], "."
	}
	return segs[0], strings.Join(segs[1:], "/")
}

func (s *session) Stat(ctx context.Context, loc remotefs.Location) (remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.IsRoot() {
		return &server{session: s, loc: loc}, nil
	}

	share, name := splitShare(loc)
	m, err := s.mount(ctx, share)
	if err != nil {
		return nil, translateError("stat", loc.Path, err)
	}
	info, err := m.Stat(name)
	if err != nil {
		return nil, translateError("stat", loc.Path, err)
	}
	if info.IsDir() {
		loc = loc.AsDir()
	}
	return &file{mount: m, loc: loc, name: name, info: info, share: name == "."}, nil
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, m := range s.mounts {
		_ = m.Umount()
	}
	clear(s.mounts)
	return s.conn.Close()
}

// server is the root of an SMB host; its children are shares.
type server struct {
	session *session
	loc     remotefs.Location
}

func (sv *server) Name() string                { return sv.session.host }
func (sv *server) Location() remotefs.Location { return sv.loc }
func (sv *server) Size() int64                 { return 0 }
func (sv *server) ModTime() time.Time          { return time.Time{} }
func (sv *server) Kind() remotefs.Kind         { return remotefs.KindServer }
func (sv *server) IsDir() bool                 { return true }
func (sv *server) IsFile() bool                { return false }

func (sv *server) Open(context.Context) (io.ReadCloser, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", sv.loc.Path, errors.New("not a file"))
}

func (sv *server) OpenRandom(context.Context) (io.ReadSeekCloser, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", sv.loc.Path, errors.New("not a file"))
}

func (sv *server) Children(ctx context.Context) ([]remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names, err := sv.session.conn.ListSharenames(ctx)
	if err != nil {
		return nil, translateError("list", sv.loc.Path, err)
	}

	out := make([]remotefs.File, 0, len(names))
	for _, name := range names {
		kind := remotefs.KindShare
		switch {
		case strings.EqualFold(name, "IPC$"):
			kind = remotefs.KindPipe
		case strings.HasSuffix(name, "$") && sv.session.hide:
			continue
		}
		out = append(out, &shareEntry{name: name, kind: kind, loc: sv.loc.Child(name, true)})
	}
	return out, nil
}

// shareEntry is a share as listed on its server, before it is mounted.
type shareEntry struct {
	name string
	kind remotefs.Kind
	loc  remotefs.Location
}

func (e *shareEntry) Name() string                { return e.name }
func (e *shareEntry) Location() remotefs.Location { return e.loc }
func (e *shareEntry) Size() int64                 { return 0 }
func (e *shareEntry) ModTime() time.Time          { return time.Time{} }
func (e *shareEntry) Kind() remotefs.Kind         { return e.kind }
func (e *shareEntry) IsDir() bool                 { return e.kind.IsContainer() }
func (e *shareEntry) IsFile() bool                { return false }

func (e *shareEntry) Open(context.Context) (io.ReadCloser, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", e.loc.Path, errors.New("not a file"))
}

func (e *shareEntry) OpenRandom(context.Context) (io.ReadSeekCloser, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", e.loc.Path, errors.New("not a file"))
}

// Children is not available on a listed share: Stat the share location
// to mount it first.
func (e *shareEntry) Children(context.Context) ([]remotefs.File, error) {
	return nil, remotefs.NewError(remotefs.ErrCodeIO, "list", e.loc.Path, errors.New("share not mounted"))
}

// file is an entry inside a mounted share.
type file struct {
	mount mount
	loc   remotefs.Location
	name  string
	info  fs.FileInfo
	share bool
}

func (f *file) Name() string {
	if f.share {
		return strings.Trim(f.loc.Path, "/")
	}
	return f.loc.Base()
}

func (f *file) Location() remotefs.Location { return f.loc }
func (f *file) ModTime() time.Time          { return f.info.ModTime() }
func (f *file) IsDir() bool                 { return f.info.IsDir() }
func (f *file) IsFile() bool                { return !f.info.IsDir() }

func (f *file) Size() int64 {
	if f.info.IsDir() {
		return 0
	}
	return f.info.Size()
}

func (f *file) Kind() remotefs.Kind {
	switch {
	case f.share:
		return remotefs.KindShare
	case f.info.IsDir():
		return remotefs.KindDir
	default:
		return remotefs.KindFile
	}
}

func (f *file) Open(ctx context.Context) (io.ReadCloser, error) {
	return f.OpenRandom(ctx)
}

func (f *file) OpenRandom(ctx context.Context) (io.ReadSeekCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.info.IsDir() {
		return nil, remotefs.NewError(remotefs.ErrCodeIO, "open", f.loc.Path, errors.New("not a file"))
	}
	h, err := f.mount.Open(f.name)
	if err != nil {
		return nil, translateError("open", f.loc.Path, err)
	}
	return h, nil
}

func (f *file) Children(ctx context.Context) ([]remotefs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := f.mount.ReadDir(f.name)
	if err != nil {
		return nil, translateError("list", f.loc.Path, err)
	}

	out := make([]remotefs.File, 0, len(infos))
	for _, info := range infos {
		child := info.Name()
		if child == "." || child == ".." {
			continue
		}
		rel := child
		if f.name != "." {
			rel = f.name + "/" + child
		}
		out = append(out, &file{mount: f.mount, loc: f.loc.Child(child, info.IsDir()), name: rel, info: info})
	}
	return out, nil
}
