package smb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"testing"
	"time"

	"github.com/hirochachacha/go-smb2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

// ============================================================================
// Fake server
// ============================================================================

type fakeMount struct {
	fs      afero.Fs
	umounts int
}

func abs(name string) string {
	if name == "." {
		return "/"
	}
	return "/" + name
}

func (m *fakeMount) Stat(name string) (fs.FileInfo, error)      { return m.fs.Stat(abs(name)) }
func (m *fakeMount) ReadDir(name string) ([]fs.FileInfo, error) { return afero.ReadDir(m.fs, abs(name)) }
func (m *fakeMount) Open(name string) (io.ReadSeekCloser, error) {
	return m.fs.Open(abs(name))
}
func (m *fakeMount) Umount() error { m.umounts++; return nil }

type fakeConn struct {
	shares map[string]*fakeMount
	names  []string
	mounts int
	closed bool
}

func (c *fakeConn) ListSharenames(context.Context) ([]string, error) { return c.names, nil }

func (c *fakeConn) Mount(_ context.Context, share string) (mount, error) {
	m, ok := c.shares[share]
	if !ok {
		return nil, &smb2.ResponseError{Code: statusBadNetworkName}
	}
	c.mounts++
	return m, nil
}

func (c *fakeConn) Close() error { c.closed = true; return nil }

func newFakeServer(t *testing.T) (*Backend, *fakeConn) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/films/classics", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/films/a.mkv", []byte("0123456789"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/notes.txt", []byte("hello"), 0o644))

	c := &fakeConn{
		shares: map[string]*fakeMount{"media": {fs: mem}},
		names:  []string{"media", "IPC$", "C$", "print"},
	}
	b := New(Config{})
	b.dial = func(_ context.Context, host string, creds remotefs.Credentials) (conn, error) {
		if creds.Password == "wrong" {
			return nil, &smb2.ResponseError{Code: statusLogonFailure}
		}
		if host != "fileserver" {
			return nil, fmt.Errorf("dial tcp %s:445: no such host", host)
		}
		return c, nil
	}
	return b, c
}

func connect(t *testing.T, b *Backend, raw string) (remotefs.Session, remotefs.Location) {
	t.Helper()
	loc, err := remotefs.ParseLocation(raw)
	require.NoError(t, err)
	s, err := b.Connect(context.Background(), loc, remotefs.Credentials{})
	require.NoError(t, err)
	return s, loc
}

// ============================================================================
// Tests
// ============================================================================

func TestConnect(t *testing.T) {
	b, _ := newFakeServer(t)
	assert.Equal(t, remotefs.SchemeSMB, b.Scheme())
	assert.Equal(t, DefaultPort, b.cfg.Port)

	loc, err := remotefs.ParseLocation(`\\fileserver\media`)
	require.NoError(t, err)

	_, err = b.Connect(context.Background(), loc, remotefs.Credentials{User: "bob", Password: "wrong"})
	assert.True(t, remotefs.IsAuthRequired(err))

	other, err := remotefs.ParseLocation("smb://nohost/")
	require.NoError(t, err)
	_, err = b.Connect(context.Background(), other, remotefs.Credentials{})
	assert.Equal(t, remotefs.ErrCodeIO, remotefs.CodeOf(err))
}

func TestServerListsShares(t *testing.T) {
	b, _ := newFakeServer(t)
	s, loc := connect(t, b, "smb://fileserver/")
	defer s.Close()

	root, err := s.Stat(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, remotefs.KindServer, root.Kind())
	assert.Equal(t, "fileserver", root.Name())

	entries, err := remotefs.List(context.Background(), root)
	require.NoError(t, err)

	got := map[string]remotefs.Kind{}
	for _, e := range entries {
		got[e.Name()] = e.Kind()
	}
	assert.Equal(t, map[string]remotefs.Kind{
		"media": remotefs.KindShare,
		"IPC$":  remotefs.KindPipe,
		"C$":    remotefs.KindShare,
		"print": remotefs.KindShare,
	}, got)
	assert.Equal(t, "smb://fileserver/media/", entries[2].Location().String())
}

func TestHideAdminShares(t *testing.T) {
	b, _ := newFakeServer(t)
	b.cfg.HideAdminShares = true
	s, loc := connect(t, b, "smb://fileserver/")
	defer s.Close()

	root, err := s.Stat(context.Background(), loc)
	require.NoError(t, err)
	entries, err := root.Children(context.Background())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotEqual(t, "C$", e.Name())
	}
	assert.Len(t, entries, 3)
}

func TestStatInsideShare(t *testing.T) {
	b, c := newFakeServer(t)
	s, _ := connect(t, b, "smb://fileserver/media/")

	stat := func(raw string) (remotefs.File, error) {
		loc, err := remotefs.ParseLocation(raw)
		require.NoError(t, err)
		return s.Stat(context.Background(), loc)
	}

	share, err := stat("smb://fileserver/media")
	require.NoError(t, err)
	assert.Equal(t, remotefs.KindShare, share.Kind())
	assert.Equal(t, "media", share.Name())
	assert.Equal(t, "/media/", share.Location().Path)

	f, err := stat("smb://fileserver/media/films/a.mkv")
	require.NoError(t, err)
	assert.True(t, f.IsFile())
	assert.Equal(t, int64(10), f.Size())

	dir, err := stat("smb://fileserver/media/films")
	require.NoError(t, err)
	assert.Equal(t, remotefs.KindDir, dir.Kind())
	assert.Equal(t, "/media/films/", dir.Location().Path)

	_, err = stat("smb://fileserver/media/missing.txt")
	assert.True(t, remotefs.IsNotFound(err))

	_, err = stat("smb://fileserver/nope/x")
	assert.True(t, remotefs.IsNotFound(err))

	assert.Equal(t, 1, c.mounts, "a share is mounted once per session")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, c.closed)
	assert.Equal(t, 1, c.shares["media"].umounts)
}

func TestChildrenAndRead(t *testing.T) {
	b, _ := newFakeServer(t)
	s, loc := connect(t, b, "smb://fileserver/media/")
	defer s.Close()

	share, err := s.Stat(context.Background(), loc)
	require.NoError(t, err)
	entries, err := remotefs.List(context.Background(), share)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "films", entries[0].Name())
	assert.Equal(t, "notes.txt", entries[1].Name())

	films, err := remotefs.List(context.Background(), entries[0])
	require.NoError(t, err)
	require.Len(t, films, 2)
	assert.Equal(t, "smb://fileserver/media/films/a.mkv", films[0].Location().String())

	rc, err := films[0].OpenRandom(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	_, err = rc.Seek(7, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "789", string(rest))

	_, err = entries[0].Open(context.Background())
	assert.Equal(t, remotefs.ErrCodeIO, remotefs.CodeOf(err))
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code remotefs.ErrorCode
	}{
		{"LogonFailure", &smb2.ResponseError{Code: statusLogonFailure}, remotefs.ErrCodeAuthRequired},
		{"AccessDenied", &os.PathError{Op: "open", Path: "x", Err: &smb2.ResponseError{Code: statusAccessDenied}}, remotefs.ErrCodeAuthRequired},
		{"NameNotFound", &smb2.ResponseError{Code: statusObjectNameNotFound}, remotefs.ErrCodeNotFound},
		{"PathNotFound", &smb2.ResponseError{Code: statusObjectPathNotFound}, remotefs.ErrCodeNotFound},
		{"BadNetworkName", &smb2.ResponseError{Code: statusBadNetworkName}, remotefs.ErrCodeNotFound},
		{"NotExist", fs.ErrNotExist, remotefs.ErrCodeNotFound},
		{"LogonRefused", fmt.Errorf("%w: %w", errLogonRefused, &smb2.InvalidResponseError{Message: "guest account doesn't support signing"}), remotefs.ErrCodeAuthRequired},
		{"Transport", &smb2.TransportError{Err: io.EOF}, remotefs.ErrCodeIO},
		{"Other", errors.New("connection reset"), remotefs.ErrCodeIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, remotefs.CodeOf(translateError("stat", "/x", tt.err)))
		})
	}
	assert.ErrorIs(t, translateError("stat", "/x", context.DeadlineExceeded), context.DeadlineExceeded)
}

func TestInitiator(t *testing.T) {
	t.Run("EmptyUserIsGuest", func(t *testing.T) {
		i := initiator(remotefs.Credentials{})
		assert.Equal(t, GuestUser, i.User)
		assert.Empty(t, i.Password)
	})

	t.Run("KeepsSuppliedAccount", func(t *testing.T) {
		i := initiator(remotefs.Credentials{Domain: "CORP", User: "bob", Password: "pw"})
		assert.Equal(t, "bob", i.User)
		assert.Equal(t, "pw", i.Password)
		assert.Equal(t, "CORP", i.Domain)
	})
}

func TestAccountError(t *testing.T) {
	assert.True(t, accountError(&smb2.InternalError{Message: "Anonymous account is not supported yet. Use guest account instead"}))
	assert.True(t, accountError(&smb2.InvalidResponseError{Message: "guest account doesn't support signing"}))
	assert.False(t, accountError(&smb2.InternalError{Message: "unsupported dialect specified"}))
	assert.False(t, accountError(&smb2.TransportError{Err: io.EOF}))
}

// TestDialWithoutCredentials drives the real dialer against a listener that
// records the first packet and hangs up. Without credentials the client must
// still get as far as negotiating.
func TestDialWithoutCredentials(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(received)
			return
		}
		defer c.Close()
		_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
		head := make([]byte, 8)
		if _, err := io.ReadFull(c, head); err != nil {
			close(received)
			return
		}
		received <- head
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	b := New(Config{Port: port, DialTimeout: 5 * time.Second})
	loc, err := remotefs.ParseLocation("smb://127.0.0.1/media/")
	require.NoError(t, err)

	_, err = b.Connect(context.Background(), loc, remotefs.Credentials{})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "Anonymous")
	assert.Equal(t, remotefs.ErrCodeIO, remotefs.CodeOf(err))

	head, ok := <-received
	require.True(t, ok, "server saw no negotiate request")
	assert.Equal(t, []byte{0xFE, 'S', 'M', 'B'}, head[4:8])
}

func TestSplitShare(t *testing.T) {
	loc := remotefs.Location{Scheme: "smb", Host: "h", Path: "/media/a/b.txt"}
	share, name := splitShare(loc)
	assert.Equal(t, "media", share)
	assert.Equal(t, "a/b.txt", name)

	share, name = splitShare(remotefs.Location{Path: "/media/"})
	assert.Equal(t, "media", share)
	assert.Equal(t, ".", name)

	assert.Equal(t, "", smbPath("."))
	assert.Equal(t, `a\b.txt`, smbPath("a/b.txt"))
}
