package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sharegate/pkg/remotefs"
)

func newMemBackend(t *testing.T) *Backend {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/films/classics", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/films/a.mkv", []byte("0123456789"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/films/B.mkv", []byte("b"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/readme.txt", []byte("hi"), 0o644))
	return NewWithFs(map[string]afero.Fs{"media": mem})
}

func stat(t *testing.T, b *Backend, raw string) (remotefs.File, error) {
	t.Helper()
	loc, err := remotefs.ParseLocation(raw)
	require.NoError(t, err)
	s, err := b.Connect(context.Background(), loc, remotefs.Credentials{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s.Stat(context.Background(), loc)
}

func TestStat(t *testing.T) {
	b := newMemBackend(t)
	assert.Equal(t, remotefs.SchemeLocal, b.Scheme())

	t.Run("File", func(t *testing.T) {
		f, err := stat(t, b, "local://media/films/a.mkv")
		require.NoError(t, err)
		assert.Equal(t, "a.mkv", f.Name())
		assert.Equal(t, int64(10), f.Size())
		assert.True(t, f.IsFile())
		assert.Equal(t, remotefs.KindFile, f.Kind())
	})

	t.Run("DirectoryGainsSlash", func(t *testing.T) {
		f, err := stat(t, b, "local://media/films")
		require.NoError(t, err)
		assert.True(t, f.IsDir())
		assert.Equal(t, "/films/", f.Location().Path)
		assert.Zero(t, f.Size())
	})

	t.Run("RootIsShare", func(t *testing.T) {
		f, err := stat(t, b, "local://media/")
		require.NoError(t, err)
		assert.Equal(t, remotefs.KindShare, f.Kind())
		assert.Equal(t, "media", f.Name())
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := stat(t, b, "local://media/nope.txt")
		assert.True(t, remotefs.IsNotFound(err))
	})

	t.Run("UnknownRoot", func(t *testing.T) {
		loc, err := remotefs.ParseLocation("local://other/")
		require.NoError(t, err)
		_, err = b.Connect(context.Background(), loc, remotefs.Credentials{})
		assert.True(t, remotefs.IsNotFound(err))
	})
}

func TestChildrenAndList(t *testing.T) {
	b := newMemBackend(t)
	dir, err := stat(t, b, "local://media/films/")
	require.NoError(t, err)

	entries, err := remotefs.List(context.Background(), dir)
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"B.mkv", "a.mkv", "classics"}, names)
	assert.Equal(t, "/films/classics/", entries[2].Location().Path)
	assert.Equal(t, remotefs.KindDir, entries[2].Kind())
}

func TestOpen(t *testing.T) {
	b := newMemBackend(t)
	f, err := stat(t, b, "local://media/films/a.mkv")
	require.NoError(t, err)

	rc, err := f.OpenRandom(context.Background())
	require.NoError(t, err)
	defer rc.Close()

	_, err = rc.Seek(4, io.SeekStart)
	require.NoError(t, err)
	rest, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(rest))

	dir, err := stat(t, b, "local://media/films/")
	require.NoError(t, err)
	_, err = dir.Open(context.Background())
	assert.Equal(t, remotefs.ErrCodeIO, remotefs.CodeOf(err))
}

func TestReadOnly(t *testing.T) {
	mem := afero.NewMemMapFs()
	b := NewWithFs(map[string]afero.Fs{"m": mem})
	_, err := b.roots["m"].Create("/x")
	assert.Error(t, err)
}

func TestNewFromOS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello"), 0o644))

	b, err := New(map[string]string{"tmp": dir})
	require.NoError(t, err)

	f, err := stat(t, b, "local://tmp/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), f.Size())

	_, err = stat(t, b, "local://tmp/../../etc/passwd")
	assert.True(t, remotefs.IsNotFound(err), "paths cannot leave the root")

	_, err = New(map[string]string{"bad": filepath.Join(dir, "hello.txt")})
	assert.Error(t, err)
	_, err = New(map[string]string{"missing": filepath.Join(dir, "nope")})
	assert.Error(t, err)
}
