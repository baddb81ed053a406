package remotefs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/sharegate/pkg/remotefs"
	"github.com/marmos91/sharegate/pkg/remotefs/remotefstest"
)

type recordedOp struct {
	scheme string
	op     string
	code   remotefs.ErrorCode
	failed bool
}

type fakeMetrics struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (m *fakeMetrics) ObserveOperation(scheme, op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := recordedOp{scheme: scheme, op: op, failed: err != nil}
	if err != nil {
		r.code = remotefs.CodeOf(err)
	}
	m.ops = append(m.ops, r)
}

func (m *fakeMetrics) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ops))
	for i, o := range m.ops {
		out[i] = o.op
	}
	return out
}

func newTree() *remotefstest.Backend {
	return remotefstest.NewBackend("smb").AddHost("fileserver",
		remotefstest.NewDir("",
			remotefstest.NewDir("media",
				remotefstest.NewFile("a.mkv", []byte("0123456789")),
				remotefstest.NewDir("sub"),
			).WithKind(remotefs.KindShare),
		),
	)
}

func TestInstrument_RecordsOperations(t *testing.T) {
	ctx := context.Background()
	m := &fakeMetrics{}
	b := remotefs.Instrument(newTree(), m)

	loc, err := remotefs.ParseLocation("smb://fileserver/media/")
	require.NoError(t, err)

	sess, err := b.Connect(ctx, loc, remotefs.Credentials{})
	require.NoError(t, err)
	defer sess.Close()

	dir, err := sess.Stat(ctx, loc)
	require.NoError(t, err)

	children, err := remotefs.List(ctx, dir)
	require.NoError(t, err)
	require.Len(t, children, 2)

	rc, err := children[0].OpenRandom(ctx)
	require.NoError(t, err)
	require.NoError(t, rc.Close())

	assert.Equal(t, []string{"connect", "stat", "list", "open"}, m.names())
	assert.Equal(t, "smb", m.ops[0].scheme)
}

func TestInstrument_RecordsFailures(t *testing.T) {
	ctx := context.Background()
	m := &fakeMetrics{}
	b := remotefs.Instrument(newTree(), m)

	loc, err := remotefs.ParseLocation("smb://fileserver/media/missing.txt")
	require.NoError(t, err)

	sess, err := b.Connect(ctx, loc, remotefs.Credentials{})
	require.NoError(t, err)
	defer sess.Close()

	_, err = sess.Stat(ctx, loc)
	require.True(t, remotefs.IsNotFound(err))

	require.Len(t, m.ops, 2)
	assert.True(t, m.ops[1].failed)
	assert.Equal(t, remotefs.ErrCodeNotFound, m.ops[1].code)
}

func TestInstrument_NilMetrics(t *testing.T) {
	ctx := context.Background()
	b := remotefs.Instrument(newTree(), nil)

	loc, err := remotefs.ParseLocation("smb://fileserver/media/a.mkv")
	require.NoError(t, err)

	sess, err := b.Connect(ctx, loc, remotefs.Credentials{})
	require.NoError(t, err)
	defer sess.Close()

	f, err := sess.Stat(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, int64(10), f.Size())
	assert.Equal(t, "smb", b.Scheme())
}
