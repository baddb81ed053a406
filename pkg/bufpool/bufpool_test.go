package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassSize(t *testing.T) {
	tests := []struct {
		size int
		want int
	}{
		{0, MinSize},
		{1, MinSize},
		{MinSize, MinSize},
		{MinSize + 1, 2 * MinSize},
		{128 << 10, 128 << 10},
		{100_000, 102400},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classSize(tt.size), "size %d", tt.size)
	}
}

func TestPool_GetLengthAndCapacity(t *testing.T) {
	p := NewPool()

	buf := p.Get(128 << 10)
	assert.Len(t, buf, 128<<10)
	assert.Equal(t, 128<<10, cap(buf))

	odd := p.Get(1000)
	assert.Len(t, odd, 1000)
	assert.Equal(t, MinSize, cap(odd))

	assert.Len(t, p.Get(-5), 0)
}

func TestPool_ReusesReturnedBuffers(t *testing.T) {
	p := NewPool()

	buf := p.Get(64 << 10)
	buf[0] = 0xAB
	p.Put(buf)

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Gets)
	assert.Equal(t, uint64(1), stats.Puts)
	assert.Equal(t, uint64(1), stats.Allocs)

	// A returned buffer comes back at full class length.
	again := p.Get(10)
	assert.Len(t, again, 10)
}

func TestPool_OversizedNotPooled(t *testing.T) {
	p := NewPool()

	big := p.Get(MaxSize + 1)
	assert.Len(t, big, MaxSize+1)
	p.Put(big)

	assert.Equal(t, uint64(0), p.Stats().Puts)
}

func TestPool_PutIgnoresForeignBuffers(t *testing.T) {
	p := NewPool()

	p.Put(nil)
	p.Put(make([]byte, 1000))
	p.Put(make([]byte, 0, 3*MinSize+1))

	assert.Equal(t, uint64(0), p.Stats().Puts)
}

func TestPool_Concurrent(t *testing.T) {
	p := NewPool()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			size := (i%4 + 1) * 32 << 10
			buf := p.Get(size)
			for j := range buf {
				buf[j] = byte(i)
			}
			p.Put(buf)
		}()
	}
	wg.Wait()

	stats := p.Stats()
	assert.Equal(t, uint64(50), stats.Gets)
	assert.Equal(t, uint64(50), stats.Puts)
	assert.LessOrEqual(t, stats.Allocs, uint64(50))
}

func TestGlobalPool(t *testing.T) {
	before := GlobalStats()
	buf := Get(8 << 10)
	Put(buf)
	after := GlobalStats()

	assert.Equal(t, before.Gets+1, after.Gets)
	assert.Equal(t, before.Puts+1, after.Puts)
}

func BenchmarkPool_GetPut(b *testing.B) {
	p := NewPool()
	for b.Loop() {
		p.Put(p.Get(128 << 10))
	}
}
