// Package bufpool provides reusable chunk buffers for streaming responses.
//
// Every response body is copied through one fixed-capacity chunk. Chunks are
// pooled per size class so that a server configured with a 128 KiB chunk
// size recycles 128 KiB buffers, while a test or a CLI using a different
// size gets its own class. Sizes are rounded up to a multiple of MinSize.
//
// Buffers above MaxSize are allocated directly and never pooled, so a
// misconfigured chunk size cannot pin very large buffers in memory.
//
// # Usage
//
//	buf := bufpool.Get(128 << 10)
//	defer bufpool.Put(buf)
package bufpool

import (
	"sync"
	"sync/atomic"
)

const (
	// MinSize is the smallest size class (4KB).
	MinSize = 4 << 10

	// MaxSize is the largest pooled size (8MB).
	MaxSize = 8 << 20
)

// Stats counts pool activity since creation.
type Stats struct {
	Gets   uint64 // buffers handed out
	Puts   uint64 // buffers returned and kept for reuse
	Allocs uint64 // buffers that had to be allocated
}

// Pool hands out byte slices grouped by size class. The zero value is not
// usable; call NewPool.
type Pool struct {
	classes sync.Map // int -> *sync.Pool

	gets   atomic.Uint64
	puts   atomic.Uint64
	allocs atomic.Uint64
}

// NewPool creates an empty pool. Size classes are created on first use.
func NewPool() *Pool {
	return &Pool{}
}

// classSize rounds size up to a multiple of MinSize.
func classSize(size int) int {
	if size <= MinSize {
		return MinSize
	}
	return (size + MinSize - 1) / MinSize * MinSize
}

func (p *Pool) class(size int) *sync.Pool {
	if c, ok := p.classes.Load(size); ok {
		return c.(*sync.Pool)
	}
	c, _ := p.classes.LoadOrStore(size, &sync.Pool{
		New: func() any {
			p.allocs.Add(1)
			buf := make([]byte, size)
			return &buf
		},
	})
	return c.(*sync.Pool)
}

// Get returns a slice of length size. Its capacity is the size class, which
// may be larger. The caller must Put it back once no reference remains.
func (p *Pool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	p.gets.Add(1)

	cs := classSize(size)
	if cs > MaxSize {
		p.allocs.Add(1)
		return make([]byte, size)
	}
	buf := *(p.class(cs).Get().(*[]byte))
	return buf[:size]
}

// Put returns a buffer obtained from Get. Buffers whose capacity is not a
// size class, or exceeds MaxSize, are left to the garbage collector.
func (p *Pool) Put(buf []byte) {
	c := cap(buf)
	if c == 0 || c > MaxSize || c%MinSize != 0 {
		return
	}
	full := buf[:c]
	p.class(c).Put(&full)
	p.puts.Add(1)
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Gets:   p.gets.Load(),
		Puts:   p.puts.Load(),
		Allocs: p.allocs.Load(),
	}
}

var globalPool = NewPool()

// Get returns a buffer of length size from the global pool.
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the global pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}

// GlobalStats returns the counters of the global pool.
func GlobalStats() Stats {
	return globalPool.Stats()
}
