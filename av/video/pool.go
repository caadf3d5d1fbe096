package video

import "sync"

// BytePool recycles payload buffers between the fragmenter and the
// transport. It satisfies h264.BufferPool and is safe for concurrent use.
type BytePool struct {
	size int
	pool sync.Pool
}

// NewBytePool creates a pool whose fresh buffers have capacity size,
// normally the stream's maximum payload size.
func NewBytePool(size int) *BytePool {
	p := &BytePool{size: size}
	p.pool.New = func() any {
		b := make([]byte, 0, p.size)
		return &b
	}
	return p
}

// Get returns a buffer of length n.
func (p *BytePool) Get(n int) []byte {
	b := *(p.pool.Get().(*[]byte))
	if cap(b) < n {
		return make([]byte, n, max(n, p.size))
	}
	return b[:n]
}

// Put returns a buffer to the pool. Undersized buffers are discarded.
func (p *BytePool) Put(buf []byte) {
	if cap(buf) < p.size {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}
