package video

import (
	"testing"

	"github.com/opd-ai/toxav-h264/av/h264"
	"github.com/stretchr/testify/assert"
)

var _ h264.BufferPool = (*BytePool)(nil)

func TestBytePool_GetLength(t *testing.T) {
	p := NewBytePool(1024)

	b := p.Get(100)
	assert.Len(t, b, 100)
	assert.GreaterOrEqual(t, cap(b), 1024)

	big := p.Get(4000)
	assert.Len(t, big, 4000)
}

func TestBytePool_PutDiscardsUndersized(t *testing.T) {
	p := NewBytePool(1024)
	p.Put(make([]byte, 10))
	p.Put(nil)

	b := p.Get(1024)
	assert.Len(t, b, 1024)
}

func TestBytePool_FragmentRoundTrip(t *testing.T) {
	p := NewBytePool(64)
	nal := h264.NALUnit{Data: append([]byte{0x65}, make([]byte, 200)...)}

	frags, err := h264.Fragment(nal, 64, p)
	assert.NoError(t, err)
	for _, f := range frags {
		assert.LessOrEqual(t, len(f), 64)
		p.Put(f)
	}
}
