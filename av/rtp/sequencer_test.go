package rtp

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPool struct {
	put [][]byte
}

func (p *recordingPool) Get(size int) []byte { return make([]byte, size) }
func (p *recordingPool) Put(buf []byte)      { p.put = append(p.put, buf) }

func buffers(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = []byte{byte(i + 1)}
	}
	return out
}

func drain(s *Sequencer) []*Payload {
	var out []*Payload
	for p := range s.Payloads() {
		out = append(out, p)
	}
	return out
}

func TestSequencer_SingleFrame(t *testing.T) {
	s := NewSequencer(rtp.NewFixedSequencer(100), nil)

	queued := s.Enqueue(buffers(3), 90000)
	require.Equal(t, 3, queued)
	assert.Equal(t, 3, s.Len())

	payloads := drain(s)
	require.Len(t, payloads, 3)
	for i, p := range payloads {
		assert.Equal(t, uint16(100+i), p.SequenceNumber)
		assert.Equal(t, uint32(90000), p.Timestamp)
		assert.Equal(t, i == 2, p.Marker)
		assert.Equal(t, []byte{byte(i + 1)}, p.Data)
	}
	assert.Zero(t, s.Len())
}

func TestSequencer_ContiguousAcrossFrames(t *testing.T) {
	s := NewSequencer(rtp.NewFixedSequencer(1), nil)

	s.Enqueue(buffers(2), 3000)
	s.Enqueue(buffers(1), 6000)
	s.Enqueue(buffers(4), 9000)

	payloads := drain(s)
	require.Len(t, payloads, 7)

	markers := 0
	for i := 1; i < len(payloads); i++ {
		assert.Equal(t, payloads[i-1].SequenceNumber+1, payloads[i].SequenceNumber)
	}
	for _, p := range payloads {
		if p.Marker {
			markers++
		}
	}
	assert.Equal(t, 3, markers)
	assert.True(t, payloads[1].Marker)
	assert.True(t, payloads[2].Marker)
	assert.True(t, payloads[6].Marker)
	assert.Equal(t, uint32(6000), payloads[2].Timestamp)
}

func TestSequencer_Wraparound(t *testing.T) {
	s := NewSequencer(rtp.NewFixedSequencer(65534), nil)

	s.Enqueue(buffers(4), 1)
	payloads := drain(s)

	got := make([]uint16, len(payloads))
	for i, p := range payloads {
		got[i] = p.SequenceNumber
	}
	assert.Equal(t, []uint16{65534, 65535, 0, 1}, got)
}

func TestSequencer_EmptyFrame(t *testing.T) {
	s := NewSequencer(rtp.NewFixedSequencer(1), nil)

	assert.Zero(t, s.Enqueue(nil, 1))
	_, ok := s.Next()
	assert.False(t, ok)

	s.Enqueue(buffers(1), 2)
	p, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, uint16(1), p.SequenceNumber)
}

func TestSequencer_PullInterleavedWithEnqueue(t *testing.T) {
	s := NewSequencer(rtp.NewFixedSequencer(10), nil)

	s.Enqueue(buffers(2), 1)
	p, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, uint16(10), p.SequenceNumber)

	s.Enqueue(buffers(1), 2)
	rest := drain(s)
	require.Len(t, rest, 2)
	assert.Equal(t, uint16(11), rest[0].SequenceNumber)
	assert.Equal(t, uint16(12), rest[1].SequenceNumber)
	assert.Equal(t, uint32(2), rest[1].Timestamp)
}

func TestSequencer_ResetReleasesBuffers(t *testing.T) {
	pool := &recordingPool{}
	s := NewSequencer(rtp.NewFixedSequencer(1), pool)

	s.Enqueue(buffers(3), 1)
	dropped := s.Reset()

	assert.Equal(t, 3, dropped)
	assert.Len(t, pool.put, 3)
	assert.Zero(t, s.Len())

	// Discarded payloads never consumed a number.
	s.Enqueue(buffers(1), 2)
	p, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, uint16(1), p.SequenceNumber)
}

func TestSequencer_ResetKeepsNumbersContiguous(t *testing.T) {
	s := NewSequencer(rtp.NewFixedSequencer(500), nil)

	s.Enqueue(buffers(2), 1)
	sent := drain(s)
	require.Len(t, sent, 2)
	last := sent[1].SequenceNumber

	// a frame queued but never sent, then discarded
	s.Enqueue(buffers(3), 2)
	assert.Equal(t, 3, s.Reset())

	s.Enqueue(buffers(1), 3)
	p, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, last+1, p.SequenceNumber)
	assert.Equal(t, uint32(3), p.Timestamp)
}

func TestSequencer_Release(t *testing.T) {
	pool := &recordingPool{}
	s := NewSequencer(rtp.NewFixedSequencer(1), pool)
	s.Enqueue(buffers(1), 1)

	p, _ := s.Next()
	s.Release(p)
	s.Release(p)
	s.Release(nil)

	assert.Len(t, pool.put, 1)
	assert.Nil(t, p.Data)
}

func TestSequencer_DefaultRandomStart(t *testing.T) {
	s := NewSequencer(nil, nil)
	s.Enqueue(buffers(2), 1)

	payloads := drain(s)
	require.Len(t, payloads, 2)
	assert.Equal(t, payloads[0].SequenceNumber+1, payloads[1].SequenceNumber)
}

func TestPayload_Packet(t *testing.T) {
	p := &Payload{Data: []byte{0x65, 0x01}, SequenceNumber: 7, Timestamp: 1234, Marker: true}

	raw, err := p.Marshal(0xCAFE, DefaultPayloadType)
	require.NoError(t, err)

	var pkt rtp.Packet
	require.NoError(t, pkt.Unmarshal(raw))
	assert.Equal(t, uint8(2), pkt.Version)
	assert.Equal(t, uint8(DefaultPayloadType), pkt.PayloadType)
	assert.Equal(t, uint16(7), pkt.SequenceNumber)
	assert.Equal(t, uint32(1234), pkt.Timestamp)
	assert.Equal(t, uint32(0xCAFE), pkt.SSRC)
	assert.True(t, pkt.Marker)
	assert.Equal(t, []byte{0x65, 0x01}, pkt.Payload)
}
