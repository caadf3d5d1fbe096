package h264

import (
	"errors"
	"fmt"

	"github.com/opd-ai/toxav-h264/limits"
)

// FU-A header bits (RFC 3984 section 5.8).
const (
	fuStartBit = 0x80
	fuEndBit   = 0x40
)

var (
	// ErrPayloadSizeTooSmall indicates a payload budget that cannot carry an FU-A fragment.
	ErrPayloadSizeTooSmall = errors.New("max payload size too small")

	// ErrEmptyNALUnit indicates a NAL unit without a header byte.
	ErrEmptyNALUnit = errors.New("empty NAL unit")
)

// BufferPool supplies and recycles payload buffers.
//
// Get must return a slice of exactly size bytes; its contents are
// overwritten. Put hands a buffer back once the transport is done with it.
type BufferPool interface {
	Get(size int) []byte
	Put(buf []byte)
}

func acquire(pool BufferPool, size int) []byte {
	if pool == nil {
		return make([]byte, size)
	}
	return pool.Get(size)
}

// Fragment packetizes one NAL unit into RTP payloads of at most maxPayloadSize bytes.
//
// A unit that fits is returned as a Single NAL Unit Packet (an exact copy).
// Larger units are split into FU-A fragments of maxPayloadSize bytes, only
// the last of which may be shorter.
//
// Parameters:
//   - nal: NAL unit including its header byte
//   - maxPayloadSize: Largest payload to produce, at least 3
//   - pool: Source of payload buffers, nil to allocate
//
// Returns:
//   - [][]byte: Payloads in transmission order
//   - error: ErrPayloadSizeTooSmall or ErrEmptyNALUnit
func Fragment(nal NALUnit, maxPayloadSize int, pool BufferPool) ([][]byte, error) {
	return AppendFragments(nil, nal, maxPayloadSize, pool)
}

// AppendFragments is like Fragment but appends the payloads to dst.
func AppendFragments(dst [][]byte, nal NALUnit, maxPayloadSize int, pool BufferPool) ([][]byte, error) {
	if nal.Len() == 0 {
		return dst, ErrEmptyNALUnit
	}
	if maxPayloadSize < limits.MinPayloadSize {
		return dst, fmt.Errorf("%w: %d (minimum %d)", ErrPayloadSizeTooSmall, maxPayloadSize, limits.MinPayloadSize)
	}

	if nal.Len() <= maxPayloadSize {
		buf := acquire(pool, nal.Len())
		copy(buf, nal.Data)
		return append(dst, buf), nil
	}

	indicator := nal.ForbiddenZeroBit() | nal.RefIDC() | byte(NALTypeFUA)
	header := byte(fuStartBit) | byte(nal.Type())
	maxFUPayload := maxPayloadSize - limits.FUAHeaderSize

	// Every fragment but the last carries exactly maxFUPayload bytes;
	// some receivers reject streams whose fragment sizes vary.
	payload := nal.Data[1:]
	for len(payload) > 0 {
		n := maxFUPayload
		if n >= len(payload) {
			n = len(payload)
			header |= fuEndBit
		}

		buf := acquire(pool, limits.FUAHeaderSize+n)
		buf[0] = indicator
		buf[1] = header
		copy(buf[limits.FUAHeaderSize:], payload[:n])
		dst = append(dst, buf)

		header &^= fuStartBit
		payload = payload[n:]
	}

	return dst, nil
}

// FragmentCount returns the number of payloads Fragment produces for a NAL
// unit of nalLen bytes.
func FragmentCount(nalLen, maxPayloadSize int) int {
	if nalLen <= 0 || maxPayloadSize < limits.MinPayloadSize {
		return 0
	}
	if nalLen <= maxPayloadSize {
		return 1
	}
	budget := maxPayloadSize - limits.FUAHeaderSize
	return (nalLen - 1 + budget - 1) / budget
}
