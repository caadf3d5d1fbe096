// Package h264 provides H.264 Annex-B parsing and RFC 3984 payloadization.
//
// This file implements NAL unit extraction from Annex-B byte streams.
package h264

import (
	"bytes"
	"fmt"
	"iter"
)

// NALType is the 5-bit nal_unit_type field of a NAL unit header.
type NALType uint8

// NAL unit types used by the packetizer (ITU-T H.264 Table 7-1, RFC 3984).
const (
	NALTypeSlice    NALType = 1  // Coded slice of a non-IDR picture
	NALTypeSliceA   NALType = 2  // Coded slice data partition A
	NALTypeSliceB   NALType = 3  // Coded slice data partition B
	NALTypeSliceC   NALType = 4  // Coded slice data partition C
	NALTypeIDR      NALType = 5  // Coded slice of an IDR picture
	NALTypeSEI      NALType = 6  // Supplemental enhancement information
	NALTypeSPS      NALType = 7  // Sequence parameter set
	NALTypePPS      NALType = 8  // Picture parameter set
	NALTypeAUD      NALType = 9  // Access unit delimiter
	NALTypeEOSeq    NALType = 10 // End of sequence
	NALTypeEOStream NALType = 11 // End of stream
	NALTypeFiller   NALType = 12 // Filler data
	NALTypeSTAPA    NALType = 24 // RFC 3984 single-time aggregation packet
	NALTypeFUA      NALType = 28 // RFC 3984 fragmentation unit A
)

const (
	nalForbiddenMask = 0x80
	nalRefIDCMask    = 0x60
	nalTypeMask      = 0x1F
)

// String returns a short name for the NAL unit type.
func (t NALType) String() string {
	switch t {
	case NALTypeSlice:
		return "slice"
	case NALTypeSliceA, NALTypeSliceB, NALTypeSliceC:
		return "slice-partition"
	case NALTypeIDR:
		return "idr"
	case NALTypeSEI:
		return "sei"
	case NALTypeSPS:
		return "sps"
	case NALTypePPS:
		return "pps"
	case NALTypeAUD:
		return "aud"
	case NALTypeEOSeq:
		return "end-of-seq"
	case NALTypeEOStream:
		return "end-of-stream"
	case NALTypeFiller:
		return "filler"
	case NALTypeSTAPA:
		return "stap-a"
	case NALTypeFUA:
		return "fu-a"
	default:
		return fmt.Sprintf("nal-%d", uint8(t))
	}
}

// IsVCL reports whether the type carries coded slice data.
func (t NALType) IsVCL() bool {
	return t >= NALTypeSlice && t <= NALTypeIDR
}

// NALUnit is a view of one NAL unit inside an Annex-B buffer.
//
// Data aliases the buffer it was extracted from and includes the one-byte
// NAL header. It is never empty.
type NALUnit struct {
	Data   []byte // Header byte followed by the NAL payload
	Offset int    // Offset of the header byte in the source buffer
}

// Len returns the NAL unit length including the header byte.
func (n NALUnit) Len() int {
	return len(n.Data)
}

// Header returns the NAL header byte.
func (n NALUnit) Header() byte {
	return n.Data[0]
}

// ForbiddenZeroBit returns the F bit in place (0x80 or 0).
func (n NALUnit) ForbiddenZeroBit() byte {
	return n.Data[0] & nalForbiddenMask
}

// RefIDC returns the NRI bits in place (0x00, 0x20, 0x40 or 0x60).
func (n NALUnit) RefIDC() byte {
	return n.Data[0] & nalRefIDCMask
}

// Type returns the nal_unit_type.
func (n NALUnit) Type() NALType {
	return NALType(n.Data[0] & nalTypeMask)
}

var startCode = []byte{0x00, 0x00, 0x01}

// findStartCode returns the index of the next 00 00 01 prefix in data[from:end],
// or -1 when there is none.
func findStartCode(data []byte, from, end int) int {
	if from >= end {
		return -1
	}
	i := bytes.Index(data[from:end], startCode)
	if i < 0 {
		return -1
	}
	return from + i
}

// NALUnits returns the NAL units of an Annex-B buffer in stream order.
func NALUnits(data []byte) iter.Seq[NALUnit] {
	return ExtractNALUnits(data, 0, len(data))
}

// ExtractNALUnits scans data[offset:offset+length] for 00 00 01 start code
// prefixes and yields the NAL unit between each prefix and the next one.
//
// Zero bytes in front of the next prefix (trailing_zero_8bits, or the
// leading zero of a 4-byte start code) are not part of the unit. Units that
// are empty after trimming are skipped. A region without a start code
// yields nothing. The sequence can be ranged over any number of times.
func ExtractNALUnits(data []byte, offset, length int) iter.Seq[NALUnit] {
	return func(yield func(NALUnit) bool) {
		if offset < 0 || length <= 0 || offset >= len(data) {
			return
		}
		end := offset + length
		if end > len(data) {
			end = len(data)
		}

		prefix := findStartCode(data, offset, end)
		if prefix < 0 {
			return
		}

		for begin := prefix + len(startCode); begin <= end; {
			next := findStartCode(data, begin, end)
			stop := end
			if next >= 0 {
				stop = next
			}

			tail := stop
			for tail > begin && data[tail-1] == 0x00 {
				tail--
			}
			if tail > begin {
				if !yield(NALUnit{Data: data[begin:tail], Offset: begin}) {
					return
				}
			}

			if next < 0 {
				return
			}
			begin = next + len(startCode)
		}
	}
}

// SplitNALUnits collects every NAL unit of an Annex-B buffer.
func SplitNALUnits(data []byte) []NALUnit {
	var nals []NALUnit
	for nal := range NALUnits(data) {
		nals = append(nals, nal)
	}
	return nals
}

// IsKeyframe reports whether an Annex-B buffer contains an IDR slice.
func IsKeyframe(data []byte) bool {
	for nal := range NALUnits(data) {
		if nal.Type() == NALTypeIDR {
			return true
		}
	}
	return false
}
