package h264

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func annexB(nals ...[]byte) []byte {
	var out []byte
	for _, nal := range nals {
		out = append(out, 0x00, 0x00, 0x00, 0x01)
		out = append(out, nal...)
	}
	return out
}

func unitTypes(au []NALUnit) []NALType {
	types := make([]NALType, len(au))
	for i, nal := range au {
		types[i] = nal.Type()
	}
	return types
}

func TestAccessUnits_ParameterSetsLeadKeyframe(t *testing.T) {
	stream := annexB(
		[]byte{0x67, 0x42, 0xC0, 0x1E},
		[]byte{0x68, 0xCE, 0x3C, 0x80},
		[]byte{0x65, 0x88, 0x84},
		[]byte{0x41, 0x9A, 0x02},
		[]byte{0x41, 0x9A, 0x04},
	)

	var units [][]NALType
	for au := range AccessUnits(stream) {
		units = append(units, unitTypes(au))
	}

	require.Len(t, units, 3)
	assert.Equal(t, []NALType{NALTypeSPS, NALTypePPS, NALTypeIDR}, units[0])
	assert.Equal(t, []NALType{NALTypeSlice}, units[1])
	assert.Equal(t, []NALType{NALTypeSlice}, units[2])
}

func TestAccessUnits_MultiSlicePicture(t *testing.T) {
	stream := annexB(
		[]byte{0x09, 0xF0},
		[]byte{0x65, 0x88, 0x84}, // first_mb_in_slice = 0
		[]byte{0x65, 0x40, 0x84}, // first_mb_in_slice != 0
		[]byte{0x09, 0xF0},
		[]byte{0x41, 0x9A},
	)

	var units [][]NALType
	for au := range AccessUnits(stream) {
		units = append(units, unitTypes(au))
	}

	require.Len(t, units, 2)
	assert.Equal(t, []NALType{NALTypeAUD, NALTypeIDR, NALTypeIDR}, units[0])
	assert.Equal(t, []NALType{NALTypeAUD, NALTypeSlice}, units[1])
}

func TestAccessUnits_Empty(t *testing.T) {
	count := 0
	for range AccessUnits(nil) {
		count++
	}
	assert.Zero(t, count)
}
