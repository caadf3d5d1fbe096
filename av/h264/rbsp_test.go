package h264

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeRBSP(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"no zeros", []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		{"start code", []byte{0x00, 0x00, 0x01}, []byte{0x00, 0x00, 0x03, 0x01}},
		{"three zeros", []byte{0x00, 0x00, 0x00}, []byte{0x00, 0x00, 0x03, 0x00}},
		{"existing three", []byte{0x00, 0x00, 0x03}, []byte{0x00, 0x00, 0x03, 0x03}},
		{"safe byte", []byte{0x00, 0x00, 0x04}, []byte{0x00, 0x00, 0x04}},
		{"long run", []byte{0x00, 0x00, 0x00, 0x00, 0x00}, []byte{0x00, 0x00, 0x03, 0x00, 0x00, 0x03, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeRBSP(nil, tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, UnescapeRBSP(nil, got))
		})
	}
}

func TestEscapeRBSP_NoStartCodeEmulation(t *testing.T) {
	src := make([]byte, 4096)
	for i := range src {
		if i%5 == 0 {
			src[i] = 0x01
		}
	}

	escaped := EscapeRBSP(nil, src)

	assert.False(t, bytes.Contains(escaped, []byte{0x00, 0x00, 0x01}))
	assert.Equal(t, src, UnescapeRBSP(nil, escaped))
}
