// Package limits provides centralized size limits for the H.264 packetizer.
// This ensures consistent validation across different components of the system.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MinPayloadSize is the smallest payload budget usable for FU-A
	// (indicator + header + one byte of NAL data).
	MinPayloadSize = 3

	// DefaultPayloadSize is the default RTP payload budget in bytes,
	// excluding the RTP header and transport headers.
	DefaultPayloadSize = 1024

	// MaxPayloadSize is the largest payload a UDP datagram can carry
	// (65535 - 8 byte UDP header - 20 byte IPv4 header).
	MaxPayloadSize = 65507

	// FUAHeaderSize is the per-fragment overhead of FU-A (indicator + header).
	FUAHeaderSize = 2

	// MinEncodedFrame is the minimum size of an Annex-B frame worth scanning.
	MinEncodedFrame = 4

	// MinRawFrame is the minimum size of a raw picture handed to the encoder.
	MinRawFrame = 10

	// MaxProcessingBuffer is the absolute maximum for an encoded frame.
	// This prevents memory exhaustion from a misbehaving encoder (16MB limit).
	MaxProcessingBuffer = 16 * 1024 * 1024
)

var (
	// ErrSizeOutOfRange indicates a configured size is outside its bounds.
	ErrSizeOutOfRange = errors.New("size out of range")

	// ErrFrameTooShort indicates an input frame is below the minimum size.
	ErrFrameTooShort = errors.New("frame too short")

	// ErrFrameTooLarge indicates an input frame exceeds MaxProcessingBuffer.
	ErrFrameTooLarge = errors.New("frame too large")
)

// ValidatePayloadSize checks a maximum RTP payload size against
// MinPayloadSize and MaxPayloadSize.
func ValidatePayloadSize(size int) error {
	if size < MinPayloadSize || size > MaxPayloadSize {
		return fmt.Errorf("%w: payload size %d not in [%d, %d]", ErrSizeOutOfRange, size, MinPayloadSize, MaxPayloadSize)
	}
	return nil
}

// ValidateFrameSize validates data against a minimum size and MaxProcessingBuffer.
// Returns an error with context including the actual and limiting sizes.
func ValidateFrameSize(data []byte, minSize int) error {
	if len(data) < minSize {
		return fmt.Errorf("%w: size %d below minimum %d", ErrFrameTooShort, len(data), minSize)
	}
	if len(data) > MaxProcessingBuffer {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrFrameTooLarge, len(data), MaxProcessingBuffer)
	}
	return nil
}

// ValidateEncodedFrame validates an Annex-B frame produced by the encoder.
func ValidateEncodedFrame(data []byte) error {
	return ValidateFrameSize(data, MinEncodedFrame)
}

// ValidateRawFrame validates a raw picture before it is handed to the encoder.
func ValidateRawFrame(data []byte) error {
	return ValidateFrameSize(data, MinRawFrame)
}
