// Package limits provides centralized size constants and validation functions
// for the H.264 packetization pipeline. Every component that accepts a payload
// size or an input frame checks it here so the bounds stay consistent.
//
// # Size Hierarchy
//
//   - MinPayloadSize (3 bytes): the smallest payload that can still carry an
//     FU-A fragment (indicator, header and at least one payload byte).
//
//   - DefaultPayloadSize (1024 bytes): the default RTP payload budget, excluding
//     the outer RTP and transport headers.
//
//   - MaxPayloadSize (65507 bytes): the largest payload a single UDP datagram
//     can carry.
//
//   - MinEncodedFrame (4 bytes) and MinRawFrame (10 bytes): inputs shorter than
//     these are discarded by the pipeline instead of being processed.
//
//   - MaxProcessingBuffer (16MB): the absolute maximum for any encoded frame.
//
// # Validation Functions
//
//	err := limits.ValidatePayloadSize(cfg.MaxPayloadSize)
//	if errors.Is(err, limits.ErrSizeOutOfRange) {
//	    // reject the configuration
//	}
//
// Frame validation distinguishes short input, which is recoverable, from
// oversized input:
//
//	if err := limits.ValidateEncodedFrame(data); errors.Is(err, limits.ErrFrameTooShort) {
//	    // drop the frame and continue
//	}
package limits
