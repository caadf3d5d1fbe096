// Package h264 provides the H.264 half of the ToxAV video send path.
//
// It turns the Annex-B output of an encoder into RTP payloads following
// RFC 3984 (RTP Payload Format for H.264 Video):
//
//	Annex-B bytes → NAL Extraction → Fragmentation → RTP payloads
//
// # NAL Extraction
//
// NALUnits and ExtractNALUnits scan for 00 00 01 start code prefixes and
// yield views into the original buffer. Nothing is copied:
//
//	for nal := range h264.NALUnits(frame) {
//	    fmt.Println(nal.Type(), nal.Len())
//	}
//
// Trailing zero bytes in front of a start code are stripped, so 4-byte
// start codes are handled transparently and no unit is ever empty.
//
// # Fragmentation
//
// Fragment turns one NAL unit into payloads no larger than the configured
// budget. Units that fit are sent as Single NAL Unit Packets; larger ones
// become FU-A fragments:
//
//	payloads, err := h264.Fragment(nal, 1024, pool)
//
// Fragments have a fixed size; only the last one of a unit may be short.
//
// # Buffer Pools
//
// Fragment takes a BufferPool so allocation policy stays with the caller.
// A nil pool allocates every payload.
//
// # Access Units
//
// AccessUnits groups a recorded elementary stream into pictures so it can
// be sent frame by frame with correct marker bits and timestamps.
package h264
