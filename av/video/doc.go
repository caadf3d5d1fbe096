// Package video provides the H.264 video send path for ToxAV.
//
// A Stream takes raw I420 pictures, has a native encoder compress them,
// splits the Annex-B output into RFC 3984 payloads and queues them, with
// sequence numbers and marker bits, for the transport to pull.
//
// # Architecture Overview
//
// The send pipeline:
//
//	RawFrame → Scaler → KeyframeScheduler → NativeEncoder → h264.NALUnits
//	         → h264.AppendFragments → rtp.Sequencer → transport
//
//   - Stream: owns the pipeline and its lifecycle
//   - NativeEncoder: boundary to the actual H.264 encoder
//   - PassthroughEncoder: framing-only encoder for tests and demos
//   - KeyframeScheduler: start-of-stream, periodic and on-request keyframes
//   - Scaler: bilinear I420 resizing for mismatched input
//   - BytePool: payload buffer recycling
//   - Config / LoadConfig: stream settings from code or H264_* variables
//
// # Basic Usage
//
//	cfg, err := video.LoadConfig()
//	if err != nil {
//	    return err
//	}
//
//	stream := video.NewStream(encoder)
//	if err := stream.Open(cfg); err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	if err := stream.Process(frame); err != nil {
//	    return err
//	}
//	for p := range stream.Payloads() {
//	    writer.WriteRTP(p.Packet(cfg.SSRC, cfg.PayloadType))
//	    stream.Release(p)
//	}
//
// # Keyframes
//
// The first two frames of every opened stream are keyframes so a receiver
// joining late still gets a clean start. After that a keyframe is forced
// once IFrameInterval frames went by without one. Picture Loss Indication
// and Full Intra Request messages are accepted at most once per
// PLIMinInterval and only force a keyframe with ForceKeyframeOnFeedback.
//
// # Malformed Input
//
// Encoded frames under four bytes and raw frames under ten bytes are
// dropped: the pending queue is discarded, a warning is logged and the
// call returns nil. Discarded payloads take no sequence numbers. Encoded data without a start code produces nothing.
//
// # Thread Safety
//
// All Stream methods are safe for concurrent use; HandleFeedback is
// typically called from an RTCP reader while another goroutine feeds
// frames and drains payloads.
package video
