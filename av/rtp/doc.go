// Package rtp provides the RTP side of the ToxAV H.264 video send path.
//
// It sequences the payloads produced by the av/h264 fragmenter, hands them
// to a transport, and turns inbound RTCP keyframe requests into events.
// Packet serialization uses pion/rtp; RTCP decoding uses pion/rtcp.
//
// # Architecture Overview
//
//   - Sequencer: assigns sequence numbers, timestamps and marker bits to the
//     payloads of each frame and queues them for the transport
//   - Payload: one RTP payload, convertible to a pion rtp.Packet
//   - Session: drains a payload source into a PacketWriter with statistics
//   - ConnWriter: PacketWriter over a datagram connection
//   - ParseFeedback / FeedbackInterceptor: PLI and FIR detection
//
// # Sequencing
//
// The sequencer is pull based. The producer enqueues the buffers of one
// frame; the consumer pulls until the queue runs dry:
//
//	seq := rtp.NewSequencer(pionrtp.NewFixedSequencer(1), pool)
//	seq.Enqueue(buffers, timestamp)
//	for p := range seq.Payloads() {
//	    writer.WriteRTP(p.Packet(ssrc, rtp.DefaultPayloadType))
//	    seq.Release(p)
//	}
//
// Sequence numbers are assigned as payloads are pulled, wrap modulo 2^16
// and continue across frames. Payloads discarded by Reset never take a
// number, so the receiver sees no gap. Exactly the last payload of a frame
// carries the marker bit.
//
// # Keyframe Requests
//
// Raw RTCP from a socket can be decoded directly:
//
//	n, err := rtp.DispatchFeedback(raw, stream)
//
// Inside a pion interceptor chain, register the feedback interceptor:
//
//	factory, _ := rtp.NewFeedbackInterceptor(stream)
//	registry.Add(factory)
//
// Only Picture Loss Indication and Full Intra Request messages reach the
// handler; rate limiting is the handler's job.
//
// # Thread Safety
//
// Sequencer is not safe for concurrent use; it is owned by the stream that
// feeds it. Session and FeedbackInterceptor are safe for concurrent use.
package rtp
