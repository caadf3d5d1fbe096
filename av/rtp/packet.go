// Package rtp provides RTP transport functionality for ToxAV H.264 video.
//
// This file defines the RTP payload handed from the packetizer to the
// transport and its conversion into a pion/rtp packet.
package rtp

import (
	"fmt"

	"github.com/pion/rtp"
)

const (
	// VideoClockRate is the RTP clock rate for H.264 (RFC 3984 section 8.2.1).
	VideoClockRate = 90000

	// DefaultPayloadType is the dynamic payload type used for H.264.
	DefaultPayloadType = 96
)

// Payload is one RTP payload ready for transport.
//
// Data is owned by the payload until Release is called on the sequencer
// that produced it.
type Payload struct {
	Data           []byte // Single NAL Unit Packet or FU-A fragment
	SequenceNumber uint16 // RTP sequence number
	Timestamp      uint32 // RTP timestamp of the originating frame
	Marker         bool   // Set on the last payload of a frame
}

// Packet wraps the payload in an RTP packet for the given stream.
func (p *Payload) Packet(ssrc uint32, payloadType uint8) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			Marker:         p.Marker,
			PayloadType:    payloadType,
			SequenceNumber: p.SequenceNumber,
			Timestamp:      p.Timestamp,
			SSRC:           ssrc,
		},
		Payload: p.Data,
	}
}

// Marshal serializes the payload as a complete RTP packet.
func (p *Payload) Marshal(ssrc uint32, payloadType uint8) ([]byte, error) {
	raw, err := p.Packet(ssrc, payloadType).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RTP packet: %w", err)
	}
	return raw, nil
}
