package rtp

import (
	"fmt"

	"github.com/pion/rtcp"
	"github.com/sirupsen/logrus"
)

// FeedbackType classifies an RTCP feedback message.
type FeedbackType uint8

const (
	// FeedbackOther is any RTCP packet that does not request a keyframe.
	FeedbackOther FeedbackType = iota
	// FeedbackPLI is a Picture Loss Indication (RFC 4585 section 6.3.1).
	FeedbackPLI
	// FeedbackFIR is a Full Intra Request (RFC 5104 section 4.3.1).
	FeedbackFIR
)

// String returns the feedback type name.
func (t FeedbackType) String() string {
	switch t {
	case FeedbackPLI:
		return "PLI"
	case FeedbackFIR:
		return "FIR"
	default:
		return "other"
	}
}

// FeedbackEvent is one feedback message received from the remote peer.
type FeedbackEvent struct {
	PayloadType uint8        // RTCP packet type, 206 for payload-specific feedback
	MessageType FeedbackType // PLI, FIR or other
	SenderSSRC  uint32
	MediaSSRC   uint32
}

// RequestsKeyframe reports whether the event asks for a new IDR frame.
func (e FeedbackEvent) RequestsKeyframe() bool {
	return e.MessageType == FeedbackPLI || e.MessageType == FeedbackFIR
}

// FeedbackHandler consumes feedback events. It returns true when the event
// was acted upon.
type FeedbackHandler interface {
	HandleFeedback(ev FeedbackEvent) bool
}

// FeedbackHandlerFunc adapts a function to FeedbackHandler.
type FeedbackHandlerFunc func(ev FeedbackEvent) bool

// HandleFeedback calls f(ev).
func (f FeedbackHandlerFunc) HandleFeedback(ev FeedbackEvent) bool {
	return f(ev)
}

type headerer interface {
	Header() rtcp.Header
}

// FeedbackEvents converts decoded RTCP packets into feedback events.
func FeedbackEvents(pkts []rtcp.Packet) []FeedbackEvent {
	events := make([]FeedbackEvent, 0, len(pkts))
	for _, pkt := range pkts {
		switch p := pkt.(type) {
		case *rtcp.PictureLossIndication:
			events = append(events, FeedbackEvent{
				PayloadType: uint8(rtcp.TypePayloadSpecificFeedback),
				MessageType: FeedbackPLI,
				SenderSSRC:  p.SenderSSRC,
				MediaSSRC:   p.MediaSSRC,
			})
		case *rtcp.FullIntraRequest:
			mediaSSRC := p.MediaSSRC
			if len(p.FIR) > 0 {
				mediaSSRC = p.FIR[0].SSRC
			}
			events = append(events, FeedbackEvent{
				PayloadType: uint8(rtcp.TypePayloadSpecificFeedback),
				MessageType: FeedbackFIR,
				SenderSSRC:  p.SenderSSRC,
				MediaSSRC:   mediaSSRC,
			})
		default:
			ev := FeedbackEvent{MessageType: FeedbackOther}
			if h, ok := pkt.(headerer); ok {
				ev.PayloadType = uint8(h.Header().Type)
			}
			events = append(events, ev)
		}
	}
	return events
}

// ParseFeedback decodes a (possibly compound) RTCP packet into feedback events.
func ParseFeedback(raw []byte) ([]FeedbackEvent, error) {
	pkts, err := rtcp.Unmarshal(raw)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ParseFeedback",
			"size":     len(raw),
			"error":    err.Error(),
		}).Debug("Failed to unmarshal RTCP packet")
		return nil, fmt.Errorf("failed to unmarshal RTCP packet: %w", err)
	}
	return FeedbackEvents(pkts), nil
}

// DispatchFeedback parses raw RTCP and hands every keyframe request to
// handler. It returns how many requests the handler acted upon.
func DispatchFeedback(raw []byte, handler FeedbackHandler) (int, error) {
	events, err := ParseFeedback(raw)
	if err != nil {
		return 0, err
	}

	accepted := 0
	for _, ev := range events {
		if ev.RequestsKeyframe() && handler.HandleFeedback(ev) {
			accepted++
		}
	}
	return accepted, nil
}
