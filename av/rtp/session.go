package rtp

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// ErrSessionClosed indicates the session has been closed.
var ErrSessionClosed = errors.New("RTP session closed")

// PacketWriter puts RTP packets on the wire. pion/webrtc's
// TrackLocalStaticRTP satisfies it, as does ConnWriter.
type PacketWriter interface {
	WriteRTP(p *rtp.Packet) error
}

// PayloadSource yields payloads in generation order and takes them back
// once they have been written.
type PayloadSource interface {
	Next() (*Payload, bool)
	Release(p *Payload)
}

// Statistics summarizes what a session has sent.
type Statistics struct {
	PacketsSent  uint64
	BytesSent    uint64
	FramesSent   uint64 // Payloads carrying the marker bit
	WriteErrors  uint64
	LastSequence uint16
}

// Session sends the payloads of one video stream.
//
// It stamps every payload with the stream's SSRC and payload type and
// hands the packet to a PacketWriter.
type Session struct {
	mu          sync.Mutex
	ssrc        uint32
	payloadType uint8
	writer      PacketWriter
	created     time.Time
	closed      bool

	stats Statistics
}

// NewSession creates an RTP session for an outgoing video stream.
//
// Parameters:
//   - ssrc: Synchronization source of the stream
//   - payloadType: Negotiated dynamic payload type for H.264
//   - writer: Transport the packets are written to
//
// Returns:
//   - *Session: The new RTP session
//   - error: Any error that occurred during setup
func NewSession(ssrc uint32, payloadType uint8, writer PacketWriter) (*Session, error) {
	if writer == nil {
		return nil, fmt.Errorf("packet writer cannot be nil")
	}
	if payloadType > 127 {
		return nil, fmt.Errorf("invalid payload type: %d", payloadType)
	}

	logrus.WithFields(logrus.Fields{
		"function":     "NewSession",
		"ssrc":         ssrc,
		"payload_type": payloadType,
	}).Info("Created RTP video session")

	return &Session{
		ssrc:        ssrc,
		payloadType: payloadType,
		writer:      writer,
		created:     time.Now(),
	}, nil
}

// Send drains src and writes every payload. Each payload is released back
// to src after the write, whether or not it succeeded. Send stops at the
// first write error and returns the number of packets written.
func (s *Session) Send(src PayloadSource) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrSessionClosed
	}

	sent := 0
	for p, ok := src.Next(); ok; p, ok = src.Next() {
		err := s.writer.WriteRTP(p.Packet(s.ssrc, s.payloadType))
		size := len(p.Data)
		seq := p.SequenceNumber
		marker := p.Marker
		src.Release(p)

		if err != nil {
			s.stats.WriteErrors++
			logrus.WithFields(logrus.Fields{
				"function": "Session.Send",
				"sequence": seq,
				"error":    err.Error(),
			}).Error("Failed to write RTP packet")
			return sent, fmt.Errorf("failed to write RTP packet %d: %w", seq, err)
		}

		sent++
		s.stats.PacketsSent++
		s.stats.BytesSent += uint64(size)
		s.stats.LastSequence = seq
		if marker {
			s.stats.FramesSent++
		}
	}

	return sent, nil
}

// SSRC returns the synchronization source of the session.
func (s *Session) SSRC() uint32 {
	return s.ssrc
}

// GetStatistics returns current session statistics.
func (s *Session) GetStatistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Close marks the session closed. Further Send calls fail.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	logrus.WithFields(logrus.Fields{
		"function":     "Session.Close",
		"ssrc":         s.ssrc,
		"packets_sent": s.stats.PacketsSent,
		"lifetime":     time.Since(s.created).String(),
	}).Info("Closed RTP video session")

	return nil
}
