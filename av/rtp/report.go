package rtp

import (
	"fmt"
	"time"

	"github.com/pion/rtcp"
)

// ReceptionReport is what a receiver says about one of our streams in a
// sender or receiver report block (RFC 3550 section 6.4.1).
type ReceptionReport struct {
	ReporterSSRC uint32
	MediaSSRC    uint32
	// FractionLost is the loss since the previous report in 1/256 units.
	FractionLost uint8
	TotalLost    uint32
	LastSequence uint32
	// Jitter is the interarrival jitter in RTP timestamp units.
	Jitter uint32
}

// LossPercent returns FractionLost as a percentage.
func (r ReceptionReport) LossPercent() float64 {
	return float64(r.FractionLost) * 100 / 256
}

// JitterDuration converts Jitter to wall time at the video clock rate.
func (r ReceptionReport) JitterDuration() time.Duration {
	return time.Duration(r.Jitter) * time.Second / VideoClockRate
}

// ReceptionReports extracts the report blocks of decoded RTCP packets.
func ReceptionReports(pkts []rtcp.Packet) []ReceptionReport {
	var out []ReceptionReport
	add := func(reporter uint32, blocks []rtcp.ReceptionReport) {
		for _, b := range blocks {
			out = append(out, ReceptionReport{
				ReporterSSRC: reporter,
				MediaSSRC:    b.SSRC,
				FractionLost: b.FractionLost,
				TotalLost:    b.TotalLost,
				LastSequence: b.LastSequenceNumber,
				Jitter:       b.Jitter,
			})
		}
	}

	for _, pkt := range pkts {
		switch p := pkt.(type) {
		case *rtcp.ReceiverReport:
			add(p.SSRC, p.Reports)
		case *rtcp.SenderReport:
			add(p.SSRC, p.Reports)
		}
	}
	return out
}

// ParseReceptionReports decodes raw RTCP and returns its report blocks.
func ParseReceptionReports(raw []byte) ([]ReceptionReport, error) {
	pkts, err := rtcp.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal RTCP packet: %w", err)
	}
	return ReceptionReports(pkts), nil
}
