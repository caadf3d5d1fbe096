package rtp

import (
	"testing"
	"time"

	"github.com/pion/rtcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReceptionReports(t *testing.T) {
	raw := marshalRTCP(t,
		&rtcp.ReceiverReport{
			SSRC: 7,
			Reports: []rtcp.ReceptionReport{
				{SSRC: 100, FractionLost: 64, TotalLost: 12, LastSequenceNumber: 5000, Jitter: 9000},
			},
		},
		&rtcp.PictureLossIndication{SenderSSRC: 7, MediaSSRC: 100},
		&rtcp.SenderReport{
			SSRC:    8,
			Reports: []rtcp.ReceptionReport{{SSRC: 200}},
		},
	)

	reports, err := ParseReceptionReports(raw)

	require.NoError(t, err)
	require.Len(t, reports, 2)
	r := reports[0]
	assert.Equal(t, uint32(7), r.ReporterSSRC)
	assert.Equal(t, uint32(100), r.MediaSSRC)
	assert.Equal(t, uint32(12), r.TotalLost)
	assert.Equal(t, uint32(5000), r.LastSequence)
	assert.InDelta(t, 25.0, r.LossPercent(), 0.001)
	assert.Equal(t, 100*time.Millisecond, r.JitterDuration())
	assert.Equal(t, uint32(200), reports[1].MediaSSRC)
}

func TestParseReceptionReports_Malformed(t *testing.T) {
	_, err := ParseReceptionReports([]byte{0xFF})
	assert.Error(t, err)
}
