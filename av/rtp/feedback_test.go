package rtp

import (
	"testing"

	"github.com/pion/rtcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshalRTCP(t *testing.T, pkts ...rtcp.Packet) []byte {
	t.Helper()
	raw, err := rtcp.Marshal(pkts)
	require.NoError(t, err)
	return raw
}

func TestParseFeedback_PLI(t *testing.T) {
	raw := marshalRTCP(t, &rtcp.PictureLossIndication{SenderSSRC: 1, MediaSSRC: 2})

	events, err := ParseFeedback(raw)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, FeedbackPLI, events[0].MessageType)
	assert.Equal(t, uint8(rtcp.TypePayloadSpecificFeedback), events[0].PayloadType)
	assert.Equal(t, uint32(1), events[0].SenderSSRC)
	assert.Equal(t, uint32(2), events[0].MediaSSRC)
	assert.True(t, events[0].RequestsKeyframe())
}

func TestParseFeedback_FIR(t *testing.T) {
	raw := marshalRTCP(t, &rtcp.FullIntraRequest{
		SenderSSRC: 1,
		MediaSSRC:  0,
		FIR:        []rtcp.FIREntry{{SSRC: 42, SequenceNumber: 1}},
	})

	events, err := ParseFeedback(raw)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, FeedbackFIR, events[0].MessageType)
	assert.Equal(t, uint32(42), events[0].MediaSSRC)
}

func TestParseFeedback_Compound(t *testing.T) {
	raw := marshalRTCP(t,
		&rtcp.ReceiverReport{SSRC: 1},
		&rtcp.PictureLossIndication{SenderSSRC: 1, MediaSSRC: 2},
	)

	events, err := ParseFeedback(raw)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, FeedbackOther, events[0].MessageType)
	assert.Equal(t, uint8(rtcp.TypeReceiverReport), events[0].PayloadType)
	assert.False(t, events[0].RequestsKeyframe())
	assert.Equal(t, FeedbackPLI, events[1].MessageType)
}

func TestParseFeedback_Malformed(t *testing.T) {
	_, err := ParseFeedback([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestDispatchFeedback(t *testing.T) {
	raw := marshalRTCP(t,
		&rtcp.ReceiverReport{SSRC: 1},
		&rtcp.PictureLossIndication{SenderSSRC: 1, MediaSSRC: 2},
		&rtcp.FullIntraRequest{SenderSSRC: 1, FIR: []rtcp.FIREntry{{SSRC: 2}}},
	)

	var seen []FeedbackType
	handler := FeedbackHandlerFunc(func(ev FeedbackEvent) bool {
		seen = append(seen, ev.MessageType)
		return ev.MessageType == FeedbackPLI
	})

	accepted, err := DispatchFeedback(raw, handler)

	require.NoError(t, err)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, []FeedbackType{FeedbackPLI, FeedbackFIR}, seen)
}

func TestFeedbackType_String(t *testing.T) {
	assert.Equal(t, "PLI", FeedbackPLI.String())
	assert.Equal(t, "FIR", FeedbackFIR.String())
	assert.Equal(t, "other", FeedbackOther.String())
}
