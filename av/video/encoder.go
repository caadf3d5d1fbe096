package video

import (
	"fmt"

	"github.com/opd-ai/toxav-h264/av/h264"
	"github.com/sirupsen/logrus"
)

// EncoderConfig is what a native encoder needs to set itself up.
type EncoderConfig struct {
	Width     uint16
	Height    uint16
	BitRate   uint32
	FrameRate uint32
	// GOPSize is the periodic keyframe interval in frames; zero leaves
	// keyframe placement entirely to the caller.
	GOPSize int
}

// NativeEncoder is the boundary to an H.264 encoder implementation such as
// a cgo binding to x264 or a hardware encoder.
//
// Encode receives one I420 picture and returns an Annex-B byte stream. The
// returned slice may alias an internal buffer and is only valid until the
// next Encode or Close call; the stream fragments it into pool buffers
// before encoding again.
type NativeEncoder interface {
	Open(cfg EncoderConfig) error
	Encode(raw []byte, forceKeyframe bool) (data []byte, keyframe bool, err error)
	SetBitRate(bitRate uint32) error
	Close() error
}

var (
	passthroughSPS = []byte{0x67, 0x42, 0xC0, 0x1F, 0xDA, 0x01, 0x40, 0x16, 0xE8}
	passthroughPPS = []byte{0x68, 0xCE, 0x3C, 0x80}
	annexBStart    = []byte{0x00, 0x00, 0x00, 0x01}
)

const (
	// slice header lead byte: first_mb_in_slice = 0 (ue "1"), then
	// slice_type 7 (I, ue "0001000") for IDR or 5 (P, ue "00110") otherwise
	passthroughIDRLead   = 0x88
	passthroughSliceLead = 0x9A
	rbspStopBit          = 0x80
)

// PassthroughEncoder wraps raw pictures in H.264 NAL unit framing without
// compressing them. The output parses as Annex-B with the right NAL types
// and keyframe structure but is not decodable video. It stands in for a
// native encoder in tests and demos.
type PassthroughEncoder struct {
	cfg        EncoderConfig
	open       bool
	sinceIDR   int
	out        []byte
	rbsp       []byte
	framesDone uint64
}

// NewPassthroughEncoder creates an unopened passthrough encoder.
func NewPassthroughEncoder() *PassthroughEncoder {
	return &PassthroughEncoder{}
}

// Open validates cfg and prepares the encoder.
func (e *PassthroughEncoder) Open(cfg EncoderConfig) error {
	if err := ValidateFrameSize(cfg.Width, cfg.Height); err != nil {
		return err
	}
	if cfg.BitRate == 0 {
		return fmt.Errorf("bit rate must be positive")
	}

	e.cfg = cfg
	e.open = true
	e.sinceIDR = 0
	e.framesDone = 0

	logrus.WithFields(logrus.Fields{
		"function": "PassthroughEncoder.Open",
		"width":    cfg.Width,
		"height":   cfg.Height,
		"bit_rate": cfg.BitRate,
		"gop_size": cfg.GOPSize,
	}).Info("Passthrough encoder opened")

	return nil
}

// Encode emits SPS, PPS and an IDR slice for keyframes and a single non-IDR
// slice otherwise. The first frame and every GOPSize-th frame are keyframes.
func (e *PassthroughEncoder) Encode(raw []byte, forceKeyframe bool) ([]byte, bool, error) {
	if !e.open {
		return nil, false, ErrEncoderNotOpen
	}

	expected := I420Size(e.cfg.Width, e.cfg.Height)
	if len(raw) != expected {
		logrus.WithFields(logrus.Fields{
			"function": "PassthroughEncoder.Encode",
			"expected": expected,
			"actual":   len(raw),
		}).Error("Frame size mismatch")
		return nil, false, fmt.Errorf("frame size mismatch: expected %d bytes, got %d", expected, len(raw))
	}

	keyframe := forceKeyframe || e.framesDone == 0 ||
		(e.cfg.GOPSize > 0 && e.sinceIDR+1 >= e.cfg.GOPSize)

	e.rbsp = h264.EscapeRBSP(e.rbsp[:0], raw)
	e.out = e.out[:0]

	if keyframe {
		e.out = append(e.out, annexBStart...)
		e.out = append(e.out, passthroughSPS...)
		e.out = append(e.out, annexBStart...)
		e.out = append(e.out, passthroughPPS...)
		e.out = append(e.out, annexBStart...)
		e.out = append(e.out, byte(0x60|h264.NALTypeIDR), passthroughIDRLead)
		e.sinceIDR = 0
	} else {
		e.out = append(e.out, annexBStart...)
		e.out = append(e.out, byte(0x40|h264.NALTypeSlice), passthroughSliceLead)
		e.sinceIDR++
	}
	e.out = append(e.out, e.rbsp...)
	e.out = append(e.out, rbspStopBit)
	e.framesDone++

	logrus.WithFields(logrus.Fields{
		"function": "PassthroughEncoder.Encode",
		"keyframe": keyframe,
		"forced":   forceKeyframe,
		"size":     len(e.out),
	}).Debug("Encoded frame")

	return e.out, keyframe, nil
}

// SetBitRate records the target bit rate. Passthrough output size does not
// depend on it.
func (e *PassthroughEncoder) SetBitRate(bitRate uint32) error {
	if bitRate == 0 {
		return fmt.Errorf("bit rate must be positive")
	}
	e.cfg.BitRate = bitRate
	return nil
}

// Close releases the encoder's buffers. It is safe to call repeatedly.
func (e *PassthroughEncoder) Close() error {
	e.open = false
	e.out = nil
	e.rbsp = nil
	return nil
}
