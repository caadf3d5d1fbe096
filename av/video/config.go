package video

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/opd-ai/toxav-h264/av/rtp"
	"github.com/opd-ai/toxav-h264/limits"
)

// PixelFormat identifies the layout of raw input frames.
type PixelFormat uint8

const (
	// PixelFormatNone means no input format was selected.
	PixelFormatNone PixelFormat = iota
	// PixelFormatI420 is planar YUV 4:2:0.
	PixelFormatI420
)

// String returns the format name.
func (f PixelFormat) String() string {
	switch f {
	case PixelFormatI420:
		return "I420"
	default:
		return "none"
	}
}

// Environment variables read by LoadConfig.
const (
	EnvMaxPayloadSize          = "H264_MAX_PAYLOAD_SIZE"
	EnvIFrameInterval          = "H264_IFRAME_INTERVAL"
	EnvPLIMinIntervalMS        = "H264_PLI_MIN_INTERVAL_MS"
	EnvForceKeyframeOnFeedback = "H264_FORCE_KEYFRAME_ON_FEEDBACK"
	EnvBitRate                 = "H264_BITRATE"
	EnvWidth                   = "H264_WIDTH"
	EnvHeight                  = "H264_HEIGHT"
	EnvFrameRate               = "H264_FRAME_RATE"
	EnvPayloadType             = "H264_PAYLOAD_TYPE"
	EnvSSRC                    = "H264_SSRC"
)

// Config holds the settings of one video stream.
type Config struct {
	Format    PixelFormat
	Width     uint16
	Height    uint16
	FrameRate uint32
	// BitRate is the encoder target in bits per second. Zero picks a
	// default for the resolution.
	BitRate uint32

	// MaxPayloadSize bounds every RTP payload, FU-A header included.
	MaxPayloadSize int

	IFrameInterval          int
	PLIMinInterval          time.Duration
	ForceKeyframeOnFeedback bool

	PayloadType uint8
	SSRC        uint32
}

// NewConfig returns a 640x480 I420 configuration with default packetizer
// and keyframe settings.
func NewConfig() *Config {
	return &Config{
		Format:         PixelFormatI420,
		Width:          640,
		Height:         480,
		FrameRate:      30,
		BitRate:        GetBitrateForResolution(Resolution{Width: 640, Height: 480}),
		MaxPayloadSize: limits.DefaultPayloadSize,
		IFrameInterval: DefaultIFrameInterval,
		PLIMinInterval: DefaultPLIMinInterval,
		PayloadType:    rtp.DefaultPayloadType,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Format == PixelFormatNone {
		return ErrNoFormat
	}
	if c.Format != PixelFormatI420 {
		return fmt.Errorf("unsupported input format %d", c.Format)
	}
	if err := ValidateFrameSize(c.Width, c.Height); err != nil {
		return err
	}
	if size := I420Size(c.Width, c.Height); size > limits.MaxProcessingBuffer {
		return fmt.Errorf("%w: %dx%d frame of %d bytes exceeds buffer limit",
			ErrUnsupportedDimensions, c.Width, c.Height, size)
	}
	if c.FrameRate == 0 {
		return fmt.Errorf("frame rate must be positive")
	}
	if err := limits.ValidatePayloadSize(c.MaxPayloadSize); err != nil {
		return fmt.Errorf("max payload size: %w", err)
	}
	if c.IFrameInterval < 0 {
		return fmt.Errorf("iframe interval cannot be negative: %d", c.IFrameInterval)
	}
	if c.PLIMinInterval < 0 {
		return fmt.Errorf("PLI minimum interval cannot be negative: %v", c.PLIMinInterval)
	}
	if c.PayloadType > 127 {
		return fmt.Errorf("invalid payload type %d", c.PayloadType)
	}
	return nil
}

// EncoderConfig derives the native encoder settings.
func (c *Config) EncoderConfig() EncoderConfig {
	bitRate := c.BitRate
	if bitRate == 0 {
		bitRate = GetBitrateForResolution(Resolution{Width: c.Width, Height: c.Height})
	}
	return EncoderConfig{
		Width:     c.Width,
		Height:    c.Height,
		BitRate:   bitRate,
		FrameRate: c.FrameRate,
		GOPSize:   c.IFrameInterval,
	}
}

// KeyframePolicy derives the keyframe scheduler settings.
func (c *Config) KeyframePolicy() KeyframePolicy {
	return KeyframePolicy{
		IFrameInterval:  c.IFrameInterval,
		PLIMinInterval:  c.PLIMinInterval,
		ForceOnFeedback: c.ForceKeyframeOnFeedback,
	}
}

// FrameDuration returns the RTP timestamp increment between frames at the
// 90 kHz video clock.
func (c *Config) FrameDuration() uint32 {
	if c.FrameRate == 0 {
		return 0
	}
	return rtp.VideoClockRate / c.FrameRate
}

// LoadConfig returns NewConfig overlaid with the H264_* environment
// variables. The given .env files, or ./.env when none are named, are
// loaded first if present; variables already set in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load(envFiles...)

	cfg := NewConfig()
	bitRateSet := false

	var err error
	setInt := func(key string, bits int, apply func(v uint64)) {
		raw, ok := os.LookupEnv(key)
		if !ok || raw == "" || err != nil {
			return
		}
		v, perr := strconv.ParseUint(raw, 10, bits)
		if perr != nil {
			err = fmt.Errorf("%s: %w", key, perr)
			return
		}
		apply(v)
	}

	setInt(EnvMaxPayloadSize, 32, func(v uint64) { cfg.MaxPayloadSize = int(v) })
	setInt(EnvIFrameInterval, 32, func(v uint64) { cfg.IFrameInterval = int(v) })
	setInt(EnvPLIMinIntervalMS, 32, func(v uint64) { cfg.PLIMinInterval = time.Duration(v) * time.Millisecond })
	setInt(EnvBitRate, 32, func(v uint64) { cfg.BitRate = uint32(v); bitRateSet = true })
	setInt(EnvWidth, 16, func(v uint64) { cfg.Width = uint16(v) })
	setInt(EnvHeight, 16, func(v uint64) { cfg.Height = uint16(v) })
	setInt(EnvFrameRate, 32, func(v uint64) { cfg.FrameRate = uint32(v) })
	setInt(EnvPayloadType, 7, func(v uint64) { cfg.PayloadType = uint8(v) })
	setInt(EnvSSRC, 32, func(v uint64) { cfg.SSRC = uint32(v) })

	if raw, ok := os.LookupEnv(EnvForceKeyframeOnFeedback); ok && raw != "" && err == nil {
		v, perr := strconv.ParseBool(raw)
		if perr != nil {
			err = fmt.Errorf("%s: %w", EnvForceKeyframeOnFeedback, perr)
		}
		cfg.ForceKeyframeOnFeedback = v
	}

	if err != nil {
		return nil, err
	}

	if !bitRateSet {
		cfg.BitRate = GetBitrateForResolution(Resolution{Width: cfg.Width, Height: cfg.Height})
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
