package video

import (
	"errors"
	"fmt"
	"iter"
	"sync"

	"github.com/opd-ai/toxav-h264/av/h264"
	"github.com/opd-ai/toxav-h264/av/rtp"
	"github.com/opd-ai/toxav-h264/limits"
	pionrtp "github.com/pion/rtp"
	"github.com/sirupsen/logrus"
)

// Stats counts what a stream has done since it was created.
type Stats struct {
	FramesIn          uint64
	FramesEncoded     uint64
	FramesDropped     uint64
	FramesScaled      uint64
	Keyframes         uint64
	ForcedKeyframes   uint64
	EncodeErrors      uint64
	PayloadsQueued    uint64
	PayloadsDiscarded uint64
	FeedbackAccepted  uint64
	FeedbackThrottled uint64
}

// Stream is the H.264 send path of one call: it encodes raw frames,
// splits the result into RTP payloads and queues them for the transport.
//
// The frame path (Process, ProcessEncoded, Next, Payloads, Release) is
// meant to be driven from one goroutine. HandleFeedback may be called
// concurrently from an RTCP reader.
type Stream struct {
	mu           sync.Mutex
	encoder      NativeEncoder
	scaler       *Scaler
	scheduler    *KeyframeScheduler
	pool         h264.BufferPool
	callerPool   h264.BufferPool
	newSequencer func() pionrtp.Sequencer

	cfg       Config
	open      bool
	sequencer *rtp.Sequencer
	scratch   [][]byte
	stats     Stats
}

// NewStream creates a closed stream around a native encoder.
//
// Parameters:
//   - encoder: Native H.264 encoder, opened and closed with the stream
//
// Returns:
//   - *Stream: The new stream, closed until Open succeeds
func NewStream(encoder NativeEncoder) *Stream {
	logrus.WithFields(logrus.Fields{
		"function": "NewStream",
		"encoder":  fmt.Sprintf("%T", encoder),
	}).Debug("Creating video stream")

	s := &Stream{
		encoder:      encoder,
		scaler:       NewScaler(),
		newSequencer: pionrtp.NewRandomSequencer,
	}
	s.scheduler = NewKeyframeScheduler(DefaultKeyframePolicy(), nil)
	s.scheduler.Reset()
	return s
}

// SetTimeProvider sets the clock used for feedback throttling.
func (s *Stream) SetTimeProvider(tp TimeProvider) {
	s.scheduler.SetTimeProvider(tp)
}

// SetBufferPool sets the pool payload buffers are drawn from. It takes
// effect at the next Open; nil selects a BytePool sized to the payload limit.
func (s *Stream) SetBufferPool(pool h264.BufferPool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callerPool = pool
}

// SetSequencerFactory sets how the initial sequence number is chosen at
// each Open. The default starts at a random number.
func (s *Stream) SetSequencerFactory(newSequencer func() pionrtp.Sequencer) {
	if newSequencer == nil {
		newSequencer = pionrtp.NewRandomSequencer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newSequencer = newSequencer
}

// Open validates cfg, opens the native encoder and arms the keyframe
// scheduler. Configuration and encoder failures wrap
// ErrResourceUnavailable and leave the stream closed.
func (s *Stream) Open(cfg *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return ErrStreamOpen
	}
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrResourceUnavailable)
	}
	if s.encoder == nil {
		return fmt.Errorf("%w: no native encoder", ErrResourceUnavailable)
	}
	if err := cfg.Validate(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Stream.Open",
			"error":    err.Error(),
		}).Error("Invalid stream configuration")
		return fmt.Errorf("%w: %w", ErrResourceUnavailable, err)
	}

	encCfg := cfg.EncoderConfig()
	if err := s.encoder.Open(encCfg); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Stream.Open",
			"width":    encCfg.Width,
			"height":   encCfg.Height,
			"error":    err.Error(),
		}).Error("Failed to open native encoder")
		return fmt.Errorf("%w: open encoder: %w", ErrResourceUnavailable, err)
	}

	s.cfg = *cfg
	s.pool = s.callerPool
	if s.pool == nil {
		s.pool = NewBytePool(cfg.MaxPayloadSize)
	}
	s.sequencer = rtp.NewSequencer(s.newSequencer(), s.pool)
	s.scheduler.Arm(cfg.KeyframePolicy())
	s.open = true

	logrus.WithFields(logrus.Fields{
		"function":         "Stream.Open",
		"width":            cfg.Width,
		"height":           cfg.Height,
		"bit_rate":         encCfg.BitRate,
		"max_payload_size": cfg.MaxPayloadSize,
		"iframe_interval":  cfg.IFrameInterval,
	}).Info("Video stream opened")

	return nil
}

// IsOpen reports whether the stream accepts frames.
func (s *Stream) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Config returns a copy of the active configuration.
func (s *Stream) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Process encodes one raw frame and queues its payloads.
//
// Malformed frames are dropped: pending payloads are discarded, a warning
// is logged and nil is returned so the caller keeps feeding frames. Frames
// whose size differs from the configured one are rescaled first. Encoder
// failures are returned; the stream stays open.
//
// Parameters:
//   - frame: I420 picture with its RTP timestamp
//
// Returns:
//   - error: ErrStreamClosed, or the wrapped encoder failure
func (s *Stream) Process(frame *RawFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrStreamClosed
	}
	s.stats.FramesIn++

	if frame == nil {
		s.dropLocked("nil frame", nil)
		return nil
	}
	if err := limits.ValidateRawFrame(frame.Data); err != nil {
		s.dropLocked("invalid raw frame", err)
		return nil
	}
	if len(frame.Data) < I420Size(frame.Width, frame.Height) {
		s.dropLocked("raw frame shorter than its dimensions", nil)
		return nil
	}

	if s.scaler.IsScalingRequired(frame.Width, frame.Height, s.cfg.Width, s.cfg.Height) {
		scaled, err := s.scaler.Scale(frame, s.cfg.Width, s.cfg.Height)
		if err != nil {
			s.dropLocked("frame could not be scaled", err)
			return nil
		}
		frame = scaled
		s.stats.FramesScaled++
	}

	force := s.scheduler.ShouldForceKeyframe()
	raw := frame.Data[:I420Size(frame.Width, frame.Height)]

	data, keyframe, err := s.encoder.Encode(raw, force)
	if err != nil {
		s.stats.EncodeErrors++
		logrus.WithFields(logrus.Fields{
			"function":  "Stream.Process",
			"timestamp": frame.Timestamp,
			"forced":    force,
			"error":     err.Error(),
		}).Error("Encoding failed")
		return fmt.Errorf("encode frame: %w", err)
	}
	if force && keyframe {
		s.stats.ForcedKeyframes++
	}

	return s.packetizeLocked(data, keyframe, frame.Timestamp)
}

// ProcessEncoded queues the payloads of a frame encoded elsewhere.
// Frames shorter than four bytes are dropped like in Process.
func (s *Stream) ProcessEncoded(frame *EncodedFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrStreamClosed
	}
	s.stats.FramesIn++

	if frame == nil {
		s.dropLocked("nil frame", nil)
		return nil
	}
	return s.packetizeLocked(frame.Data, frame.Keyframe, frame.Timestamp)
}

func (s *Stream) packetizeLocked(data []byte, keyframe bool, timestamp uint32) error {
	if err := limits.ValidateEncodedFrame(data); err != nil {
		s.dropLocked("invalid encoded frame", err)
		return nil
	}

	s.scratch = s.scratch[:0]
	for nal := range h264.NALUnits(data) {
		var err error
		s.scratch, err = h264.AppendFragments(s.scratch, nal, s.cfg.MaxPayloadSize, s.pool)
		if err != nil {
			for _, buf := range s.scratch {
				s.pool.Put(buf)
			}
			clear(s.scratch)
			return fmt.Errorf("fragment NAL unit at offset %d: %w", nal.Offset, err)
		}
	}

	queued := s.sequencer.Enqueue(s.scratch, timestamp)
	clear(s.scratch)

	if queued == 0 {
		s.stats.FramesDropped++
		logrus.WithFields(logrus.Fields{
			"function":  "Stream.packetize",
			"size":      len(data),
			"timestamp": timestamp,
		}).Debug("Frame contains no NAL units")
		return nil
	}

	s.scheduler.FrameEncoded(keyframe)
	s.stats.FramesEncoded++
	s.stats.PayloadsQueued += uint64(queued)
	if keyframe {
		s.stats.Keyframes++
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Stream.packetize",
		"size":      len(data),
		"payloads":  queued,
		"keyframe":  keyframe,
		"timestamp": timestamp,
	}).Debug("Frame packetized")

	return nil
}

func (s *Stream) dropLocked(reason string, err error) {
	s.stats.FramesDropped++
	s.stats.PayloadsDiscarded += uint64(s.sequencer.Reset())

	fields := logrus.Fields{
		"function": "Stream.drop",
		"reason":   reason,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logrus.WithFields(fields).Warn("Dropping frame")
}

// Next returns the next payload in generation order. The boolean is false
// when the queue is empty and the next frame should be fed in. Payloads
// are owned by the caller until passed to Release.
func (s *Stream) Next() (*rtp.Payload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sequencer == nil {
		return nil, false
	}
	return s.sequencer.Next()
}

// Payloads drains the queued payloads in generation order.
func (s *Stream) Payloads() iter.Seq[*rtp.Payload] {
	return func(yield func(*rtp.Payload) bool) {
		for {
			p, ok := s.Next()
			if !ok || !yield(p) {
				return
			}
		}
	}
}

// Release returns a sent payload's buffer to the pool.
func (s *Stream) Release(p *rtp.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sequencer == nil {
		return
	}
	s.sequencer.Release(p)
}

// Pending returns the number of queued payloads.
func (s *Stream) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sequencer == nil {
		return 0
	}
	return s.sequencer.Len()
}

// HandleFeedback passes a receiver keyframe request to the scheduler and
// reports whether it was accepted. Requests on a closed stream are ignored.
func (s *Stream) HandleFeedback(ev rtp.FeedbackEvent) bool {
	return s.scheduler.HandleFeedback(ev)
}

// ForceKeyframe makes the next processed frame a keyframe.
func (s *Stream) ForceKeyframe() {
	s.scheduler.ForceKeyframe()
}

// KeyframeState returns a snapshot of the keyframe scheduler.
func (s *Stream) KeyframeState() KeyframeState {
	return s.scheduler.State()
}

// SetBitRate changes the encoder target bit rate.
func (s *Stream) SetBitRate(bitRate uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return ErrStreamClosed
	}
	if bitRate == 0 {
		return errors.New("bit rate must be positive")
	}
	if err := s.encoder.SetBitRate(bitRate); err != nil {
		return fmt.Errorf("set bit rate: %w", err)
	}
	s.cfg.BitRate = bitRate
	return nil
}

// Stats returns the stream counters.
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()

	stats.FeedbackAccepted, stats.FeedbackThrottled = s.scheduler.FeedbackCounts()
	return stats
}

// Close discards pending payloads, disarms the scheduler and closes the
// native encoder. Closing a closed stream is a no-op. The stream can be
// opened again afterwards.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	s.open = false

	discarded := s.sequencer.Reset()
	s.stats.PayloadsDiscarded += uint64(discarded)
	s.scheduler.Reset()

	logrus.WithFields(logrus.Fields{
		"function":  "Stream.Close",
		"discarded": discarded,
	}).Info("Closing video stream")

	if err := s.encoder.Close(); err != nil {
		return fmt.Errorf("close encoder: %w", err)
	}
	return nil
}
