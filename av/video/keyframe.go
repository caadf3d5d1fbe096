package video

import (
	"sync"
	"time"

	"github.com/opd-ai/toxav-h264/av/rtp"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultIFrameInterval is the periodic keyframe interval in frames.
	DefaultIFrameInterval = 150
	// DefaultPLIMinInterval is the minimum spacing between honored
	// keyframe requests.
	DefaultPLIMinInterval = 3000 * time.Millisecond
)

// KeyframePolicy tunes a KeyframeScheduler.
type KeyframePolicy struct {
	// IFrameInterval forces a keyframe once this many frames have been
	// emitted since the last one. Zero disables periodic keyframes.
	IFrameInterval int
	// PLIMinInterval throttles keyframe requests from receivers.
	PLIMinInterval time.Duration
	// ForceOnFeedback makes an accepted request force the next frame to be
	// a keyframe. When false, requests are only rate limited and counted.
	ForceOnFeedback bool
}

// DefaultKeyframePolicy returns the policy used when nothing is configured.
func DefaultKeyframePolicy() KeyframePolicy {
	return KeyframePolicy{
		IFrameInterval: DefaultIFrameInterval,
		PLIMinInterval: DefaultPLIMinInterval,
	}
}

// KeyframeState is a snapshot of the scheduler's bookkeeping.
type KeyframeState struct {
	FramesSinceLastIDR    int
	ForceNextKeyframe     bool
	SecondKeyframePending bool
	// LastFeedbackRequest is the time of the last accepted request; the
	// zero time means none has been accepted yet.
	LastFeedbackRequest time.Time
}

type keyframePhase uint8

const (
	phaseNotForcing keyframePhase = iota
	phaseForcingFirst
	phaseForcingSecond
	phaseIdle
)

func (p keyframePhase) String() string {
	switch p {
	case phaseNotForcing:
		return "not-forcing"
	case phaseForcingFirst:
		return "forcing-first"
	case phaseForcingSecond:
		return "forcing-second"
	case phaseIdle:
		return "idle"
	default:
		return "unknown"
	}
}

// KeyframeScheduler decides when the encoder must emit a keyframe.
//
// An armed scheduler forces the first two frames of a stream, then falls
// back to periodic keyframes and, optionally, receiver requests. Frame
// decisions come from the encoding goroutine while HandleFeedback usually
// runs on an RTCP reader, so all methods are safe for concurrent use.
type KeyframeScheduler struct {
	mu           sync.Mutex
	policy       KeyframePolicy
	timeProvider TimeProvider
	phase        keyframePhase
	state        KeyframeState

	feedbackAccepted  uint64
	feedbackThrottled uint64
}

// NewKeyframeScheduler creates a scheduler armed for a new stream.
//
// Parameters:
//   - policy: Periodic interval and feedback handling
//   - timeProvider: Clock for feedback throttling, nil for the wall clock
//
// Returns:
//   - *KeyframeScheduler: Scheduler that forces the first two frames
func NewKeyframeScheduler(policy KeyframePolicy, timeProvider TimeProvider) *KeyframeScheduler {
	if timeProvider == nil {
		timeProvider = defaultTimeProvider
	}
	s := &KeyframeScheduler{timeProvider: timeProvider}
	s.Arm(policy)
	return s
}

// SetTimeProvider sets the time provider used to throttle feedback.
func (s *KeyframeScheduler) SetTimeProvider(tp TimeProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tp == nil {
		tp = defaultTimeProvider
	}
	s.timeProvider = tp
}

// Arm resets the scheduler to the start-of-stream state under policy.
func (s *KeyframeScheduler) Arm(policy KeyframePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policy = policy
	s.phase = phaseForcingFirst
	s.state = KeyframeState{
		ForceNextKeyframe:     true,
		SecondKeyframePending: true,
	}
}

// Reset disarms the scheduler and clears its state. A disarmed scheduler
// never forces keyframes and ignores feedback until armed again.
func (s *KeyframeScheduler) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "KeyframeScheduler.Reset",
		"previous_phase": s.phase.String(),
	}).Debug("Keyframe scheduler reset")

	s.phase = phaseNotForcing
	s.state = KeyframeState{}
}

// ShouldForceKeyframe reports whether the next frame must be a keyframe.
// It is called once per frame, before encoding. A pending force stays
// pending until FrameEncoded reports a keyframe.
func (s *KeyframeScheduler) ShouldForceKeyframe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == phaseNotForcing {
		return false
	}
	if s.state.ForceNextKeyframe {
		return true
	}

	interval := s.policy.IFrameInterval
	if interval > 0 && s.state.FramesSinceLastIDR+1 >= interval {
		logrus.WithFields(logrus.Fields{
			"function":         "KeyframeScheduler.ShouldForceKeyframe",
			"frames_since_idr": s.state.FramesSinceLastIDR,
			"iframe_interval":  interval,
		}).Debug("Periodic keyframe due")
		return true
	}

	return false
}

// FrameEncoded records an emitted frame. A keyframe resets the
// frames-since-IDR counter and satisfies one pending force: the first
// keyframe of a stream moves on to forcing the second, the second one
// settles the scheduler in its idle state.
func (s *KeyframeScheduler) FrameEncoded(keyframe bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !keyframe {
		s.state.FramesSinceLastIDR++
		return
	}

	s.state.FramesSinceLastIDR = 0
	if s.phase == phaseNotForcing || !s.state.ForceNextKeyframe {
		return
	}
	if s.state.SecondKeyframePending {
		s.state.SecondKeyframePending = false
		s.phase = phaseForcingSecond
		return
	}
	s.state.ForceNextKeyframe = false
	s.phase = phaseIdle
}

// ForceKeyframe makes the next frame a keyframe, bypassing feedback
// throttling.
func (s *KeyframeScheduler) ForceKeyframe() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == phaseNotForcing {
		return
	}
	s.state.ForceNextKeyframe = true
}

// HandleFeedback applies a receiver keyframe request. Requests arriving
// within PLIMinInterval of the last accepted one are dropped; the very
// first request is always accepted. It returns whether the request was
// accepted.
func (s *KeyframeScheduler) HandleFeedback(ev rtp.FeedbackEvent) bool {
	if !ev.RequestsKeyframe() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == phaseNotForcing {
		return false
	}

	now := s.timeProvider.Now()
	last := s.state.LastFeedbackRequest
	if !last.IsZero() && now.Sub(last) < s.policy.PLIMinInterval {
		s.feedbackThrottled++
		logrus.WithFields(logrus.Fields{
			"function":     "KeyframeScheduler.HandleFeedback",
			"type":         ev.MessageType.String(),
			"media_ssrc":   ev.MediaSSRC,
			"since_last":   now.Sub(last),
			"min_interval": s.policy.PLIMinInterval,
		}).Debug("Keyframe request throttled")
		return false
	}

	s.state.LastFeedbackRequest = now
	s.feedbackAccepted++
	if s.policy.ForceOnFeedback {
		s.state.ForceNextKeyframe = true
	}

	logrus.WithFields(logrus.Fields{
		"function":   "KeyframeScheduler.HandleFeedback",
		"type":       ev.MessageType.String(),
		"media_ssrc": ev.MediaSSRC,
		"forcing":    s.policy.ForceOnFeedback,
	}).Info("Keyframe request accepted")

	return true
}

// State returns a snapshot of the scheduler state.
func (s *KeyframeScheduler) State() KeyframeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Armed reports whether the scheduler is forcing or idle rather than reset.
func (s *KeyframeScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase != phaseNotForcing
}

// FeedbackCounts returns how many requests were accepted and throttled.
func (s *KeyframeScheduler) FeedbackCounts() (accepted, throttled uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedbackAccepted, s.feedbackThrottled
}
