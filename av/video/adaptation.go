package video

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/toxav-h264/av/rtp"
	"github.com/sirupsen/logrus"
)

// NetworkQuality represents current network condition assessment.
type NetworkQuality int

const (
	// NetworkExcellent indicates < 1% loss and < 50ms jitter.
	NetworkExcellent NetworkQuality = iota
	// NetworkGood indicates < 3% loss and < 100ms jitter.
	NetworkGood
	// NetworkFair indicates < 5% loss and < 150ms jitter.
	NetworkFair
	// NetworkPoor indicates anything worse.
	NetworkPoor
)

// String returns human-readable network quality description.
func (nq NetworkQuality) String() string {
	switch nq {
	case NetworkExcellent:
		return "excellent"
	case NetworkGood:
		return "good"
	case NetworkFair:
		return "fair"
	case NetworkPoor:
		return "poor"
	default:
		return "unknown"
	}
}

// AdaptationConfig tunes the bitrate adapter.
type AdaptationConfig struct {
	// AdaptationWindow is the minimum time between two bitrate changes.
	AdaptationWindow time.Duration

	PoorLossThreshold   float64 // percent
	FairLossThreshold   float64
	GoodLossThreshold   float64
	PoorJitterThreshold time.Duration
	FairJitterThreshold time.Duration
	GoodJitterThreshold time.Duration

	MinBitRate uint32
	MaxBitRate uint32

	// IncreaseStep is the relative increase on a good network and
	// DecreaseMultiplier the factor applied on a poor one (AIMD).
	IncreaseStep       float64
	DecreaseMultiplier float64

	// MinChangeBitRate is the smallest change worth reconfiguring the
	// encoder for.
	MinChangeBitRate uint32
	// BackoffDuration delays increases after a decrease.
	BackoffDuration time.Duration
}

// DefaultAdaptationConfig returns conservative defaults for video calls.
func DefaultAdaptationConfig() *AdaptationConfig {
	return &AdaptationConfig{
		AdaptationWindow: 2 * time.Second,

		PoorLossThreshold:   5.0,
		FairLossThreshold:   3.0,
		GoodLossThreshold:   1.0,
		PoorJitterThreshold: 150 * time.Millisecond,
		FairJitterThreshold: 100 * time.Millisecond,
		GoodJitterThreshold: 50 * time.Millisecond,

		MinBitRate: 100000,
		MaxBitRate: 4000000,

		IncreaseStep:       0.1,
		DecreaseMultiplier: 0.8,

		MinChangeBitRate: 5000,
		BackoffDuration:  5 * time.Second,
	}
}

// BitRateSetter applies a new encoder target. *Stream implements it.
type BitRateSetter interface {
	SetBitRate(bitRate uint32) error
}

// BitrateAdapter adjusts the encoder bit rate from RTCP reception reports
// using additive increase and multiplicative decrease. It is safe for
// concurrent use.
type BitrateAdapter struct {
	mu     sync.Mutex
	config *AdaptationConfig
	target BitRateSetter

	bitRate        uint32
	currentQuality NetworkQuality
	lastAdaptation time.Time
	lastDecrease   time.Time

	adaptationCount uint64
	qualityCb       func(NetworkQuality)
	timeProvider    TimeProvider
}

// NewBitrateAdapter creates an adapter that drives target starting from
// initialBitRate. A nil config uses DefaultAdaptationConfig.
func NewBitrateAdapter(config *AdaptationConfig, target BitRateSetter, initialBitRate uint32) *BitrateAdapter {
	if config == nil {
		config = DefaultAdaptationConfig()
	}

	logrus.WithFields(logrus.Fields{
		"function":          "NewBitrateAdapter",
		"initial_bps":       initialBitRate,
		"adaptation_window": config.AdaptationWindow,
	}).Info("Creating bitrate adapter")

	return &BitrateAdapter{
		config:         config,
		target:         target,
		bitRate:        initialBitRate,
		currentQuality: NetworkGood,
		timeProvider:   defaultTimeProvider,
	}
}

// SetTimeProvider sets the time provider for deterministic testing.
func (ba *BitrateAdapter) SetTimeProvider(tp TimeProvider) {
	ba.mu.Lock()
	defer ba.mu.Unlock()
	if tp == nil {
		tp = defaultTimeProvider
	}
	ba.timeProvider = tp
}

// SetQualityCallback registers a function called whenever the assessed
// network quality changes.
func (ba *BitrateAdapter) SetQualityCallback(cb func(NetworkQuality)) {
	ba.mu.Lock()
	defer ba.mu.Unlock()
	ba.qualityCb = cb
}

// HandleReport assesses one reception report and, outside the adaptation
// window, pushes a new bit rate to the target. It returns whether the bit
// rate changed.
func (ba *BitrateAdapter) HandleReport(report rtp.ReceptionReport) (bool, error) {
	ba.mu.Lock()
	defer ba.mu.Unlock()

	loss := report.LossPercent()
	jitter := report.JitterDuration()
	quality := ba.assessNetworkQuality(loss, jitter)

	if quality != ba.currentQuality {
		logrus.WithFields(logrus.Fields{
			"function":     "BitrateAdapter.HandleReport",
			"old_quality":  ba.currentQuality.String(),
			"new_quality":  quality.String(),
			"loss_percent": loss,
			"jitter_ms":    jitter.Milliseconds(),
		}).Info("Network quality changed")
		ba.currentQuality = quality
		if ba.qualityCb != nil {
			go ba.qualityCb(quality)
		}
	}

	now := ba.timeProvider.Now()
	if ba.lastAdaptation.IsZero() {
		ba.lastAdaptation = now
		return false, nil
	}
	if now.Sub(ba.lastAdaptation) < ba.config.AdaptationWindow {
		return false, nil
	}

	next := ba.nextBitRate(quality, now)
	if !ba.isSignificantChange(ba.bitRate, next) {
		return false, nil
	}

	if ba.target != nil {
		if err := ba.target.SetBitRate(next); err != nil {
			return false, fmt.Errorf("apply bit rate %d: %w", next, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "BitrateAdapter.HandleReport",
		"old_bps":  ba.bitRate,
		"new_bps":  next,
		"quality":  quality.String(),
	}).Info("Bit rate adapted")

	if next < ba.bitRate {
		ba.lastDecrease = now
	}
	ba.bitRate = next
	ba.lastAdaptation = now
	ba.adaptationCount++
	return true, nil
}

// assessNetworkQuality takes the worse of the loss and jitter verdicts.
func (ba *BitrateAdapter) assessNetworkQuality(lossPercent float64, jitter time.Duration) NetworkQuality {
	var byLoss NetworkQuality
	switch {
	case lossPercent >= ba.config.PoorLossThreshold:
		byLoss = NetworkPoor
	case lossPercent >= ba.config.FairLossThreshold:
		byLoss = NetworkFair
	case lossPercent >= ba.config.GoodLossThreshold:
		byLoss = NetworkGood
	default:
		byLoss = NetworkExcellent
	}

	var byJitter NetworkQuality
	switch {
	case jitter >= ba.config.PoorJitterThreshold:
		byJitter = NetworkPoor
	case jitter >= ba.config.FairJitterThreshold:
		byJitter = NetworkFair
	case jitter >= ba.config.GoodJitterThreshold:
		byJitter = NetworkGood
	default:
		byJitter = NetworkExcellent
	}

	return max(byLoss, byJitter)
}

func (ba *BitrateAdapter) nextBitRate(quality NetworkQuality, now time.Time) uint32 {
	rate := float64(ba.bitRate)
	switch quality {
	case NetworkPoor:
		rate *= ba.config.DecreaseMultiplier
	case NetworkFair:
		rate *= 0.95
	default:
		if !ba.lastDecrease.IsZero() && now.Sub(ba.lastDecrease) < ba.config.BackoffDuration {
			return ba.bitRate
		}
		rate *= 1 + ba.config.IncreaseStep
	}

	next := uint32(rate)
	if next < ba.config.MinBitRate {
		next = ba.config.MinBitRate
	}
	if next > ba.config.MaxBitRate {
		next = ba.config.MaxBitRate
	}
	return next
}

func (ba *BitrateAdapter) isSignificantChange(oldBitRate, newBitRate uint32) bool {
	if newBitRate > oldBitRate {
		return newBitRate-oldBitRate >= ba.config.MinChangeBitRate
	}
	return oldBitRate-newBitRate >= ba.config.MinChangeBitRate
}

// BitRate returns the current target.
func (ba *BitrateAdapter) BitRate() uint32 {
	ba.mu.Lock()
	defer ba.mu.Unlock()
	return ba.bitRate
}

// NetworkQuality returns the last assessed network quality.
func (ba *BitrateAdapter) NetworkQuality() NetworkQuality {
	ba.mu.Lock()
	defer ba.mu.Unlock()
	return ba.currentQuality
}

// AdaptationCount returns how many times the bit rate was changed.
func (ba *BitrateAdapter) AdaptationCount() uint64 {
	ba.mu.Lock()
	defer ba.mu.Unlock()
	return ba.adaptationCount
}
