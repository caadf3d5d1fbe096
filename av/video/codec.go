package video

import (
	"fmt"
)

const (
	// MinDimension is the smallest width or height accepted: one macroblock.
	MinDimension = 16
	// MaxDimension is the largest width or height accepted.
	MaxDimension = 4096
)

// Resolution represents a video resolution.
type Resolution struct {
	Width  uint16
	Height uint16
}

// String returns a string representation of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// SupportedResolutions returns the resolutions commonly used for calls.
// Any size passing ValidateFrameSize is encodable; these are the presets.
func SupportedResolutions() []Resolution {
	return []Resolution{
		{Width: 160, Height: 120},   // QQVGA
		{Width: 320, Height: 240},   // QVGA
		{Width: 640, Height: 480},   // VGA
		{Width: 800, Height: 600},   // SVGA
		{Width: 1024, Height: 768},  // XGA
		{Width: 1280, Height: 720},  // HD 720p
		{Width: 1920, Height: 1080}, // HD 1080p
	}
}

// ValidateFrameSize checks if the frame dimensions are valid for H.264
// 4:2:0 encoding.
func ValidateFrameSize(width, height uint16) error {
	// 4:2:0 chroma subsampling needs even dimensions
	if width%2 != 0 {
		return fmt.Errorf("%w: width %d must be even", ErrUnsupportedDimensions, width)
	}
	if height%2 != 0 {
		return fmt.Errorf("%w: height %d must be even", ErrUnsupportedDimensions, height)
	}

	if width < MinDimension || height < MinDimension {
		return fmt.Errorf("%w: %dx%d below minimum %dx%d",
			ErrUnsupportedDimensions, width, height, MinDimension, MinDimension)
	}

	if width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("%w: %dx%d above maximum %dx%d",
			ErrUnsupportedDimensions, width, height, MaxDimension, MaxDimension)
	}

	return nil
}

// GetBitrateForResolution returns an appropriate bitrate for a given resolution.
//
// Provides reasonable default bitrates based on resolution for video calls.
func GetBitrateForResolution(resolution Resolution) uint32 {
	pixels := uint32(resolution.Width) * uint32(resolution.Height)

	switch {
	case pixels <= 19200: // 160x120 and smaller
		return 64000
	case pixels <= 76800: // 320x240 and smaller
		return 128000
	case pixels <= 307200: // 640x480 and smaller
		return 400000
	case pixels <= 480000: // 800x600 and smaller
		return 800000
	case pixels <= 786432: // 1024x768 and smaller
		return 1200000
	case pixels <= 921600: // 1280x720 and smaller
		return 1500000
	case pixels <= 2073600: // 1920x1080 and smaller
		return 3000000
	default:
		return 6000000
	}
}
