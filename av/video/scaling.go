package video

import (
	"fmt"
)

// Scaler resizes I420 frames using bilinear interpolation.
//
// Streams use it to bring input pictures to the configured encoder size
// when a source changes resolution mid-call.
type Scaler struct{}

// NewScaler creates a new video frame scaler.
func NewScaler() *Scaler {
	return &Scaler{}
}

// Scale resizes an I420 frame to the specified dimensions. Both target
// dimensions must be even and at least MinDimension. The timestamp is
// carried over.
func (s *Scaler) Scale(frame *RawFrame, targetWidth, targetHeight uint16) (*RawFrame, error) {
	if frame == nil {
		return nil, fmt.Errorf("source frame cannot be nil")
	}

	if targetWidth%2 != 0 || targetHeight%2 != 0 {
		return nil, fmt.Errorf("target dimensions must be even for I420: %dx%d", targetWidth, targetHeight)
	}

	if targetWidth < MinDimension || targetHeight < MinDimension {
		return nil, fmt.Errorf("target dimensions too small: %dx%d (minimum %dx%d)",
			targetWidth, targetHeight, MinDimension, MinDimension)
	}

	srcY, srcU, srcV := frame.Planes()
	if srcY == nil || frame.Width == 0 || frame.Height == 0 {
		return nil, fmt.Errorf("source frame %dx%d has %d bytes, need %d",
			frame.Width, frame.Height, len(frame.Data), I420Size(frame.Width, frame.Height))
	}

	if !s.IsScalingRequired(frame.Width, frame.Height, targetWidth, targetHeight) {
		return &RawFrame{
			Data:      append([]byte(nil), frame.Data[:I420Size(frame.Width, frame.Height)]...),
			Width:     frame.Width,
			Height:    frame.Height,
			Timestamp: frame.Timestamp,
		}, nil
	}

	result := &RawFrame{
		Data:      make([]byte, I420Size(targetWidth, targetHeight)),
		Width:     targetWidth,
		Height:    targetHeight,
		Timestamp: frame.Timestamp,
	}
	dstY, dstU, dstV := result.Planes()

	srcCW, srcCH := (frame.Width+1)/2, (frame.Height+1)/2
	dstCW, dstCH := targetWidth/2, targetHeight/2

	s.scalePlane(srcY, frame.Width, frame.Height, dstY, targetWidth, targetHeight)
	s.scalePlane(srcU, srcCW, srcCH, dstU, dstCW, dstCH)
	s.scalePlane(srcV, srcCW, srcCH, dstV, dstCW, dstCH)

	return result, nil
}

// scalePlane scales a single tightly packed plane. Callers size both
// buffers from the dimensions.
func (s *Scaler) scalePlane(src []byte, srcWidth, srcHeight uint16, dst []byte, dstWidth, dstHeight uint16) {
	srcStride := int(srcWidth)
	dstStride := int(dstWidth)

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < int(dstHeight); y++ {
		srcY := float64(y) * yRatio
		y1 := int(srcY)
		y2 := min(y1+1, int(srcHeight)-1)
		fy := srcY - float64(y1)

		for x := 0; x < int(dstWidth); x++ {
			srcX := float64(x) * xRatio
			x1 := int(srcX)
			x2 := min(x1+1, int(srcWidth)-1)
			fx := srcX - float64(x1)

			p11 := float64(src[y1*srcStride+x1])
			p12 := float64(src[y1*srcStride+x2])
			p21 := float64(src[y2*srcStride+x1])
			p22 := float64(src[y2*srcStride+x2])

			top := p11*(1-fx) + p12*fx
			bottom := p21*(1-fx) + p22*fx
			dst[y*dstStride+x] = byte(top*(1-fy) + bottom*fy + 0.5)
		}
	}
}

// GetScaleFactors returns the horizontal and vertical scaling factors.
func (s *Scaler) GetScaleFactors(srcWidth, srcHeight, dstWidth, dstHeight uint16) (xFactor, yFactor float64) {
	xFactor = float64(dstWidth) / float64(srcWidth)
	yFactor = float64(dstHeight) / float64(srcHeight)
	return
}

// IsScalingRequired checks if scaling is needed for given dimensions.
func (s *Scaler) IsScalingRequired(srcWidth, srcHeight, dstWidth, dstHeight uint16) bool {
	return srcWidth != dstWidth || srcHeight != dstHeight
}
