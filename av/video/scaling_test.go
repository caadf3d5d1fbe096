package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFrame(width, height uint16) *RawFrame {
	f := NewRawFrame(width, height, 3000)
	y, _, _ := f.Planes()
	for i := range y {
		y[i] = byte(i % 256)
	}
	return f
}

func TestScaler_Scale_UpAndDown(t *testing.T) {
	scaler := NewScaler()

	tests := []struct {
		name       string
		srcW, srcH uint16
		dstW, dstH uint16
	}{
		{"upscale_qvga_to_vga", 320, 240, 640, 480},
		{"downscale_hd_to_vga", 1280, 720, 640, 360},
		{"odd_source", 33, 17, 32, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := scaler.Scale(createTestFrame(tt.srcW, tt.srcH), tt.dstW, tt.dstH)

			require.NoError(t, err)
			assert.Equal(t, tt.dstW, out.Width)
			assert.Equal(t, tt.dstH, out.Height)
			assert.Len(t, out.Data, I420Size(tt.dstW, tt.dstH))
			assert.Equal(t, uint32(3000), out.Timestamp)
		})
	}
}

func TestScaler_Scale_SameDimensionsCopies(t *testing.T) {
	scaler := NewScaler()
	src := createTestFrame(64, 48)

	out, err := scaler.Scale(src, 64, 48)

	require.NoError(t, err)
	assert.Equal(t, src.Data, out.Data)
	out.Data[0] ^= 0xFF
	assert.NotEqual(t, src.Data[0], out.Data[0])
}

func TestScaler_Scale_ErrorCases(t *testing.T) {
	scaler := NewScaler()

	_, err := scaler.Scale(nil, 64, 64)
	assert.Error(t, err)

	_, err = scaler.Scale(createTestFrame(64, 64), 33, 64)
	assert.Error(t, err)

	_, err = scaler.Scale(createTestFrame(64, 64), 8, 8)
	assert.Error(t, err)

	short := &RawFrame{Data: make([]byte, 100), Width: 64, Height: 64}
	_, err = scaler.Scale(short, 32, 32)
	assert.Error(t, err)
}

func TestScaler_Scale_UniformPlanesStayUniform(t *testing.T) {
	scaler := NewScaler()
	src := NewRawFrame(32, 32, 0)
	y, _, _ := src.Planes()
	for i := range y {
		y[i] = 200
	}

	out, err := scaler.Scale(src, 48, 16)
	require.NoError(t, err)

	oy, ou, ov := out.Planes()
	for _, p := range oy {
		assert.Equal(t, byte(200), p)
	}
	for i := range ou {
		assert.Equal(t, byte(128), ou[i])
		assert.Equal(t, byte(128), ov[i])
	}
}

func TestScaler_Scale_BilinearInterpolation(t *testing.T) {
	scaler := NewScaler()
	src := []byte{0, 100, 100, 200}
	dst := make([]byte, 16)

	scaler.scalePlane(src, 2, 2, dst, 4, 4)

	assert.Equal(t, byte(0), dst[0])
	assert.Equal(t, byte(50), dst[1])
	assert.Equal(t, byte(100), dst[2])
	assert.Equal(t, byte(200), dst[10])
}

func TestScaler_GetScaleFactors(t *testing.T) {
	x, y := NewScaler().GetScaleFactors(320, 240, 640, 120)
	assert.Equal(t, 2.0, x)
	assert.Equal(t, 0.5, y)
}

func TestScaler_IsScalingRequired(t *testing.T) {
	s := NewScaler()
	assert.False(t, s.IsScalingRequired(640, 480, 640, 480))
	assert.True(t, s.IsScalingRequired(640, 480, 640, 360))
}

func BenchmarkScaler_Scale_VGAtoHD(b *testing.B) {
	scaler := NewScaler()
	frame := createTestFrame(640, 480)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = scaler.Scale(frame, 1280, 720)
	}
}
