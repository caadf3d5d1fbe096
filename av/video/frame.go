package video

// RawFrame is one uncompressed picture in planar I420 layout: the full
// resolution Y plane followed by the quarter resolution U and V planes.
type RawFrame struct {
	Data      []byte
	Width     uint16
	Height    uint16
	Timestamp uint32
}

// EncodedFrame is one compressed picture as an Annex-B byte stream.
type EncodedFrame struct {
	Data      []byte
	Keyframe  bool
	Timestamp uint32
}

// I420Size returns the byte size of an I420 picture. Odd dimensions round
// the chroma planes up.
func I420Size(width, height uint16) int {
	cw := (int(width) + 1) / 2
	ch := (int(height) + 1) / 2
	return int(width)*int(height) + 2*cw*ch
}

// Planes splits the frame buffer into its Y, U and V planes. It returns nil
// slices when the buffer is shorter than the dimensions require.
func (f *RawFrame) Planes() (y, u, v []byte) {
	if len(f.Data) < I420Size(f.Width, f.Height) {
		return nil, nil, nil
	}
	ySize := int(f.Width) * int(f.Height)
	cSize := ((int(f.Width) + 1) / 2) * ((int(f.Height) + 1) / 2)
	y = f.Data[:ySize]
	u = f.Data[ySize : ySize+cSize]
	v = f.Data[ySize+cSize : ySize+2*cSize]
	return y, u, v
}

// NewRawFrame allocates a black I420 frame of the given size.
func NewRawFrame(width, height uint16, timestamp uint32) *RawFrame {
	f := &RawFrame{
		Data:      make([]byte, I420Size(width, height)),
		Width:     width,
		Height:    height,
		Timestamp: timestamp,
	}
	_, u, v := f.Planes()
	for i := range u {
		u[i] = 128
		v[i] = 128
	}
	return f
}
