package h264

// EscapeRBSP appends src to dst with emulation_prevention_three_byte
// inserted wherever two zero bytes are followed by a byte <= 0x03, so the
// result can never contain a start code prefix.
func EscapeRBSP(dst, src []byte) []byte {
	zeros := 0
	for _, b := range src {
		if zeros == 2 && b <= 0x03 {
			dst = append(dst, 0x03)
			zeros = 0
		}
		dst = append(dst, b)
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return dst
}

// UnescapeRBSP appends src to dst with every emulation_prevention_three_byte removed.
func UnescapeRBSP(dst, src []byte) []byte {
	zeros := 0
	for _, b := range src {
		if zeros == 2 && b == 0x03 {
			zeros = 0
			continue
		}
		dst = append(dst, b)
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return dst
}
