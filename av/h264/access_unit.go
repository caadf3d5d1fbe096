package h264

import "iter"

// AccessUnits groups the NAL units of an Annex-B stream into access units
// (one coded picture each, plus the parameter sets and SEI leading it).
//
// A new access unit starts after a picture has been seen when an AUD,
// SPS, PPS, SEI or reserved 14..18 unit arrives, or when a slice begins
// with first_mb_in_slice equal to zero (ITU-T H.264 section 7.4.1.2.3).
func AccessUnits(data []byte) iter.Seq[[]NALUnit] {
	return func(yield func([]NALUnit) bool) {
		var current []NALUnit
		seenPicture := false

		for nal := range NALUnits(data) {
			if seenPicture && startsAccessUnit(nal) {
				if !yield(current) {
					return
				}
				current = nil
				seenPicture = false
			}
			current = append(current, nal)
			if nal.Type().IsVCL() {
				seenPicture = true
			}
		}

		if len(current) > 0 {
			yield(current)
		}
	}
}

func startsAccessUnit(nal NALUnit) bool {
	t := nal.Type()
	switch {
	case t == NALTypeAUD, t == NALTypeSPS, t == NALTypePPS, t == NALTypeSEI:
		return true
	case t >= 14 && t <= 18:
		return true
	case t == NALTypeSlice, t == NALTypeSliceA, t == NALTypeIDR:
		return firstMBInSliceIsZero(nal)
	}
	return false
}

// firstMBInSliceIsZero checks the leading ue(v) of the slice header; the
// code word for zero is a single 1 bit.
func firstMBInSliceIsZero(nal NALUnit) bool {
	if nal.Len() < 2 {
		return false
	}
	return nal.Data[1]&0x80 != 0
}
