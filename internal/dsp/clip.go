package dsp

// Coefficient range of the transform stages (16-bit signed).
const (
	CoeffMin = -(1 << 15)
	CoeffMax = (1 << 15) - 1
)

// Clip3 clamps v to [lo, hi].
func Clip3(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClipPel clamps v to the sample range [0, maxVal].
// Uses unsigned comparison for single-branch hot path when v is in range.
func ClipPel(v, maxVal int) int16 {
	if uint(v) <= uint(maxVal) {
		return int16(v)
	}
	if v < 0 {
		return 0
	}
	return int16(maxVal)
}

func clip32(v int, lo, hi int32) int32 {
	if v < int(lo) {
		return lo
	}
	if v > int(hi) {
		return hi
	}
	return int32(v)
}

func clipCoeff(v int64) int32 {
	if v < CoeffMin {
		return CoeffMin
	}
	if v > CoeffMax {
		return CoeffMax
	}
	return int32(v)
}

// Abs returns |v|.
func Abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
