package deblock

import "github.com/deepteams/vvrecon/internal/dsp"

// tcTable holds the 10-bit clipping thresholds, indexed by
// Clip3(0, 65, qp + 2*(bS-1) + 2*tcOffsetDiv2).
var tcTable = [66]uint16{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	3, 4, 4, 4, 4, 5, 5, 5, 5, 7, 7, 8, 9, 10, 10, 11,
	13, 14, 15, 17, 19, 21, 24, 25, 29, 33, 36, 41, 45, 51, 57, 64,
	71, 80, 89, 100, 112, 125, 141, 157, 177, 198, 222, 250, 280, 314, 352, 395,
}

// betaTable holds the 8-bit flatness thresholds, indexed by
// Clip3(0, 63, qp + 2*betaOffsetDiv2).
var betaTable = [64]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 20, 22, 24,
	26, 28, 30, 32, 34, 36, 38, 40, 42, 44, 46, 48, 50, 52, 54, 56,
	58, 60, 62, 64, 66, 68, 70, 72, 74, 76, 78, 80, 82, 84, 86, 88,
}

const (
	maxTcIdx   = len(tcTable) - 1
	maxBetaIdx = len(betaTable) - 1
)

// Beta returns the flatness threshold for qp at bitDepth.
func Beta(qp, bitDepth, betaOffsetDiv2 int) int {
	idx := dsp.Clip3(0, maxBetaIdx, qp+2*betaOffsetDiv2)
	return int(betaTable[idx]) << (bitDepth - 8)
}

// Tc returns the clipping threshold for qp and boundary strength bs at
// bitDepth.
func Tc(qp, bs, bitDepth, tcOffsetDiv2 int) int {
	idx := dsp.Clip3(0, maxTcIdx, qp+2*(bs-1)+2*tcOffsetDiv2)
	tc := int(tcTable[idx])
	if bitDepth < 10 {
		return (tc + (1 << (9 - bitDepth))) >> (10 - bitDepth)
	}
	return tc << (bitDepth - 10)
}

// Thresholds returns the (beta, tc) pair of a luma edge.
func Thresholds(qp, bs, bitDepth, betaOffsetDiv2, tcOffsetDiv2 int) (beta, tc int) {
	return Beta(qp, bitDepth, betaOffsetDiv2), Tc(qp, bs, bitDepth, tcOffsetDiv2)
}
