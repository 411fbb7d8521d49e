package unit

import "github.com/deepteams/vvrecon/picture"

// MaxQP is the largest luma QP.
const MaxQP = 63

// chromaQPTable maps qPi in [30, 43) to QpC for 4:2:0 content.
var chromaQPTable = [13]int{29, 30, 31, 32, 33, 33, 34, 34, 35, 35, 36, 36, 37}

// ChromaQP maps a chroma qPi to QpC. 4:2:0 content uses the compressed
// mapping above QP 29; other formats clip to MaxQP.
func ChromaQP(qpi int, format picture.ChromaFormat) int {
	if format != picture.Chroma420 {
		if qpi > MaxQP {
			return MaxQP
		}
		return qpi
	}
	switch {
	case qpi < 30:
		return qpi
	case qpi < 43:
		return chromaQPTable[qpi-30]
	default:
		return qpi - 6
	}
}

// QpBdOffset returns the QP range extension for bitDepth.
func QpBdOffset(bitDepth int) int {
	return 6 * (bitDepth - 8)
}
