package dsp

// Deblocking filters for a single line of samples across an edge.
//
// All functions use a full-buffer + base-offset approach: p is the whole
// plane, off is the index of q0 (the first sample past the edge) and step
// is the distance between neighbouring samples across the edge, 1 for a
// vertical edge and the stride for a horizontal one. p_i is p[off-(i+1)*step]
// and q_i is p[off+i*step].

// Long filter weights and clipping factors per side length.
var (
	longCoefs7 = [7]int{59, 50, 41, 32, 23, 14, 5}
	longCoefs5 = [5]int{58, 45, 32, 19, 6}
	longCoefs3 = [3]int{53, 32, 11}
	longTc7    = [7]int{6, 5, 4, 3, 2, 1, 1}
	longTc5    = [5]int{6, 5, 4, 3, 2}
	longTc3    = [3]int{6, 4, 2}
)

// CalcDP returns the P side second derivative |p2 - 2*p1 + p0|.
func CalcDP(p []int16, off, step int) int {
	return Abs(int(p[off-3*step]) - 2*int(p[off-2*step]) + int(p[off-step]))
}

// CalcDQ returns the Q side second derivative |q0 - 2*q1 + q2|.
func CalcDQ(p []int16, off, step int) int {
	return Abs(int(p[off]) - 2*int(p[off+step]) + int(p[off+2*step]))
}

// UseStrongFiltering is the per-line flatness decision. d is twice the
// line's second-derivative sum. Sides longer than 3 extend the flatness
// check to their outer samples.
func UseStrongFiltering(p []int16, off, step, d, beta, tc, lenP, lenQ int) bool {
	p0 := int(p[off-step])
	p3 := int(p[off-4*step])
	q0 := int(p[off])
	q3 := int(p[off+3*step])

	sp := Abs(p3 - p0)
	sq := Abs(q0 - q3)
	spq := Abs(p0 - q0)

	largeP := lenP > 3
	largeQ := lenQ > 3
	if largeP {
		p4 := int(p[off-5*step])
		p5 := int(p[off-6*step])
		if lenP == 7 {
			p6 := int(p[off-7*step])
			p7 := int(p[off-8*step])
			sp = (sp + Abs(p7-p6-p5+p4) + 1) >> 1
		} else {
			sp = (sp + Abs(p5-p4) + 1) >> 1
		}
	}
	if largeQ {
		q4 := int(p[off+4*step])
		q5 := int(p[off+5*step])
		if lenQ == 7 {
			q6 := int(p[off+6*step])
			q7 := int(p[off+7*step])
			sq = (sq + Abs(q7-q6-q5+q4) + 1) >> 1
		} else {
			sq = (sq + Abs(q5-q4) + 1) >> 1
		}
	}

	sThr := beta >> 3
	if largeP || largeQ {
		sThr = (3 * beta) >> 5
	}
	return d < beta>>2 && sp+sq < sThr && spq < (5*tc+1)>>1
}

// PelFilterLuma applies the short luma filter to one line. strong selects
// the 3-sample filter; otherwise the weak filter changes p0/q0 when the
// step is below thrCut and p1/q1 when the second-sample flags are set.
func PelFilterLuma(p []int16, off, step, tc int, strong bool, thrCut int, secondP, secondQ bool, maxVal int) {
	p3 := int(p[off-4*step])
	p2 := int(p[off-3*step])
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])
	q2 := int(p[off+2*step])
	q3 := int(p[off+3*step])

	if strong {
		p[off-step] = int16(Clip3(p0-3*tc, p0+3*tc, (p2+2*p1+2*p0+2*q0+q1+4)>>3))
		p[off-2*step] = int16(Clip3(p1-2*tc, p1+2*tc, (p2+p1+p0+q0+2)>>2))
		p[off-3*step] = int16(Clip3(p2-tc, p2+tc, (2*p3+3*p2+p1+p0+q0+4)>>3))
		p[off] = int16(Clip3(q0-3*tc, q0+3*tc, (p1+2*p0+2*q0+2*q1+q2+4)>>3))
		p[off+step] = int16(Clip3(q1-2*tc, q1+2*tc, (p0+q0+q1+q2+2)>>2))
		p[off+2*step] = int16(Clip3(q2-tc, q2+tc, (p0+q0+q1+3*q2+2*q3+4)>>3))
		return
	}

	delta := (9*(q0-p0) - 3*(q1-p1) + 8) >> 4
	if Abs(delta) >= thrCut {
		return
	}
	delta = Clip3(-tc, tc, delta)
	p[off-step] = ClipPel(p0+delta, maxVal)
	p[off] = ClipPel(q0-delta, maxVal)

	tc2 := tc >> 1
	if secondP {
		dp := Clip3(-tc2, tc2, (((p2+p0+1)>>1)-p1+delta)>>1)
		p[off-2*step] = ClipPel(p1+dp, maxVal)
	}
	if secondQ {
		dq := Clip3(-tc2, tc2, (((q2+q0+1)>>1)-q1-delta)>>1)
		p[off+step] = ClipPel(q1+dq, maxVal)
	}
}

// FilteringPandQ applies the long luma filter to one line. numP and numQ
// are the side lengths (3, 5 or 7); at least one must exceed 3.
func FilteringPandQ(p []int16, off, step, numP, numQ, tc int) {
	var ps, qs [8]int
	for i := 0; i <= numP; i++ {
		ps[i] = int(p[off-(i+1)*step])
	}
	for i := 0; i <= numQ; i++ {
		qs[i] = int(p[off+i*step])
	}

	refP := (ps[numP-1] + ps[numP] + 1) >> 1
	refQ := (qs[numQ-1] + qs[numQ] + 1) >> 1

	var refMiddle int
	switch {
	case numP == 5 && numQ == 5:
		refMiddle = (ps[4] + ps[3] + 2*(ps[2]+ps[1]+ps[0]+qs[0]+qs[1]+qs[2]) + qs[3] + qs[4] + 8) >> 4
	case numP == 7 && numQ == 7:
		refMiddle = (ps[6] + ps[5] + ps[4] + ps[3] + ps[2] + ps[1] + 2*(ps[0]+qs[0]) +
			qs[1] + qs[2] + qs[3] + qs[4] + qs[5] + qs[6] + 8) >> 4
	case (numP == 7 && numQ == 5) || (numP == 5 && numQ == 7):
		refMiddle = (ps[5] + ps[4] + ps[3] + ps[2] + 2*(ps[1]+ps[0]+qs[0]+qs[1]) +
			qs[2] + qs[3] + qs[4] + qs[5] + 8) >> 4
	case (numP == 5 && numQ == 3) || (numP == 3 && numQ == 5):
		refMiddle = (ps[3] + ps[2] + ps[1] + ps[0] + qs[0] + qs[1] + qs[2] + qs[3] + 4) >> 3
	case numP == 7 && numQ == 3:
		refMiddle = (2*(ps[0]+qs[0]) + ps[0] + 2*(qs[1]+qs[2]) + ps[1] + qs[1] +
			ps[2] + ps[3] + ps[4] + ps[5] + ps[6] + 8) >> 4
	case numP == 3 && numQ == 7:
		refMiddle = (2*(qs[0]+ps[0]) + qs[0] + 2*(ps[1]+ps[2]) + qs[1] + ps[1] +
			qs[2] + qs[3] + qs[4] + qs[5] + qs[6] + 8) >> 4
	default:
		return
	}

	coefsP, tcP := longWeights(numP)
	for i := 0; i < numP; i++ {
		c := (tc * tcP[i]) >> 1
		v := (refMiddle*coefsP[i] + refP*(64-coefsP[i]) + 32) >> 6
		p[off-(i+1)*step] = int16(Clip3(ps[i]-c, ps[i]+c, v))
	}
	coefsQ, tcQ := longWeights(numQ)
	for i := 0; i < numQ; i++ {
		c := (tc * tcQ[i]) >> 1
		v := (refMiddle*coefsQ[i] + refQ*(64-coefsQ[i]) + 32) >> 6
		p[off+i*step] = int16(Clip3(qs[i]-c, qs[i]+c, v))
	}
}

func longWeights(n int) ([]int, []int) {
	switch n {
	case 7:
		return longCoefs7[:], longTc7[:]
	case 5:
		return longCoefs5[:], longTc5[:]
	}
	return longCoefs3[:], longTc3[:]
}

// PelFilterChroma applies the one-sample chroma filter to one line.
func PelFilterChroma(p []int16, off, step, tc, maxVal int) {
	p1 := int(p[off-2*step])
	p0 := int(p[off-step])
	q0 := int(p[off])
	q1 := int(p[off+step])

	delta := Clip3(-tc, tc, ((((q0 - p0) << 2) + p1 - q1 + 4) >> 3))
	p[off-step] = ClipPel(p0+delta, maxVal)
	p[off] = ClipPel(q0-delta, maxVal)
}

// LumaLevel returns the average of p0 and q0 on the first and fourth line
// of a 4-line segment; along is the distance between lines.
func LumaLevel(p []int16, off, step, along int) int {
	return (int(p[off]) + int(p[off+3*along]) + int(p[off-step]) + int(p[off+3*along-step])) >> 2
}
