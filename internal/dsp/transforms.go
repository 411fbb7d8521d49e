package dsp

// Inverse transform kernels, reference (scalar) set.
//
// DCT-II uses a recursive even/odd partial butterfly: the even frequencies
// form the half-size DCT-II and the odd frequencies contribute a term that
// is added to the first half and subtracted from the mirrored second half.
// The butterfly only reorders integer sums, so it matches a direct matrix
// multiply exactly.

// partialInvDCT2 computes the unshifted n-point inverse DCT-II of the
// coefficients src[0], src[stride], ... into out[:n]. Frequencies at or
// above nz are zero.
func partialInvDCT2(src []int32, stride, n, nz int, out []int) {
	switch n {
	case 2:
		s0, s1 := int(src[0]), int(src[stride])
		out[0] = 64 * (s0 + s1)
		out[1] = 64 * (s0 - s1)
		return
	case 4:
		s0, s1 := int(src[0]), int(src[stride])
		s2, s3 := int(src[2*stride]), int(src[3*stride])
		o0 := 83*s1 + 36*s3
		o1 := 36*s1 - 83*s3
		e0 := 64 * (s0 + s2)
		e1 := 64 * (s0 - s2)
		out[0] = e0 + o0
		out[1] = e1 + o1
		out[2] = e1 - o1
		out[3] = e0 - o0
		return
	}

	half := n >> 1
	var even, odd [32]int
	partialInvDCT2(src, 2*stride, half, (nz+1)>>1, even[:half])

	basis := dct2Basis[log2Of(n)]
	for k := 1; k < nz; k += 2 {
		v := int(src[k*stride])
		if v == 0 {
			continue
		}
		row := basis[k*n : k*n+half]
		for i, c := range row {
			odd[i] += int(c) * v
		}
	}
	for i := 0; i < half; i++ {
		out[i] = even[i] + odd[i]
		out[n-1-i] = even[i] - odd[i]
	}
}

func invDCT2(src, dst []int32, n, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	rnd := 1 << (shift - 1)
	var out [64]int
	for i := 0; i < nzLine; i++ {
		partialInvDCT2(src[i:], line, n, nzFreq, out[:n])
		d := dst[i*n : i*n+n]
		for j := range d {
			d[j] = clip32((out[j]+rnd)>>shift, outMin, outMax)
		}
	}
	clear(dst[nzLine*n : line*n])
}

func invDCT2B2(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invDCT2(src, dst, 2, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT2B4(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invDCT2(src, dst, 4, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT2B8(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invDCT2(src, dst, 8, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT2B16(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invDCT2(src, dst, 16, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT2B32(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invDCT2(src, dst, 32, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT2B64(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invDCT2(src, dst, 64, shift, line, nzFreq, nzLine, outMin, outMax)
}

// invDST7B4 is the 4-point DST-VII with the shared-sum factorisation
// 29+55 = 84, which needs 7 multiplies per line instead of 16.
func invDST7B4(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	rnd := 1 << (shift - 1)
	for i := 0; i < nzLine; i++ {
		x0, x1 := int(src[i]), int(src[line+i])
		x2, x3 := int(src[2*line+i]), int(src[3*line+i])
		c0 := x0 + x2
		c1 := x2 + x3
		c2 := x0 - x3
		c3 := 74 * x1
		d := dst[4*i : 4*i+4]
		d[0] = clip32((29*c0+55*c1+c3+rnd)>>shift, outMin, outMax)
		d[1] = clip32((55*c2-29*c1+c3+rnd)>>shift, outMin, outMax)
		d[2] = clip32((74*(x0-x2+x3)+rnd)>>shift, outMin, outMax)
		d[3] = clip32((55*c0+29*c2-c3+rnd)>>shift, outMin, outMax)
	}
	clear(dst[nzLine*4 : line*4])
}

// invMM is a partial matrix multiply that skips zero coefficients and the
// frequencies at or above nzFreq. Lines [from, nzLine) are computed.
func invMM(src, dst []int32, basis []int16, n, shift, line, nzFreq, from, nzLine int, outMin, outMax int32) {
	rnd := 1 << (shift - 1)
	var acc [32]int
	for i := from; i < nzLine; i++ {
		a := acc[:n]
		clear(a)
		for k := 0; k < nzFreq; k++ {
			v := int(src[k*line+i])
			if v == 0 {
				continue
			}
			row := basis[k*n : k*n+n]
			for j, c := range row {
				a[j] += int(c) * v
			}
		}
		d := dst[i*n : i*n+n]
		for j := range d {
			d[j] = clip32((a[j]+rnd)>>shift, outMin, outMax)
		}
	}
}

func invDST7B8(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invMM(src, dst, dst7Basis[3], 8, shift, line, nzFreq, 0, nzLine, outMin, outMax)
	clear(dst[nzLine*8 : line*8])
}

func invDST7B16(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invMM(src, dst, dst7Basis[4], 16, shift, line, nzFreq, 0, nzLine, outMin, outMax)
	clear(dst[nzLine*16 : line*16])
}

func invDST7B32(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invMM(src, dst, dst7Basis[5], 32, shift, line, nzFreq, 0, nzLine, outMin, outMax)
	clear(dst[nzLine*32 : line*32])
}

// invViaDST7 computes an n-point inverse DCT-VIII with a DST-VII kernel:
// DCT-VIII[k][n] = (-1)^k · DST-VII[k][N-1-n], so negating the odd
// frequencies and reversing every output line gives the exact result.
func invViaDST7(dst7 InvTransFunc, src, dst []int32, n, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	var flipped [32 * 64]int32
	f := flipped[:n*line]
	copy(f[:nzFreq*line], src[:nzFreq*line])
	for k := 1; k < nzFreq; k += 2 {
		row := f[k*line : k*line+line]
		for i := range row {
			row[i] = -row[i]
		}
	}
	dst7(f, dst, shift, line, nzFreq, nzLine, outMin, outMax)
	for i := 0; i < nzLine; i++ {
		d := dst[i*n : i*n+n]
		for a, b := 0, n-1; a < b; a, b = a+1, b-1 {
			d[a], d[b] = d[b], d[a]
		}
	}
}

func invDCT8B4(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invViaDST7(invDST7B4, src, dst, 4, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT8B8(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invViaDST7(invDST7B8, src, dst, 8, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT8B16(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invViaDST7(invDST7B16, src, dst, 16, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT8B32(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invViaDST7(invDST7B32, src, dst, 32, shift, line, nzFreq, nzLine, outMin, outMax)
}

func log2Of(n int) int {
	l := 0
	for n > 1 {
		n >>= 1
		l++
	}
	return l
}
