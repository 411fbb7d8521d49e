package dsp

// Wide kernel set: four lines (or four samples) per iteration with
// independent accumulators. Results are identical to the scalar set.

func initWide() {
	InvTrans[FamilyDST7][3] = invDST7B8Wide
	InvTrans[FamilyDST7][4] = invDST7B16Wide
	InvTrans[FamilyDST7][5] = invDST7B32Wide
	InvTrans[FamilyDCT8][3] = invDCT8B8Wide
	InvTrans[FamilyDCT8][4] = invDCT8B16Wide
	InvTrans[FamilyDCT8][5] = invDCT8B32Wide
	Dequant = dequantWide
	AddResidual = addResidualWide
}

func invMMWide(src, dst []int32, basis []int16, n, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	rnd := 1 << (shift - 1)
	var a0, a1, a2, a3 [32]int
	i := 0
	for ; i+4 <= nzLine; i += 4 {
		clear(a0[:n])
		clear(a1[:n])
		clear(a2[:n])
		clear(a3[:n])
		for k := 0; k < nzFreq; k++ {
			s := src[k*line+i : k*line+i+4]
			v0, v1, v2, v3 := int(s[0]), int(s[1]), int(s[2]), int(s[3])
			if v0|v1|v2|v3 == 0 {
				continue
			}
			row := basis[k*n : k*n+n]
			for j, c := range row {
				w := int(c)
				a0[j] += w * v0
				a1[j] += w * v1
				a2[j] += w * v2
				a3[j] += w * v3
			}
		}
		d0 := dst[i*n : i*n+n]
		d1 := dst[(i+1)*n : (i+1)*n+n]
		d2 := dst[(i+2)*n : (i+2)*n+n]
		d3 := dst[(i+3)*n : (i+3)*n+n]
		for j := 0; j < n; j++ {
			d0[j] = clip32((a0[j]+rnd)>>shift, outMin, outMax)
			d1[j] = clip32((a1[j]+rnd)>>shift, outMin, outMax)
			d2[j] = clip32((a2[j]+rnd)>>shift, outMin, outMax)
			d3[j] = clip32((a3[j]+rnd)>>shift, outMin, outMax)
		}
	}
	if i < nzLine {
		invMM(src, dst, basis, n, shift, line, nzFreq, i, nzLine, outMin, outMax)
	}
	clear(dst[nzLine*n : line*n])
}

func invDST7B8Wide(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invMMWide(src, dst, dst7Basis[3], 8, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDST7B16Wide(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invMMWide(src, dst, dst7Basis[4], 16, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDST7B32Wide(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invMMWide(src, dst, dst7Basis[5], 32, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT8B8Wide(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invViaDST7(invDST7B8Wide, src, dst, 8, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT8B16Wide(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invViaDST7(invDST7B16Wide, src, dst, 16, shift, line, nzFreq, nzLine, outMin, outMax)
}

func invDCT8B32Wide(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32) {
	invViaDST7(invDST7B32Wide, src, dst, 32, shift, line, nzFreq, nzLine, outMin, outMax)
}

func dequantWide(dst, src []int32, scale int64, shift uint) {
	rnd := int64(1) << shift >> 1
	n := len(src)
	i := 0
	for ; i+4 <= n; i += 4 {
		s := src[i : i+4]
		d := dst[i : i+4]
		if s[0]|s[1]|s[2]|s[3] == 0 {
			d[0], d[1], d[2], d[3] = 0, 0, 0, 0
			continue
		}
		d[0] = clipCoeff((int64(s[0])*scale + rnd) >> shift)
		d[1] = clipCoeff((int64(s[1])*scale + rnd) >> shift)
		d[2] = clipCoeff((int64(s[2])*scale + rnd) >> shift)
		d[3] = clipCoeff((int64(s[3])*scale + rnd) >> shift)
	}
	dequant(dst[i:n], src[i:n], scale, shift)
}

func addResidualWide(pix []int16, off, stride int, res []int32, width, height int, maxVal int32) {
	if width < 4 {
		addResidual(pix, off, stride, res, width, height, maxVal)
		return
	}
	for y := 0; y < height; y++ {
		row := pix[off+y*stride : off+y*stride+width]
		r := res[y*width : y*width+width]
		for x := 0; x < width; x += 4 {
			p := row[x : x+4]
			q := r[x : x+4]
			p[0] = int16(clip32(int(p[0])+int(q[0]), 0, maxVal))
			p[1] = int16(clip32(int(p[1])+int(q[1]), 0, maxVal))
			p[2] = int16(clip32(int(p[2])+int(q[2]), 0, maxVal))
			p[3] = int16(clip32(int(p[3])+int(q[3]), 0, maxVal))
		}
	}
}
