package dsp

// dequant scales quantized levels. Zero levels stay zero without touching
// the multiplier, which dominates in sparse blocks.
func dequant(dst, src []int32, scale int64, shift uint) {
	rnd := int64(1) << shift >> 1
	for i, v := range src {
		if v == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = clipCoeff((int64(v)*scale + rnd) >> shift)
	}
}

// addResidual adds res to the prediction samples in place.
func addResidual(pix []int16, off, stride int, res []int32, width, height int, maxVal int32) {
	for y := 0; y < height; y++ {
		row := pix[off+y*stride : off+y*stride+width]
		r := res[y*width : y*width+width]
		for x := range row {
			row[x] = int16(clip32(int(row[x])+int(r[x]), 0, maxVal))
		}
	}
}
