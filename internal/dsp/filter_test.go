package dsp

import (
	"math/rand"
	"testing"
)

// stepLine returns 16 samples with an edge between index 7 and 8; off is
// the index of q0.
func stepLine(pv, qv int16) ([]int16, int) {
	line := make([]int16, 16)
	for i := range line {
		if i < 8 {
			line[i] = pv
		} else {
			line[i] = qv
		}
	}
	return line, 8
}

func TestCalcDPDQ(t *testing.T) {
	line := []int16{0, 0, 0, 0, 10, 20, 40, 50, 70, 80, 80, 80}
	off := 8
	// p2=20 p1=40 p0=50: |20-80+50| = 10.
	if got := CalcDP(line, off, 1); got != 10 {
		t.Errorf("CalcDP = %d, want 10", got)
	}
	// q0=70 q1=80 q2=80: |70-160+80| = 10.
	if got := CalcDQ(line, off, 1); got != 10 {
		t.Errorf("CalcDQ = %d, want 10", got)
	}
}

func TestUseStrongFiltering(t *testing.T) {
	flat, off := stepLine(128, 128)
	if !UseStrongFiltering(flat, off, 1, 0, 26, 3, 3, 3) {
		t.Error("flat line should use the strong filter")
	}
	step, off := stepLine(100, 160)
	if UseStrongFiltering(step, off, 1, 0, 26, 3, 3, 3) {
		t.Error("a 60-level step should not use the strong filter at tc=3")
	}
	// A small step passes |p0-q0| < (5tc+1)/2 = 8.
	small, off := stepLine(100, 105)
	if !UseStrongFiltering(small, off, 1, 0, 26, 3, 3, 3) {
		t.Error("a 5-level step should use the strong filter")
	}
	if UseStrongFiltering(small, off, 1, 8, 26, 3, 3, 3) {
		t.Error("d >= beta/4 must reject the strong filter")
	}
	if !UseStrongFiltering(small, off, 1, 0, 26, 3, 7, 7) {
		t.Error("long sides on flat halves should pass the extended check")
	}
}

func TestPelFilterLumaWeak(t *testing.T) {
	line, off := stepLine(100, 160)
	PelFilterLuma(line, off, 1, 3, false, 30, true, true, 255)
	want := []int16{100, 100, 100, 100, 100, 100, 101, 103, 157, 159, 160, 160, 160, 160, 160, 160}
	for i := range want {
		if line[i] != want[i] {
			t.Fatalf("sample %d = %d, want %d (line %v)", i, line[i], want[i], line)
		}
	}

	// The same step without second-sample flags only moves p0 and q0.
	line, off = stepLine(100, 160)
	PelFilterLuma(line, off, 1, 3, false, 30, false, false, 255)
	if line[6] != 100 || line[7] != 103 || line[8] != 157 || line[9] != 160 {
		t.Fatalf("got %v", line[6:10])
	}

	// |delta| = 23 >= thrCut leaves the line alone.
	line, off = stepLine(100, 160)
	PelFilterLuma(line, off, 1, 2, false, 20, true, true, 255)
	for i := 0; i < 8; i++ {
		if line[i] != 100 || line[8+i] != 160 {
			t.Fatalf("natural edge was filtered: %v", line)
		}
	}
}

func TestPelFilterLumaStrong(t *testing.T) {
	flat, off := stepLine(128, 128)
	PelFilterLuma(flat, off, 1, 5, true, 50, true, true, 255)
	for i, v := range flat {
		if v != 128 {
			t.Fatalf("flat sample %d = %d, want 128", i, v)
		}
	}

	line, off := stepLine(100, 106)
	orig := append([]int16(nil), line...)
	tc := 2
	PelFilterLuma(line, off, 1, tc, true, 10*tc, true, true, 255)
	limits := []int{tc, 2 * tc, 3 * tc, 3 * tc, 2 * tc, tc}
	for i, lim := range limits {
		idx := off - 3 + i
		if d := Abs(int(line[idx]) - int(orig[idx])); d > lim {
			t.Errorf("sample %d moved by %d, limit %d", idx, d, lim)
		}
	}
	if line[off-1] <= orig[off-1] || line[off] >= orig[off] {
		t.Errorf("strong filter did not smooth the step: %v", line)
	}
}

func TestFilteringPandQ(t *testing.T) {
	sizes := [][2]int{{7, 7}, {5, 5}, {7, 5}, {5, 7}, {3, 5}, {5, 3}, {3, 7}, {7, 3}}
	for _, sz := range sizes {
		flat, off := stepLine(512, 512)
		FilteringPandQ(flat, off, 1, sz[0], sz[1], 20)
		for i, v := range flat {
			if v != 512 {
				t.Fatalf("%v: flat sample %d = %d", sz, i, v)
			}
		}

		line, off := stepLine(400, 440)
		orig := append([]int16(nil), line...)
		tc := 8
		FilteringPandQ(line, off, 1, sz[0], sz[1], tc)
		_, tcP := longWeights(sz[0])
		_, tcQ := longWeights(sz[1])
		for i := 0; i < sz[0]; i++ {
			idx := off - 1 - i
			if d := Abs(int(line[idx]) - int(orig[idx])); d > (tc*tcP[i])>>1 {
				t.Errorf("%v: p%d moved by %d", sz, i, d)
			}
		}
		for i := 0; i < sz[1]; i++ {
			idx := off + i
			if d := Abs(int(line[idx]) - int(orig[idx])); d > (tc*tcQ[i])>>1 {
				t.Errorf("%v: q%d moved by %d", sz, i, d)
			}
		}
		if line[off-1] == orig[off-1] && line[off] == orig[off] {
			t.Errorf("%v: long filter did not touch the edge", sz)
		}
		// Samples past the side lengths are never written.
		if line[off-1-sz[0]] != orig[off-1-sz[0]] {
			t.Errorf("%v: wrote past the P side", sz)
		}
		if off+sz[1] < len(line) && line[off+sz[1]] != orig[off+sz[1]] {
			t.Errorf("%v: wrote past the Q side", sz)
		}
	}
}

func TestFilteringPandQValues(t *testing.T) {
	src := []int16{90, 92, 94, 96, 98, 100, 110, 120, 200, 204, 208, 212, 216, 220, 224, 228}
	tests := []struct {
		numP, numQ int
		want       []int16
	}{
		{7, 7, []int16{90, 96, 105, 115, 124, 133, 143, 152, 162, 172, 182, 192, 201, 211, 221, 228}},
		{5, 5, []int16{90, 92, 94, 101, 113, 126, 139, 151, 163, 175, 188, 200, 212, 220, 224, 228}},
		{7, 5, []int16{90, 96, 105, 115, 124, 133, 143, 152, 163, 175, 188, 200, 212, 220, 224, 228}},
		{5, 7, []int16{90, 92, 94, 101, 113, 126, 139, 151, 162, 172, 182, 192, 201, 211, 221, 228}},
		{3, 5, []int16{90, 92, 94, 96, 98, 109, 128, 147, 163, 175, 188, 200, 212, 220, 224, 228}},
		{5, 3, []int16{90, 92, 94, 101, 113, 126, 139, 151, 166, 184, 201, 212, 216, 220, 224, 228}},
		{3, 7, []int16{90, 92, 94, 96, 98, 111, 133, 154, 171, 179, 188, 196, 204, 213, 221, 228}},
		{7, 3, []int16{90, 96, 104, 112, 120, 128, 136, 144, 159, 180, 200, 212, 216, 220, 224, 228}},
	}
	for _, tt := range tests {
		line := append([]int16(nil), src...)
		FilteringPandQ(line, 8, 1, tt.numP, tt.numQ, 40)
		for i := range tt.want {
			if line[i] != tt.want[i] {
				t.Errorf("%d/%d: sample %d = %d, want %d (line %v)", tt.numP, tt.numQ, i, line[i], tt.want[i], line)
				break
			}
		}
	}

	// A raised p0 next to a short Q side weights p0 three times.
	line, off := stepLine(100, 200)
	line[off-1] = 120
	FilteringPandQ(line, off, 1, 7, 3, 100)
	want := []int16{100, 104, 111, 117, 124, 131, 138, 144, 157, 174, 191, 200}
	for i := range want {
		if line[i] != want[i] {
			t.Fatalf("7/3 sample %d = %d, want %d (line %v)", i, line[i], want[i], line)
		}
	}
}

func TestPelFilterChroma(t *testing.T) {
	line, off := stepLine(100, 160)
	PelFilterChroma(line, off, 1, 3, 255)
	want := []int16{100, 100, 103, 157, 160, 160}
	if got := line[off-3 : off+3]; got[0] != want[0] || got[1] != want[1] || got[2] != want[2] ||
		got[3] != want[3] || got[4] != want[4] || got[5] != want[5] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// TestFilterStepAgnostic checks that filtering across rows (step = stride)
// gives the same result as filtering along a row.
func TestFilterStepAgnostic(t *testing.T) {
	rng := rand.New(rand.NewSource(46))
	const stride = 5
	for iter := 0; iter < 200; iter++ {
		row := makeRandPels(rng, 16, 1023)
		col := make([]int16, 16*stride)
		for i, v := range row {
			col[i*stride+2] = v
		}
		tc := 1 + rng.Intn(20)
		strong := rng.Intn(2) == 0
		PelFilterLuma(row, 8, 1, tc, strong, 10*tc, true, true, 1023)
		PelFilterLuma(col, 8*stride+2, stride, tc, strong, 10*tc, true, true, 1023)
		FilteringPandQ(row, 8, 1, 7, 5, tc)
		FilteringPandQ(col, 8*stride+2, stride, 7, 5, tc)
		for i, v := range row {
			if col[i*stride+2] != v {
				t.Fatalf("iter %d, sample %d: row=%d col=%d", iter, i, v, col[i*stride+2])
			}
		}
	}
}

func TestLumaLevel(t *testing.T) {
	const stride = 4
	p := make([]int16, stride*4)
	for y := 0; y < 4; y++ {
		p[y*stride+1] = int16(10 * (y + 1)) // p0
		p[y*stride+2] = int16(20 * (y + 1)) // q0
	}
	// (q0[0] + q0[3] + p0[0] + p0[3]) >> 2 = (20 + 80 + 10 + 40) >> 2.
	if got := LumaLevel(p, 2, 1, stride); got != 37 {
		t.Errorf("LumaLevel = %d, want 37", got)
	}
}
