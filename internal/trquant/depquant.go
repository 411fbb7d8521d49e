package trquant

// Dependent quantization switches between two scalar quantizers with a
// four-state machine driven by the parity of each level, visited in reverse
// coding order from the last significant position. States 0 and 1 use the
// even reconstruction points 2k, states 2 and 3 the odd ones 2k-sgn(k).

var depQuantNext = [4][2]uint8{{0, 2}, {2, 0}, {1, 3}, {3, 1}}

// scanOrders[lw][lh] lists the raster positions of a 1<<lw by 1<<lh block
// in coding order: up-right diagonal coefficient groups, each scanned
// diagonally.
var scanOrders [maxLog2 + 1][maxLog2 + 1][]uint16

func init() {
	for lw := 0; lw <= maxLog2; lw++ {
		for lh := 0; lh <= maxLog2; lh++ {
			scanOrders[lw][lh] = buildScan(lw, lh)
		}
	}
}

// diagScan returns the up-right diagonal scan of a w x h grid as (x, y)
// pairs.
func diagScan(w, h int) [][2]int {
	out := make([][2]int, 0, w*h)
	for d := 0; len(out) < w*h; d++ {
		for y, x := d, 0; y >= 0; y, x = y-1, x+1 {
			if x < w && y < h {
				out = append(out, [2]int{x, y})
			}
		}
	}
	return out
}

// groupSize returns the log2 coefficient group dimensions of a block.
func groupSize(lw, lh int) (sw, sh int) {
	sw, sh = 2, 2
	if min(lw, lh) < 2 {
		sw, sh = 1, 1
	}
	if lw+lh > 3 {
		switch {
		case lw < 2:
			sw, sh = lw, 4-lw
		case lh < 2:
			sw, sh = 4-lh, lh
		}
	}
	return min(sw, lw), min(sh, lh)
}

func buildScan(lw, lh int) []uint16 {
	sw, sh := groupSize(lw, lh)
	w := 1 << lw
	groups := diagScan(1<<(lw-sw), 1<<(lh-sh))
	inner := diagScan(1<<sw, 1<<sh)
	out := make([]uint16, 0, w<<lh)
	for _, g := range groups {
		for _, c := range inner {
			x := g[0]<<sw + c[0]
			y := g[1]<<sh + c[1]
			out = append(out, uint16(y*w+x))
		}
	}
	return out
}

// depQuantLevels maps the decoded levels src of a 1<<lw by 1<<lh block to
// the reconstruction indices of dependent quantization and stores them in
// dst.
func depQuantLevels(dst, src []int32, lw, lh int) {
	scan := scanOrders[lw][lh]
	last := len(scan) - 1
	for last >= 0 && src[scan[last]] == 0 {
		last--
	}
	clear(dst)
	state := uint8(0)
	for n := last; n >= 0; n-- {
		pos := scan[n]
		k := src[pos]
		v := 2 * k
		if state > 1 {
			switch {
			case k > 0:
				v--
			case k < 0:
				v++
			}
		}
		dst[pos] = v
		state = depQuantNext[state][k&1]
	}
}
