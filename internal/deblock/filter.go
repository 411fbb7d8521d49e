package deblock

import (
	"github.com/deepteams/vvrecon/internal/dsp"
	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

// LoopFilterCTU filters the edges of one direction in the CTU at column
// ctuCol and row ctuRow, luma and chroma, using the classification in st.
//
// Vertical edges of CTUs in different rows, and horizontal edges of CTUs
// in different columns, touch disjoint samples. Within a row (columns) the
// CTUs must be filtered left to right (top to bottom), and all vertical
// edges of a region must be done before its horizontal edges.
func LoopFilterCTU(pic *picture.Picture, st *Strengths, ctuCol, ctuRow int, dir EdgeDir) {
	ctu := &st.ctus[ctuRow*st.cs.CTUCols()+ctuCol]
	area := ctu.area
	chroma := pic.Format != picture.Chroma400
	for y := area.Y; y < area.Bottom(); y += 4 {
		for x := area.X; x < area.Right(); x += 4 {
			lfp := ctu.At(dir, x, y)
			if lfp.Flags&FlagEdge == 0 || lfp.Flags&FlagNoFilter != 0 {
				continue
			}
			if lfp.BS(picture.CompY) > 0 && lfp.MaxLenP > 0 && lfp.MaxLenQ > 0 {
				edgeFilterLuma(pic, st, x, y, lfp, dir)
			}
			if chroma && lfp.Flags&FlagChroma != 0 {
				for c := picture.CompCb; c <= picture.CompCr; c++ {
					if lfp.BS(c) > 0 {
						edgeFilterChroma(pic, st, x, y, lfp, dir, c)
					}
				}
			}
		}
	}
}

// sideQPs returns the luma QPs of the P and Q coding units of the edge
// segment at (x, y).
func sideQPs(cs *unit.CodingStructure, x, y int, dir EdgeDir) (qpP, qpQ int) {
	px, py := x-1, y
	if dir == EdgeHor {
		px, py = x, y-1
	}
	return cs.CUAt(px, py).QP, cs.CUAt(x, y).QP
}

func edgeFilterLuma(pic *picture.Picture, st *Strengths, x, y int, lfp LoopFilterParam, dir EdgeDir) {
	pl := pic.Plane(picture.CompY)
	pix := pl.Pix
	step, along := dir.steps(pl.Stride)
	off := pl.Offset(x, y)
	off3 := off + 3*along
	bd := pic.BitDepth
	params := &st.params

	qpP, qpQ := sideQPs(st.cs, x, y, dir)
	qp := (qpP + qpQ + 1) >> 1
	if params.LADF != nil {
		qp += params.LADF.shift(dsp.LumaLevel(pix, off, step, along))
	}
	bs := lfp.BS(picture.CompY)
	beta, tc := Thresholds(qp, bs, bd, params.BetaOffsetDiv2[picture.CompY], params.TcOffsetDiv2[picture.CompY])

	lenP, lenQ := int(lfp.MaxLenP), int(lfp.MaxLenQ)
	dp0 := dsp.CalcDP(pix, off, step)
	dq0 := dsp.CalcDQ(pix, off, step)
	dp3 := dsp.CalcDP(pix, off3, step)
	dq3 := dsp.CalcDQ(pix, off3, step)

	if lenP > 3 || lenQ > 3 {
		dp0L, dq0L, dp3L, dq3L := dp0, dq0, dp3, dq3
		if lenP > 3 {
			dp0L = (dp0 + dsp.CalcDP(pix, off-3*step, step) + 1) >> 1
			dp3L = (dp3 + dsp.CalcDP(pix, off3-3*step, step) + 1) >> 1
		}
		if lenQ > 3 {
			dq0L = (dq0 + dsp.CalcDQ(pix, off+3*step, step) + 1) >> 1
			dq3L = (dq3 + dsp.CalcDQ(pix, off3+3*step, step) + 1) >> 1
		}
		d0L := dp0L + dq0L
		d3L := dp3L + dq3L
		if d0L+d3L < beta &&
			dsp.UseStrongFiltering(pix, off, step, 2*d0L, beta, tc, lenP, lenQ) &&
			dsp.UseStrongFiltering(pix, off3, step, 2*d3L, beta, tc, lenP, lenQ) {
			for i := 0; i < 4; i++ {
				dsp.FilteringPandQ(pix, off+i*along, step, max(lenP, 3), max(lenQ, 3), tc)
			}
			return
		}
		lenP = min(lenP, 3)
		lenQ = min(lenQ, 3)
	}

	d0 := dp0 + dq0
	d3 := dp3 + dq3
	if d0+d3 >= beta {
		return
	}
	strong := lenP > 2 && lenQ > 2 &&
		dsp.UseStrongFiltering(pix, off, step, 2*d0, beta, tc, 3, 3) &&
		dsp.UseStrongFiltering(pix, off3, step, 2*d3, beta, tc, 3, 3)
	sideThr := (beta + (beta >> 1)) >> 3
	secondP := lenP > 1 && dp0+dp3 < sideThr
	secondQ := lenQ > 1 && dq0+dq3 < sideThr
	maxVal := pic.MaxValue()
	for i := 0; i < 4; i++ {
		dsp.PelFilterLuma(pix, off+i*along, step, tc, strong, 10*tc, secondP, secondQ, maxVal)
	}
}

func edgeFilterChroma(pic *picture.Picture, st *Strengths, x, y int, lfp LoopFilterParam, dir EdgeDir, comp picture.ComponentID) {
	pl := pic.Plane(comp)
	sx, sy := pic.Format.ScaleX(comp), pic.Format.ScaleY(comp)
	step, along := dir.steps(pl.Stride)
	off := pl.Offset(x>>sx, y>>sy)
	lines := 4 >> sy
	if dir == EdgeHor {
		lines = 4 >> sx
	}

	cs := st.cs
	qpP, qpQ := sideQPs(cs, x, y, dir)
	qpi := dsp.Clip3(-unit.QpBdOffset(pic.BitDepth), unit.MaxQP, ((qpP+qpQ+1)>>1)+cs.ChromaQPOffset(comp))
	qpc := unit.ChromaQP(qpi, pic.Format)
	tc := Tc(qpc, lfp.BS(comp), pic.BitDepth, st.params.TcOffsetDiv2[comp])
	if tc == 0 {
		return
	}
	maxVal := pic.MaxValue()
	for i := 0; i < lines; i++ {
		dsp.PelFilterChroma(pl.Pix, off+i*along, step, tc, maxVal)
	}
}
