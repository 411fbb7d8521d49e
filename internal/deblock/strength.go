package deblock

import (
	"slices"

	"github.com/deepteams/vvrecon/internal/dsp"
	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

// mvThreshold is the motion vector difference, in quarter samples, from
// which two sides count as differently predicted.
const mvThreshold = 4

// Subblock motion caps the filter length at CU edges.
const subblockMaxLen = 5

// CalcFilterStrengthsCTU classifies every edge segment of the CTU at
// raster address addr in both directions. It reads coding data only and
// overwrites the CTU's previous classification, so repeated calls give the
// same result. Calls for different CTUs are independent.
func (s *Strengths) CalcFilterStrengthsCTU(addr int) {
	ctu := &s.ctus[addr]
	ctu.reset()
	for _, idx := range s.cs.CTUUnits(addr) {
		cu := &s.cs.CUs[idx]
		for dir := EdgeVer; dir < NumEdgeDirs; dir++ {
			s.markEdges(ctu, cu, dir)
			s.deriveParams(ctu, cu, dir)
		}
	}
}

// markEdges flags the transform unit borders of cu, and its 8-sample
// subblock grid when it uses subblock motion. Picture borders are skipped.
func (s *Strengths) markEdges(ctu *CtuData, cu *unit.CodingUnit, dir EdgeDir) {
	for i := range cu.TUs {
		tu := &cu.TUs[i]
		if dir == EdgeVer {
			if tu.X == 0 {
				continue
			}
			for y := tu.Y; y < tu.Bottom(); y += 4 {
				lfp := ctu.at(dir, tu.X, y)
				lfp.Flags |= FlagEdge | FlagTUEdge
				if tu.X == cu.X {
					lfp.Flags |= FlagCUEdge
				}
			}
		} else {
			if tu.Y == 0 {
				continue
			}
			for x := tu.X; x < tu.Right(); x += 4 {
				lfp := ctu.at(dir, x, tu.Y)
				lfp.Flags |= FlagEdge | FlagTUEdge
				if tu.Y == cu.Y {
					lfp.Flags |= FlagCUEdge
				}
			}
		}
	}
	if !cu.Subblock {
		return
	}
	if dir == EdgeVer {
		for x := cu.X + 8; x < cu.Right(); x += 8 {
			for y := cu.Y; y < cu.Bottom(); y += 4 {
				ctu.at(dir, x, y).Flags |= FlagEdge
			}
		}
	} else {
		for y := cu.Y + 8; y < cu.Bottom(); y += 8 {
			for x := cu.X; x < cu.Right(); x += 4 {
				ctu.at(dir, x, y).Flags |= FlagEdge
			}
		}
	}
}

// deriveParams fills strength, lengths and boundary flags of every edge
// segment flagged inside cu.
func (s *Strengths) deriveParams(ctu *CtuData, cu *unit.CodingUnit, dir EdgeDir) {
	cs := s.cs
	format := cs.Format
	for y := cu.Y; y < cu.Bottom(); y += 4 {
		for x := cu.X; x < cu.Right(); x += 4 {
			lfp := ctu.at(dir, x, y)
			if lfp.Flags&FlagEdge == 0 {
				continue
			}
			px, py := x-1, y
			pos, cuPos, cuSize := x, cu.X, cu.Width
			if dir == EdgeHor {
				px, py = x, y-1
				pos, cuPos, cuSize = y, cu.Y, cu.Height
			}
			pCU := cs.CUAt(px, py)
			if pos%cs.CTUSize != 0 {
				lfp.Flags |= FlagPQSameCTU
			}
			if s.noFilter(pCU, cu, pos, dir) {
				lfp.Flags |= FlagNoFilter
			}
			if format != picture.Chroma400 {
				scale := format.ScaleX(picture.CompCb)
				if dir == EdgeHor {
					scale = format.ScaleY(picture.CompCb)
				}
				if (pos>>scale)%SmallestBlock == 0 {
					lfp.Flags |= FlagChroma
				}
			}

			tuEdge := lfp.Flags&FlagTUEdge != 0
			var pTU, qTU *unit.TransformUnit
			if tuEdge {
				pTU = pCU.TUAt(px, py)
				qTU = cu.TUAt(x, y)
			}

			// Boundary strength.
			if pCU.IsIntra() || cu.IsIntra() {
				for c := picture.CompY; int(c) < format.NumComponents(); c++ {
					lfp.setBS(c, 2)
				}
			} else {
				if tuEdge && (pTU.Cbf[picture.CompY] || qTU.Cbf[picture.CompY]) {
					lfp.setBS(picture.CompY, 1)
				} else {
					lfp.setBS(picture.CompY, motionBS(pCU.Mode, cu.Mode, pCU.MotionAt(px, py), cu.MotionAt(x, y)))
				}
				if tuEdge {
					for c := picture.CompCb; int(c) < format.NumComponents(); c++ {
						if pTU.Cbf[c] || qTU.Cbf[c] {
							lfp.setBS(c, 1)
						}
					}
				}
			}

			// Filter lengths.
			var lenP, lenQ int
			if off := pos - cuPos; cu.Subblock && off > 0 && off%8 == 0 {
				lenP = subblockLen(ctu, cu, dir, x, y, off, cuSize)
				lenQ = lenP
			} else {
				lenP = tuLen(pTU, dir)
				lenQ = tuLen(qTU, dir)
				if lfp.Flags&FlagCUEdge != 0 {
					if cu.Subblock {
						lenQ = min(lenQ, subblockMaxLen)
					}
					if pCU.Subblock {
						lenP = min(lenP, subblockMaxLen)
					}
				}
			}
			// Horizontal CTU boundaries keep the P side short.
			if dir == EdgeHor && lfp.Flags&FlagPQSameCTU == 0 {
				lenP = min(lenP, 3)
			}
			lfp.MaxLenP = uint8(lenP)
			lfp.MaxLenQ = uint8(lenQ)
		}
	}
}

// noFilter reports whether the edge at pos between pCU and qCU lies on a
// boundary that may not be filtered across.
func (s *Strengths) noFilter(pCU, qCU *unit.CodingUnit, pos int, dir EdgeDir) bool {
	p := &s.params
	if pCU.Tile != qCU.Tile && !p.AcrossTiles {
		return true
	}
	if pCU.Slice != qCU.Slice && !p.AcrossSlices {
		return true
	}
	if p.AcrossVirtual {
		return false
	}
	if dir == EdgeVer {
		return slices.Contains(p.VirtualVer, pos)
	}
	return slices.Contains(p.VirtualHor, pos)
}

// tuLen maps the transform block side across the edge to a filter length.
// A nil unit (no transform edge) cannot be filtered.
func tuLen(tu *unit.TransformUnit, dir EdgeDir) int {
	if tu == nil {
		return 0
	}
	n := tu.Width
	if dir == EdgeHor {
		n = tu.Height
	}
	switch {
	case n < SmallestBlock:
		return 0
	case n < 32:
		return 3
	}
	return 7
}

// subblockLen returns the length of an internal subblock edge at offset
// off from the CU origin: shorter next to transform edges and the CU
// border, none when a transform edge is 4 samples away.
func subblockLen(ctu *CtuData, cu *unit.CodingUnit, dir EdgeDir, x, y, off, cuSize int) int {
	tuEdgeAt := func(d int) bool {
		if dir == EdgeVer {
			return ctu.At(dir, x+d, y).Flags&FlagTUEdge != 0
		}
		return ctu.At(dir, x, y+d).Flags&FlagTUEdge != 0
	}
	switch {
	case tuEdgeAt(-4) || tuEdgeAt(4):
		return 0
	case off == 8 || off+8 >= cuSize || tuEdgeAt(-8) || tuEdgeAt(8):
		return 2
	}
	return 3
}

// motionBS compares the prediction of the two sides of an inter or IBC
// edge without coded residual.
func motionBS(pMode, qMode unit.PredMode, p, q unit.MotionInfo) int {
	if pMode != qMode {
		return 1
	}
	n := p.NumMv()
	if n != q.NumMv() {
		return 1
	}
	if n == 1 {
		pRef, pMv := single(p)
		qRef, qMv := single(q)
		if pRef != qRef || mvDiffers(pMv, qMv) {
			return 1
		}
		return 0
	}

	p0, p1 := p.RefPic[0], p.RefPic[1]
	q0, q1 := q.RefPic[0], q.RefPic[1]
	if !(p0 == q0 && p1 == q1) && !(p0 == q1 && p1 == q0) {
		return 1
	}
	if p0 != p1 {
		if p0 == q0 {
			return b2i(mvDiffers(p.Mv[0], q.Mv[0]) || mvDiffers(p.Mv[1], q.Mv[1]))
		}
		return b2i(mvDiffers(p.Mv[0], q.Mv[1]) || mvDiffers(p.Mv[1], q.Mv[0]))
	}
	// Both lists use the same picture: either pairing may match.
	straight := mvDiffers(p.Mv[0], q.Mv[0]) || mvDiffers(p.Mv[1], q.Mv[1])
	cross := mvDiffers(p.Mv[0], q.Mv[1]) || mvDiffers(p.Mv[1], q.Mv[0])
	return b2i(straight && cross)
}

func single(mi unit.MotionInfo) (int32, unit.Mv) {
	if mi.Dir&unit.DirL0 != 0 {
		return mi.RefPic[0], mi.Mv[0]
	}
	return mi.RefPic[1], mi.Mv[1]
}

func mvDiffers(a, b unit.Mv) bool {
	return dsp.Abs(int(a.X-b.X)) >= mvThreshold || dsp.Abs(int(a.Y-b.Y)) >= mvThreshold
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
