// Package deblock implements the deblocking stage: the boundary strength
// calculator, which classifies every 4-sample edge segment of a CTU from
// coding data alone, and the edge filter engine, which smooths the picture
// along the segments classified as filterable.
//
// The two stages are separate types. Strength computation works on a
// unit.CodingStructure and never sees a picture; filtering reads the
// finished Strengths. Deblocking a picture is therefore three phases:
// strengths for every CTU, vertical edges for every CTU, horizontal edges
// for every CTU.
package deblock

import (
	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

// ErrNotFinalized is returned by NewStrengths for a structure that has not
// passed unit.CodingStructure.Finalize.
var ErrNotFinalized = errors.New("deblock: coding structure not finalized")

// SmallestBlock is the smallest block side that can be filtered.
const SmallestBlock = 8

// EdgeDir is an edge direction. Vertical edges are filtered horizontally
// and horizontal edges vertically.
type EdgeDir uint8

const (
	EdgeVer EdgeDir = iota
	EdgeHor
	NumEdgeDirs
)

func (d EdgeDir) String() string {
	switch d {
	case EdgeVer:
		return "vertical"
	case EdgeHor:
		return "horizontal"
	}
	return "invalid"
}

// steps returns the distance between samples across the edge and between
// consecutive lines along the edge, for a plane with the given stride.
func (d EdgeDir) steps(stride int) (step, along int) {
	if d == EdgeVer {
		return 1, stride
	}
	return stride, 1
}

// Flags describe an edge segment.
type Flags uint8

const (
	// FlagEdge marks a CU, TU or subblock edge.
	FlagEdge Flags = 1 << iota
	FlagCUEdge
	FlagTUEdge
	// FlagNoFilter marks an edge on a tile, slice or virtual boundary that
	// may not be filtered across.
	FlagNoFilter
	// FlagPQSameCTU is set when the P side lies in the same CTU.
	FlagPQSameCTU
	// FlagChroma marks an edge on the 8-sample chroma grid.
	FlagChroma
)

// LoopFilterParam classifies one 4-sample edge segment.
type LoopFilterParam struct {
	bs uint8 // 2 bits per component
	// MaxLenP and MaxLenQ are the luma filter lengths per side: 0
	// (unfilterable), 2, 3, 5 or 7.
	MaxLenP uint8
	MaxLenQ uint8
	Flags   Flags
}

// BS returns the boundary strength of comp, 0 to 2.
func (p LoopFilterParam) BS(comp picture.ComponentID) int {
	return int(p.bs>>(2*comp)) & 3
}

func (p *LoopFilterParam) setBS(comp picture.ComponentID, bs int) {
	p.bs = p.bs&^(3<<(2*comp)) | uint8(bs)<<(2*comp)
}

// Has reports whether all of f are set.
func (p LoopFilterParam) Has(f Flags) bool { return p.Flags&f == f }

// CtuData owns the edge segments of one CTU in both directions, one entry
// per 4x4 luma block. The entry of a block describes its left edge
// (EdgeVer) and its top edge (EdgeHor).
type CtuData struct {
	area   unit.Area
	size   int // entries per row and column
	params [NumEdgeDirs][]LoopFilterParam
}

func newCtuData(area unit.Area, ctuSize int) CtuData {
	n := ctuSize >> 2
	c := CtuData{area: area, size: n}
	for d := range c.params {
		c.params[d] = make([]LoopFilterParam, n*n)
	}
	return c
}

// Area returns the luma area of the CTU.
func (c *CtuData) Area() unit.Area { return c.area }

func (c *CtuData) index(x, y int) int {
	return ((y-c.area.Y)>>2)*c.size + (x-c.area.X)>>2
}

// At returns the segment of the 4x4 block at luma sample (x, y).
func (c *CtuData) At(dir EdgeDir, x, y int) LoopFilterParam {
	return c.params[dir][c.index(x, y)]
}

func (c *CtuData) at(dir EdgeDir, x, y int) *LoopFilterParam {
	return &c.params[dir][c.index(x, y)]
}

func (c *CtuData) reset() {
	for d := range c.params {
		clear(c.params[d])
	}
}

// LADFInterval is one luma level interval of the adaptive QP offset.
type LADFInterval struct {
	// LowerBound is the luma level, at the picture bit depth, above which
	// QPOffset applies.
	LowerBound int
	QPOffset   int
}

// LADFParams configures the luma-adaptive QP offset. The offset of the
// last interval whose lower bound is below the local luma level is added
// to the averaged QP before both threshold lookups.
type LADFParams struct {
	LowestIntervalQPOffset int
	// Intervals are sorted by increasing LowerBound.
	Intervals []LADFInterval
}

func (l *LADFParams) shift(lumaLevel int) int {
	s := l.LowestIntervalQPOffset
	for _, iv := range l.Intervals {
		if lumaLevel <= iv.LowerBound {
			break
		}
		s = iv.QPOffset
	}
	return s
}

// Params is the deblocking configuration of a picture.
type Params struct {
	// Disable turns the filter off for the picture.
	Disable bool
	// BetaOffsetDiv2 and TcOffsetDiv2 are per-component threshold offsets.
	BetaOffsetDiv2 [picture.MaxComponents]int
	TcOffsetDiv2   [picture.MaxComponents]int
	// AcrossTiles, AcrossSlices and AcrossVirtual allow filtering edges
	// that lie on the respective boundary.
	AcrossTiles   bool
	AcrossSlices  bool
	AcrossVirtual bool
	// VirtualVer and VirtualHor are luma positions of vertical and
	// horizontal virtual boundaries.
	VirtualVer []int
	VirtualHor []int
	// LADF enables the luma-adaptive QP offset when non-nil.
	LADF *LADFParams
}

// Strengths holds the edge classification of every CTU of a picture. It is
// produced by NewStrengths and filled by CalcFilterStrengthsCTU.
type Strengths struct {
	cs     *unit.CodingStructure
	params Params
	ctus   []CtuData
}

// NewStrengths allocates the per-CTU edge grids of cs.
func NewStrengths(cs *unit.CodingStructure, params Params) (*Strengths, error) {
	if !cs.Finalized() {
		return nil, ErrNotFinalized
	}
	s := &Strengths{
		cs:     cs,
		params: params,
		ctus:   make([]CtuData, cs.NumCTUs()),
	}
	for addr := range s.ctus {
		s.ctus[addr] = newCtuData(cs.CTUArea(addr), cs.CTUSize)
	}
	return s, nil
}

// Params returns the configuration the strengths were built with.
func (s *Strengths) Params() *Params { return &s.params }

// CTU returns the edge grid of the CTU at raster address addr.
func (s *Strengths) CTU(addr int) *CtuData { return &s.ctus[addr] }

// At returns the segment of the 4x4 luma block containing (x, y).
func (s *Strengths) At(dir EdgeDir, x, y int) LoopFilterParam {
	cols := s.cs.CTUCols()
	addr := (y/s.cs.CTUSize)*cols + x/s.cs.CTUSize
	return s.ctus[addr].At(dir, x, y)
}
