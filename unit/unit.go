// Package unit describes the coding structure of one picture: coding units,
// their transform units, prediction data and quantized coefficients.
//
// A CodingStructure is built by the syntax decoder, validated once by
// Finalize, and read by the reconstruction core. Nothing in this module
// modifies a finalized structure.
package unit

import "github.com/deepteams/vvrecon/picture"

// PredMode is the prediction mode of a coding unit.
type PredMode uint8

const (
	ModeInter PredMode = iota
	ModeIntra
	ModeIBC
)

func (m PredMode) String() string {
	switch m {
	case ModeInter:
		return "inter"
	case ModeIntra:
		return "intra"
	case ModeIBC:
		return "ibc"
	}
	return "invalid"
}

// TrType selects the 1-D transform applied along one axis.
type TrType uint8

const (
	DCT2 TrType = iota
	DST7
	DCT8
	TransformSkip
)

func (t TrType) String() string {
	switch t {
	case DCT2:
		return "DCT-II"
	case DST7:
		return "DST-VII"
	case DCT8:
		return "DCT-VIII"
	case TransformSkip:
		return "skip"
	}
	return "invalid"
}

// Mv is a motion vector in quarter-sample units.
type Mv struct {
	X, Y int32
}

// Prediction list bits of MotionInfo.Dir.
const (
	DirL0 uint8 = 1 << iota
	DirL1
	DirBi = DirL0 | DirL1
)

// MotionInfo is the motion of a block. RefPic identifies the reference
// picture (for instance its POC) used by each active list.
type MotionInfo struct {
	Dir    uint8
	RefPic [2]int32
	Mv     [2]Mv
}

// NumMv returns the number of motion vectors in use.
func (mi MotionInfo) NumMv() int {
	n := 0
	if mi.Dir&DirL0 != 0 {
		n++
	}
	if mi.Dir&DirL1 != 0 {
		n++
	}
	return n
}

// Area is a rectangle in luma samples.
type Area struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the luma sample (x, y) is inside a.
func (a Area) Contains(x, y int) bool {
	return x >= a.X && y >= a.Y && x < a.X+a.Width && y < a.Y+a.Height
}

// Right returns the first column past a.
func (a Area) Right() int { return a.X + a.Width }

// Bottom returns the first row past a.
func (a Area) Bottom() int { return a.Y + a.Height }

// TransformUnit is a rectangular part of a coding unit with its own
// residual. Coefficients are stored row-major per component at the
// component's resolution and are only read when Cbf is set.
type TransformUnit struct {
	Area
	TrH    [picture.MaxComponents]TrType
	TrV    [picture.MaxComponents]TrType
	Cbf    [picture.MaxComponents]bool
	Coeffs [picture.MaxComponents][]int32
}

// CodingUnit is a leaf of the partition tree.
type CodingUnit struct {
	Area
	Mode PredMode
	Skip bool
	// QP is the luma QpY of the unit, in [-QpBdOffset, 63].
	QP     int
	Motion MotionInfo
	// Subblock marks affine or subblock-temporal motion. SubMotion, when
	// non-nil, holds one entry per 4x4 luma block in raster order.
	Subblock  bool
	SubMotion []MotionInfo
	Slice     int
	Tile      int
	TUs       []TransformUnit
}

// IsIntra reports whether the unit is intra predicted.
func (cu *CodingUnit) IsIntra() bool { return cu.Mode == ModeIntra }

// TUAt returns the transform unit covering luma sample (x, y), or nil.
func (cu *CodingUnit) TUAt(x, y int) *TransformUnit {
	for i := range cu.TUs {
		if cu.TUs[i].Contains(x, y) {
			return &cu.TUs[i]
		}
	}
	return nil
}

// MotionAt returns the motion of the 4x4 block covering luma sample (x, y).
func (cu *CodingUnit) MotionAt(x, y int) MotionInfo {
	if cu.Subblock && cu.SubMotion != nil {
		bx := (x - cu.X) >> 2
		by := (y - cu.Y) >> 2
		return cu.SubMotion[by*(cu.Width>>2)+bx]
	}
	return cu.Motion
}
