package deblock

import (
	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

// ErrMismatch is returned when a picture does not match its coding
// structure.
var ErrMismatch = errors.New("deblock: picture does not match coding structure")

// CheckPicture reports whether pic can be deblocked with cs.
func CheckPicture(pic *picture.Picture, cs *unit.CodingStructure) error {
	if pic.Width() != cs.Width || pic.Height() != cs.Height ||
		pic.Format != cs.Format || pic.BitDepth != cs.BitDepth {
		return errors.Wrapf(ErrMismatch, "picture %dx%d %v %d-bit, structure %dx%d %v %d-bit",
			pic.Width(), pic.Height(), pic.Format, pic.BitDepth,
			cs.Width, cs.Height, cs.Format, cs.BitDepth)
	}
	return nil
}

// Run deblocks pic on a single goroutine: strengths of all CTUs, then all
// vertical edges, then all horizontal edges.
func Run(pic *picture.Picture, cs *unit.CodingStructure, params Params) error {
	if params.Disable {
		return nil
	}
	if err := CheckPicture(pic, cs); err != nil {
		return err
	}
	st, err := NewStrengths(cs, params)
	if err != nil {
		return err
	}
	for addr := 0; addr < cs.NumCTUs(); addr++ {
		st.CalcFilterStrengthsCTU(addr)
	}
	for dir := EdgeVer; dir < NumEdgeDirs; dir++ {
		for row := 0; row < cs.CTURows(); row++ {
			for col := 0; col < cs.CTUCols(); col++ {
				LoopFilterCTU(pic, st, col, row, dir)
			}
		}
	}
	return nil
}
