package trquant

import (
	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon/internal/dsp"
	"github.com/deepteams/vvrecon/internal/pool"
	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

// ErrMismatch is returned when the picture does not match the coding
// structure it is reconstructed with.
var ErrMismatch = errors.New("trquant: picture does not match coding structure")

// Engine adds the residuals of a coding structure to the prediction in a
// picture. Distinct CTUs touch disjoint samples, so ReconstructCTU may run
// concurrently for different addresses.
type Engine struct {
	pic *picture.Picture
	cs  *unit.CodingStructure
}

// NewEngine binds a picture holding the prediction samples to a finalized
// coding structure.
func NewEngine(pic *picture.Picture, cs *unit.CodingStructure) (*Engine, error) {
	if !cs.Finalized() {
		return nil, errors.Wrap(ErrMismatch, "coding structure not finalized")
	}
	if pic.Width() != cs.Width || pic.Height() != cs.Height ||
		pic.Format != cs.Format || pic.BitDepth != cs.BitDepth {
		return nil, errors.Wrapf(ErrMismatch, "picture %dx%d %v %d-bit, structure %dx%d %v %d-bit",
			pic.Width(), pic.Height(), pic.Format, pic.BitDepth,
			cs.Width, cs.Height, cs.Format, cs.BitDepth)
	}
	return &Engine{pic: pic, cs: cs}, nil
}

// ComponentQP returns the effective QP of component comp in cu.
func ComponentQP(cs *unit.CodingStructure, cu *unit.CodingUnit, comp picture.ComponentID) int {
	off := unit.QpBdOffset(cs.BitDepth)
	if comp.IsLuma() {
		return cu.QP + off
	}
	qpi := dsp.Clip3(-off, unit.MaxQP, cu.QP+cs.ChromaQPOffset(comp))
	return unit.ChromaQP(qpi, cs.Format) + off
}

// ReconstructTU adds the residual of every coded component of tu.
func (e *Engine) ReconstructTU(cu *unit.CodingUnit, tu *unit.TransformUnit) error {
	format := e.cs.Format
	maxVal := int32(e.pic.MaxValue())
	for c := picture.CompY; int(c) < format.NumComponents(); c++ {
		if !tu.Cbf[c] {
			continue
		}
		sx, sy := format.ScaleX(c), format.ScaleY(c)
		p := BlockParams{
			Width:    tu.Width >> sx,
			Height:   tu.Height >> sy,
			TrH:      tu.TrH[c],
			TrV:      tu.TrV[c],
			QP:       ComponentQP(e.cs, cu, c),
			BitDepth: e.cs.BitDepth,
			DepQuant: e.cs.DepQuant,
		}
		n := p.Width * p.Height
		res := pool.GetInt32(n)
		if err := InverseTransform(res, tu.Coeffs[c], p); err != nil {
			pool.PutInt32(res)
			return errors.Wrapf(err, "%v block at (%d,%d)", c, tu.X, tu.Y)
		}
		pl := e.pic.Plane(c)
		dsp.AddResidual(pl.Pix, pl.Offset(tu.X>>sx, tu.Y>>sy), pl.Stride, res, p.Width, p.Height, maxVal)
		pool.PutInt32(res)
	}
	return nil
}

// ReconstructCU adds the residuals of all transform units of cu. Skipped
// units carry no residual.
func (e *Engine) ReconstructCU(cu *unit.CodingUnit) error {
	if cu.Skip {
		return nil
	}
	for i := range cu.TUs {
		if err := e.ReconstructTU(cu, &cu.TUs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReconstructCTU adds the residuals of the coding units of one CTU.
func (e *Engine) ReconstructCTU(addr int) error {
	for _, idx := range e.cs.CTUUnits(addr) {
		if err := e.ReconstructCU(&e.cs.CUs[idx]); err != nil {
			return errors.Wrapf(err, "CTU %d", addr)
		}
	}
	return nil
}

// ReconstructPicture adds every residual of the structure in CTU raster
// order.
func (e *Engine) ReconstructPicture() error {
	for addr := 0; addr < e.cs.NumCTUs(); addr++ {
		if err := e.ReconstructCTU(addr); err != nil {
			return err
		}
	}
	return nil
}
