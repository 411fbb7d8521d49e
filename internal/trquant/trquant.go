// Package trquant turns quantized transform coefficients into residual
// samples and adds them to the prediction held in the picture planes.
//
// A block goes through three stages: dequantization, the vertical inverse
// transform (intermediate values rounded by 7 bits and clipped to 16 bits)
// and the horizontal inverse transform (rounded by 20-bitDepth bits and
// clipped to 16 bits). Transform skip blocks stop after dequantization.
package trquant

import (
	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon/internal/dsp"
	"github.com/deepteams/vvrecon/internal/pool"
	"github.com/deepteams/vvrecon/unit"
)

var (
	// ErrNoKernel is returned for a size and transform type combination
	// without a kernel. Validated coding structures never produce it.
	ErrNoKernel = errors.New("trquant: no kernel for transform size and type")
	// ErrBufferSize is returned when a coefficient or residual buffer does
	// not match the block size.
	ErrBufferSize = errors.New("trquant: buffer size does not match block")
)

const (
	firstPassShift = 7
	// tsMinQP is the smallest QP used by transform skip blocks.
	tsMinQP = 4
	// tsShift is the dequantization shift of transform skip blocks.
	tsShift = 10
	maxLog2 = 6
)

// levelScale is indexed by rectangular-block flag and qp%6. The second row
// folds in the 1/sqrt(2) normalisation of blocks with an odd log2 area.
var levelScale = [2][6]int64{
	{40, 45, 51, 57, 64, 72},
	{57, 64, 72, 80, 90, 102},
}

// BlockParams describes one component block.
type BlockParams struct {
	Width, Height int
	TrH, TrV      unit.TrType
	// QP is the effective QP including the bit-depth offset, qP in
	// [0, 63+QpBdOffset].
	QP       int
	BitDepth int
	// DepQuant marks levels coded with dependent quantization. They are
	// mapped through the quantizer state machine in coding order and
	// scaled one QP step finer. It has no effect on transform skip blocks.
	DepQuant bool
}

func (p *BlockParams) skip() bool {
	return p.TrH == unit.TransformSkip
}

func family(t unit.TrType) dsp.Family {
	switch t {
	case unit.DST7:
		return dsp.FamilyDST7
	case unit.DCT8:
		return dsp.FamilyDCT8
	}
	return dsp.FamilyDCT2
}

func log2Size(n int) int {
	l := 0
	for 1<<l < n {
		l++
	}
	if 1<<l != n {
		return -1
	}
	return l
}

// kernels returns the horizontal and vertical kernels of p, or nil for
// transform skip blocks.
func kernels(p *BlockParams) (hor, ver dsp.InvTransFunc, err error) {
	lw, lh := log2Size(p.Width), log2Size(p.Height)
	if lw < 1 || lh < 1 || lw > maxLog2 || lh > maxLog2 {
		return nil, nil, errors.Wrapf(ErrNoKernel, "%dx%d", p.Width, p.Height)
	}
	if p.TrH > unit.TransformSkip || p.TrV > unit.TransformSkip {
		return nil, nil, errors.Wrapf(ErrNoKernel, "transform type %d/%d", p.TrH, p.TrV)
	}
	if p.TrH == unit.TransformSkip || p.TrV == unit.TransformSkip {
		if p.TrH != p.TrV || p.Width > unit.MaxMTSSize || p.Height > unit.MaxMTSSize {
			return nil, nil, errors.Wrapf(ErrNoKernel, "transform skip %s/%s at %dx%d", p.TrH, p.TrV, p.Width, p.Height)
		}
		return nil, nil, nil
	}
	hor = dsp.InvTrans[family(p.TrH)][lw]
	ver = dsp.InvTrans[family(p.TrV)][lh]
	if hor == nil || ver == nil {
		return nil, nil, errors.Wrapf(ErrNoKernel, "%s/%s at %dx%d", p.TrH, p.TrV, p.Width, p.Height)
	}
	return hor, ver, nil
}

// dequantParams returns the scale and shift of p.
func dequantParams(p *BlockParams) (scale int64, shift uint) {
	qp := p.QP
	if p.skip() {
		qp = max(qp, tsMinQP)
		return 16 * levelScale[0][qp%6] << uint(qp/6), tsShift
	}
	lw, lh := log2Size(p.Width), log2Size(p.Height)
	rect := (lw + lh) & 1
	dq := 0
	if p.DepQuant {
		dq = 1
	}
	qp += dq
	scale = 16 * levelScale[rect][qp%6] << uint(qp/6)
	return scale, uint(p.BitDepth + rect + (lw+lh)/2 - 5 + dq)
}

// InverseTransform dequantizes the row-major coefficient block coeffs and
// writes the residual block to dst, also row-major. Both slices must hold
// Width*Height elements.
func InverseTransform(dst, coeffs []int32, p BlockParams) error {
	hor, ver, err := kernels(&p)
	if err != nil {
		return err
	}
	n := p.Width * p.Height
	if len(coeffs) != n || len(dst) != n {
		return errors.Wrapf(ErrBufferSize, "%d coefficients, %d residuals for %dx%d",
			len(coeffs), len(dst), p.Width, p.Height)
	}

	scale, shift := dequantParams(&p)
	if hor == nil {
		dsp.Dequant(dst, coeffs, scale, shift)
		return nil
	}

	// Extent of the non-zero levels; everything outside it is skipped by
	// the kernels.
	maxX, maxY := -1, -1
	for y := 0; y < p.Height; y++ {
		row := coeffs[y*p.Width : (y+1)*p.Width]
		for x := len(row) - 1; x >= 0; x-- {
			if row[x] != 0 {
				maxX = max(maxX, x)
				maxY = y
				break
			}
		}
	}
	if maxY < 0 {
		clear(dst)
		return nil
	}

	tmp := pool.GetInt32(n)
	mid := pool.GetInt32(n)
	defer pool.PutInt32(tmp)
	defer pool.PutInt32(mid)

	if p.DepQuant {
		depQuantLevels(mid, coeffs, log2Size(p.Width), log2Size(p.Height))
		coeffs = mid
	}
	dsp.Dequant(tmp, coeffs, scale, shift)

	// Vertical pass: frequency along y, one line per column. The output is
	// column-major, which is the input layout of the horizontal pass.
	ver(tmp, mid, firstPassShift, p.Width, maxY+1, maxX+1, dsp.CoeffMin, dsp.CoeffMax)
	// Horizontal pass: frequency along x, one line per row.
	hor(mid, dst, 20-p.BitDepth, p.Height, maxX+1, p.Height, dsp.CoeffMin, dsp.CoeffMax)
	return nil
}
