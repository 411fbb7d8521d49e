package vvrecon

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon/internal/deblock"
	"github.com/deepteams/vvrecon/internal/dsp"
	"github.com/deepteams/vvrecon/internal/trquant"
	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

// Errors returned by the pipeline. Validation errors of the coding
// structure come from unit.CodingStructure.Finalize.
var (
	ErrNotFinalized = errors.New("vvrecon: coding structure not finalized")
	ErrMismatch     = errors.New("vvrecon: picture does not match coding structure")
	ErrNoKernel     = trquant.ErrNoKernel
)

// DeblockingParams is the deblocking configuration of a picture.
type DeblockingParams = deblock.Params

// LADFParams configures the luma-adaptive deblocking QP offset.
type LADFParams = deblock.LADFParams

// LADFInterval is one interval of LADFParams.
type LADFInterval = deblock.LADFInterval

// Options controls the pipeline. The zero value is valid.
type Options struct {
	// Workers is the number of goroutines used per phase. 0 uses
	// GOMAXPROCS; 1 runs everything on the calling goroutine.
	Workers int

	// Deblocking configures the loop filter.
	Deblocking DeblockingParams

	// Logger receives debug records per phase when non-nil.
	Logger *slog.Logger
}

func (o *Options) workers(jobs int) int {
	n := runtime.GOMAXPROCS(0)
	if o != nil && o.Workers > 0 {
		n = o.Workers
	}
	return max(1, min(n, jobs))
}

func (o *Options) logger() *slog.Logger {
	if o == nil {
		return nil
	}
	return o.Logger
}

func (o *Options) deblocking() DeblockingParams {
	if o == nil {
		return DeblockingParams{}
	}
	return o.Deblocking
}

// Kernels returns the name of the kernel set selected for this CPU.
func Kernels() string {
	return dsp.Selected().String()
}

// InverseTransformBlock dequantizes a row-major block of quantized levels
// and returns the residual block, also row-major. qp is the luma or mapped
// chroma QP without the bit-depth offset.
func InverseTransformBlock(coeffs []int32, width, height int, trH, trV unit.TrType, qp, bitDepth int, depQuant bool) ([]int32, error) {
	if !unit.ValidTransform(trH, trV, width, height, true) {
		return nil, errors.Wrapf(ErrNoKernel, "%s/%s at %dx%d", trH, trV, width, height)
	}
	if bitDepth < picture.MinBitDepth || bitDepth > picture.MaxBitDepth {
		return nil, errors.Errorf("vvrecon: bit depth %d out of range", bitDepth)
	}
	res := make([]int32, width*height)
	err := trquant.InverseTransform(res, coeffs, trquant.BlockParams{
		Width:    width,
		Height:   height,
		TrH:      trH,
		TrV:      trV,
		QP:       dsp.Clip3(-unit.QpBdOffset(bitDepth), unit.MaxQP, qp) + unit.QpBdOffset(bitDepth),
		BitDepth: bitDepth,
		DepQuant: depQuant,
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Reconstruct adds the residuals of cs to the prediction in pic and then
// deblocks pic.
func Reconstruct(pic *picture.Picture, cs *unit.CodingStructure, opts *Options) error {
	if err := AddResiduals(pic, cs, opts); err != nil {
		return err
	}
	return Deblock(pic, cs, opts)
}

// AddResiduals adds the decoded residual of every transform unit of cs to
// the prediction samples in pic. CTUs are processed in parallel.
func AddResiduals(pic *picture.Picture, cs *unit.CodingStructure, opts *Options) error {
	if err := check(pic, cs); err != nil {
		return err
	}
	eng, err := trquant.NewEngine(pic, cs)
	if err != nil {
		return err
	}
	start := time.Now()
	n := cs.NumCTUs()
	workers := opts.workers(n)
	err = runJobs(n, workers, eng.ReconstructCTU)
	if lg := opts.logger(); lg != nil {
		lg.Debug("residuals", "ctus", n, "workers", workers, "elapsed", time.Since(start))
	}
	return err
}

// Deblock filters the block edges of pic in place. Strengths are computed
// for every CTU first, then vertical edges are filtered one CTU row per
// goroutine, then horizontal edges one CTU column per goroutine.
func Deblock(pic *picture.Picture, cs *unit.CodingStructure, opts *Options) error {
	params := opts.deblocking()
	if params.Disable {
		return nil
	}
	if err := check(pic, cs); err != nil {
		return err
	}
	st, err := deblock.NewStrengths(cs, params)
	if err != nil {
		return err
	}
	lg := opts.logger()
	cols, rows := cs.CTUCols(), cs.CTURows()

	phase := func(name string, jobs int, fn func(int)) {
		start := time.Now()
		workers := opts.workers(jobs)
		forEachJob(jobs, workers, fn)
		if lg != nil {
			lg.Debug("deblock phase", "phase", name, "jobs", jobs, "workers", workers, "elapsed", time.Since(start))
		}
	}
	phase("strengths", cs.NumCTUs(), st.CalcFilterStrengthsCTU)
	phase("vertical", rows, func(row int) {
		for col := 0; col < cols; col++ {
			deblock.LoopFilterCTU(pic, st, col, row, deblock.EdgeVer)
		}
	})
	phase("horizontal", cols, func(col int) {
		for row := 0; row < rows; row++ {
			deblock.LoopFilterCTU(pic, st, col, row, deblock.EdgeHor)
		}
	})
	return nil
}

func check(pic *picture.Picture, cs *unit.CodingStructure) error {
	if !cs.Finalized() {
		return ErrNotFinalized
	}
	if err := deblock.CheckPicture(pic, cs); err != nil {
		return errors.Wrap(ErrMismatch, err.Error())
	}
	return nil
}
