package unit

import (
	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon/picture"
)

// Validation errors. Finalize wraps them with the offending unit.
var (
	ErrGeometry     = errors.New("unit: invalid geometry")
	ErrCoverage     = errors.New("unit: coding units do not tile the picture")
	ErrTransform    = errors.New("unit: invalid transform type or size")
	ErrCoefficients = errors.New("unit: coefficient buffer size mismatch")
	ErrPrediction   = errors.New("unit: inconsistent prediction data")
	ErrQP           = errors.New("unit: QP out of range")
)

// Limits of the coding structure.
const (
	MinCTUSize = 16
	MaxCTUSize = 128
	MinTUSize  = 4
	MaxTUSize  = 64
	// MaxMTSSize is the largest side using DST-VII/DCT-VIII or skip.
	MaxMTSSize = 32
	// MinChromaTUSize is the smallest chroma transform side.
	MinChromaTUSize = 2
)

// CodingStructure is the coding data of one picture.
type CodingStructure struct {
	Width, Height int
	CTUSize       int
	Format        picture.ChromaFormat
	BitDepth      int
	// DepQuant signals dependent quantization for every non-skip block.
	// Coefficients then hold the decoded levels; the quantizer state is
	// recovered from their parities during reconstruction.
	DepQuant bool
	// CbQPOffset and CrQPOffset are picture-level chroma QP offsets.
	CbQPOffset int
	CrQPOffset int

	CUs []CodingUnit

	cuMap     []int32 // CU index per 4x4 luma block
	mapStride int
	ctuCUs    [][]int32
	finalized bool
}

// NewCodingStructure returns an empty structure for a picture.
func NewCodingStructure(width, height, ctuSize int, format picture.ChromaFormat, bitDepth int) *CodingStructure {
	return &CodingStructure{
		Width:    width,
		Height:   height,
		CTUSize:  ctuSize,
		Format:   format,
		BitDepth: bitDepth,
	}
}

// AddCU appends a coding unit. Finalize must be called afterwards.
func (s *CodingStructure) AddCU(cu CodingUnit) {
	s.CUs = append(s.CUs, cu)
	s.finalized = false
}

// Finalized reports whether Finalize succeeded since the last change.
func (s *CodingStructure) Finalized() bool { return s.finalized }

// CTUCols returns the number of CTU columns.
func (s *CodingStructure) CTUCols() int { return (s.Width + s.CTUSize - 1) / s.CTUSize }

// CTURows returns the number of CTU rows.
func (s *CodingStructure) CTURows() int { return (s.Height + s.CTUSize - 1) / s.CTUSize }

// NumCTUs returns the number of CTUs in the picture.
func (s *CodingStructure) NumCTUs() int { return s.CTUCols() * s.CTURows() }

// CTUArea returns the luma area of the CTU at raster address addr, clipped
// to the picture.
func (s *CodingStructure) CTUArea(addr int) Area {
	cols := s.CTUCols()
	x := (addr % cols) * s.CTUSize
	y := (addr / cols) * s.CTUSize
	return Area{X: x, Y: y, Width: min(s.CTUSize, s.Width-x), Height: min(s.CTUSize, s.Height-y)}
}

// CTUUnits returns the coding units of the CTU at addr in coding order.
func (s *CodingStructure) CTUUnits(addr int) []int32 { return s.ctuCUs[addr] }

// CUAt returns the coding unit covering luma sample (x, y).
func (s *CodingStructure) CUAt(x, y int) *CodingUnit {
	return &s.CUs[s.cuMap[(y>>2)*s.mapStride+(x>>2)]]
}

// ChromaQPOffset returns the picture-level QP offset of a chroma component.
func (s *CodingStructure) ChromaQPOffset(comp picture.ComponentID) int {
	if comp == picture.CompCr {
		return s.CrQPOffset
	}
	return s.CbQPOffset
}

// Finalize validates the structure and builds the lookup maps used by the
// reconstruction core. Every malformed input is rejected here; the core
// assumes a finalized structure.
func (s *CodingStructure) Finalize() error {
	s.finalized = false
	if s.Width <= 0 || s.Height <= 0 || s.Width%8 != 0 || s.Height%8 != 0 {
		return errors.Wrapf(ErrGeometry, "picture %dx%d", s.Width, s.Height)
	}
	if s.CTUSize < MinCTUSize || s.CTUSize > MaxCTUSize || s.CTUSize&(s.CTUSize-1) != 0 {
		return errors.Wrapf(ErrGeometry, "CTU size %d", s.CTUSize)
	}
	if s.BitDepth < picture.MinBitDepth || s.BitDepth > picture.MaxBitDepth {
		return errors.Wrapf(ErrGeometry, "bit depth %d", s.BitDepth)
	}
	if s.Format > picture.Chroma444 {
		return errors.Wrapf(ErrGeometry, "chroma format %d", s.Format)
	}

	s.mapStride = s.Width >> 2
	s.cuMap = make([]int32, s.mapStride*(s.Height>>2))
	for i := range s.cuMap {
		s.cuMap[i] = -1
	}
	s.ctuCUs = make([][]int32, s.NumCTUs())

	for i := range s.CUs {
		cu := &s.CUs[i]
		if err := s.validateCU(cu); err != nil {
			return errors.Wrapf(err, "CU %d at (%d,%d) %dx%d", i, cu.X, cu.Y, cu.Width, cu.Height)
		}
		for y := cu.Y >> 2; y < cu.Bottom()>>2; y++ {
			for x := cu.X >> 2; x < cu.Right()>>2; x++ {
				if s.cuMap[y*s.mapStride+x] >= 0 {
					return errors.Wrapf(ErrCoverage, "CU %d overlaps at (%d,%d)", i, x<<2, y<<2)
				}
				s.cuMap[y*s.mapStride+x] = int32(i)
			}
		}
		addr := (cu.Y/s.CTUSize)*s.CTUCols() + cu.X/s.CTUSize
		s.ctuCUs[addr] = append(s.ctuCUs[addr], int32(i))
	}
	for i, v := range s.cuMap {
		if v < 0 {
			return errors.Wrapf(ErrCoverage, "no CU at (%d,%d)", (i%s.mapStride)<<2, (i/s.mapStride)<<2)
		}
	}
	s.finalized = true
	return nil
}

func (s *CodingStructure) validateCU(cu *CodingUnit) error {
	if cu.X < 0 || cu.Y < 0 || cu.Width < 4 || cu.Height < 4 ||
		cu.X%4 != 0 || cu.Y%4 != 0 || cu.Width%4 != 0 || cu.Height%4 != 0 ||
		cu.Right() > s.Width || cu.Bottom() > s.Height {
		return ErrGeometry
	}
	if cu.X/s.CTUSize != (cu.Right()-1)/s.CTUSize || cu.Y/s.CTUSize != (cu.Bottom()-1)/s.CTUSize {
		return errors.Wrap(ErrGeometry, "crosses a CTU boundary")
	}
	if cu.QP < -QpBdOffset(s.BitDepth) || cu.QP > MaxQP {
		return errors.Wrapf(ErrQP, "QP %d", cu.QP)
	}
	if err := validatePrediction(cu); err != nil {
		return err
	}
	if len(cu.TUs) == 0 {
		return errors.Wrap(ErrGeometry, "no transform units")
	}

	covered := 0
	for j := range cu.TUs {
		tu := &cu.TUs[j]
		if err := s.validateTU(cu, tu); err != nil {
			return errors.Wrapf(err, "TU %d at (%d,%d) %dx%d", j, tu.X, tu.Y, tu.Width, tu.Height)
		}
		for k := 0; k < j; k++ {
			if overlaps(tu.Area, cu.TUs[k].Area) {
				return errors.Wrapf(ErrGeometry, "TU %d overlaps TU %d", j, k)
			}
		}
		covered += tu.Width * tu.Height
	}
	if covered != cu.Width*cu.Height {
		return errors.Wrap(ErrGeometry, "transform units do not tile the CU")
	}
	return nil
}

func validatePrediction(cu *CodingUnit) error {
	switch cu.Mode {
	case ModeIntra:
		if cu.Skip || cu.Subblock {
			return errors.Wrap(ErrPrediction, "intra CU marked skip or subblock")
		}
	case ModeInter, ModeIBC:
		if cu.Motion.Dir == 0 || cu.Motion.Dir > DirBi {
			return errors.Wrapf(ErrPrediction, "motion direction %d", cu.Motion.Dir)
		}
		if cu.Mode == ModeIBC && cu.Subblock {
			return errors.Wrap(ErrPrediction, "IBC CU with subblock motion")
		}
		if cu.SubMotion != nil && (!cu.Subblock || len(cu.SubMotion) != (cu.Width>>2)*(cu.Height>>2)) {
			return errors.Wrapf(ErrPrediction, "subblock motion has %d entries", len(cu.SubMotion))
		}
	default:
		return errors.Wrapf(ErrPrediction, "mode %d", cu.Mode)
	}
	if cu.Skip {
		for j := range cu.TUs {
			for _, cbf := range cu.TUs[j].Cbf {
				if cbf {
					return errors.Wrap(ErrPrediction, "skip CU with coded residual")
				}
			}
		}
	}
	return nil
}

func (s *CodingStructure) validateTU(cu *CodingUnit, tu *TransformUnit) error {
	if !isPow2(tu.Width) || !isPow2(tu.Height) ||
		tu.Width < MinTUSize || tu.Height < MinTUSize ||
		tu.Width > MaxTUSize || tu.Height > MaxTUSize {
		return ErrGeometry
	}
	if tu.X < cu.X || tu.Y < cu.Y || tu.Right() > cu.Right() || tu.Bottom() > cu.Bottom() {
		return errors.Wrap(ErrGeometry, "outside its CU")
	}
	for c := picture.CompY; int(c) < s.Format.NumComponents(); c++ {
		w := tu.Width >> s.Format.ScaleX(c)
		h := tu.Height >> s.Format.ScaleY(c)
		if !ValidTransform(tu.TrH[c], tu.TrV[c], w, h, c.IsLuma()) {
			return errors.Wrapf(ErrTransform, "%v %s/%s at %dx%d", c, tu.TrH[c], tu.TrV[c], w, h)
		}
		if tu.Cbf[c] && len(tu.Coeffs[c]) != w*h {
			return errors.Wrapf(ErrCoefficients, "%v has %d coefficients, want %d", c, len(tu.Coeffs[c]), w*h)
		}
	}
	return nil
}

// ValidTransform reports whether a kernel exists for the transform pair at
// the given component block size.
func ValidTransform(trH, trV TrType, width, height int, luma bool) bool {
	if !isPow2(width) || !isPow2(height) || width < MinChromaTUSize || height < MinChromaTUSize ||
		width > MaxTUSize || height > MaxTUSize {
		return false
	}
	if trH == TransformSkip || trV == TransformSkip {
		return trH == trV && width <= MaxMTSSize && height <= MaxMTSSize
	}
	if trH > TransformSkip || trV > TransformSkip {
		return false
	}
	if !luma {
		return trH == DCT2 && trV == DCT2
	}
	if trH != DCT2 && (width < 4 || width > MaxMTSSize) {
		return false
	}
	if trV != DCT2 && (height < 4 || height > MaxMTSSize) {
		return false
	}
	return true
}

func overlaps(a, b Area) bool {
	return a.X < b.Right() && b.X < a.Right() && a.Y < b.Bottom() && b.Y < a.Bottom()
}

func isPow2(v int) bool { return v > 0 && v&(v-1) == 0 }
