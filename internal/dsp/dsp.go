// Package dsp provides the low-level arithmetic of residual reconstruction
// and deblocking: integer transform bases, inverse transform kernels,
// dequantization, residual addition and the per-line deblocking filters.
//
// Kernels are reached through function variables so that a faster kernel
// set can be selected once at start-up. Every kernel set produces
// bit-identical results; the selection is purely a throughput decision.
package dsp

// InvTransFunc applies a 1-D inverse transform to line independent lines.
//
// Input coefficient k of line i is src[k*line+i]; output sample n of line i
// is written to dst[i*N+n], i.e. the result is transposed so that the next
// pass can read it as its own input. Only the first nzFreq frequencies and
// the first nzLine lines may be non-zero; remaining output lines are set to
// zero. Each output is (sum + 1<<(shift-1)) >> shift clipped to
// [outMin, outMax].
type InvTransFunc func(src, dst []int32, shift, line, nzFreq, nzLine int, outMin, outMax int32)

// Family is a transform basis family.
type Family uint8

const (
	FamilyDCT2 Family = iota
	FamilyDST7
	FamilyDCT8
	NumFamilies
)

// Kernel dispatch table, indexed by family and log2 of the transform size.
// Entries without a kernel stay nil.
var InvTrans [NumFamilies][7]InvTransFunc

// Coefficient and residual kernels.
var (
	// Dequant scales src into dst: clip16((v*scale + rnd) >> shift).
	Dequant func(dst, src []int32, scale int64, shift uint)
	// AddResidual adds a width x height residual to the samples at
	// pix[off:] with the given stride and clips to [0, maxVal].
	AddResidual func(pix []int16, off, stride int, res []int32, width, height int, maxVal int32)
)

// Capability names a kernel set.
type Capability uint8

const (
	// CapScalar is the reference kernel set, one sample at a time.
	CapScalar Capability = iota
	// CapWide processes four lines or samples per iteration; it is chosen
	// on CPUs with wide vector units where the compiler can keep the lanes
	// in registers.
	CapWide
)

func (c Capability) String() string {
	switch c {
	case CapScalar:
		return "scalar"
	case CapWide:
		return "wide"
	}
	return "unknown"
}

var selected Capability

// Selected returns the kernel set in use.
func Selected() Capability { return selected }

// Init installs the scalar kernels and then, when the CPU qualifies, the
// wide kernels. It is safe to call more than once but must not race with
// kernel use.
func Init() {
	initTransformTables()
	Use(CapScalar)
	if detectWide() {
		Use(CapWide)
	}
}

// Use installs the kernel set c regardless of CPU detection. Tests and
// benchmarks use it to compare kernel sets.
func Use(c Capability) {
	InvTrans = [NumFamilies][7]InvTransFunc{
		FamilyDCT2: {1: invDCT2B2, 2: invDCT2B4, 3: invDCT2B8, 4: invDCT2B16, 5: invDCT2B32, 6: invDCT2B64},
		FamilyDST7: {2: invDST7B4, 3: invDST7B8, 4: invDST7B16, 5: invDST7B32},
		FamilyDCT8: {2: invDCT8B4, 3: invDCT8B8, 4: invDCT8B16, 5: invDCT8B32},
	}
	Dequant = dequant
	AddResidual = addResidual
	selected = CapScalar

	if c == CapWide {
		initWide()
		selected = CapWide
	}
}

func init() {
	Init()
}
