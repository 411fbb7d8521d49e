// Package picture holds the sample planes of a reconstructed picture.
//
// Samples are stored as int16 regardless of bit depth so that the same
// kernels serve 8-bit and high bit depth content. The planes are mutated in
// place by residual reconstruction and by the deblocking filter; callers
// hand a *Picture to exactly one pipeline stage at a time.
package picture

import "fmt"

// ChromaFormat is the chroma subsampling of a picture.
type ChromaFormat uint8

const (
	Chroma400 ChromaFormat = iota
	Chroma420
	Chroma422
	Chroma444
)

// Supported bit depths. Samples above 15 bits do not fit an int16.
const (
	MinBitDepth = 8
	MaxBitDepth = 15
)

func (f ChromaFormat) String() string {
	switch f {
	case Chroma400:
		return "4:0:0"
	case Chroma420:
		return "4:2:0"
	case Chroma422:
		return "4:2:2"
	case Chroma444:
		return "4:4:4"
	}
	return fmt.Sprintf("ChromaFormat(%d)", uint8(f))
}

// NumComponents returns 1 for monochrome and 3 otherwise.
func (f ChromaFormat) NumComponents() int {
	if f == Chroma400 {
		return 1
	}
	return 3
}

// ScaleX returns the log2 horizontal subsampling of comp.
func (f ChromaFormat) ScaleX(comp ComponentID) int {
	if comp == CompY {
		return 0
	}
	if f == Chroma420 || f == Chroma422 {
		return 1
	}
	return 0
}

// ScaleY returns the log2 vertical subsampling of comp.
func (f ChromaFormat) ScaleY(comp ComponentID) int {
	if comp == CompY {
		return 0
	}
	if f == Chroma420 {
		return 1
	}
	return 0
}

// ComponentID identifies a colour component.
type ComponentID uint8

const (
	CompY ComponentID = iota
	CompCb
	CompCr
)

// MaxComponents is the number of component slots in a Picture.
const MaxComponents = 3

func (c ComponentID) String() string {
	switch c {
	case CompY:
		return "Y"
	case CompCb:
		return "Cb"
	case CompCr:
		return "Cr"
	}
	return fmt.Sprintf("ComponentID(%d)", uint8(c))
}

// IsLuma reports whether c is the luma component.
func (c ComponentID) IsLuma() bool { return c == CompY }

// Plane is a 2D grid of samples. Sample (x, y) lives at Pix[y*Stride+x].
type Plane struct {
	Pix    []int16
	Stride int
	Width  int
	Height int
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) Plane {
	return Plane{
		Pix:    make([]int16, width*height),
		Stride: width,
		Width:  width,
		Height: height,
	}
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) int16 { return p.Pix[y*p.Stride+x] }

// Set stores v at (x, y).
func (p *Plane) Set(x, y int, v int16) { p.Pix[y*p.Stride+x] = v }

// Offset returns the index of (x, y) in Pix.
func (p *Plane) Offset(x, y int) int { return y*p.Stride + x }

// Fill sets every sample of the rectangle to v.
func (p *Plane) Fill(x, y, w, h int, v int16) {
	for j := 0; j < h; j++ {
		row := p.Pix[(y+j)*p.Stride+x:]
		for i := 0; i < w; i++ {
			row[i] = v
		}
	}
}

// Picture is a set of sample planes sharing a bit depth.
type Picture struct {
	Planes   [MaxComponents]Plane
	Format   ChromaFormat
	BitDepth int
}

// New allocates a picture of the given luma size.
func New(width, height int, format ChromaFormat, bitDepth int) *Picture {
	pic := &Picture{Format: format, BitDepth: bitDepth}
	pic.Planes[CompY] = NewPlane(width, height)
	if format != Chroma400 {
		cw := width >> format.ScaleX(CompCb)
		ch := height >> format.ScaleY(CompCb)
		pic.Planes[CompCb] = NewPlane(cw, ch)
		pic.Planes[CompCr] = NewPlane(cw, ch)
	}
	return pic
}

// Width returns the luma width.
func (p *Picture) Width() int { return p.Planes[CompY].Width }

// Height returns the luma height.
func (p *Picture) Height() int { return p.Planes[CompY].Height }

// Plane returns the plane of comp.
func (p *Picture) Plane(comp ComponentID) *Plane { return &p.Planes[comp] }

// MaxValue returns the largest representable sample, 2^BitDepth-1.
func (p *Picture) MaxValue() int { return (1 << p.BitDepth) - 1 }

// Clone returns a deep copy of p.
func (p *Picture) Clone() *Picture {
	c := &Picture{Format: p.Format, BitDepth: p.BitDepth}
	for i := range p.Planes {
		src := p.Planes[i]
		c.Planes[i] = src
		if src.Pix != nil {
			c.Planes[i].Pix = append([]int16(nil), src.Pix...)
		}
	}
	return c
}

// Equal reports whether both pictures hold identical samples.
func (p *Picture) Equal(o *Picture) bool {
	if p.Format != o.Format || p.BitDepth != o.BitDepth {
		return false
	}
	for i := range p.Planes {
		a, b := &p.Planes[i], &o.Planes[i]
		if a.Width != b.Width || a.Height != b.Height {
			return false
		}
		for y := 0; y < a.Height; y++ {
			ra := a.Pix[y*a.Stride : y*a.Stride+a.Width]
			rb := b.Pix[y*b.Stride : y*b.Stride+b.Width]
			for x := range ra {
				if ra[x] != rb[x] {
					return false
				}
			}
		}
	}
	return true
}
