package deblock

import (
	"slices"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

var (
	intraCU = unit.CodingUnit{Mode: unit.ModeIntra, QP: 32}
	skipCU  = unit.CodingUnit{
		Mode: unit.ModeInter, Skip: true, QP: 32,
		Motion: unit.MotionInfo{Dir: unit.DirL0, RefPic: [2]int32{8, 0}, Mv: [2]unit.Mv{{X: 12, Y: -4}}},
	}
)

// tiled builds a finalized w x h structure of cuSize units copied from
// tmpl, after letting edit adjust the units.
func tiled(t *testing.T, w, h, ctu, cuSize int, format picture.ChromaFormat, bd int, tmpl unit.CodingUnit, edit func(cs *unit.CodingStructure)) *unit.CodingStructure {
	t.Helper()
	cs := unit.NewCodingStructure(w, h, ctu, format, bd)
	cs.Tile(cuSize, tmpl)
	if edit != nil {
		edit(cs)
	}
	require.NoError(t, cs.Finalize())
	return cs
}

func strengths(t *testing.T, cs *unit.CodingStructure, params Params) *Strengths {
	t.Helper()
	st, err := NewStrengths(cs, params)
	require.NoError(t, err)
	for addr := 0; addr < cs.NumCTUs(); addr++ {
		st.CalcFilterStrengthsCTU(addr)
	}
	return st
}

func cuAt(cs *unit.CodingStructure, x, y int) *unit.CodingUnit {
	for i := range cs.CUs {
		if cs.CUs[i].Contains(x, y) {
			return &cs.CUs[i]
		}
	}
	return nil
}

func TestStrengthIntra(t *testing.T) {
	cs := tiled(t, 16, 16, 16, 8, picture.Chroma420, 8, intraCU, nil)
	st := strengths(t, cs, Params{})

	for _, dir := range []EdgeDir{EdgeVer, EdgeHor} {
		x, y := 8, 0
		if dir == EdgeHor {
			x, y = 0, 8
		}
		for i := 0; i < 2; i++ {
			lfp := st.At(dir, x, y)
			assert.True(t, lfp.Has(FlagEdge|FlagCUEdge|FlagTUEdge|FlagPQSameCTU), "%v flags %b", dir, lfp.Flags)
			assert.False(t, lfp.Has(FlagNoFilter))
			assert.False(t, lfp.Has(FlagChroma), "chroma x=4 is off the chroma grid")
			for c := picture.CompY; c < picture.MaxComponents; c++ {
				assert.Equal(t, 2, lfp.BS(c), "%v comp %v", dir, c)
			}
			assert.Equal(t, uint8(3), lfp.MaxLenP)
			assert.Equal(t, uint8(3), lfp.MaxLenQ)
			if dir == EdgeVer {
				y += 4
			} else {
				x += 4
			}
		}
	}

	// Picture borders and CU interiors carry no edge.
	for _, pos := range [][2]int{{0, 0}, {0, 8}, {4, 4}, {12, 0}} {
		assert.False(t, st.At(EdgeVer, pos[0], pos[1]).Has(FlagEdge), "vertical %v", pos)
	}
	assert.False(t, st.At(EdgeHor, 8, 0).Has(FlagEdge))
}

func TestStrengthSkipIdenticalMotion(t *testing.T) {
	cs := tiled(t, 16, 16, 16, 8, picture.Chroma420, 8, skipCU, nil)
	st := strengths(t, cs, Params{})
	for _, dir := range []EdgeDir{EdgeVer, EdgeHor} {
		for y := 0; y < 16; y += 4 {
			for x := 0; x < 16; x += 4 {
				lfp := st.At(dir, x, y)
				for c := picture.CompY; c < picture.MaxComponents; c++ {
					assert.Zero(t, lfp.BS(c), "%v (%d,%d) comp %v", dir, x, y, c)
				}
			}
		}
	}
}

func TestMotionBS(t *testing.T) {
	uni := func(ref int32, x, y int32) unit.MotionInfo {
		return unit.MotionInfo{Dir: unit.DirL0, RefPic: [2]int32{ref, 0}, Mv: [2]unit.Mv{{X: x, Y: y}}}
	}
	uniL1 := func(ref int32, x, y int32) unit.MotionInfo {
		return unit.MotionInfo{Dir: unit.DirL1, RefPic: [2]int32{0, ref}, Mv: [2]unit.Mv{{}, {X: x, Y: y}}}
	}
	bi := func(r0, r1 int32, m0, m1 unit.Mv) unit.MotionInfo {
		return unit.MotionInfo{Dir: unit.DirBi, RefPic: [2]int32{r0, r1}, Mv: [2]unit.Mv{m0, m1}}
	}
	inter, ibc := unit.ModeInter, unit.ModeIBC
	tests := []struct {
		name         string
		pMode, qMode unit.PredMode
		p, q         unit.MotionInfo
		want         int
	}{
		{"identical", inter, inter, uni(1, 5, 5), uni(1, 5, 5), 0},
		{"mv x diff 3", inter, inter, uni(1, 5, 5), uni(1, 8, 5), 0},
		{"mv x diff 4", inter, inter, uni(1, 5, 5), uni(1, 9, 5), 1},
		{"mv y diff -4", inter, inter, uni(1, 5, 5), uni(1, 5, 1), 1},
		{"different ref", inter, inter, uni(1, 5, 5), uni(2, 5, 5), 1},
		{"same ref other list", inter, inter, uni(3, 0, 0), uniL1(3, 1, 1), 0},
		{"mv count", inter, inter, uni(1, 0, 0), bi(1, 2, unit.Mv{}, unit.Mv{}), 1},
		{"bi same", inter, inter, bi(1, 2, unit.Mv{X: 4}, unit.Mv{Y: 4}), bi(1, 2, unit.Mv{X: 4}, unit.Mv{Y: 4}), 0},
		{"bi swapped lists", inter, inter, bi(1, 2, unit.Mv{X: 4}, unit.Mv{Y: 4}), bi(2, 1, unit.Mv{Y: 4}, unit.Mv{X: 4}), 0},
		{"bi one mv differs", inter, inter, bi(1, 2, unit.Mv{}, unit.Mv{}), bi(1, 2, unit.Mv{}, unit.Mv{X: 4}), 1},
		{"bi refs differ", inter, inter, bi(1, 2, unit.Mv{}, unit.Mv{}), bi(1, 3, unit.Mv{}, unit.Mv{}), 1},
		{"bi same ref cross match", inter, inter, bi(1, 1, unit.Mv{X: 8}, unit.Mv{}), bi(1, 1, unit.Mv{}, unit.Mv{X: 8}), 0},
		{"bi same ref no match", inter, inter, bi(1, 1, unit.Mv{X: 8}, unit.Mv{}), bi(1, 1, unit.Mv{X: 8}, unit.Mv{X: 8}), 1},
		{"ibc vs inter", ibc, inter, uni(0, 0, 0), uni(0, 0, 0), 1},
		{"ibc same vector", ibc, ibc, uni(0, -64, 0), uni(0, -64, 0), 0},
		{"ibc vector differs", ibc, ibc, uni(0, -64, 0), uni(0, -32, 0), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, motionBS(tt.pMode, tt.qMode, tt.p, tt.q))
		})
	}
}

func TestStrengthCoefficients(t *testing.T) {
	cs := tiled(t, 16, 16, 16, 8, picture.Chroma420, 8, skipCU, func(cs *unit.CodingStructure) {
		cu := cuAt(cs, 8, 0)
		cu.Skip = false
		cu.TUs[0].Cbf[picture.CompY] = true
		cu.TUs[0].Coeffs[picture.CompY] = make([]int32, 64)
		cu = cuAt(cs, 0, 8)
		cu.Skip = false
		cu.TUs[0].Cbf[picture.CompCr] = true
		cu.TUs[0].Coeffs[picture.CompCr] = make([]int32, 16)
	})
	st := strengths(t, cs, Params{})

	lfp := st.At(EdgeVer, 8, 0)
	assert.Equal(t, 1, lfp.BS(picture.CompY))
	assert.Zero(t, lfp.BS(picture.CompCb))
	assert.Zero(t, lfp.BS(picture.CompCr))

	lfp = st.At(EdgeHor, 0, 8)
	assert.Zero(t, lfp.BS(picture.CompY))
	assert.Zero(t, lfp.BS(picture.CompCb))
	assert.Equal(t, 1, lfp.BS(picture.CompCr))

	// The unit at (8,0) has luma residual on its bottom edge too.
	assert.Equal(t, 1, st.At(EdgeHor, 8, 8).BS(picture.CompY))
	assert.Zero(t, st.At(EdgeVer, 8, 8).BS(picture.CompY))
}

func TestStrengthLengths(t *testing.T) {
	t.Run("small transform units", func(t *testing.T) {
		cs := tiled(t, 16, 16, 16, 8, picture.Chroma420, 8, intraCU, func(cs *unit.CodingStructure) {
			cu := cuAt(cs, 8, 0)
			cu.TUs = []unit.TransformUnit{
				{Area: unit.Area{X: 8, Y: 0, Width: 4, Height: 8}},
				{Area: unit.Area{X: 12, Y: 0, Width: 4, Height: 8}},
			}
		})
		st := strengths(t, cs, Params{})
		lfp := st.At(EdgeVer, 8, 0)
		assert.Equal(t, uint8(3), lfp.MaxLenP)
		assert.Zero(t, lfp.MaxLenQ, "4-wide side")
		inner := st.At(EdgeVer, 12, 4)
		assert.True(t, inner.Has(FlagTUEdge))
		assert.False(t, inner.Has(FlagCUEdge))
		assert.Zero(t, inner.MaxLenP)
		assert.Zero(t, inner.MaxLenQ)
	})

	t.Run("large blocks", func(t *testing.T) {
		cs := tiled(t, 128, 64, 32, 32, picture.Chroma420, 10, intraCU, func(cs *unit.CodingStructure) {
			cu := cuAt(cs, 32, 0)
			cu.TUs = []unit.TransformUnit{
				{Area: unit.Area{X: 32, Y: 0, Width: 16, Height: 32}},
				{Area: unit.Area{X: 48, Y: 0, Width: 16, Height: 32}},
			}
		})
		st := strengths(t, cs, Params{})
		lfp := st.At(EdgeVer, 32, 0)
		assert.Equal(t, uint8(7), lfp.MaxLenP)
		assert.Equal(t, uint8(3), lfp.MaxLenQ)
		assert.False(t, lfp.Has(FlagPQSameCTU))
		lfp = st.At(EdgeVer, 96, 4)
		assert.Equal(t, uint8(7), lfp.MaxLenP)
		assert.Equal(t, uint8(7), lfp.MaxLenQ)

		// Horizontal CTU boundary: the P side is kept short.
		lfp = st.At(EdgeHor, 0, 32)
		assert.False(t, lfp.Has(FlagPQSameCTU))
		assert.Equal(t, uint8(3), lfp.MaxLenP)
		assert.Equal(t, uint8(7), lfp.MaxLenQ)
	})

	t.Run("subblock motion", func(t *testing.T) {
		tmpl := skipCU
		tmpl.Subblock = true
		cs := tiled(t, 64, 32, 32, 32, picture.Chroma420, 8, tmpl, nil)
		st := strengths(t, cs, Params{})

		lfp := st.At(EdgeVer, 32, 0)
		assert.True(t, lfp.Has(FlagCUEdge))
		assert.Equal(t, uint8(5), lfp.MaxLenP)
		assert.Equal(t, uint8(5), lfp.MaxLenQ)

		want := map[int]uint8{40: 2, 48: 3, 56: 2}
		for x, l := range want {
			lfp := st.At(EdgeVer, x, 12)
			assert.True(t, lfp.Has(FlagEdge), "x=%d", x)
			assert.False(t, lfp.Has(FlagTUEdge), "x=%d", x)
			assert.Equal(t, l, lfp.MaxLenP, "x=%d", x)
			assert.Equal(t, l, lfp.MaxLenQ, "x=%d", x)
			assert.Zero(t, lfp.BS(picture.CompY), "identical subblock motion")
		}
		h := st.At(EdgeHor, 4, 16)
		assert.True(t, h.Has(FlagEdge))
		assert.Equal(t, uint8(3), h.MaxLenQ)
		assert.Equal(t, uint8(2), st.At(EdgeHor, 4, 8).MaxLenQ)
	})

	t.Run("subblock motion differs", func(t *testing.T) {
		tmpl := skipCU
		tmpl.Subblock = true
		cs := tiled(t, 32, 32, 32, 32, picture.Chroma420, 8, tmpl, func(cs *unit.CodingStructure) {
			cu := &cs.CUs[0]
			cu.SubMotion = make([]unit.MotionInfo, 64)
			for i := range cu.SubMotion {
				cu.SubMotion[i] = cu.Motion
				if i%8 >= 4 {
					cu.SubMotion[i].Mv[0].X += 16
				}
			}
		})
		st := strengths(t, cs, Params{})
		assert.Equal(t, 1, st.At(EdgeVer, 16, 0).BS(picture.CompY))
		assert.Zero(t, st.At(EdgeVer, 8, 0).BS(picture.CompY))
		assert.Zero(t, st.At(EdgeVer, 16, 0).BS(picture.CompCb), "no chroma strength inside a transform unit")
	})
}

func TestStrengthChromaGrid(t *testing.T) {
	cs := tiled(t, 32, 32, 32, 8, picture.Chroma420, 8, intraCU, nil)
	st := strengths(t, cs, Params{})
	assert.True(t, st.At(EdgeVer, 16, 0).Has(FlagChroma))
	assert.False(t, st.At(EdgeVer, 8, 0).Has(FlagChroma))
	assert.False(t, st.At(EdgeVer, 24, 0).Has(FlagChroma))
	assert.True(t, st.At(EdgeHor, 0, 16).Has(FlagChroma))

	cs444 := tiled(t, 32, 32, 32, 8, picture.Chroma444, 8, intraCU, nil)
	st444 := strengths(t, cs444, Params{})
	assert.True(t, st444.At(EdgeVer, 8, 0).Has(FlagChroma))

	cs400 := tiled(t, 32, 32, 32, 8, picture.Chroma400, 8, intraCU, nil)
	st400 := strengths(t, cs400, Params{})
	assert.False(t, st400.At(EdgeVer, 16, 0).Has(FlagChroma))
	assert.Zero(t, st400.At(EdgeVer, 16, 0).BS(picture.CompCb))
}

func TestStrengthBoundaries(t *testing.T) {
	split := func(cs *unit.CodingStructure) {
		for i := range cs.CUs {
			if cs.CUs[i].X >= 16 {
				cs.CUs[i].Tile = 1
			}
			if cs.CUs[i].Y >= 16 {
				cs.CUs[i].Slice = 1
			}
		}
	}
	cs := tiled(t, 32, 32, 16, 8, picture.Chroma420, 8, intraCU, split)

	tests := []struct {
		name     string
		params   Params
		dir      EdgeDir
		x, y     int
		noFilter bool
	}{
		{"tile", Params{}, EdgeVer, 16, 0, true},
		{"across tiles", Params{AcrossTiles: true}, EdgeVer, 16, 0, false},
		{"slice", Params{}, EdgeHor, 0, 16, true},
		{"across slices", Params{AcrossSlices: true}, EdgeHor, 0, 16, false},
		{"inside tile", Params{}, EdgeVer, 8, 0, false},
		{"virtual vertical", Params{VirtualVer: []int{8}}, EdgeVer, 8, 4, true},
		{"virtual other direction", Params{VirtualVer: []int{8}}, EdgeHor, 0, 8, false},
		{"virtual horizontal", Params{VirtualHor: []int{24}}, EdgeHor, 4, 24, true},
		{"across virtual", Params{VirtualHor: []int{24}, AcrossVirtual: true}, EdgeHor, 4, 24, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := strengths(t, cs, tt.params)
			lfp := st.At(tt.dir, tt.x, tt.y)
			require.True(t, lfp.Has(FlagEdge))
			assert.Equal(t, tt.noFilter, lfp.Has(FlagNoFilter))
			assert.Equal(t, 2, lfp.BS(picture.CompY), "strength is kept")
		})
	}
}

func TestStrengthIdempotent(t *testing.T) {
	tmpl := skipCU
	cs := tiled(t, 64, 64, 32, 16, picture.Chroma420, 8, tmpl, func(cs *unit.CodingStructure) {
		for i := range cs.CUs {
			cu := &cs.CUs[i]
			switch i % 3 {
			case 0:
				cu.Mode, cu.Skip, cu.Motion = unit.ModeIntra, false, unit.MotionInfo{}
			case 1:
				cu.Motion.Mv[0].X += int32(4 * i)
			}
		}
	})
	st := strengths(t, cs, Params{VirtualVer: []int{32}})
	first := make([][NumEdgeDirs][]LoopFilterParam, cs.NumCTUs())
	for addr := range first {
		for d := range first[addr] {
			first[addr][d] = slices.Clone(st.CTU(addr).params[d])
		}
	}
	for addr := cs.NumCTUs() - 1; addr >= 0; addr-- {
		st.CalcFilterStrengthsCTU(addr)
	}
	for addr := range first {
		for d := range first[addr] {
			assert.Equal(t, first[addr][d], st.CTU(addr).params[d], "CTU %d dir %d", addr, d)
		}
	}
}

func TestNewStrengthsNotFinalized(t *testing.T) {
	cs := unit.NewCodingStructure(16, 16, 16, picture.Chroma420, 8)
	cs.Tile(8, intraCU)
	_, err := NewStrengths(cs, Params{})
	assert.True(t, errors.Is(err, ErrNotFinalized))
}
