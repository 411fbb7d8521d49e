package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepteams/vvrecon"
	"github.com/deepteams/vvrecon/picture"
)

// stepFrame returns a w x h 4:2:0 frame whose luma steps from lo to hi at
// column edge. Chroma is flat mid-grey.
func stepFrame(w, h, bd, edge int, lo, hi int16) *picture.Picture {
	pic := picture.New(w, h, picture.Chroma420, bd)
	y := pic.Plane(picture.CompY)
	y.Fill(0, 0, edge, h, lo)
	y.Fill(edge, 0, w-edge, h, hi)
	for c := picture.CompCb; c <= picture.CompCr; c++ {
		pl := pic.Plane(c)
		pl.Fill(0, 0, pl.Width, pl.Height, int16(1<<(bd-1)))
	}
	return pic
}

func TestYUVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, bd := range []int{8, 10} {
		for _, name := range []string{"frame.yuv", "frame.yuv.zst"} {
			pic := stepFrame(32, 16, bd, 8, 3, int16(1<<bd)-1)
			path := filepath.Join(dir, name)
			require.NoError(t, writeOutput(path, encodeYUV(nil, pic)))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			if isZstd(name) {
				assert.NotEqual(t, frameSize(32, 16, picture.Chroma420, bd), len(raw), "compressed")
			} else {
				assert.Equal(t, frameSize(32, 16, picture.Chroma420, bd), len(raw))
			}

			data, err := readInput(path)
			require.NoError(t, err)
			got, err := decodeYUV(data, 32, 16, picture.Chroma420, bd)
			require.NoError(t, err)
			assert.True(t, pic.Equal(got), "%d-bit %s", bd, name)
		}
	}
}

func TestDecodeYUVShort(t *testing.T) {
	_, err := decodeYUV(make([]byte, 100), 16, 16, picture.Chroma420, 8)
	assert.Error(t, err)
}

func TestDeblockCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "step.yuv")
	require.NoError(t, writeOutput(in, encodeYUV(nil, stepFrame(16, 16, 8, 8, 100, 160))))

	tests := []struct {
		name string
		args []string
		out  string
		want []int16 // luma columns 6 to 9
	}{
		{"default output", []string{"-w", "16", "-h", "16", "-ctu", "16", "-cu", "8", "-qp", "32"}, "step.dbk.yuv",
			[]int16{101, 103, 157, 159}},
		{"zstd output", []string{"-w", "16", "-h", "16", "-ctu", "16", "-cu", "8", "-o", filepath.Join(dir, "out.yuv.zst"), "-workers", "2"}, "out.yuv.zst",
			[]int16{101, 103, 157, 159}},
		{"ladf", []string{"-w", "16", "-h", "16", "-ctu", "16", "-cu", "8", "-ladf", "0,0:10", "-o", filepath.Join(dir, "ladf.yuv")}, "ladf.yuv",
			[]int16{104, 109, 151, 156}},
		{"inter skip", []string{"-w", "16", "-h", "16", "-ctu", "16", "-cu", "8", "-mode", "inter", "-o", filepath.Join(dir, "inter.yuv")}, "inter.yuv",
			[]int16{100, 100, 160, 160}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, runDeblock(append(tt.args, in)))
			data, err := readInput(filepath.Join(dir, tt.out))
			require.NoError(t, err)
			pic, err := decodeYUV(data, 16, 16, picture.Chroma420, 8)
			require.NoError(t, err)
			y := pic.Plane(picture.CompY)
			for row := 0; row < 16; row++ {
				assert.Equal(t, tt.want, y.Pix[y.Offset(6, row):y.Offset(10, row)], "row %d", row)
			}
		})
	}
}

func TestDeblockCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yuv")
	require.NoError(t, os.WriteFile(in, make([]byte, 384), 0o644))

	tests := []struct {
		name string
		args []string
	}{
		{"missing input", []string{"-w", "16", "-h", "16"}},
		{"missing size", []string{in}},
		{"bad format", []string{"-w", "16", "-h", "16", "-format", "411", in}},
		{"bad mode", []string{"-w", "16", "-h", "16", "-mode", "palette", in}},
		{"bad ladf", []string{"-w", "16", "-h", "16", "-ladf", "0,5", in}},
		{"bad bit depth", []string{"-w", "16", "-h", "16", "-bd", "7", in}},
		{"bad geometry", []string{"-w", "12", "-h", "16", in}},
		{"short input", []string{"-w", "32", "-h", "32", in}},
		{"nonexistent", []string{"-w", "16", "-h", "16", filepath.Join(dir, "nope.yuv")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, runDeblock(tt.args))
		})
	}
}

func TestDeblockCommandErrorStack(t *testing.T) {
	for _, args := range [][]string{
		{"-w", "16", "-h", "16"},
		{"x.yuv"},
		{"-w", "16", "-h", "16", "-bd", "13", "x.yuv"},
	} {
		err := runDeblock(args)
		require.Error(t, err)
		assert.Contains(t, fmt.Sprintf("%+v", err), "main.runDeblock", "%v", args)
	}
}

func TestParseLADF(t *testing.T) {
	l, err := parseLADF("-2,100:1,400:3")
	require.NoError(t, err)
	assert.Equal(t, &vvrecon.LADFParams{
		LowestIntervalQPOffset: -2,
		Intervals:              []vvrecon.LADFInterval{{LowerBound: 100, QPOffset: 1}, {LowerBound: 400, QPOffset: 3}},
	}, l)

	for _, bad := range []string{"x", "0,a:1", "0,1:b", "0,200:1,100:2"} {
		_, err := parseLADF(bad)
		assert.Error(t, err, bad)
	}
}

func TestITXCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runITX([]string{"-size", "4x4", "-qp", "4", "-bd", "8", "16"}, nil, &out))
	assert.Equal(t, strings.Repeat("4 4 4 4\n", 4), out.String())

	out.Reset()
	stdin := strings.NewReader("1 -2\n3 -4\n")
	require.NoError(t, runITX([]string{"-size", "2x2", "-trh", "ts", "-qp", "4", "-bd", "8"}, stdin, &out))
	assert.Equal(t, "1 -2\n3 -4\n", out.String())

	assert.Error(t, runITX([]string{"-size", "4", "1"}, nil, &out))
	assert.Error(t, runITX([]string{"-size", "2x2", "1", "2", "3", "4", "5"}, nil, &out))
	assert.Error(t, runITX([]string{"-size", "4x4", "-trh", "dst4", "1"}, nil, &out))
	assert.Error(t, runITX([]string{"-size", "64x64", "-trh", "dst7", "1"}, nil, &out))
}

func TestTablesCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runTables([]string{"-bd", "8"}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 65)
	assert.Equal(t, []string{"32", "26", "3", "3"}, strings.Fields(lines[33]))
	assert.Equal(t, []string{"0", "0", "0", "0"}, strings.Fields(lines[1]))

	assert.Error(t, runTables([]string{"-bd", "4"}, &out))
	assert.Error(t, runTables([]string{"-bd", "16"}, &out))
	assert.NoError(t, runTables([]string{"-bd", "15"}, &out))
}
