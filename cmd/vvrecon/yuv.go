package main

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon/picture"
)

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil)
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

func isZstd(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// readInput reads the whole file at path, or stdin for "-". Files ending
// in .zst are decompressed.
func readInput(path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !isZstd(path) {
		return data, nil
	}
	return decompressZstd(data)
}

// writeOutput writes data to path, or stdout for "-", compressing it when
// path ends in .zst.
func writeOutput(path string, data []byte) error {
	if isZstd(path) {
		var err error
		if data, err = compressZstd(data); err != nil {
			return err
		}
	}
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return errors.WithStack(err)
	}
	return errors.WithStack(os.WriteFile(path, data, 0o644))
}

func compressZstd(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc := zstdEncPool.Get().(*zstd.Encoder)
	defer zstdEncPool.Put(enc)
	enc.Reset(&buf)
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return nil, errors.WithStack(err)
	}
	if err := enc.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func decompressZstd(data []byte) ([]byte, error) {
	dec := zstdDecPool.Get().(*zstd.Decoder)
	defer zstdDecPool.Put(dec)
	if err := dec.Reset(bytes.NewReader(data)); err != nil {
		return nil, errors.WithStack(err)
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(dec); err != nil {
		return nil, errors.Wrap(err, "zstd")
	}
	return out.Bytes(), nil
}

// bytesPerSample is 1 up to 8 bits and 2 (little endian) above.
func bytesPerSample(bitDepth int) int {
	if bitDepth > 8 {
		return 2
	}
	return 1
}

// frameSize returns the size in bytes of one planar frame.
func frameSize(w, h int, format picture.ChromaFormat, bitDepth int) int {
	n := w * h
	if format != picture.Chroma400 {
		cw := w >> format.ScaleX(picture.CompCb)
		ch := h >> format.ScaleY(picture.CompCb)
		n += 2 * cw * ch
	}
	return n * bytesPerSample(bitDepth)
}

// decodeYUV unpacks the first planar frame of data into a picture.
func decodeYUV(data []byte, w, h int, format picture.ChromaFormat, bitDepth int) (*picture.Picture, error) {
	if need := frameSize(w, h, format, bitDepth); len(data) < need {
		return nil, errors.Errorf("input holds %d bytes, a %dx%d %v frame needs %d", len(data), w, h, format, need)
	}
	pic := picture.New(w, h, format, bitDepth)
	bps := bytesPerSample(bitDepth)
	maxVal := pic.MaxValue()
	pos := 0
	for c := picture.CompY; int(c) < format.NumComponents(); c++ {
		pl := pic.Plane(c)
		for y := 0; y < pl.Height; y++ {
			row := pl.Pix[pl.Offset(0, y):]
			for x := 0; x < pl.Width; x++ {
				var v int
				if bps == 2 {
					v = int(binary.LittleEndian.Uint16(data[pos:]))
				} else {
					v = int(data[pos])
				}
				pos += bps
				row[x] = int16(min(v, maxVal))
			}
		}
	}
	return pic, nil
}

// encodeYUV appends pic to dst as one planar frame.
func encodeYUV(dst []byte, pic *picture.Picture) []byte {
	bps := bytesPerSample(pic.BitDepth)
	out := dst
	for c := picture.CompY; int(c) < pic.Format.NumComponents(); c++ {
		pl := pic.Plane(c)
		for y := 0; y < pl.Height; y++ {
			for _, v := range pl.Pix[pl.Offset(0, y) : pl.Offset(0, y)+pl.Width] {
				if bps == 2 {
					out = binary.LittleEndian.AppendUint16(out, uint16(v))
				} else {
					out = append(out, uint8(v))
				}
			}
		}
	}
	return out
}
