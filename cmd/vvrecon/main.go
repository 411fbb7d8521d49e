// Command vvrecon runs the reconstruction core from the command line.
//
// Usage:
//
//	vvrecon deblock [options] <input.yuv>   Deblock a raw planar frame on a uniform block grid
//	vvrecon itx [options] [levels...]       Inverse transform one block of levels
//	vvrecon tables [options]                Print the deblocking thresholds per QP
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/deepteams/vvrecon"
	"github.com/deepteams/vvrecon/internal/deblock"
	"github.com/deepteams/vvrecon/internal/pool"
	"github.com/deepteams/vvrecon/picture"
	"github.com/deepteams/vvrecon/unit"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "deblock":
		err = runDeblock(os.Args[2:])
	case "itx":
		err = runITX(os.Args[2:], os.Stdin, os.Stdout)
	case "tables":
		err = runTables(os.Args[2:], os.Stdout)
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "vvrecon: unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "vvrecon: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage:
  vvrecon deblock [options] <input.yuv>   Deblock a raw planar frame on a uniform block grid
  vvrecon itx [options] [levels...]       Inverse transform one block of levels
  vvrecon tables [options]                Print the deblocking thresholds per QP

Raw frames are planar, one byte per sample up to 8 bits and two bytes
(little endian) above. Paths ending in .zst are zstd compressed. Use "-"
for stdin or stdout.

Run "vvrecon <command> -h" for command-specific options.
`)
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func parseFormat(s string) (picture.ChromaFormat, error) {
	switch s {
	case "400":
		return picture.Chroma400, nil
	case "420":
		return picture.Chroma420, nil
	case "422":
		return picture.Chroma422, nil
	case "444":
		return picture.Chroma444, nil
	}
	return 0, errors.Errorf("unknown chroma format %q (want 400, 420, 422 or 444)", s)
}

func parseTrType(s string) (unit.TrType, error) {
	switch strings.ToLower(s) {
	case "dct2":
		return unit.DCT2, nil
	case "dst7":
		return unit.DST7, nil
	case "dct8":
		return unit.DCT8, nil
	case "ts", "skip":
		return unit.TransformSkip, nil
	}
	return 0, errors.Errorf("unknown transform %q (want dct2, dst7, dct8 or ts)", s)
}

func parseMode(s string) (unit.PredMode, error) {
	switch s {
	case "intra":
		return unit.ModeIntra, nil
	case "inter":
		return unit.ModeInter, nil
	case "ibc":
		return unit.ModeIBC, nil
	}
	return 0, errors.Errorf("unknown prediction mode %q (want intra, inter or ibc)", s)
}

// --- deblock ---

func runDeblock(args []string) error {
	fs := flag.NewFlagSet("deblock", flag.ContinueOnError)
	width := fs.Int("w", 0, "luma width (multiple of 8)")
	height := fs.Int("h", 0, "luma height (multiple of 8)")
	bitDepth := fs.Int("bd", 8, "bit depth 8-12")
	format := fs.String("format", "420", "chroma format: 400/420/422/444")
	ctuSize := fs.Int("ctu", 128, "CTU size")
	cuSize := fs.Int("cu", 16, "coding unit size of the block grid")
	qp := fs.Int("qp", 32, "luma QP of every coding unit")
	mode := fs.String("mode", "intra", "prediction mode: intra/inter/ibc")
	betaOff := fs.Int("beta", 0, "beta offset div 2 (all components)")
	tcOff := fs.Int("tc", 0, "tc offset div 2 (all components)")
	cbOff := fs.Int("cbqp", 0, "picture Cb QP offset")
	crOff := fs.Int("crqp", 0, "picture Cr QP offset")
	ladf := fs.String("ladf", "", "luma adaptive offsets: lowest[,bound:offset...]")
	workers := fs.Int("workers", 0, "worker goroutines (0=GOMAXPROCS)")
	verbose := fs.Bool("v", false, "log phase timings to stderr")
	output := fs.String("o", "", `output path (default: <input>.dbk.yuv, "-" for stdout)`)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("deblock: missing input file\nUsage: vvrecon deblock [options] <input.yuv>")
	}
	if *width <= 0 || *height <= 0 {
		return errors.New("deblock: -w and -h are required")
	}
	if *bitDepth < 8 || *bitDepth > 12 {
		return errors.Errorf("deblock: bit depth %d out of range 8-12", *bitDepth)
	}
	inputPath := fs.Arg(0)
	outputPath := *output
	if outputPath == "" {
		if inputPath == "-" {
			outputPath = "-"
		} else {
			base := strings.TrimSuffix(strings.TrimSuffix(inputPath, ".zst"), ".yuv")
			outputPath = base + ".dbk.yuv"
		}
	}

	cf, err := parseFormat(*format)
	if err != nil {
		return err
	}
	pm, err := parseMode(*mode)
	if err != nil {
		return err
	}
	params := vvrecon.DeblockingParams{}
	for c := range params.BetaOffsetDiv2 {
		params.BetaOffsetDiv2[c] = *betaOff
		params.TcOffsetDiv2[c] = *tcOff
	}
	if *ladf != "" {
		if params.LADF, err = parseLADF(*ladf); err != nil {
			return err
		}
	}

	cs := unit.NewCodingStructure(*width, *height, *ctuSize, cf, *bitDepth)
	cs.CbQPOffset = *cbOff
	cs.CrQPOffset = *crOff
	tmpl := unit.CodingUnit{Mode: pm, QP: *qp}
	if pm != unit.ModeIntra {
		tmpl.Motion = unit.MotionInfo{Dir: unit.DirL0}
	}
	cs.Tile(*cuSize, tmpl)
	if err := cs.Finalize(); err != nil {
		return err
	}

	data, err := readInput(inputPath)
	if err != nil {
		return err
	}
	pic, err := decodeYUV(data, *width, *height, cf, *bitDepth)
	if err != nil {
		return err
	}

	start := time.Now()
	opts := &vvrecon.Options{Workers: *workers, Deblocking: params, Logger: newLogger(*verbose)}
	if err := vvrecon.Deblock(pic, cs, opts); err != nil {
		return err
	}
	elapsed := time.Since(start)

	buf := pool.Get(frameSize(*width, *height, cf, *bitDepth))
	defer pool.Put(buf)
	if err := writeOutput(outputPath, encodeYUV(buf[:0], pic)); err != nil {
		return err
	}
	if outputPath != "-" {
		fmt.Fprintf(os.Stderr, "Deblocked %dx%d %v %d-bit (%s kernels) in %v -> %s\n",
			*width, *height, cf, *bitDepth, vvrecon.Kernels(), elapsed.Round(time.Microsecond), outputPath)
	}
	return nil
}

// parseLADF parses "lowest,bound:offset,bound:offset".
func parseLADF(s string) (*vvrecon.LADFParams, error) {
	parts := strings.Split(s, ",")
	lowest, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, errors.Wrapf(err, "ladf lowest offset %q", parts[0])
	}
	l := &vvrecon.LADFParams{LowestIntervalQPOffset: lowest}
	for _, p := range parts[1:] {
		bound, off, ok := strings.Cut(p, ":")
		if !ok {
			return nil, errors.Errorf("ladf interval %q: want bound:offset", p)
		}
		b, err := strconv.Atoi(bound)
		if err != nil {
			return nil, errors.Wrapf(err, "ladf bound %q", bound)
		}
		o, err := strconv.Atoi(off)
		if err != nil {
			return nil, errors.Wrapf(err, "ladf offset %q", off)
		}
		if n := len(l.Intervals); n > 0 && b <= l.Intervals[n-1].LowerBound {
			return nil, errors.Errorf("ladf bounds must increase: %d after %d", b, l.Intervals[n-1].LowerBound)
		}
		l.Intervals = append(l.Intervals, vvrecon.LADFInterval{LowerBound: b, QPOffset: o})
	}
	return l, nil
}

// --- itx ---

func runITX(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("itx", flag.ContinueOnError)
	size := fs.String("size", "4x4", "block size WxH")
	trH := fs.String("trh", "dct2", "horizontal transform: dct2/dst7/dct8/ts")
	trV := fs.String("trv", "", "vertical transform (default: same as -trh)")
	qp := fs.Int("qp", 32, "QP")
	bitDepth := fs.Int("bd", 10, "bit depth")
	depQuant := fs.Bool("dq", false, "dependent quantization")

	if err := fs.Parse(args); err != nil {
		return err
	}
	ws, hs, ok := strings.Cut(*size, "x")
	if !ok {
		return errors.Errorf("itx: bad size %q", *size)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return errors.Wrap(err, "itx: width")
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return errors.Wrap(err, "itx: height")
	}
	th, err := parseTrType(*trH)
	if err != nil {
		return err
	}
	tv := th
	if *trV != "" {
		if tv, err = parseTrType(*trV); err != nil {
			return err
		}
	}

	fields := fs.Args()
	if len(fields) == 0 {
		sc := bufio.NewScanner(stdin)
		sc.Split(bufio.ScanWords)
		for sc.Scan() {
			fields = append(fields, sc.Text())
		}
		if err := sc.Err(); err != nil {
			return errors.WithStack(err)
		}
	}
	if len(fields) > w*h {
		return errors.Errorf("itx: %d levels for a %dx%d block", len(fields), w, h)
	}
	if w <= 0 || h <= 0 || w > unit.MaxTUSize || h > unit.MaxTUSize {
		return errors.Errorf("itx: block size %dx%d out of range", w, h)
	}
	coeffs := pool.GetInt32Zeroed(w * h)
	defer pool.PutInt32(coeffs)
	for i, f := range fields {
		v, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return errors.Wrapf(err, "itx: level %d", i)
		}
		coeffs[i] = int32(v)
	}

	res, err := vvrecon.InverseTransformBlock(coeffs, w, h, th, tv, *qp, *bitDepth, *depQuant)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(stdout)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(int(res[y*w+x])))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// --- tables ---

func runTables(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("tables", flag.ContinueOnError)
	bitDepth := fs.Int("bd", 10, "bit depth")
	betaOff := fs.Int("beta", 0, "beta offset div 2")
	tcOff := fs.Int("tc", 0, "tc offset div 2")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *bitDepth < picture.MinBitDepth || *bitDepth > picture.MaxBitDepth {
		return errors.Errorf("tables: bit depth %d out of range", *bitDepth)
	}

	bw := bufio.NewWriter(stdout)
	fmt.Fprintf(bw, "%3s %6s %6s %6s\n", "qp", "beta", "tc1", "tc2")
	for qp := 0; qp <= unit.MaxQP; qp++ {
		beta := deblock.Beta(qp, *bitDepth, *betaOff)
		tc1 := deblock.Tc(qp, 1, *bitDepth, *tcOff)
		tc2 := deblock.Tc(qp, 2, *bitDepth, *tcOff)
		fmt.Fprintf(bw, "%3d %6d %6d %6d\n", qp, beta, tc1, tc2)
	}
	return bw.Flush()
}
