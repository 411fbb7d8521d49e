package dsp

// Integer transform bases. All matrices are stored row-major with the
// frequency index as row: basis[k*N+n] is the weight of coefficient k on
// output sample n. They are built once by initTransformTables and never
// modified afterwards.

// dct2Angle holds |64·√2·cos(π·m/128)| rounded the way the standard's
// 64-point DCT-II matrix does, for m in [0, 64]. Entry 0 is the DC weight.
var dct2Angle = [65]int16{
	64, 91, 90, 90, 90, 90, 90, 90, 89, 88, 88, 87, 87, 86, 85, 84,
	83, 83, 82, 81, 80, 79, 78, 77, 75, 73, 73, 71, 70, 69, 67, 65,
	64, 62, 61, 59, 57, 56, 54, 52, 50, 48, 46, 44, 43, 41, 38, 37,
	36, 33, 31, 28, 25, 24, 22, 20, 18, 15, 13, 11, 9, 7, 4, 2,
	0,
}

// dst7FirstRow holds the lowest-frequency DST-VII basis function per size.
// Every other row of the N-point matrix is a signed permutation of it.
var (
	dst7FirstRow4  = [4]int16{29, 55, 74, 84}
	dst7FirstRow8  = [8]int16{17, 32, 46, 60, 71, 78, 85, 86}
	dst7FirstRow16 = [16]int16{8, 17, 25, 33, 40, 48, 55, 62, 68, 73, 77, 81, 85, 87, 88, 88}
	dst7FirstRow32 = [32]int16{
		4, 9, 13, 17, 21, 26, 30, 34, 38, 42, 46, 50, 53, 56, 60, 63,
		66, 68, 72, 74, 77, 78, 80, 82, 84, 85, 86, 88, 88, 89, 90, 90,
	}
)

// Per-size bases indexed by log2 of the size. Missing sizes are nil.
var (
	dct2Basis [7][]int16
	dst7Basis [7][]int16
	dct8Basis [7][]int16
)

// dct2Weight returns the weight of frequency k on sample n of the 64-point
// DCT-II.
func dct2Weight(k, n int) int16 {
	a := ((2*n + 1) * k) & 255
	if a > 128 {
		a = 256 - a
	}
	if a <= 64 {
		return dct2Angle[a]
	}
	return -dct2Angle[128-a]
}

// dst7Weight returns the weight of frequency k on sample n of the N-point
// DST-VII, sin(π·(2k+1)·(n+1)/(2N+1)) scaled through first.
func dst7Weight(first []int16, k, n int) int16 {
	size := len(first)
	m := 2*size + 1
	r := ((2*k + 1) * (n + 1)) % (2 * m)
	var sign int16 = 1
	if r >= m {
		r -= m
		sign = -1
	}
	switch {
	case r == 0:
		return 0
	case r <= size:
		return sign * first[r-1]
	default:
		return sign * first[m-r-1]
	}
}

func initTransformTables() {
	for log2 := 1; log2 <= 6; log2++ {
		n := 1 << log2
		step := 64 / n
		b := make([]int16, n*n)
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				b[k*n+j] = dct2Weight(k*step, j)
			}
		}
		dct2Basis[log2] = b
	}

	firsts := [7][]int16{2: dst7FirstRow4[:], 3: dst7FirstRow8[:], 4: dst7FirstRow16[:], 5: dst7FirstRow32[:]}
	for log2 := 2; log2 <= 5; log2++ {
		n := 1 << log2
		s := make([]int16, n*n)
		c := make([]int16, n*n)
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				s[k*n+j] = dst7Weight(firsts[log2], k, j)
			}
		}
		// DCT-VIII[k][n] = (-1)^k · DST-VII[k][N-1-n].
		for k := 0; k < n; k++ {
			for j := 0; j < n; j++ {
				v := s[k*n+n-1-j]
				if k&1 == 1 {
					v = -v
				}
				c[k*n+j] = v
			}
		}
		dst7Basis[log2] = s
		dct8Basis[log2] = c
	}
}

// Basis returns the integer basis of family at size 1<<log2, or nil when
// the family has no kernel of that size. The returned slice must not be
// modified.
func Basis(family Family, log2 int) []int16 {
	if log2 < 0 || log2 > 6 {
		return nil
	}
	switch family {
	case FamilyDCT2:
		return dct2Basis[log2]
	case FamilyDST7:
		return dst7Basis[log2]
	case FamilyDCT8:
		return dct8Basis[log2]
	}
	return nil
}
