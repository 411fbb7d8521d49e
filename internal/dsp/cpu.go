package dsp

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// detectWide reports whether the wide kernel set pays off on this CPU:
// AVX2 on amd64, Advanced SIMD on arm64.
func detectWide() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAVX2
	case "arm64":
		return cpu.ARM64.HasASIMD
	}
	return false
}

