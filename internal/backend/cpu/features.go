package cpu

import (
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Features describes instruction-set extensions available to the process.
type Features struct {
	HasAVX2      bool
	HasAVX512    bool
	HasFMA       bool
	HasNEON      bool
	Architecture string
}

// DetectFeatures reports the available CPU features for the current process.
func DetectFeatures() Features {
	return Features{
		HasAVX2:      cpu.X86.HasAVX2,
		HasAVX512:    cpu.X86.HasAVX512F,
		HasFMA:       cpu.X86.HasFMA,
		HasNEON:      cpu.ARM64.HasASIMD,
		Architecture: runtime.GOARCH,
	}
}

// String lists the detected features, e.g. "amd64 avx2 fma".
func (f Features) String() string {
	parts := []string{f.Architecture}
	if f.HasAVX512 {
		parts = append(parts, "avx512")
	}
	if f.HasAVX2 {
		parts = append(parts, "avx2")
	}
	if f.HasFMA {
		parts = append(parts, "fma")
	}
	if f.HasNEON {
		parts = append(parts, "neon")
	}
	return strings.Join(parts, " ")
}
