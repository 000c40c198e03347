// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/carray/internal/backend/cpu"
	"github.com/born-ml/carray/internal/parallel"
	"github.com/born-ml/carray/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend runs every numeric operation on host memory through
// gonum's pure Go BLAS.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Features reports the instruction-set extensions of the host CPU.
type Features = internalcpu.Features

// ParallelConfig controls how element-wise loops are split across goroutines.
type ParallelConfig = parallel.Config

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/carray/backend/cpu"
//	    "github.com/born-ml/carray/carray"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    a, _ := carray.FromSlice(backend, []float64{1, 2, 3})
//	}
func New() *Backend {
	return internalcpu.New()
}

// DefaultParallelConfig returns a configuration using every CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}
