// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for component arrays.
//
// # Overview
//
// This package implements the numeric backend contract with:
//   - Pure Go implementation (no CGO)
//   - gonum BLAS for gemm, dot, nrm2 and scal
//   - Float32, Float64, Complex64 and Complex128 support
//   - Parallel element-wise loops for large buffers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/carray/backend/cpu"
//	    "github.com/born-ml/carray/carray"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    a, _ := carray.New(backend,
//	        carray.Zeros[float64]("weight", 2, 2),
//	        carray.Zeros[float64]("bias", 2),
//	    )
//	    _ = a.Fill(1)
//	}
//
// # Thread Safety
//
// The CPU backend keeps no mutable state besides its parallel
// configuration; operations on disjoint buffers may run concurrently.
package cpu
