// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/carray/internal/tensor"

// Backend is the numeric contract component arrays forward to.
//
// Implementations:
//   - backend/cpu: Pure Go BLAS (gonum)
//   - backend/webgpu: WGSL compute kernels via WebGPU (float32)
//
// Example:
//
//	import (
//	    "github.com/born-ml/carray/backend/cpu"
//	    "github.com/born-ml/carray/carray"
//	)
//
//	backend := cpu.New()
//	a, _ := carray.New(backend,
//	    carray.Zeros[float64]("weight", 2, 2),
//	    carray.Zeros[float64]("bias", 2),
//	)
//	_ = a.Fill(1)
type Backend = tensor.Backend

// Orientation selects how a matrix operand is read by Gemm.
type Orientation = tensor.Orientation

// Orientation constants.
const (
	Plain     Orientation = tensor.Plain
	Transpose Orientation = tensor.Transpose
	Adjoint   Orientation = tensor.Adjoint
)

// UnaryOp names an element-wise function applied by Backend.Map.
type UnaryOp = tensor.UnaryOp

// Element-wise functions.
const (
	Identity UnaryOp = tensor.Identity
	Tanh     UnaryOp = tensor.Tanh
	Sigmoid  UnaryOp = tensor.Sigmoid
	ReLU     UnaryOp = tensor.ReLU
	Sin      UnaryOp = tensor.Sin
	Softplus UnaryOp = tensor.Softplus
)

// ParseUnaryOp converts a function name such as "tanh" to a UnaryOp.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	return tensor.ParseUnaryOp(s)
}
