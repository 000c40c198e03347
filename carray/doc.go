// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package carray provides component arrays: flat buffers with a named,
// hierarchical layout.
//
// # Overview
//
// An Array pairs one contiguous buffer, resident on a tensor.Backend, with an
// immutable Axis mapping key paths to sub-ranges:
//
//	a, _ := carray.New(backend,
//	    carray.Group("layer_1",
//	        carray.Zeros[float64]("weight", 16, 2),
//	        carray.Zeros[float64]("bias", 16),
//	    ),
//	)
//	w, _ := a.View("layer_1.weight") // 16×2 view sharing a's buffer
//	row, _ := a.Get("layer_1.weight.0")
//
// Bulk operations (Fill, Rmul, Dot, Norm, Mul) are a single backend call on
// the flat buffer and ignore the layout.
//
// # Matrix Products
//
// Mul computes c = alpha*op(a)*op(b) + beta*c where each operand carries an
// orientation:
//
//	wt, _ := carray.Transpose(w)
//	x, _ := carray.Plain(v)
//	_ = carray.Mul(out, wt, x, 1.0, 0.0)
//
// Transpose and Adjoint return operands that keep the source array and its
// axis; Materialize copies one into a plain matrix array.
//
// # Persistence
//
// Save and Load use the SafeTensors format with one header entry per leaf.
package carray
