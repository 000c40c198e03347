// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/tensor"
)

// Layer is the interface implemented by every element of a layer tree.
type Layer[T tensor.Scalar] = nn.Layer[T]

// LayerState is the non-trainable state threaded through Apply.
type LayerState = nn.LayerState

// Training returns a copy of s with the training flag set on every node.
func Training(s LayerState, on bool) LayerState {
	return nn.Training(s, on)
}

// Layers

// Dense represents a fully connected layer with an activation.
type Dense[T tensor.Scalar] = nn.Dense[T]

// NewDense creates a Dense layer.
//
// Example:
//
//	layer := nn.NewDense[float64](2, 16, tensor.Tanh)
func NewDense[T tensor.Scalar](in, out int, activation tensor.UnaryOp) *Dense[T] {
	return nn.NewDense[T](in, out, activation)
}

// Dropout represents an inverted dropout layer.
type Dropout[T tensor.Scalar] = nn.Dropout[T]

// NewDropout creates a Dropout layer with drop probability p.
func NewDropout[T tensor.Scalar](p float64) *Dropout[T] {
	return nn.NewDropout[T](p)
}

// Containers

// Chain applies layers in order.
type Chain[T tensor.Scalar] = nn.Chain[T]

// NewChain creates a Chain of layers named layer_1..layer_n.
//
// Example:
//
//	chain := nn.NewChain[float64](
//	    nn.NewDense[float64](2, 16, tensor.Tanh),
//	    nn.NewDense[float64](16, 1, tensor.Identity),
//	)
func NewChain[T tensor.Scalar](layers ...Layer[T]) *Chain[T] {
	return nn.NewChain(layers...)
}

// MLP returns a chain of Dense layers through widths.
func MLP[T tensor.Scalar](widths []int, act tensor.UnaryOp, dropout float64) *Chain[T] {
	return nn.MLP[T](widths, act, dropout)
}

// Initialization

// Xavier draws fanIn*fanOut values from the Glorot uniform distribution.
func Xavier[T tensor.Scalar](rng *rand.Rand, fanIn, fanOut int) []T {
	return nn.Xavier[T](rng, fanIn, fanOut)
}

// Uniform draws n values from U(-bound, bound).
func Uniform[T tensor.Scalar](rng *rand.Rand, n int, bound float64) []T {
	return nn.Uniform[T](rng, n, bound)
}

// NewRand returns a PCG-backed random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return nn.NewRand(seed)
}
