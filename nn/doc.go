// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides layer trees whose parameters live in component arrays.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Dropout
//   - Containers: Chain, MLP
//   - State: LayerState, threaded explicitly through Apply
//   - Initialization: Xavier, Uniform, NewRand
//
// Layers hold neither parameters nor state. Init returns parameter entries
// for carray.New, and Apply receives the parameter view, the input and the
// state, returning the output and the next state.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/carray/backend/cpu"
//	    "github.com/born-ml/carray/carray"
//	    "github.com/born-ml/carray/nn"
//	    "github.com/born-ml/carray/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    rng := nn.NewRand(42)
//
//	    chain := nn.MLP[float64]([]int{2, 16, 1}, tensor.Tanh, 0)
//	    ps, _ := carray.New(backend, chain.Init(rng)...)
//	    st := chain.InitState(rng)
//
//	    x, _ := carray.FromSlice(backend, []float64{0.5, 0.25})
//	    y, st, _ := chain.Apply(ps, x, st)
//	}
//
// # Randomness
//
// Every initializer takes an explicit *rand.Rand. Nothing reads a global
// random source.
package nn
