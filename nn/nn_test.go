// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/born-ml/carray/backend/cpu"
	"github.com/born-ml/carray/carray"
	"github.com/born-ml/carray/nn"
	"github.com/born-ml/carray/tensor"
)

// TestLayerInterface verifies that the public layers implement Layer.
func TestLayerInterface(_ *testing.T) {
	var _ nn.Layer[float64] = nn.NewDense[float64](1, 1, tensor.Identity)
	var _ nn.Layer[float64] = nn.NewDropout[float64](0.5)
	var _ nn.Layer[float64] = nn.NewChain[float64]()
}

// TestMLPApply runs a small network through the public API.
func TestMLPApply(t *testing.T) {
	backend := cpu.New()
	rng := nn.NewRand(42)
	chain := nn.MLP[float64]([]int{2, 3, 1}, tensor.Tanh, 0)

	ps, err := carray.New(backend, chain.Init(rng)...)
	if err != nil {
		t.Fatalf("carray.New failed: %v", err)
	}
	if got, want := ps.Len(), 2*3+3+3+1; got != want {
		t.Errorf("params length = %d, want %d", got, want)
	}

	x, err := carray.FromSlice(backend, []float64{0.5, 0.25})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	y, _, err := chain.Apply(ps, x, chain.InitState(rng))
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !y.Shape().Equal(tensor.Shape{1}) {
		t.Errorf("output shape = %v, want [1]", y.Shape())
	}
}
