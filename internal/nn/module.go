// Package nn implements a small layer-tree library on top of component arrays.
//
// This package provides the pieces a physics-informed network is built from:
//   - Layer interface: parameters and state are values, never fields of the layer
//   - Dense: fully connected layer with an element-wise activation
//   - Dropout: inverted dropout driven by the layer state
//   - Chain: layers applied in order, named layer_1..layer_n
//
// Parameters live in a carray.Array whose axis mirrors the layer tree, so
// "layer_1.weight" addresses the first layer's weight matrix. Layers never
// hold parameters or state themselves; Apply receives both and returns the
// new state, leaving its inputs untouched.
//
// Inputs are feature-major: a batch of N points with d features is a d×N
// matrix, and a single point is a vector of length d.
package nn

import (
	"math/rand/v2"

	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/tensor"
)

// Layer is the interface for every element of a layer tree.
//
// Layers are stateless descriptions. Initial parameters and state come from
// Init and InitState; Apply consumes them explicitly:
//
//	chain := nn.NewChain[float64](
//	    nn.NewDense[float64](2, 16, tensor.Tanh),
//	    nn.NewDense[float64](16, 1, tensor.Identity),
//	)
//	ps, _ := carray.New(backend, chain.Init(rng)...)
//	y, st, err := chain.Apply(ps, x, chain.InitState(rng))
type Layer[T tensor.Scalar] interface {
	// Name returns a short description used in logs and String output.
	Name() string

	// InputSize and OutputSize return the feature counts; zero means any.
	InputSize() int
	OutputSize() int

	// Init returns the layer's parameter entries drawn from rng. Layers
	// without parameters return an empty slice.
	Init(rng *rand.Rand) []carray.Entry[T]

	// InitState returns the layer's initial state.
	InitState(rng *rand.Rand) LayerState

	// Apply evaluates the layer on x using the parameter view ps. The
	// returned array is newly allocated; x and st are not modified.
	Apply(ps, x *carray.Array[T], st LayerState) (*carray.Array[T], LayerState, error)
}
