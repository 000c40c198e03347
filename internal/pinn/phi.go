package pinn

import (
	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/tensor"
)

// Phi evaluates one chain with explicit state threading:
//
//	y, next, err := phi.Step(st, x, ps)
//
// The state is not part of ps and is never differentiated. Step leaves st
// unchanged; callers keep next for the following call.
type Phi[T tensor.Scalar] struct {
	chain *nn.Chain[T]
}

// NewPhi wraps a chain.
func NewPhi[T tensor.Scalar](chain *nn.Chain[T]) *Phi[T] {
	return &Phi[T]{chain: chain}
}

// Chain returns the wrapped chain.
func (p *Phi[T]) Chain() *nn.Chain[T] {
	return p.chain
}

// Step evaluates the chain at x with parameters ps and state st.
func (p *Phi[T]) Step(st nn.LayerState, x, ps *carray.Array[T]) (*carray.Array[T], nn.LayerState, error) {
	return p.chain.Apply(ps, x, st)
}
