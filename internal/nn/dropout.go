package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/tensor"
)

// Dropout zeroes each element with probability p while training and scales
// the survivors by 1/(1-p). Outside training it copies its input.
//
// The mask is drawn from a PCG stream keyed by the state's Seed and Calls,
// so the same state always produces the same mask. Every training call
// returns a state with Calls advanced.
type Dropout[T tensor.Scalar] struct {
	p float64
}

// NewDropout creates a Dropout layer. p is clamped to [0, 1].
func NewDropout[T tensor.Scalar](p float64) *Dropout[T] {
	return &Dropout[T]{p: min(max(p, 0), 1)}
}

// Name describes the layer.
func (d *Dropout[T]) Name() string { return fmt.Sprintf("Dropout(%g)", d.p) }

// InputSize returns zero: any width is accepted.
func (d *Dropout[T]) InputSize() int { return 0 }

// OutputSize returns zero: the width is that of the input.
func (d *Dropout[T]) OutputSize() int { return 0 }

// Init returns no parameters.
func (d *Dropout[T]) Init(*rand.Rand) []carray.Entry[T] {
	return []carray.Entry[T]{}
}

// InitState draws the mask seed from rng.
func (d *Dropout[T]) InitState(rng *rand.Rand) LayerState {
	return LayerState{Seed: rng.Uint64()}
}

// Apply applies the dropout mask when st.Training is set.
func (d *Dropout[T]) Apply(_, x *carray.Array[T], st LayerState) (*carray.Array[T], LayerState, error) {
	y, err := carray.Clone(x)
	if err != nil {
		return nil, st, fmt.Errorf("nn: dropout: %w", err)
	}
	if !st.Training || d.p == 0 || x.Len() == 0 {
		return y, st, nil
	}

	mask, err := carray.FromSlice(x.Backend(), d.mask(st, x.Len()))
	if err != nil {
		y.Release()
		return nil, st, fmt.Errorf("nn: dropout: %w", err)
	}
	defer mask.Release()
	if err := carray.Hadamard(y, mask); err != nil {
		y.Release()
		return nil, st, fmt.Errorf("nn: dropout: %w", err)
	}

	next := st.Clone()
	next.Calls++
	return y, next, nil
}

func (d *Dropout[T]) mask(st LayerState, n int) []T {
	rng := rand.New(rand.NewPCG(st.Seed, st.Calls))
	keep := tensor.Convert[T](0.0)
	if d.p < 1 {
		keep = tensor.Convert[T](1 / (1 - d.p))
	}
	out := make([]T, n)
	for i := range out {
		if rng.Float64() >= d.p {
			out[i] = keep
		}
	}
	return out
}
