package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/tensor"
)

// Dense implements a fully connected layer.
//
// Performs the transformation: y = act(W·x + b)
// where:
//   - x is the input with shape [in] or [in, batch]
//   - W is the weight matrix with shape [out, in]
//   - b is the bias vector with shape [out]
//   - y has shape [out] or [out, batch]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
type Dense[T tensor.Scalar] struct {
	in, out    int
	activation tensor.UnaryOp
}

// NewDense creates a Dense layer mapping in features to out features.
func NewDense[T tensor.Scalar](in, out int, activation tensor.UnaryOp) *Dense[T] {
	return &Dense[T]{in: in, out: out, activation: activation}
}

// Name describes the layer, e.g. "Dense(2 => 16, tanh)".
func (d *Dense[T]) Name() string {
	return fmt.Sprintf("Dense(%d => %d, %s)", d.in, d.out, d.activation)
}

// InputSize returns the number of input features.
func (d *Dense[T]) InputSize() int { return d.in }

// OutputSize returns the number of output features.
func (d *Dense[T]) OutputSize() int { return d.out }

// Activation returns the element-wise function applied to the output.
func (d *Dense[T]) Activation() tensor.UnaryOp { return d.activation }

// Init returns the weight and bias entries.
func (d *Dense[T]) Init(rng *rand.Rand) []carray.Entry[T] {
	return []carray.Entry[T]{
		carray.Leaf("weight", Xavier[T](rng, d.in, d.out), d.out, d.in),
		carray.Zeros[T]("bias", d.out),
	}
}

// InitState returns an empty state; Dense keeps none.
func (d *Dense[T]) InitState(*rand.Rand) LayerState {
	return LayerState{}
}

// Apply computes act(W·x + b). The bias is broadcast over the batch with a
// rank-1 update against a row of ones.
func (d *Dense[T]) Apply(ps, x *carray.Array[T], st LayerState) (*carray.Array[T], LayerState, error) {
	w, err := ps.View("weight")
	if err != nil {
		return nil, st, fmt.Errorf("nn: dense: %w", err)
	}
	b, err := ps.View("bias")
	if err != nil {
		return nil, st, fmt.Errorf("nn: dense: %w", err)
	}
	wop, err := carray.AsMatrix(w, d.out, d.in)
	if err != nil {
		return nil, st, fmt.Errorf("nn: dense weight: %w", err)
	}
	bop, err := carray.AsMatrix(b, d.out, 1)
	if err != nil {
		return nil, st, fmt.Errorf("nn: dense bias: %w", err)
	}

	xop, err := carray.Plain(x)
	if err != nil {
		return nil, st, fmt.Errorf("nn: dense input: %w", err)
	}
	if xop.Rows() != d.in {
		return nil, st, fmt.Errorf("nn: dense: %w: expected %d input features, got %d", tensor.ErrShapeMismatch, d.in, xop.Rows())
	}
	batch := xop.Cols()

	outShape := []int{d.out, batch}
	if len(x.Shape()) < 2 {
		outShape = []int{d.out}
	}
	y, err := carray.Empty[T](x.Backend(), outShape...)
	if err != nil {
		return nil, st, err
	}

	if err := d.forward(y, wop, xop, bop, batch); err != nil {
		y.Release()
		return nil, st, err
	}
	return y, st, nil
}

func (d *Dense[T]) forward(y *carray.Array[T], w, x, b carray.Operand[T], batch int) error {
	one := tensor.Convert[T](1.0)
	var zero T

	if err := carray.Mul(y, w, x, one, zero); err != nil {
		return fmt.Errorf("nn: dense: %w", err)
	}

	ones, err := carray.Empty[T](y.Backend(), batch)
	if err != nil {
		return err
	}
	defer ones.Release()
	if err := ones.Fill(one); err != nil {
		return err
	}
	row, err := carray.AsMatrix(ones, 1, batch)
	if err != nil {
		return err
	}
	if err := carray.Mul(y, b, row, one, one); err != nil {
		return fmt.Errorf("nn: dense bias: %w", err)
	}

	if d.activation == tensor.Identity {
		return nil
	}
	return y.Apply(d.activation)
}
