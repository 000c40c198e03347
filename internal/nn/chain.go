package nn

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/tensor"
)

// Chain applies layers in order, each layer's output becoming the next
// layer's input.
//
// Layer i (1-based) is named "layer_i": its parameters live under that key
// in the parameter array and its state under the same key in the chain's
// state.
//
// Example:
//
//	chain := nn.NewChain[float64](
//	    nn.NewDense[float64](2, 16, tensor.Tanh),
//	    nn.NewDense[float64](16, 1, tensor.Identity),
//	)
//	entries := chain.Init(rng) // layer_1.{weight,bias}, layer_2.{weight,bias}
type Chain[T tensor.Scalar] struct {
	layers []Layer[T]
}

// NewChain creates a Chain of layers.
func NewChain[T tensor.Scalar](layers ...Layer[T]) *Chain[T] {
	return &Chain[T]{layers: layers}
}

// LayerName returns the key of the i-th layer (0-based index).
func LayerName(i int) string {
	return fmt.Sprintf("layer_%d", i+1)
}

// Layers returns the layers in order.
func (c *Chain[T]) Layers() []Layer[T] {
	return c.layers
}

// Name lists the chain's layers.
func (c *Chain[T]) Name() string {
	names := make([]string, len(c.layers))
	for i, l := range c.layers {
		names[i] = l.Name()
	}
	return "Chain(" + strings.Join(names, ", ") + ")"
}

// InputSize returns the input width of the first layer with a fixed width.
func (c *Chain[T]) InputSize() int {
	for _, l := range c.layers {
		if n := l.InputSize(); n > 0 {
			return n
		}
	}
	return 0
}

// OutputSize returns the output width of the last layer with a fixed width.
func (c *Chain[T]) OutputSize() int {
	for i := len(c.layers) - 1; i >= 0; i-- {
		if n := c.layers[i].OutputSize(); n > 0 {
			return n
		}
	}
	return 0
}

// Check verifies that consecutive fixed widths agree.
func (c *Chain[T]) Check() error {
	prev := 0
	for i, l := range c.layers {
		if in := l.InputSize(); in > 0 && prev > 0 && in != prev {
			return fmt.Errorf("nn: chain %s: %w: expects %d inputs, previous layer produces %d",
				LayerName(i), tensor.ErrShapeMismatch, in, prev)
		}
		if out := l.OutputSize(); out > 0 {
			prev = out
		}
	}
	return nil
}

// Init returns one group entry per layer holding that layer's parameters.
func (c *Chain[T]) Init(rng *rand.Rand) []carray.Entry[T] {
	entries := make([]carray.Entry[T], len(c.layers))
	for i, l := range c.layers {
		entries[i] = carray.Group(LayerName(i), l.Init(rng)...)
	}
	return entries
}

// InitState returns a state with one child per layer.
func (c *Chain[T]) InitState(rng *rand.Rand) LayerState {
	st := LayerState{Children: make(map[string]LayerState, len(c.layers))}
	for i, l := range c.layers {
		st.Children[LayerName(i)] = l.InitState(rng)
	}
	return st
}

// Apply runs every layer in order. Intermediate results are released; the
// returned state is a new value and st is left unchanged.
func (c *Chain[T]) Apply(ps, x *carray.Array[T], st LayerState) (*carray.Array[T], LayerState, error) {
	next := st.Clone()
	if next.Children == nil {
		next.Children = make(map[string]LayerState, len(c.layers))
	}

	cur := x
	for i, l := range c.layers {
		name := LayerName(i)
		view, err := ps.View(name)
		if err != nil {
			release(cur, x)
			return nil, st, fmt.Errorf("nn: chain: %w", err)
		}
		y, s, err := l.Apply(view, cur, next.Children[name])
		release(cur, x)
		if err != nil {
			return nil, st, fmt.Errorf("nn: chain %s: %w", name, err)
		}
		next.Children[name] = s
		cur = y
	}

	if cur == x {
		out, err := carray.Clone(x)
		if err != nil {
			return nil, st, fmt.Errorf("nn: chain: %w", err)
		}
		return out, next, nil
	}
	return cur, next, nil
}

func release[T tensor.Scalar](cur, input *carray.Array[T]) {
	if cur != input {
		cur.Release()
	}
}

// MLP returns a chain of Dense layers through the given widths. Hidden
// layers use act, the output layer is linear, and a Dropout follows every
// hidden layer when dropout > 0.
func MLP[T tensor.Scalar](widths []int, act tensor.UnaryOp, dropout float64) *Chain[T] {
	var layers []Layer[T]
	for i := 0; i+1 < len(widths); i++ {
		last := i+2 == len(widths)
		fn := act
		if last {
			fn = tensor.Identity
		}
		layers = append(layers, NewDense[T](widths[i], widths[i+1], fn))
		if !last && dropout > 0 {
			layers = append(layers, NewDropout[T](dropout))
		}
	}
	return NewChain(layers...)
}
