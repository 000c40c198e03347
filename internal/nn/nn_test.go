package nn_test

import (
	"math"
	"testing"

	"github.com/born-ml/carray/internal/backend/cpu"
	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denseParams(t *testing.T, backend tensor.Backend, bias ...float64) *carray.Array[float64] {
	t.Helper()
	ps, err := carray.New(backend,
		carray.Leaf("weight", []float64{1, 2, 3, 4}, 2, 2),
		carray.Leaf("bias", bias),
	)
	require.NoError(t, err)
	return ps
}

func hostValues[T tensor.Scalar](t *testing.T, a *carray.Array[T]) []T {
	t.Helper()
	vals, err := a.Host()
	require.NoError(t, err)
	return vals
}

func TestDenseBatch(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDense[float64](2, 2, tensor.Identity)
	ps := denseParams(t, backend, 0.5, -1)

	// Two points as columns: (1, 2) and (1, 0).
	x, err := carray.FromSlice(backend, []float64{1, 1, 2, 0}, 2, 2)
	require.NoError(t, err)

	y, st, err := d.Apply(ps, x, d.InitState(nn.NewRand(1)))
	require.NoError(t, err)
	assert.Equal(t, nn.LayerState{}, st)
	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.InDeltaSlice(t, []float64{5.5, 1.5, 10, 2}, hostValues(t, y), 1e-12)
}

func TestDenseVector(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDense[float64](2, 2, tensor.Identity)
	ps := denseParams(t, backend, 0.5, -1)

	x, err := carray.FromSlice(backend, []float64{1, 2})
	require.NoError(t, err)
	y, _, err := d.Apply(ps, x, nn.LayerState{})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2}, y.Shape())
	assert.InDeltaSlice(t, []float64{5.5, 10}, hostValues(t, y), 1e-12)

	// Input is untouched.
	assert.Equal(t, []float64{1, 2}, hostValues(t, x))
}

func TestDenseActivation(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDense[float64](2, 2, tensor.ReLU)
	ps := denseParams(t, backend, -20, 0)

	x, err := carray.FromSlice(backend, []float64{1, 2})
	require.NoError(t, err)
	y, _, err := d.Apply(ps, x, nn.LayerState{})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 11}, hostValues(t, y), 1e-12)
	assert.Equal(t, "Dense(2 => 2, relu)", d.Name())
}

func TestDenseInputMismatch(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDense[float64](2, 2, tensor.Identity)
	ps := denseParams(t, backend, 0, 0)

	x, err := carray.FromSlice(backend, []float64{1, 2, 3})
	require.NoError(t, err)
	_, _, err = d.Apply(ps, x, nn.LayerState{})
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
}

func TestDenseMissingParameter(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDense[float64](2, 2, tensor.Identity)
	ps, err := carray.New(backend, carray.Zeros[float64]("weight", 2, 2))
	require.NoError(t, err)
	x, err := carray.FromSlice(backend, []float64{1, 2})
	require.NoError(t, err)

	_, _, err = d.Apply(ps, x, nn.LayerState{})
	require.ErrorIs(t, err, tensor.ErrKeyNotFound)
}

func TestDenseInit(t *testing.T) {
	d := nn.NewDense[float32](3, 5, tensor.Tanh)
	ps, err := carray.New(cpu.New(), d.Init(nn.NewRand(7))...)
	require.NoError(t, err)

	assert.Equal(t, []string{"weight", "bias"}, ps.Keys())
	w, err := ps.View("weight")
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{5, 3}, w.Shape())

	bound := float32(math.Sqrt(6.0 / 8.0))
	for _, v := range hostValues(t, w) {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
	bias, err := ps.Get("bias")
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0, 0}, bias)
}

func TestXavierDeterministic(t *testing.T) {
	a := nn.Xavier[float64](nn.NewRand(42), 4, 4)
	b := nn.Xavier[float64](nn.NewRand(42), 4, 4)
	c := nn.Xavier[float64](nn.NewRand(43), 4, 4)
	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	assert.Empty(t, nn.Xavier[float64](nn.NewRand(1), 0, 0))
}

func TestDropoutInference(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDropout[float64](0.5)
	st := d.InitState(nn.NewRand(3))
	assert.False(t, st.Training)

	x, err := carray.FromSlice(backend, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	y, next, err := d.Apply(nil, x, st)
	require.NoError(t, err)
	assert.Equal(t, st, next)
	assert.Equal(t, []float64{1, 2, 3, 4}, hostValues(t, y))
	assert.False(t, y.Data().SameMemory(x.Data()))
}

func TestDropoutTrainingDeterministic(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDropout[float64](0.5)
	st := nn.Training(d.InitState(nn.NewRand(3)), true)

	vals := make([]float64, 64)
	for i := range vals {
		vals[i] = 1
	}
	x, err := carray.FromSlice(backend, vals)
	require.NoError(t, err)

	y1, next, err := d.Apply(nil, x, st)
	require.NoError(t, err)
	y2, _, err := d.Apply(nil, x, st)
	require.NoError(t, err)
	assert.Equal(t, hostValues(t, y1), hostValues(t, y2))
	assert.Equal(t, uint64(0), st.Calls)
	assert.Equal(t, uint64(1), next.Calls)

	kept := 0
	for _, v := range hostValues(t, y1) {
		switch v {
		case 0:
		case 2:
			kept++
		default:
			t.Fatalf("unexpected dropout output %v", v)
		}
	}
	assert.Greater(t, kept, 0)
	assert.Less(t, kept, 64)

	y3, _, err := d.Apply(nil, x, next)
	require.NoError(t, err)
	assert.NotEqual(t, hostValues(t, y1), hostValues(t, y3))
}

func TestDropoutDropAll(t *testing.T) {
	backend := cpu.New()
	d := nn.NewDropout[float64](1.5)
	assert.Equal(t, "Dropout(1)", d.Name())

	x, err := carray.FromSlice(backend, []float64{1, 2, 3})
	require.NoError(t, err)
	y, _, err := d.Apply(nil, x, nn.LayerState{Training: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, hostValues(t, y))
}

func newChain() *nn.Chain[float64] {
	return nn.NewChain[float64](
		nn.NewDense[float64](2, 4, tensor.Tanh),
		nn.NewDropout[float64](0.25),
		nn.NewDense[float64](4, 1, tensor.Identity),
	)
}

func TestChainInitLayout(t *testing.T) {
	chain := newChain()
	require.NoError(t, chain.Check())
	assert.Equal(t, 2, chain.InputSize())
	assert.Equal(t, 1, chain.OutputSize())

	ps, err := carray.New(cpu.New(), chain.Init(nn.NewRand(1))...)
	require.NoError(t, err)
	assert.Equal(t, []string{"layer_1", "layer_2", "layer_3"}, ps.Keys())
	assert.Equal(t, 2*4+4+4*1+1, ps.Len())

	w, err := ps.View("layer_3.weight")
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 4}, w.Shape())
	empty, err := ps.View("layer_2")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestChainApplyThreadsState(t *testing.T) {
	backend := cpu.New()
	chain := newChain()
	rng := nn.NewRand(9)
	ps, err := carray.New(backend, chain.Init(rng)...)
	require.NoError(t, err)
	st := nn.Training(chain.InitState(rng), true)
	before := st.Clone()

	x, err := carray.FromSlice(backend, []float64{0.1, 0.2, 0.3, -0.4, 0.5, 0.6}, 2, 3)
	require.NoError(t, err)

	y, next, err := chain.Apply(ps, x, st)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3}, y.Shape())

	assert.Equal(t, before, st)
	assert.Equal(t, uint64(1), next.Children["layer_2"].Calls)
	assert.Equal(t, uint64(0), st.Children["layer_2"].Calls)

	// Same state, same output.
	again, _, err := chain.Apply(ps, x, st)
	require.NoError(t, err)
	assert.Equal(t, hostValues(t, y), hostValues(t, again))
}

func TestChainInferenceMatchesManual(t *testing.T) {
	backend := cpu.New()
	chain := nn.NewChain[float64](
		nn.NewDense[float64](2, 2, tensor.Identity),
		nn.NewDense[float64](2, 1, tensor.Identity),
	)
	ps, err := carray.New(backend,
		carray.Group("layer_1",
			carray.Leaf("weight", []float64{1, 2, 3, 4}, 2, 2),
			carray.Leaf("bias", []float64{0.5, -1}),
		),
		carray.Group("layer_2",
			carray.Leaf("weight", []float64{1, -1}, 1, 2),
			carray.Leaf("bias", []float64{2}),
		),
	)
	require.NoError(t, err)

	x, err := carray.FromSlice(backend, []float64{1, 2})
	require.NoError(t, err)
	y, _, err := chain.Apply(ps, x, chain.InitState(nn.NewRand(0)))
	require.NoError(t, err)
	// layer_1: (5.5, 10); layer_2: 5.5 - 10 + 2.
	assert.InDeltaSlice(t, []float64{-2.5}, hostValues(t, y), 1e-12)
}

func TestChainCheck(t *testing.T) {
	chain := nn.NewChain[float64](
		nn.NewDense[float64](2, 4, tensor.Tanh),
		nn.NewDropout[float64](0.1),
		nn.NewDense[float64](3, 1, tensor.Identity),
	)
	require.ErrorIs(t, chain.Check(), tensor.ErrShapeMismatch)
}

func TestEmptyChainCopiesInput(t *testing.T) {
	backend := cpu.New()
	chain := nn.NewChain[float64]()
	ps, err := carray.New[float64](backend)
	require.NoError(t, err)
	x, err := carray.FromSlice(backend, []float64{1, 2})
	require.NoError(t, err)

	y, _, err := chain.Apply(ps, x, chain.InitState(nn.NewRand(0)))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, hostValues(t, y))
	assert.NotSame(t, x, y)
	assert.Equal(t, "Chain()", chain.Name())
}

func TestTrainingIsRecursive(t *testing.T) {
	st := newChain().InitState(nn.NewRand(5))
	on := nn.Training(st, true)
	assert.True(t, on.Training)
	for name, c := range on.Children {
		assert.True(t, c.Training, name)
	}
	for _, c := range st.Children {
		assert.False(t, c.Training)
	}
}

func TestMLP(t *testing.T) {
	chain := nn.MLP[float64]([]int{2, 8, 8, 1}, tensor.Tanh, 0.1)
	layers := chain.Layers()
	require.Len(t, layers, 5)
	assert.Equal(t, "Dense(2 => 8, tanh)", layers[0].Name())
	assert.Equal(t, "Dropout(0.1)", layers[1].Name())
	assert.Equal(t, "Dense(8 => 1, identity)", layers[4].Name())
	require.NoError(t, chain.Check())

	assert.Empty(t, nn.MLP[float64]([]int{3}, tensor.Tanh, 0).Layers())
}
