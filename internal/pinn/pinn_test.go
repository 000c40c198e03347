package pinn

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/carray/internal/backend/cpu"
	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/tensor"
)

func heatSystem() PDESystem {
	return PDESystem{
		Name:               "heat",
		Equations:          []string{"Dt(u(t,x)) ~ Dxx(u(t,x))"},
		BoundaryConditions: []string{"u(0,x) ~ sin(pi*x)", "u(t,0) ~ 0", "u(t,1) ~ 0"},
		IndependentVars:    []string{"t", "x"},
		DependentVars:      []string{"u"},
		Domains: []Domain{
			{Variable: "t", Lower: 0, Upper: 1},
			{Variable: "x", Lower: 0, Upper: 1},
		},
	}
}

func coupledSystem() PDESystem {
	s := heatSystem()
	s.Name = "coupled"
	s.DependentVars = []string{"u", "v"}
	return s
}

func chainsFor(vars ...string) map[string]*nn.Chain[float64] {
	out := make(map[string]*nn.Chain[float64], len(vars))
	for _, v := range vars {
		out[v] = nn.MLP[float64]([]int{2, 4, 1}, tensor.Tanh, 0.2)
	}
	return out
}

func TestSystemValidate(t *testing.T) {
	s := heatSystem()
	require.NoError(t, s.Validate())

	d, ok := s.Domain("x")
	require.True(t, ok)
	assert.True(t, d.Contains(0.5))
	assert.False(t, d.Contains(1.5))

	tests := []struct {
		name   string
		mutate func(*PDESystem)
	}{
		{"no equations", func(s *PDESystem) { s.Equations = nil }},
		{"blank equation", func(s *PDESystem) { s.Equations = []string{" "} }},
		{"no independent", func(s *PDESystem) { s.IndependentVars = nil; s.Domains = nil }},
		{"no dependent", func(s *PDESystem) { s.DependentVars = nil }},
		{"dotted name", func(s *PDESystem) { s.DependentVars = []string{"u.v"} }},
		{"duplicate", func(s *PDESystem) { s.DependentVars = []string{"x"} }},
		{"unknown domain", func(s *PDESystem) { s.Domains = append(s.Domains, Domain{Variable: "y", Lower: 0, Upper: 1}) }},
		{"missing domain", func(s *PDESystem) { s.Domains = s.Domains[:1] }},
		{"empty interval", func(s *PDESystem) { s.Domains[0].Upper = 0 }},
		{"two domains", func(s *PDESystem) { s.Domains = append(s.Domains, Domain{Variable: "t", Lower: 0, Upper: 2}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := heatSystem()
			tt.mutate(&s)
			require.ErrorIs(t, s.Validate(), ErrInvalidSystem)
		})
	}
}

func TestNewRequiresRand(t *testing.T) {
	_, err := New(heatSystem(), chainsFor("u"), Options{})
	require.ErrorIs(t, err, ErrMissingRand)
}

func TestNewChainMismatch(t *testing.T) {
	_, err := New(coupledSystem(), chainsFor("u"), Options{Rand: nn.NewRand(1)})
	require.ErrorIs(t, err, ErrChainMismatch)

	_, err = New(heatSystem(), chainsFor("w"), Options{Rand: nn.NewRand(1)})
	require.ErrorIs(t, err, ErrChainMismatch)

	wide := map[string]*nn.Chain[float64]{"u": nn.MLP[float64]([]int{3, 1}, tensor.Tanh, 0)}
	_, err = New(heatSystem(), wide, Options{Rand: nn.NewRand(1)})
	require.ErrorIs(t, err, ErrChainMismatch)
}

func TestParamsLayout(t *testing.T) {
	p, err := New(coupledSystem(), chainsFor("u", "v"), Options{Rand: nn.NewRand(1)})
	require.NoError(t, err)
	defer p.Release()

	ps := p.Params()
	assert.Equal(t, []string{"u", "v"}, ps.Keys())
	per := 2*4 + 4 + 4*1 + 1
	assert.Equal(t, 2*per, ps.Len())

	w, err := ps.View("v.layer_3.weight")
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 4}, w.Shape())
	assert.Equal(t, per+2*4+4, w.Data().Offset())

	assert.NotEqual(t, uuid.Nil, p.ID())
	_, ok := p.Phi("v")
	assert.True(t, ok)
	_, ok = p.Phi("w")
	assert.False(t, ok)
}

func TestInitDeterministic(t *testing.T) {
	a, err := New(heatSystem(), chainsFor("u"), Options{Rand: nn.NewRand(5)})
	require.NoError(t, err)
	b, err := New(heatSystem(), chainsFor("u"), Options{Rand: nn.NewRand(5)})
	require.NoError(t, err)

	av, err := a.Params().Host()
	require.NoError(t, err)
	bv, err := b.Params().Host()
	require.NoError(t, err)
	assert.Equal(t, av, bv)
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestEvaluateThreadsState(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p, err := New(heatSystem(), chainsFor("u"), Options{Rand: nn.NewRand(2), Training: true, Logger: logger})
	require.NoError(t, err)

	points, err := carray.FromSlice(cpu.New(), []float64{0, 0.5, 1, 0.1, 0.2, 0.3}, 2, 3)
	require.NoError(t, err)

	before, ok := p.State("u")
	require.True(t, ok)
	out, err := p.Evaluate(points)
	require.NoError(t, err)
	require.Contains(t, out, "u")
	assert.Equal(t, tensor.Shape{1, 3}, out["u"].Shape())

	after, _ := p.State("u")
	assert.Equal(t, before.Children["layer_2"].Calls+1, after.Children["layer_2"].Calls)
	assert.Contains(t, logs.String(), p.ID().String())
	assert.Contains(t, logs.String(), "evaluated")
}

func TestPhiStepIsPure(t *testing.T) {
	p, err := New(heatSystem(), chainsFor("u"), Options{Rand: nn.NewRand(4), Training: true})
	require.NoError(t, err)
	phi, ok := p.Phi("u")
	require.True(t, ok)
	ps, err := p.Params().View("u")
	require.NoError(t, err)
	x, err := carray.FromSlice(p.Backend(), []float64{0.25, 0.75})
	require.NoError(t, err)

	st, _ := p.State("u")
	y1, next, err := phi.Step(st, x, ps)
	require.NoError(t, err)
	y2, _, err := phi.Step(st, x, ps)
	require.NoError(t, err)

	v1, _ := y1.Host()
	v2, _ := y2.Host()
	assert.Equal(t, v1, v2)
	assert.NotEqual(t, st, next)

	recorded, _ := p.State("u")
	assert.Equal(t, st, recorded)
}

func TestAdaptReusesAxis(t *testing.T) {
	p, err := New(heatSystem(), chainsFor("u"), Options{Rand: nn.NewRand(3)})
	require.NoError(t, err)
	ax := p.Params().Axis()
	want, err := p.Params().Host()
	require.NoError(t, err)
	want = append([]float64(nil), want...)

	other := cpu.New()
	require.NoError(t, p.Adapt(other))
	assert.Same(t, other, p.Backend())
	assert.Same(t, ax, p.Params().Axis())
	got, err := p.Params().Host()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Points on the previous backend are moved before evaluation.
	points, err := carray.FromSlice(cpu.New(), []float64{0.5, 0.5})
	require.NoError(t, err)
	_, err = p.Evaluate(points)
	require.NoError(t, err)
}

func TestSnapshotRoundTrip(t *testing.T) {
	p, err := New(coupledSystem(), chainsFor("u", "v"), Options{Rand: nn.NewRand(8), Training: true})
	require.NoError(t, err)
	points, err := carray.FromSlice(p.Backend(), []float64{0.1, 0.9})
	require.NoError(t, err)
	_, err = p.Evaluate(points)
	require.NoError(t, err)

	data, err := p.Snapshot(map[string]string{"epoch": "3"})
	require.NoError(t, err)

	again, err := p.Snapshot(map[string]string{"epoch": "3"})
	require.NoError(t, err)
	assert.Equal(t, data, again, "encoding is deterministic")

	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, p.ID().String(), s.ID)
	assert.Equal(t, "float64", s.DType)
	assert.Equal(t, coupledSystem(), s.System)
	assert.Equal(t, "3", s.Metadata["epoch"])

	q, err := New(coupledSystem(), chainsFor("u", "v"), Options{Rand: nn.NewRand(99)})
	require.NoError(t, err)
	require.NoError(t, q.Restore(data))

	pv, err := p.Params().Host()
	require.NoError(t, err)
	qv, err := q.Params().Host()
	require.NoError(t, err)
	assert.Equal(t, pv, qv)

	for _, v := range []string{"u", "v"} {
		ps, _ := p.State(v)
		qs, _ := q.State(v)
		assert.Equal(t, ps, qs, v)
	}
}

func TestRestoreRejectsMismatch(t *testing.T) {
	p, err := New(heatSystem(), chainsFor("u"), Options{Rand: nn.NewRand(1)})
	require.NoError(t, err)
	data, err := p.Snapshot(nil)
	require.NoError(t, err)

	wider := map[string]*nn.Chain[float64]{"u": nn.MLP[float64]([]int{2, 8, 1}, tensor.Tanh, 0.2)}
	q, err := New(heatSystem(), wider, Options{Rand: nn.NewRand(1)})
	require.NoError(t, err)
	require.ErrorIs(t, q.Restore(data), tensor.ErrInvalidLayout)

	single := map[string]*nn.Chain[float32]{"u": nn.MLP[float32]([]int{2, 4, 1}, tensor.Tanh, 0.2)}
	r, err := New(heatSystem(), single, Options{Rand: nn.NewRand(1)})
	require.NoError(t, err)
	require.ErrorIs(t, r.Restore(data), tensor.ErrDTypeMismatch)

	_, err = DecodeSnapshot([]byte{0xff, 0x00})
	require.ErrorIs(t, err, ErrSnapshotInvalid)
}
