package pinn

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/born-ml/carray/internal/axis"
	"github.com/born-ml/carray/internal/backend/cpu"
	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/tensor"
)

// Options configures New.
type Options struct {
	// Rand draws initial parameters and states. Required.
	Rand *rand.Rand

	// Backend holds the parameters. Defaults to the CPU backend.
	Backend tensor.Backend

	// Training sets the training flag on every initial state.
	Training bool

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// PhysicsInformedNN holds one chain per dependent variable, their
// parameters in one array keyed by variable name ("u.layer_1.weight"), and
// the state recorded after the last evaluation.
//
// A PhysicsInformedNN is not safe for concurrent use.
type PhysicsInformedNN[T tensor.Scalar] struct {
	id      uuid.UUID
	system  PDESystem
	phis    []*Phi[T] // Aligned with system.DependentVars
	params  *carray.Array[T]
	states  map[string]nn.LayerState
	backend tensor.Backend
	logger  *slog.Logger
}

// New builds a network for system. chains must hold exactly one chain per
// dependent variable, each accepting one input per independent variable.
func New[T tensor.Scalar](system PDESystem, chains map[string]*nn.Chain[T], opts Options) (*PhysicsInformedNN[T], error) {
	if opts.Rand == nil {
		return nil, fmt.Errorf("pinn: %w", ErrMissingRand)
	}
	if err := system.Validate(); err != nil {
		return nil, fmt.Errorf("pinn: %w", err)
	}
	if len(chains) != len(system.DependentVars) {
		return nil, fmt.Errorf("pinn: %w: %d chains for %d variables", ErrChainMismatch, len(chains), len(system.DependentVars))
	}

	backend := opts.Backend
	if backend == nil {
		backend = cpu.New()
	}

	inputs := len(system.IndependentVars)
	phis := make([]*Phi[T], len(system.DependentVars))
	entries := make([]carray.Entry[T], len(system.DependentVars))
	states := make(map[string]nn.LayerState, len(system.DependentVars))
	for i, v := range system.DependentVars {
		chain, ok := chains[v]
		if !ok || chain == nil {
			return nil, fmt.Errorf("pinn: %w: no chain for %q", ErrChainMismatch, v)
		}
		if err := chain.Check(); err != nil {
			return nil, fmt.Errorf("pinn: %q: %w", v, err)
		}
		if n := chain.InputSize(); n != 0 && n != inputs {
			return nil, fmt.Errorf("pinn: %w: chain for %q takes %d inputs, system has %d independent variables",
				ErrChainMismatch, v, n, inputs)
		}
		phis[i] = NewPhi(chain)
		entries[i] = carray.Group(v, chain.Init(opts.Rand)...)
		states[v] = nn.Training(chain.InitState(opts.Rand), opts.Training)
	}

	params, err := carray.New(backend, entries...)
	if err != nil {
		return nil, fmt.Errorf("pinn: initial parameters: %w", err)
	}

	p := &PhysicsInformedNN[T]{
		id:      uuid.New(),
		system:  system,
		phis:    phis,
		params:  params,
		states:  states,
		backend: backend,
		logger:  opts.Logger,
	}
	p.debugLog("network created",
		"variables", system.DependentVars,
		"params", params.Len(),
		"backend", backend.Name())
	return p, nil
}

// ID returns the instance identifier used in logs and snapshots.
func (p *PhysicsInformedNN[T]) ID() uuid.UUID { return p.id }

// System returns the PDE system.
func (p *PhysicsInformedNN[T]) System() PDESystem { return p.system }

// Params returns the parameter array. It stays owned by p.
func (p *PhysicsInformedNN[T]) Params() *carray.Array[T] { return p.params }

// Backend returns the backend holding the parameters.
func (p *PhysicsInformedNN[T]) Backend() tensor.Backend { return p.backend }

// Phi returns the evaluator of a dependent variable.
func (p *PhysicsInformedNN[T]) Phi(variable string) (*Phi[T], bool) {
	for i, v := range p.system.DependentVars {
		if v == variable {
			return p.phis[i], true
		}
	}
	return nil, false
}

// State returns a copy of the recorded state of a dependent variable.
func (p *PhysicsInformedNN[T]) State(variable string) (nn.LayerState, bool) {
	st, ok := p.states[variable]
	return st.Clone(), ok
}

// SetTraining switches the training flag of every recorded state.
func (p *PhysicsInformedNN[T]) SetTraining(on bool) {
	for v, st := range p.states {
		p.states[v] = nn.Training(st, on)
	}
}

// SetParams copies ps into the parameters. ps must have the same leaves.
func (p *PhysicsInformedNN[T]) SetParams(ps *carray.Array[T]) error {
	if !sameLeaves(p.params.Axis(), ps.Axis()) {
		return fmt.Errorf("pinn: set params: %w: layout differs", tensor.ErrInvalidLayout)
	}
	return p.params.SetFrom("", ps)
}

// Evaluate runs every chain at points and records the new states. points
// holds one row per independent variable and one column per point; a
// vector is a single point. The results are keyed by dependent variable
// and owned by the caller.
func (p *PhysicsInformedNN[T]) Evaluate(points *carray.Array[T]) (map[string]*carray.Array[T], error) {
	x := points
	if points.Backend() != p.backend {
		moved, err := carray.To(points, p.backend)
		if err != nil {
			return nil, fmt.Errorf("pinn: evaluate: %w", err)
		}
		defer moved.Release()
		x = moved
	}

	out := make(map[string]*carray.Array[T], len(p.phis))
	next := make(map[string]nn.LayerState, len(p.phis))
	for i, v := range p.system.DependentVars {
		ps, err := p.params.View(v)
		if err != nil {
			releaseAll(out)
			return nil, fmt.Errorf("pinn: evaluate: %w", err)
		}
		y, st, err := p.phis[i].Step(p.states[v], x, ps)
		if err != nil {
			releaseAll(out)
			return nil, fmt.Errorf("pinn: evaluate %q: %w", v, err)
		}
		out[v] = y
		next[v] = st
	}
	for v, st := range next {
		p.states[v] = st
	}

	p.debugLog("evaluated", "points", pointCount(x))
	return out, nil
}

// Adapt moves the parameters to backend. The axis is reused; the old
// buffer is released.
func (p *PhysicsInformedNN[T]) Adapt(backend tensor.Backend) error {
	if backend == p.backend {
		return nil
	}
	moved, err := carray.To(p.params, backend)
	if err != nil {
		return fmt.Errorf("pinn: adapt to %s: %w", backend.Name(), err)
	}
	from := p.backend.Name()
	p.params.Release()
	p.params = moved
	p.backend = backend
	p.debugLog("parameters moved", "from", from, "to", backend.Name())
	return nil
}

// Release frees the parameter buffer.
func (p *PhysicsInformedNN[T]) Release() {
	p.params.Release()
}

func (p *PhysicsInformedNN[T]) debugLog(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, append([]any{"pinn", p.id.String()}, args...)...)
	}
}

func pointCount[T tensor.Scalar](x *carray.Array[T]) int {
	if shape := x.Shape(); len(shape) == 2 {
		return shape[1]
	}
	return 1
}

func releaseAll[T tensor.Scalar](m map[string]*carray.Array[T]) {
	for _, a := range m {
		a.Release()
	}
}

func sameLeaves(a, b *axis.Axis) bool {
	la, lb := a.Leaves(), b.Leaves()
	if len(la) != len(lb) || a.Len() != b.Len() {
		return false
	}
	for i := range la {
		if la[i].Path != lb[i].Path || la[i].Offset != lb[i].Offset || !la[i].Shape.Equal(lb[i].Shape) {
			return false
		}
	}
	return true
}

// Snapshot is the serialized form of a network's state and parameters.
type Snapshot struct {
	ID       string                   `cbor:"1,keyasint"`
	DType    string                   `cbor:"2,keyasint"`
	System   PDESystem                `cbor:"3,keyasint"`
	States   map[string]nn.LayerState `cbor:"4,keyasint"`
	Params   []byte                   `cbor:"5,keyasint"` // SafeTensors
	Metadata map[string]string        `cbor:"6,keyasint,omitempty"`
}

// Snapshot encodes the recorded states and the parameters as CBOR.
func (p *PhysicsInformedNN[T]) Snapshot(metadata map[string]string) ([]byte, error) {
	var params bytes.Buffer
	if err := carray.Save(&params, p.params, map[string]string{"pinn": p.id.String()}); err != nil {
		return nil, fmt.Errorf("pinn: snapshot: %w", err)
	}
	states := make(map[string]nn.LayerState, len(p.states))
	for v, st := range p.states {
		states[v] = st.Clone()
	}
	data, err := encMode.Marshal(Snapshot{
		ID:       p.id.String(),
		DType:    tensor.DataTypeOf[T]().String(),
		System:   p.system,
		States:   states,
		Params:   params.Bytes(),
		Metadata: metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("pinn: snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot decodes a snapshot without applying it.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := decMode.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("pinn: %w: %w", ErrSnapshotInvalid, err)
	}
	if _, err := uuid.Parse(s.ID); err != nil {
		return nil, fmt.Errorf("pinn: %w: id %q", ErrSnapshotInvalid, s.ID)
	}
	return &s, nil
}

// Restore replaces the states and parameters with those of a snapshot
// taken from a network of the same shape.
func (p *PhysicsInformedNN[T]) Restore(data []byte) error {
	s, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	if want := tensor.DataTypeOf[T]().String(); s.DType != want {
		return fmt.Errorf("pinn: restore: %w: snapshot holds %s, network is %s", tensor.ErrDTypeMismatch, s.DType, want)
	}
	for _, v := range p.system.DependentVars {
		if _, ok := s.States[v]; !ok {
			return fmt.Errorf("pinn: restore: %w: no state for %q", ErrSnapshotInvalid, v)
		}
	}

	ps, _, err := carray.Load[T](bytes.NewReader(s.Params), p.backend)
	if err != nil {
		return fmt.Errorf("pinn: restore: %w", err)
	}
	defer ps.Release()
	if err := p.SetParams(ps); err != nil {
		return err
	}

	for _, v := range p.system.DependentVars {
		p.states[v] = s.States[v].Clone()
	}
	p.debugLog("restored", "snapshot", s.ID)
	return nil
}
