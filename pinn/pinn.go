// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pinn provides the physics-informed neural network container:
// a PDE system, one chain per dependent variable, their parameters in one
// component array and their explicitly threaded state.
//
// Example:
//
//	system := pinn.PDESystem{
//	    Equations:       []string{"Dt(u(t,x)) ~ Dxx(u(t,x))"},
//	    IndependentVars: []string{"t", "x"},
//	    DependentVars:   []string{"u"},
//	    Domains:         []pinn.Domain{{Variable: "t", Upper: 1}, {Variable: "x", Upper: 1}},
//	}
//	chains := map[string]*nn.Chain[float64]{
//	    "u": nn.MLP[float64]([]int{2, 16, 1}, tensor.Tanh, 0),
//	}
//	net, err := pinn.New(system, chains, pinn.Options{Rand: nn.NewRand(1)})
//	w, _ := net.Params().View("u.layer_1.weight")
package pinn

import (
	"github.com/born-ml/carray/internal/nn"
	"github.com/born-ml/carray/internal/pinn"
	"github.com/born-ml/carray/internal/tensor"
)

// PDESystem describes the problem a network approximates.
type PDESystem = pinn.PDESystem

// Domain is the interval of an independent variable.
type Domain = pinn.Domain

// Options configures New.
type Options = pinn.Options

// Phi evaluates one chain with explicit state threading.
type Phi[T tensor.Scalar] = pinn.Phi[T]

// PhysicsInformedNN is the network container.
type PhysicsInformedNN[T tensor.Scalar] = pinn.PhysicsInformedNN[T]

// Snapshot is the decoded form of PhysicsInformedNN.Snapshot output.
type Snapshot = pinn.Snapshot

// Errors.
var (
	ErrInvalidSystem   = pinn.ErrInvalidSystem
	ErrMissingRand     = pinn.ErrMissingRand
	ErrChainMismatch   = pinn.ErrChainMismatch
	ErrSnapshotInvalid = pinn.ErrSnapshotInvalid
)

// New builds a network for system with one chain per dependent variable.
func New[T tensor.Scalar](system PDESystem, chains map[string]*nn.Chain[T], opts Options) (*PhysicsInformedNN[T], error) {
	return pinn.New(system, chains, opts)
}

// NewPhi wraps a chain.
func NewPhi[T tensor.Scalar](chain *nn.Chain[T]) *Phi[T] {
	return pinn.NewPhi(chain)
}

// DecodeSnapshot decodes a snapshot without applying it.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	return pinn.DecodeSnapshot(data)
}
