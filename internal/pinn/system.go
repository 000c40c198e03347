// Package pinn provides the container around a physics-informed neural
// network: one layer chain per dependent variable, their parameters in a
// single component array, their state, and the PDE system they approximate.
//
// Equations are opaque strings. Nothing here discretizes, differentiates or
// trains; the package wires parameters, state and placement together.
package pinn

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Errors returned by this package.
var (
	ErrInvalidSystem   = errors.New("invalid PDE system")
	ErrMissingRand     = errors.New("random source is required")
	ErrChainMismatch   = errors.New("chains do not match dependent variables")
	ErrSnapshotInvalid = errors.New("invalid snapshot")
)

// Domain is the closed interval an independent variable ranges over.
type Domain struct {
	Variable string  `cbor:"1,keyasint" yaml:"variable"`
	Lower    float64 `cbor:"2,keyasint" yaml:"lower"`
	Upper    float64 `cbor:"3,keyasint" yaml:"upper"`
}

// Contains reports whether v lies in the domain.
func (d Domain) Contains(v float64) bool {
	return v >= d.Lower && v <= d.Upper
}

// PDESystem describes the problem a network approximates.
type PDESystem struct {
	Name string `cbor:"1,keyasint,omitempty" yaml:"name"`

	// Equations and BoundaryConditions are symbolic and passed through untouched.
	Equations          []string `cbor:"2,keyasint" yaml:"equations"`
	BoundaryConditions []string `cbor:"3,keyasint,omitempty" yaml:"boundary_conditions"`

	IndependentVars []string `cbor:"4,keyasint" yaml:"independent_vars"`
	DependentVars   []string `cbor:"5,keyasint" yaml:"dependent_vars"`
	Domains         []Domain `cbor:"6,keyasint,omitempty" yaml:"domains"`
}

// Validate checks that the system is well formed: at least one equation,
// distinct variable names usable as array keys, and one finite non-empty
// domain per independent variable.
func (s *PDESystem) Validate() error {
	if len(s.Equations) == 0 {
		return fmt.Errorf("%w: no equations", ErrInvalidSystem)
	}
	for i, eq := range s.Equations {
		if strings.TrimSpace(eq) == "" {
			return fmt.Errorf("%w: equation %d is empty", ErrInvalidSystem, i)
		}
	}
	if len(s.IndependentVars) == 0 {
		return fmt.Errorf("%w: no independent variables", ErrInvalidSystem)
	}
	if len(s.DependentVars) == 0 {
		return fmt.Errorf("%w: no dependent variables", ErrInvalidSystem)
	}

	seen := make(map[string]bool)
	for _, v := range append(append([]string{}, s.IndependentVars...), s.DependentVars...) {
		if v == "" || strings.ContainsAny(v, ". \t") {
			return fmt.Errorf("%w: bad variable name %q", ErrInvalidSystem, v)
		}
		if seen[v] {
			return fmt.Errorf("%w: variable %q declared twice", ErrInvalidSystem, v)
		}
		seen[v] = true
	}

	bounded := make(map[string]bool)
	for _, d := range s.Domains {
		if !contains(s.IndependentVars, d.Variable) {
			return fmt.Errorf("%w: domain for unknown variable %q", ErrInvalidSystem, d.Variable)
		}
		if bounded[d.Variable] {
			return fmt.Errorf("%w: variable %q has two domains", ErrInvalidSystem, d.Variable)
		}
		if math.IsNaN(d.Lower) || math.IsNaN(d.Upper) || math.IsInf(d.Lower, 0) || math.IsInf(d.Upper, 0) || d.Lower >= d.Upper {
			return fmt.Errorf("%w: domain of %q is [%g, %g]", ErrInvalidSystem, d.Variable, d.Lower, d.Upper)
		}
		bounded[d.Variable] = true
	}
	for _, v := range s.IndependentVars {
		if !bounded[v] {
			return fmt.Errorf("%w: no domain for %q", ErrInvalidSystem, v)
		}
	}
	return nil
}

// Domain returns the domain of an independent variable.
func (s *PDESystem) Domain(variable string) (Domain, bool) {
	for _, d := range s.Domains {
		if d.Variable == variable {
			return d, true
		}
	}
	return Domain{}, false
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
