// Package config loads the YAML description of a PINN problem: the PDE
// system, the network shape and where its parameters live.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/carray/internal/parallel"
	"github.com/born-ml/carray/internal/pinn"
	"github.com/born-ml/carray/internal/tensor"
)

// ErrInvalidConfig is returned for configurations that fail validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Supported backend names.
const (
	BackendCPU    = "cpu"
	BackendWebGPU = "webgpu"
)

// Config describes one problem.
type Config struct {
	// Backend is "cpu" or "webgpu".
	Backend string `yaml:"backend"`

	// DType is the parameter element type, "float32" or "float64".
	DType string `yaml:"dtype"`

	// Seed feeds the random source for initial parameters and states.
	Seed uint64 `yaml:"seed"`

	// Training enables dropout during evaluation.
	Training bool `yaml:"training"`

	// Workers bounds the CPU backend's goroutines; 0 uses every CPU.
	Workers int `yaml:"workers"`

	System  pinn.PDESystem `yaml:"system"`
	Network Network        `yaml:"network"`
}

// Network describes the chain built for every dependent variable.
type Network struct {
	Hidden     []int   `yaml:"hidden"`
	Activation string  `yaml:"activation"`
	Dropout    float64 `yaml:"dropout"`
}

// Defaults returns the configuration of a 1D heat equation on the unit square.
func Defaults() *Config {
	return &Config{
		Backend: BackendCPU,
		DType:   "float64",
		Seed:    1,
		System: pinn.PDESystem{
			Name:               "heat",
			Equations:          []string{"Dt(u(t, x)) ~ Dxx(u(t, x))"},
			BoundaryConditions: []string{"u(0, x) ~ sin(pi*x)", "u(t, 0) ~ 0", "u(t, 1) ~ 0"},
			IndependentVars:    []string{"t", "x"},
			DependentVars:      []string{"u"},
			Domains: []pinn.Domain{
				{Variable: "t", Lower: 0, Upper: 1},
				{Variable: "x", Lower: 0, Upper: 1},
			},
		},
		Network: Network{
			Hidden:     []int{16, 16},
			Activation: tensor.Tanh.String(),
		},
	}
}

// Parse reads YAML over the defaults and validates the result.
// Keys absent from data keep their default values.
func Parse(data []byte) (*Config, error) {
	c := Defaults()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Marshal encodes c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every field.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendCPU, BackendWebGPU:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}

	dt, err := tensor.ParseDataType(c.DType)
	if err != nil || dt.IsComplex() {
		return fmt.Errorf("%w: dtype %q (want float32 or float64)", ErrInvalidConfig, c.DType)
	}
	if c.Backend == BackendWebGPU && dt != tensor.Float32 {
		return fmt.Errorf("%w: the webgpu backend needs dtype float32", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidConfig)
	}

	for _, h := range c.Network.Hidden {
		if h <= 0 {
			return fmt.Errorf("%w: hidden width %d", ErrInvalidConfig, h)
		}
	}
	if _, ok := tensor.ParseUnaryOp(c.Network.Activation); !ok {
		return fmt.Errorf("%w: unknown activation %q", ErrInvalidConfig, c.Network.Activation)
	}
	if c.Network.Dropout < 0 || c.Network.Dropout >= 1 {
		return fmt.Errorf("%w: dropout %g not in [0, 1)", ErrInvalidConfig, c.Network.Dropout)
	}

	if err := c.System.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// DataType returns the parsed element type.
func (c *Config) DataType() tensor.DataType {
	dt, err := tensor.ParseDataType(c.DType)
	if err != nil {
		return tensor.Float64
	}
	return dt
}

// Activation returns the hidden-layer activation.
func (c *Config) Activation() tensor.UnaryOp {
	op, _ := tensor.ParseUnaryOp(c.Network.Activation)
	return op
}

// Widths returns the layer widths of each chain: one input per independent
// variable, the hidden widths, and one output.
func (c *Config) Widths() []int {
	widths := make([]int, 0, len(c.Network.Hidden)+2)
	widths = append(widths, len(c.System.IndependentVars))
	widths = append(widths, c.Network.Hidden...)
	return append(widths, 1)
}

// Parallel returns the loop configuration for the CPU backend.
func (c *Config) Parallel() parallel.Config {
	cfg := parallel.DefaultConfig()
	if c.Workers > 0 {
		cfg.NumWorkers = c.Workers
		cfg.Enabled = c.Workers > 1
	}
	return cfg
}
