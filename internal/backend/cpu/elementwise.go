package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/carray/internal/parallel"
	"github.com/born-ml/carray/internal/tensor"
)

// Fill sets every element of x to value.
func (cpu *CPUBackend) Fill(x *tensor.RawBuffer, value any) error {
	if err := cpu.checkHost(x); err != nil {
		return err
	}
	v, err := tensor.CastScalar(value, x.DType())
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}

	switch x.DType() {
	case tensor.Float32:
		fillSlice(x.AsFloat32(), v.(float32), cpu.par)
	case tensor.Float64:
		fillSlice(x.AsFloat64(), v.(float64), cpu.par)
	case tensor.Complex64:
		fillSlice(x.AsComplex64(), v.(complex64), cpu.par)
	case tensor.Complex128:
		fillSlice(x.AsComplex128(), v.(complex128), cpu.par)
	default:
		return fmt.Errorf("fill: %w: %s", tensor.ErrUnsupportedDType, x.DType())
	}
	return nil
}

// Scale multiplies every element of x by alpha in place (BLAS scal).
func (cpu *CPUBackend) Scale(x *tensor.RawBuffer, alpha any) error {
	if err := cpu.checkHost(x); err != nil {
		return err
	}
	a, err := tensor.CastScalar(alpha, x.DType())
	if err != nil {
		return fmt.Errorf("scale: %w", err)
	}
	n := x.Len()
	if n == 0 {
		return nil
	}

	return guard("scale", func() {
		switch x.DType() {
		case tensor.Float32:
			cpu.blas.Sscal(n, a.(float32), x.AsFloat32(), 1)
		case tensor.Float64:
			cpu.blas.Dscal(n, a.(float64), x.AsFloat64(), 1)
		case tensor.Complex64:
			cpu.blas.Cscal(n, a.(complex64), x.AsComplex64(), 1)
		case tensor.Complex128:
			cpu.blas.Zscal(n, a.(complex128), x.AsComplex128(), 1)
		}
	})
}

// Hadamard multiplies dst by x element-wise in place.
func (cpu *CPUBackend) Hadamard(dst, x *tensor.RawBuffer) error {
	if err := cpu.checkPair("hadamard", dst, x); err != nil {
		return err
	}

	switch dst.DType() {
	case tensor.Float32:
		mulSlice(dst.AsFloat32(), x.AsFloat32(), cpu.par)
	case tensor.Float64:
		mulSlice(dst.AsFloat64(), x.AsFloat64(), cpu.par)
	case tensor.Complex64:
		mulSlice(dst.AsComplex64(), x.AsComplex64(), cpu.par)
	case tensor.Complex128:
		mulSlice(dst.AsComplex128(), x.AsComplex128(), cpu.par)
	default:
		return fmt.Errorf("hadamard: %w: %s", tensor.ErrUnsupportedDType, dst.DType())
	}
	return nil
}

// Map applies fn to every element of x in place. Only real dtypes are supported.
func (cpu *CPUBackend) Map(x *tensor.RawBuffer, fn tensor.UnaryOp) error {
	if err := cpu.checkHost(x); err != nil {
		return err
	}
	f, err := unaryFunc(fn)
	if err != nil {
		return err
	}

	switch x.DType() {
	case tensor.Float32:
		mapSlice(x.AsFloat32(), f, cpu.par)
	case tensor.Float64:
		mapSlice(x.AsFloat64(), f, cpu.par)
	default:
		return fmt.Errorf("map %s: %w: %s", fn, tensor.ErrUnsupportedDType, x.DType())
	}
	return nil
}

func unaryFunc(fn tensor.UnaryOp) (func(float64) float64, error) {
	switch fn {
	case tensor.Identity:
		return func(v float64) float64 { return v }, nil
	case tensor.Tanh:
		return math.Tanh, nil
	case tensor.Sigmoid:
		return func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }, nil
	case tensor.ReLU:
		return func(v float64) float64 { return math.Max(v, 0) }, nil
	case tensor.Sin:
		return math.Sin, nil
	case tensor.Softplus:
		// log(1+exp(v)) without overflow for large v.
		return func(v float64) float64 { return math.Max(v, 0) + math.Log1p(math.Exp(-math.Abs(v))) }, nil
	default:
		return nil, fmt.Errorf("map: unknown function %d", fn)
	}
}

func fillSlice[T tensor.Scalar](x []T, v T, cfg parallel.Config) {
	parallel.ForRange(len(x), func(start, end int) {
		for i := start; i < end; i++ {
			x[i] = v
		}
	}, cfg)
}

func mulSlice[T tensor.Scalar](dst, x []T, cfg parallel.Config) {
	parallel.ForRange(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] *= x[i]
		}
	}, cfg)
}

func mapSlice[T tensor.Real](x []T, f func(float64) float64, cfg parallel.Config) {
	parallel.ForRange(len(x), func(start, end int) {
		for i := start; i < end; i++ {
			x[i] = T(f(float64(x[i])))
		}
	}, cfg)
}

// guard converts BLAS argument panics into errors.
func guard(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", op, r)
		}
	}()
	fn()
	return nil
}
