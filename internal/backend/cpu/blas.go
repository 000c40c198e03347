package cpu

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/born-ml/carray/internal/tensor"
	"gonum.org/v1/gonum/blas"
)

// Dot returns sum(conj(x[i]) * y[i]) as a value of the buffers' Go type.
func (cpu *CPUBackend) Dot(x, y *tensor.RawBuffer) (any, error) {
	if err := cpu.checkPair("dot", x, y); err != nil {
		return nil, err
	}
	n := x.Len()

	var out any
	err := guard("dot", func() {
		switch x.DType() {
		case tensor.Float32:
			out = cpu.blas.Sdot(n, x.AsFloat32(), 1, y.AsFloat32(), 1)
		case tensor.Float64:
			out = cpu.blas.Ddot(n, x.AsFloat64(), 1, y.AsFloat64(), 1)
		case tensor.Complex64:
			out = cpu.blas.Cdotc(n, x.AsComplex64(), 1, y.AsComplex64(), 1)
		case tensor.Complex128:
			out = cpu.blas.Zdotc(n, x.AsComplex128(), 1, y.AsComplex128(), 1)
		}
	})
	return out, err
}

// Norm returns the p-norm of x: (sum |x[i]|^p)^(1/p), with the usual limits
// for p = +Inf (max), p = -Inf (min) and p = 0 (count of non-zeros).
func (cpu *CPUBackend) Norm(x *tensor.RawBuffer, p float64) (float64, error) {
	if err := cpu.checkHost(x); err != nil {
		return 0, err
	}
	n := x.Len()
	if n == 0 {
		return 0, nil
	}

	if p == 2 {
		var out float64
		err := guard("norm", func() {
			switch x.DType() {
			case tensor.Float32:
				out = float64(cpu.blas.Snrm2(n, x.AsFloat32(), 1))
			case tensor.Float64:
				out = cpu.blas.Dnrm2(n, x.AsFloat64(), 1)
			case tensor.Complex64:
				out = float64(cpu.blas.Scnrm2(n, x.AsComplex64(), 1))
			case tensor.Complex128:
				out = cpu.blas.Dznrm2(n, x.AsComplex128(), 1)
			}
		})
		return out, err
	}

	switch x.DType() {
	case tensor.Float32:
		if p == 1 {
			return float64(cpu.blas.Sasum(n, x.AsFloat32(), 1)), nil
		}
		return pNorm(x.AsFloat32(), p, func(v float32) float64 { return math.Abs(float64(v)) }), nil
	case tensor.Float64:
		if p == 1 {
			return cpu.blas.Dasum(n, x.AsFloat64(), 1), nil
		}
		return pNorm(x.AsFloat64(), p, math.Abs), nil
	case tensor.Complex64:
		return pNorm(x.AsComplex64(), p, func(v complex64) float64 { return cmplx.Abs(complex128(v)) }), nil
	case tensor.Complex128:
		return pNorm(x.AsComplex128(), p, cmplx.Abs), nil
	default:
		return 0, fmt.Errorf("norm: %w: %s", tensor.ErrUnsupportedDType, x.DType())
	}
}

func pNorm[T tensor.Scalar](x []T, p float64, abs func(T) float64) float64 {
	switch {
	case math.IsInf(p, 1):
		m := 0.0
		for _, v := range x {
			m = math.Max(m, abs(v))
		}
		return m
	case math.IsInf(p, -1):
		m := math.Inf(1)
		for _, v := range x {
			m = math.Min(m, abs(v))
		}
		return m
	case p == 0:
		count := 0.0
		for _, v := range x {
			if abs(v) != 0 {
				count++
			}
		}
		return count
	case p == 1:
		sum := 0.0
		for _, v := range x {
			sum += abs(v)
		}
		return sum
	default:
		sum := 0.0
		for _, v := range x {
			sum += math.Pow(abs(v), p)
		}
		return math.Pow(sum, 1/p)
	}
}

// Gemm computes c = alpha*op(a)*op(b) + beta*c for row-major matrices.
func (cpu *CPUBackend) Gemm(tA, tB tensor.Orientation, m, n, k int, alpha any, a, b *tensor.RawBuffer, beta any, c *tensor.RawBuffer) error {
	if err := cpu.checkHost(a, b, c); err != nil {
		return err
	}
	dtype := c.DType()
	if a.DType() != dtype || b.DType() != dtype {
		return fmt.Errorf("gemm: %w: %s, %s -> %s", tensor.ErrDTypeMismatch, a.DType(), b.DType(), dtype)
	}
	if a.Len() != m*k || b.Len() != k*n || c.Len() != m*n {
		return fmt.Errorf("gemm: %w: op(a) %dx%d (%d elems), op(b) %dx%d (%d elems), c %dx%d (%d elems)",
			tensor.ErrShapeMismatch, m, k, a.Len(), k, n, b.Len(), m, n, c.Len())
	}
	al, err := tensor.CastScalar(alpha, dtype)
	if err != nil {
		return fmt.Errorf("gemm: alpha: %w", err)
	}
	be, err := tensor.CastScalar(beta, dtype)
	if err != nil {
		return fmt.Errorf("gemm: beta: %w", err)
	}
	if m == 0 || n == 0 {
		return nil
	}
	if k == 0 {
		// Empty inner dimension: op(a)*op(b) is the zero matrix.
		return cpu.Scale(c, be)
	}

	transA, transB := blasTranspose(tA), blasTranspose(tB)
	lda := leadingDim(tA, m, k)
	ldb := leadingDim(tB, k, n)
	ldc := max(n, 1)

	return guard("gemm", func() {
		switch dtype {
		case tensor.Float32:
			cpu.blas.Sgemm(transA, transB, m, n, k, al.(float32), a.AsFloat32(), lda, b.AsFloat32(), ldb, be.(float32), c.AsFloat32(), ldc)
		case tensor.Float64:
			cpu.blas.Dgemm(transA, transB, m, n, k, al.(float64), a.AsFloat64(), lda, b.AsFloat64(), ldb, be.(float64), c.AsFloat64(), ldc)
		case tensor.Complex64:
			cpu.blas.Cgemm(transA, transB, m, n, k, al.(complex64), a.AsComplex64(), lda, b.AsComplex64(), ldb, be.(complex64), c.AsComplex64(), ldc)
		case tensor.Complex128:
			cpu.blas.Zgemm(transA, transB, m, n, k, al.(complex128), a.AsComplex128(), lda, b.AsComplex128(), ldb, be.(complex128), c.AsComplex128(), ldc)
		}
	})
}

// leadingDim returns the row stride of the stored operand whose oriented
// shape is rows×cols.
func leadingDim(o tensor.Orientation, rows, cols int) int {
	if o.Swaps() {
		return max(rows, 1)
	}
	return max(cols, 1)
}

func blasTranspose(o tensor.Orientation) blas.Transpose {
	switch o {
	case tensor.Transpose:
		return blas.Trans
	case tensor.Adjoint:
		return blas.ConjTrans
	default:
		return blas.NoTrans
	}
}
