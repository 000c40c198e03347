package carray

import (
	"fmt"

	"github.com/born-ml/carray/internal/axis"
	"github.com/born-ml/carray/internal/tensor"
)

// Dot returns sum(conj(x[i]) * y[i]) over the flat buffers. Only the
// lengths must agree; the axes may differ.
func Dot[T tensor.Scalar](x, y *Array[T]) (T, error) {
	var zero T
	if x.Len() != y.Len() {
		return zero, fmt.Errorf("carray: dot: %w: %d vs %d", tensor.ErrLengthMismatch, x.Len(), y.Len())
	}
	if err := sameDevice("dot", x.raw, y.raw); err != nil {
		return zero, err
	}
	v, err := x.backend.Dot(x.raw, y.raw)
	if err != nil {
		return zero, tensor.WrapBackend(x.backend, "dot", err)
	}
	return fromAny[T](v)
}

// Norm returns the p-norm of the flat buffer. p may be any positive value,
// +Inf (max abs), -Inf (min abs) or 0 (number of non-zeros).
func Norm[T tensor.Scalar](a *Array[T], p float64) (float64, error) {
	n, err := a.backend.Norm(a.raw, p)
	return n, tensor.WrapBackend(a.backend, "norm", err)
}

// Rmul scales every element of a by b in place.
func Rmul[T tensor.Scalar](a *Array[T], b T) error {
	if a.Len() == 0 {
		return nil
	}
	return tensor.WrapBackend(a.backend, "scale", a.backend.Scale(a.raw, b))
}

// Hadamard multiplies dst by x element-wise in place.
func Hadamard[T tensor.Scalar](dst, x *Array[T]) error {
	if dst.Len() != x.Len() {
		return fmt.Errorf("carray: hadamard: %w: %d vs %d", tensor.ErrLengthMismatch, dst.Len(), x.Len())
	}
	if err := sameDevice("hadamard", dst.raw, x.raw); err != nil {
		return err
	}
	if dst.Len() == 0 {
		return nil
	}
	return tensor.WrapBackend(dst.backend, "hadamard", dst.backend.Hadamard(dst.raw, x.raw))
}

// Operand is an array read as a row-major matrix in some orientation.
// It keeps the source array, so its axis stays reachable through Array.
type Operand[T tensor.Scalar] struct {
	array  *Array[T]
	rows   int // Stored rows
	cols   int // Stored columns
	orient tensor.Orientation
}

// AsMatrix reads a as a rows×cols row-major matrix.
func AsMatrix[T tensor.Scalar](a *Array[T], rows, cols int) (Operand[T], error) {
	if rows < 0 || cols < 0 || rows*cols != a.Len() {
		return Operand[T]{}, fmt.Errorf("carray: matrix %dx%d: %w: array has %d elements", rows, cols, tensor.ErrShapeMismatch, a.Len())
	}
	return Operand[T]{array: a, rows: rows, cols: cols, orient: tensor.Plain}, nil
}

// Plain reads a as a matrix using its logical shape: a 2D leaf keeps its
// dimensions, anything else of rank at most 1 is a column vector.
func Plain[T tensor.Scalar](a *Array[T]) (Operand[T], error) {
	shape := a.Shape()
	switch len(shape) {
	case 0:
		return AsMatrix(a, a.Len(), 1)
	case 1:
		return AsMatrix(a, shape[0], 1)
	case 2:
		return AsMatrix(a, shape[0], shape[1])
	default:
		return Operand[T]{}, fmt.Errorf("carray: %w: shape %v is not a matrix, use AsMatrix", tensor.ErrShapeMismatch, shape)
	}
}

// Transpose returns the transpose of a as an operand.
func Transpose[T tensor.Scalar](a *Array[T]) (Operand[T], error) {
	op, err := Plain(a)
	op.orient = tensor.Transpose
	return op, err
}

// Adjoint returns the conjugate transpose of a as an operand. The operand
// keeps a and its axis; nothing is copied.
func Adjoint[T tensor.Scalar](a *Array[T]) (Operand[T], error) {
	op, err := Plain(a)
	op.orient = tensor.Adjoint
	return op, err
}

// Orient returns op with its orientation replaced.
func (op Operand[T]) Orient(o tensor.Orientation) Operand[T] {
	op.orient = o
	return op
}

// Array returns the source array.
func (op Operand[T]) Array() *Array[T] {
	return op.array
}

// Orientation returns how the source is read.
func (op Operand[T]) Orientation() tensor.Orientation {
	return op.orient
}

// Rows returns the number of rows after orientation.
func (op Operand[T]) Rows() int {
	if op.orient.Swaps() {
		return op.cols
	}
	return op.rows
}

// Cols returns the number of columns after orientation.
func (op Operand[T]) Cols() int {
	if op.orient.Swaps() {
		return op.rows
	}
	return op.cols
}

// Materialize returns a new Rows()×Cols() matrix array holding op's values.
func Materialize[T tensor.Scalar](op Operand[T]) (*Array[T], error) {
	if op.array == nil {
		return nil, fmt.Errorf("carray: materialize: empty operand")
	}
	src, err := op.array.download()
	if err != nil {
		return nil, err
	}

	out := make([]T, len(src))
	for i := 0; i < op.rows; i++ {
		for j := 0; j < op.cols; j++ {
			v := src[i*op.cols+j]
			switch op.orient {
			case tensor.Plain:
				out[i*op.cols+j] = v
			case tensor.Transpose:
				out[j*op.rows+i] = v
			case tensor.Adjoint:
				out[j*op.rows+i] = tensor.Conj(v)
			}
		}
	}

	ax, err := axis.Flat(op.Rows(), op.Cols())
	if err != nil {
		return nil, fmt.Errorf("carray: %w", err)
	}
	return fromHost(op.array.backend, ax, out)
}

type numKind int

const (
	realKind numKind = iota
	complexKind
)

// gemmOrientation maps a requested orientation to the one passed to the
// backend. Conjugation is meaningless for real elements.
var gemmOrientation = [2][3]tensor.Orientation{
	realKind:    {tensor.Plain: tensor.Plain, tensor.Transpose: tensor.Transpose, tensor.Adjoint: tensor.Transpose},
	complexKind: {tensor.Plain: tensor.Plain, tensor.Transpose: tensor.Transpose, tensor.Adjoint: tensor.Adjoint},
}

func kindOf[T tensor.Scalar]() numKind {
	if tensor.DataTypeOf[T]().IsComplex() {
		return complexKind
	}
	return realKind
}

// Mul computes c = alpha*op(a)*op(b) + beta*c with a single backend gemm.
func Mul[T tensor.Scalar](c *Array[T], a, b Operand[T], alpha, beta T) error {
	if a.array == nil || b.array == nil {
		return fmt.Errorf("carray: mul: empty operand")
	}
	m, k, n := a.Rows(), a.Cols(), b.Cols()
	if b.Rows() != k {
		return fmt.Errorf("carray: mul: %w: %dx%d times %dx%d", tensor.ErrShapeMismatch, m, k, b.Rows(), n)
	}
	if shape := c.Shape(); c.Len() != m*n || (shape.IsMatrix() && (shape[0] != m || shape[1] != n)) {
		return fmt.Errorf("carray: mul: %w: result %v for a %dx%d product", tensor.ErrShapeMismatch, shape, m, n)
	}
	if err := sameDevice("mul", c.raw, a.array.raw, b.array.raw); err != nil {
		return err
	}
	if overlaps(c.raw, a.array.raw) || overlaps(c.raw, b.array.raw) {
		return fmt.Errorf("carray: mul: %w: result aliases an operand", tensor.ErrInvalidLayout)
	}

	table := gemmOrientation[kindOf[T]()]
	err := c.backend.Gemm(table[a.orient], table[b.orient], m, n, k, alpha, a.array.raw, b.array.raw, beta, c.raw)
	return tensor.WrapBackend(c.backend, "gemm", err)
}

// sameDevice checks that every buffer lives in the memory space of the
// first. Arrays from different backend instances of one device mix freely;
// the backend rejects buffers it cannot address.
func sameDevice(op string, first *tensor.RawBuffer, rest ...*tensor.RawBuffer) error {
	for _, r := range rest {
		if r.Device() != first.Device() {
			return fmt.Errorf("carray: %s: %w: %s vs %s", op, tensor.ErrDeviceMismatch, first.Device(), r.Device())
		}
	}
	return nil
}

func overlaps(x, y *tensor.RawBuffer) bool {
	if x.Len() == 0 || y.Len() == 0 || !x.SameMemory(y) {
		return false
	}
	return x.Offset() < y.Offset()+y.Len() && y.Offset() < x.Offset()+x.Len()
}

func fromAny[T tensor.Scalar](v any) (T, error) {
	var zero T
	c, err := tensor.CastScalar(v, tensor.DataTypeOf[T]())
	if err != nil {
		return zero, err
	}
	switch x := c.(type) {
	case float32:
		return tensor.Convert[T](x), nil
	case float64:
		return tensor.Convert[T](x), nil
	case complex64:
		return tensor.Convert[T](x), nil
	case complex128:
		return tensor.Convert[T](x), nil
	}
	return zero, fmt.Errorf("carray: unexpected scalar %T", v)
}
