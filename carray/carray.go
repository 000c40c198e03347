// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package carray

import (
	"io"

	"github.com/born-ml/carray/internal/axis"
	"github.com/born-ml/carray/internal/carray"
	"github.com/born-ml/carray/internal/tensor"
)

// Array is a component array with elements of type T.
type Array[T tensor.Scalar] = carray.Array[T]

// Entry is one named value of a nested layout passed to New.
type Entry[T tensor.Scalar] = carray.Entry[T]

// Axis is the immutable layout of an Array.
type Axis = axis.Axis

// Operand is an array read as a matrix in some orientation.
type Operand[T tensor.Scalar] = carray.Operand[T]

// Entries

// Leaf returns a leaf entry; without a shape the values form a vector.
func Leaf[T tensor.Scalar](name string, values []T, shape ...int) Entry[T] {
	return carray.Leaf(name, values, shape...)
}

// Zeros returns a zero-filled leaf entry.
func Zeros[T tensor.Scalar](name string, shape ...int) Entry[T] {
	return carray.Zeros[T](name, shape...)
}

// Value returns a scalar leaf entry.
func Value[T tensor.Scalar](name string, v T) Entry[T] {
	return carray.Value(name, v)
}

// Group returns a group entry.
func Group[T tensor.Scalar](name string, children ...Entry[T]) Entry[T] {
	return carray.Group(name, children...)
}

// Construction

// New lays out entries in order and uploads their values to backend.
func New[T tensor.Scalar](backend tensor.Backend, entries ...Entry[T]) (*Array[T], error) {
	return carray.New(backend, entries...)
}

// FromMap builds an array of vector leaves in sorted key order.
func FromMap[T tensor.Scalar](backend tensor.Backend, values map[string][]T) (*Array[T], error) {
	return carray.FromMap(backend, values)
}

// FromSlice wraps values as an array with a single unnamed leaf.
func FromSlice[T tensor.Scalar](backend tensor.Backend, values []T, shape ...int) (*Array[T], error) {
	return carray.FromSlice(backend, values, shape...)
}

// FromRaw reinterprets an existing buffer against an existing axis.
func FromRaw[T tensor.Scalar](raw *tensor.RawBuffer, ax *Axis, backend tensor.Backend) (*Array[T], error) {
	return carray.FromRaw[T](raw, ax, backend)
}

// Empty returns a zeroed array with a single unnamed leaf.
func Empty[T tensor.Scalar](backend tensor.Backend, shape ...int) (*Array[T], error) {
	return carray.Empty[T](backend, shape...)
}

// Similar returns a zeroed array with a's axis and backend.
func Similar[T tensor.Scalar](a *Array[T]) (*Array[T], error) {
	return carray.Similar(a)
}

// Clone returns a copy of a sharing its axis.
func Clone[T tensor.Scalar](a *Array[T]) (*Array[T], error) {
	return carray.Clone(a)
}

// Convert returns a copy of a with element type U, sharing its axis.
func Convert[U, T tensor.Scalar](a *Array[T]) (*Array[U], error) {
	return carray.Convert[U](a)
}

// To returns a copy of a on backend, sharing its axis.
func To[T tensor.Scalar](a *Array[T], backend tensor.Backend) (*Array[T], error) {
	return carray.To(a, backend)
}

// Numeric contract

// Dot returns sum(conj(x[i]) * y[i]) over the flat buffers.
func Dot[T tensor.Scalar](x, y *Array[T]) (T, error) {
	return carray.Dot(x, y)
}

// Norm returns the p-norm of the flat buffer.
func Norm[T tensor.Scalar](a *Array[T], p float64) (float64, error) {
	return carray.Norm(a, p)
}

// Rmul scales a by b in place.
func Rmul[T tensor.Scalar](a *Array[T], b T) error {
	return carray.Rmul(a, b)
}

// Hadamard multiplies dst by x element-wise in place.
func Hadamard[T tensor.Scalar](dst, x *Array[T]) error {
	return carray.Hadamard(dst, x)
}

// AsMatrix reads a as a rows×cols matrix.
func AsMatrix[T tensor.Scalar](a *Array[T], rows, cols int) (Operand[T], error) {
	return carray.AsMatrix(a, rows, cols)
}

// Plain reads a as a matrix using its logical shape.
func Plain[T tensor.Scalar](a *Array[T]) (Operand[T], error) {
	return carray.Plain(a)
}

// Transpose returns the transpose of a as an operand.
func Transpose[T tensor.Scalar](a *Array[T]) (Operand[T], error) {
	return carray.Transpose(a)
}

// Adjoint returns the conjugate transpose of a as an operand.
func Adjoint[T tensor.Scalar](a *Array[T]) (Operand[T], error) {
	return carray.Adjoint(a)
}

// Materialize copies op into a new plain matrix array.
func Materialize[T tensor.Scalar](op Operand[T]) (*Array[T], error) {
	return carray.Materialize(op)
}

// Mul computes c = alpha*op(a)*op(b) + beta*c.
func Mul[T tensor.Scalar](c *Array[T], a, b Operand[T], alpha, beta T) error {
	return carray.Mul(c, a, b, alpha, beta)
}

// Persistence

// Save writes a in SafeTensors format.
func Save[T tensor.Scalar](w io.Writer, a *Array[T], metadata map[string]string) error {
	return carray.Save(w, a, metadata)
}

// SaveFile writes a to path in SafeTensors format.
func SaveFile[T tensor.Scalar](path string, a *Array[T], metadata map[string]string) error {
	return carray.SaveFile(path, a, metadata)
}

// Load reads an array written by Save.
func Load[T tensor.Scalar](r io.Reader, backend tensor.Backend) (*Array[T], map[string]string, error) {
	return carray.Load[T](r, backend)
}

// LoadFile reads the array stored at path.
func LoadFile[T tensor.Scalar](path string, backend tensor.Backend) (*Array[T], map[string]string, error) {
	return carray.LoadFile[T](path, backend)
}
