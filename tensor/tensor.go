// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/carray/internal/tensor"
)

// Scalar is the constraint for element types: float32, float64, complex64
// and complex128.
type Scalar = tensor.Scalar

// Real is the subset of Scalar without an imaginary part.
type Real = tensor.Real

// DataType represents the element type of a buffer at run time.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32    DataType = tensor.Float32
	Float64    DataType = tensor.Float64
	Complex64  DataType = tensor.Complex64
	Complex128 DataType = tensor.Complex128
)

// DataTypeOf returns the DataType of T.
func DataTypeOf[T Scalar]() DataType {
	return tensor.DataTypeOf[T]()
}

// ParseDataType converts a name such as "float32" or "c128" to a DataType.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// Device represents the memory space a buffer lives in.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the logical dimensions of a buffer region.
// Example: Shape{2, 3} is a 2×3 matrix; Shape{} is a scalar.
type Shape = tensor.Shape

// Sentinel errors.
var (
	ErrKeyNotFound      = tensor.ErrKeyNotFound
	ErrShapeMismatch    = tensor.ErrShapeMismatch
	ErrLengthMismatch   = tensor.ErrLengthMismatch
	ErrBackend          = tensor.ErrBackend
	ErrDeviceMismatch   = tensor.ErrDeviceMismatch
	ErrDTypeMismatch    = tensor.ErrDTypeMismatch
	ErrUnsupportedDType = tensor.ErrUnsupportedDType
	ErrInvalidLayout    = tensor.ErrInvalidLayout
	ErrDuplicateKey     = tensor.ErrDuplicateKey
)

// BackendError wraps a failure surfaced from a numeric backend.
type BackendError = tensor.BackendError
