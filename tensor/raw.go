// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/carray/internal/tensor"
)

// RawBuffer is a flat, untyped region of one element type in one memory
// space. Slice returns non-owning aliases; only the owner frees memory.
//
// Most users work with carray.Array instead.
//
// Example:
//
//	raw, _ := tensor.NewHostRaw(tensor.Float32, 6)
//	data := raw.AsFloat32()  // Zero-copy host access
//	row, _ := raw.Slice(3, 3) // Second half, aliasing raw
type RawBuffer = tensor.RawBuffer

// DeviceMemory is an accelerator allocation behind a RawBuffer.
type DeviceMemory = tensor.DeviceMemory

// NewHostRaw allocates a zeroed host buffer of n elements.
func NewHostRaw(dtype DataType, n int) (*RawBuffer, error) {
	return tensor.NewHostRaw(dtype, n)
}

// WrapHostBytes wraps host bytes without copying.
func WrapHostBytes(dtype DataType, data []byte) (*RawBuffer, error) {
	return tensor.WrapHostBytes(dtype, data)
}

// HostSlice returns the host elements of r as []T without copying.
func HostSlice[T Scalar](r *RawBuffer) []T {
	return tensor.HostSlice[T](r)
}
