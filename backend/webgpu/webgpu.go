// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated component arrays.
//
// The backend runs WGSL compute kernels on float32 buffers. It is built on
// Windows; elsewhere New returns ErrUnavailable and callers fall back to the
// CPU backend.
//
// Example:
//
//	import (
//	    "github.com/born-ml/carray/backend/cpu"
//	    "github.com/born-ml/carray/backend/webgpu"
//	    "github.com/born-ml/carray/tensor"
//	)
//
//	func main() {
//	    var backend tensor.Backend = cpu.New()
//	    if gpu, err := webgpu.New(); err == nil {
//	        defer gpu.Release()
//	        backend = gpu
//	    }
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/carray/internal/backend/webgpu"
	"github.com/born-ml/carray/tensor"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// MemoryStats reports buffer usage of a Backend.
type MemoryStats = internalwebgpu.MemoryStats

// ErrUnavailable is returned when no WebGPU adapter can be initialized.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Call Release() when done to free GPU resources. Returns an error
// wrapping ErrUnavailable if initialization fails.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    backend = gpu
//	} else {
//	    backend = cpu.New()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
