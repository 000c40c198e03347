// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the buffer, device and backend types shared by
// component arrays and numeric backends.
//
// # Overview
//
// A RawBuffer is a flat region of one element type in one memory space:
//   - host memory, addressable from Go
//   - accelerator memory, reached only through a Backend
//
// A Backend implements the numeric contract (fill, scale, dot, norm, gemm)
// over RawBuffer regions. Component arrays in package carray forward every
// bulk operation to one Backend call.
//
// # Supported Data Types
//
// Element types satisfy the Scalar constraint:
//   - float32, float64
//   - complex64, complex128
//
// # Errors
//
// Failures are reported with sentinel errors checked by errors.Is.
// Anything a backend returns is wrapped in a *BackendError that matches
// ErrBackend.
package tensor
