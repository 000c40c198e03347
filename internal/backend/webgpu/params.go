// Package webgpu implements the accelerator backend on WebGPU compute shaders.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// Only float32 buffers are supported. Buffers are addressed by element offset
// through the kernel uniforms, so views of one allocation need no binding
// alignment.
package webgpu

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrUnavailable is returned when no WebGPU adapter can be acquired.
var ErrUnavailable = errors.New("webgpu: not available")

const (
	// workgroupSize is the number of invocations per 1D workgroup.
	workgroupSize = 256

	// gemmTile is the edge of the 2D workgroup used by the gemm kernel.
	gemmTile = 16

	// maxWorkgroupsPerDim is the WebGPU limit on a single dispatch dimension.
	maxWorkgroupsPerDim = 65535
)

// uniform builds a kernel parameter block. Every field is 4 bytes wide and
// the block is padded to a multiple of 16 bytes as uniform buffers require.
type uniform struct {
	buf []byte
}

func (u *uniform) u32(v int) *uniform {
	//nolint:gosec // G115: offsets and counts are non-negative and bounded by buffer size
	u.buf = binary.LittleEndian.AppendUint32(u.buf, uint32(v))
	return u
}

func (u *uniform) f32(v float32) *uniform {
	u.buf = binary.LittleEndian.AppendUint32(u.buf, math.Float32bits(v))
	return u
}

func (u *uniform) bytes() []byte {
	n := (len(u.buf) + 15) &^ 15
	if n == 0 {
		n = 16
	}
	out := make([]byte, n)
	copy(out, u.buf)
	return out
}

// dispatchSize splits n invocations into a 2D grid of workgroups that stays
// under the per-dimension limit. Kernels recover the flat index as
// id.y * num_workgroups.x * workgroupSize + id.x.
func dispatchSize(n int) (x, y uint32) {
	groups := (n + workgroupSize - 1) / workgroupSize
	if groups == 0 {
		return 0, 0
	}
	rows := (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	cols := (groups + rows - 1) / rows
	//nolint:gosec // G115: both values are bounded by maxWorkgroupsPerDim
	return uint32(cols), uint32(rows)
}

// alignedSize rounds a byte size up to the 4-byte granularity WebGPU copies
// require, with a floor of 4 so empty buffers stay valid.
func alignedSize(n int) uint64 {
	if n <= 0 {
		return 4
	}
	//nolint:gosec // G115: n is positive
	return uint64((n + 3) &^ 3)
}
