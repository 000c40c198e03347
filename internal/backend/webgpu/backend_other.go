//go:build !windows

package webgpu

import "github.com/born-ml/carray/internal/tensor"

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Backend is unavailable on this platform; New always fails.
type Backend struct{}

// New returns ErrUnavailable: the WebGPU bindings are built for Windows only.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// IsAvailable reports false on this platform.
func IsAvailable() bool {
	return false
}

// MemoryStats describes device memory held by the backend.
type MemoryStats struct {
	LiveBytes     uint64
	PeakBytes     uint64
	ActiveBuffers int64
	PoolAllocated uint64
	PoolReleased  uint64
	PoolHits      uint64
	PoolMisses    uint64
	PoolIdle      int
}

func (b *Backend) Name() string                             { return "WebGPU" }
func (b *Backend) Device() tensor.Device                    { return tensor.WebGPU }
func (b *Backend) Synchronize() error                       { return ErrUnavailable }
func (b *Backend) Release()                                 {}
func (b *Backend) MemoryStats() MemoryStats                 { return MemoryStats{} }
func (b *Backend) SetMaxBatchSize(size int)                 {}
func (b *Backend) Upload(*tensor.RawBuffer, []byte) error   { return ErrUnavailable }
func (b *Backend) Download(*tensor.RawBuffer, []byte) error { return ErrUnavailable }
func (b *Backend) Copy(_, _ *tensor.RawBuffer) error        { return ErrUnavailable }
func (b *Backend) Fill(*tensor.RawBuffer, any) error        { return ErrUnavailable }
func (b *Backend) Scale(*tensor.RawBuffer, any) error       { return ErrUnavailable }
func (b *Backend) Hadamard(_, _ *tensor.RawBuffer) error    { return ErrUnavailable }
func (b *Backend) Map(*tensor.RawBuffer, tensor.UnaryOp) error {
	return ErrUnavailable
}

func (b *Backend) Alloc(tensor.DataType, int) (*tensor.RawBuffer, error) {
	return nil, ErrUnavailable
}

func (b *Backend) Dot(_, _ *tensor.RawBuffer) (any, error) {
	return nil, ErrUnavailable
}

func (b *Backend) Norm(*tensor.RawBuffer, float64) (float64, error) {
	return 0, ErrUnavailable
}

func (b *Backend) Gemm(_, _ tensor.Orientation, _, _, _ int, _ any, _, _ *tensor.RawBuffer, _ any, _ *tensor.RawBuffer) error {
	return ErrUnavailable
}
