// Package cpu implements the host backend on top of gonum's pure Go BLAS.
package cpu

import (
	"fmt"

	"github.com/born-ml/carray/internal/parallel"
	"github.com/born-ml/carray/internal/tensor"
	"gonum.org/v1/gonum/blas/gonum"
)

// Compile-time check that CPUBackend implements tensor.Backend.
var _ tensor.Backend = (*CPUBackend)(nil)

// CPUBackend implements the numeric contract for host-resident buffers.
// It is stateless apart from configuration and safe for concurrent use.
type CPUBackend struct {
	device   tensor.Device
	blas     gonum.Implementation
	par      parallel.Config
	features Features
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device:   tensor.CPU,
		par:      parallel.DefaultConfig(),
		features: DetectFeatures(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the memory space.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Features returns the detected instruction-set features.
func (cpu *CPUBackend) Features() Features {
	return cpu.features
}

// SetParallel overrides the element-wise parallelism settings.
func (cpu *CPUBackend) SetParallel(cfg parallel.Config) {
	cpu.par = cfg
}

// Alloc allocates a zeroed host buffer.
func (cpu *CPUBackend) Alloc(dtype tensor.DataType, n int) (*tensor.RawBuffer, error) {
	return tensor.NewHostRaw(dtype, n)
}

// Upload copies host bytes into dst.
func (cpu *CPUBackend) Upload(dst *tensor.RawBuffer, src []byte) error {
	if err := cpu.checkHost(dst); err != nil {
		return err
	}
	if len(src) != dst.ByteSize() {
		return fmt.Errorf("upload: %w: %d bytes into %d", tensor.ErrLengthMismatch, len(src), dst.ByteSize())
	}
	copy(dst.Bytes(), src)
	return nil
}

// Download copies src into host bytes.
func (cpu *CPUBackend) Download(src *tensor.RawBuffer, dst []byte) error {
	if err := cpu.checkHost(src); err != nil {
		return err
	}
	if len(dst) != src.ByteSize() {
		return fmt.Errorf("download: %w: %d bytes into %d", tensor.ErrLengthMismatch, src.ByteSize(), len(dst))
	}
	copy(dst, src.Bytes())
	return nil
}

// Copy copies src into dst. Overlapping regions are handled like memmove.
func (cpu *CPUBackend) Copy(dst, src *tensor.RawBuffer) error {
	if err := cpu.checkPair("copy", dst, src); err != nil {
		return err
	}
	copy(dst.Bytes(), src.Bytes())
	return nil
}

// Synchronize is a no-op: every CPU operation completes before returning.
func (cpu *CPUBackend) Synchronize() error {
	return nil
}

// checkHost rejects buffers that live in another memory space.
func (cpu *CPUBackend) checkHost(bufs ...*tensor.RawBuffer) error {
	for _, b := range bufs {
		if !b.IsHost() || b.Device() != cpu.device {
			return fmt.Errorf("%w: %s buffer passed to CPU backend", tensor.ErrDeviceMismatch, b.Device())
		}
	}
	return nil
}

// checkPair validates two operands of an element-wise operation.
func (cpu *CPUBackend) checkPair(op string, a, b *tensor.RawBuffer) error {
	if err := cpu.checkHost(a, b); err != nil {
		return err
	}
	if a.DType() != b.DType() {
		return fmt.Errorf("%s: %w: %s vs %s", op, tensor.ErrDTypeMismatch, a.DType(), b.DType())
	}
	if a.Len() != b.Len() {
		return fmt.Errorf("%s: %w: %d vs %d", op, tensor.ErrLengthMismatch, a.Len(), b.Len())
	}
	return nil
}
