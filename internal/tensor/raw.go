package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the memory space a buffer lives in.
type Device int

// Supported memory spaces.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// IsAccelerator reports whether the device is not host memory.
func (d Device) IsAccelerator() bool {
	return d != CPU
}

// DeviceMemory is an accelerator allocation owned by a backend.
// Backends type-assert it back to their concrete handle.
type DeviceMemory interface {
	// Size returns the allocation size in bytes.
	Size() uint64

	// Release frees the allocation.
	Release()
}

// RawBuffer is a flat, typed region of memory: either host bytes or a device
// allocation, addressed by element offset and length.
//
// A buffer created by NewHostRaw or NewDeviceRaw owns its memory. Slice returns
// non-owning aliases that share it.
type RawBuffer struct {
	host   []byte       // Host bytes of the whole allocation (nil when device-resident)
	mem    DeviceMemory // Device allocation (nil when host-resident)
	dtype  DataType     // Runtime type information
	device Device       // Memory space
	offset int          // Element offset into the allocation
	length int          // Number of elements
	owner  bool         // Whether Release frees memory
}

// NewHostRaw allocates a zeroed host buffer of n elements.
func NewHostRaw(dtype DataType, n int) (*RawBuffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid length %d (must be >= 0)", n)
	}
	return &RawBuffer{
		host:   make([]byte, n*dtype.Size()),
		dtype:  dtype,
		device: CPU,
		length: n,
		owner:  true,
	}, nil
}

// WrapHostBytes wraps existing host bytes without copying.
// len(data) must be a multiple of the element size.
func WrapHostBytes(dtype DataType, data []byte) (*RawBuffer, error) {
	if len(data)%dtype.Size() != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %s size", ErrLengthMismatch, len(data), dtype)
	}
	return &RawBuffer{
		host:   data,
		dtype:  dtype,
		device: CPU,
		length: len(data) / dtype.Size(),
		owner:  true,
	}, nil
}

// NewDeviceRaw wraps a device allocation holding n elements.
func NewDeviceRaw(dtype DataType, device Device, mem DeviceMemory, n int) (*RawBuffer, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid length %d (must be >= 0)", n)
	}
	//nolint:gosec // G115: n is non-negative
	if mem != nil && mem.Size() < uint64(n*dtype.Size()) {
		return nil, fmt.Errorf("%w: device allocation of %d bytes cannot hold %d %s elements",
			ErrLengthMismatch, mem.Size(), n, dtype)
	}
	return &RawBuffer{
		mem:    mem,
		dtype:  dtype,
		device: device,
		length: n,
		owner:  true,
	}, nil
}

// DType returns the element type.
func (r *RawBuffer) DType() DataType {
	return r.dtype
}

// Device returns the memory space.
func (r *RawBuffer) Device() Device {
	return r.device
}

// Len returns the number of elements.
func (r *RawBuffer) Len() int {
	return r.length
}

// Offset returns the element offset into the underlying allocation.
func (r *RawBuffer) Offset() int {
	return r.offset
}

// ByteOffset returns the byte offset into the underlying allocation.
func (r *RawBuffer) ByteOffset() int {
	return r.offset * r.dtype.Size()
}

// ByteSize returns the size of the region in bytes.
func (r *RawBuffer) ByteSize() int {
	return r.length * r.dtype.Size()
}

// IsHost reports whether the data is addressable from Go.
func (r *RawBuffer) IsHost() bool {
	return r.mem == nil
}

// IsOwner reports whether Release frees the memory.
func (r *RawBuffer) IsOwner() bool {
	return r.owner
}

// Memory returns the device allocation, or nil for host buffers.
func (r *RawBuffer) Memory() DeviceMemory {
	return r.mem
}

// Slice returns a non-owning alias of n elements starting at off.
func (r *RawBuffer) Slice(off, n int) (*RawBuffer, error) {
	if off < 0 || n < 0 || off+n > r.length {
		return nil, fmt.Errorf("slice [%d:%d] out of range for buffer of length %d", off, off+n, r.length)
	}
	return &RawBuffer{
		host:   r.host,
		mem:    r.mem,
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset + off,
		length: n,
		owner:  false,
	}, nil
}

// Bytes returns the host bytes of this region.
// Panics if the buffer is device-resident.
//
// WARNING: Direct access to underlying memory.
func (r *RawBuffer) Bytes() []byte {
	if r.mem != nil {
		panic(fmt.Sprintf("buffer is resident on %s, not host", r.device))
	}
	start := r.ByteOffset()
	return r.host[start : start+r.ByteSize()]
}

// SameMemory reports whether both buffers alias the same allocation.
func (r *RawBuffer) SameMemory(other *RawBuffer) bool {
	if r.mem != nil || other.mem != nil {
		return r.mem == other.mem
	}
	if len(r.host) == 0 || len(other.host) == 0 {
		return false
	}
	return &r.host[0] == &other.host[0]
}

// AsFloat32 interprets the data as []float32.
// Panics if the dtype is not Float32 or the buffer is device-resident.
func (r *RawBuffer) AsFloat32() []float32 {
	r.mustHost(Float32)
	return viewAs[float32](r.Bytes(), r.length)
}

// AsFloat64 interprets the data as []float64.
// Panics if the dtype is not Float64 or the buffer is device-resident.
func (r *RawBuffer) AsFloat64() []float64 {
	r.mustHost(Float64)
	return viewAs[float64](r.Bytes(), r.length)
}

// AsComplex64 interprets the data as []complex64.
// Panics if the dtype is not Complex64 or the buffer is device-resident.
func (r *RawBuffer) AsComplex64() []complex64 {
	r.mustHost(Complex64)
	return viewAs[complex64](r.Bytes(), r.length)
}

// AsComplex128 interprets the data as []complex128.
// Panics if the dtype is not Complex128 or the buffer is device-resident.
func (r *RawBuffer) AsComplex128() []complex128 {
	r.mustHost(Complex128)
	return viewAs[complex128](r.Bytes(), r.length)
}

// Release frees the memory if this buffer owns it. Releasing a view is a no-op.
func (r *RawBuffer) Release() {
	if !r.owner {
		return
	}
	if r.mem != nil {
		r.mem.Release()
		r.mem = nil
	}
	r.host = nil
	r.length = 0
}

func (r *RawBuffer) mustHost(dtype DataType) {
	if r.dtype != dtype {
		panic(fmt.Sprintf("buffer dtype is %s, not %s", r.dtype, dtype))
	}
	if r.mem != nil {
		panic(fmt.Sprintf("buffer is resident on %s, not host", r.device))
	}
}

// HostSlice returns a zero-copy typed view of a host buffer.
// Panics if T does not match the dtype or the buffer is device-resident.
func HostSlice[T Scalar](r *RawBuffer) []T {
	r.mustHost(DataTypeOf[T]())
	return viewAs[T](r.Bytes(), r.length)
}

// AsBytes reinterprets a typed slice as bytes without copying.
func AsBytes[T Scalar](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(s[0]))
	//nolint:gosec // unsafe.Slice for zero-copy performance, length derived from len(s)
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*size)
}

// FromBytes copies bytes into a new typed slice.
func FromBytes[T Scalar](data []byte) []T {
	var dummy T
	size := int(unsafe.Sizeof(dummy))
	out := make([]T, len(data)/size)
	copy(AsBytes(out), data)
	return out
}

func viewAs[T Scalar](data []byte, n int) []T {
	if n == 0 {
		return []T{}
	}
	//nolint:gosec // unsafe.Slice for zero-copy performance, bounds checked by length
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), n)
}
