//go:build windows

package webgpu

import (
	"fmt"
	"unsafe"

	"github.com/born-ml/carray/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// deviceBuffer is the tensor.DeviceMemory handle for a pooled storage buffer.
type deviceBuffer struct {
	backend  *Backend
	buffer   *wgpu.Buffer
	capacity uint64
	released bool
}

// Size returns the buffer capacity in bytes.
func (d *deviceBuffer) Size() uint64 {
	return d.capacity
}

// Release returns the buffer to the backend pool once queued work has been submitted.
func (d *deviceBuffer) Release() {
	if d.released {
		return
	}
	d.released = true
	d.backend.flushCommands()
	d.backend.bufferPool.Release(d.buffer, d.capacity)
	d.backend.trackRelease(d.capacity)
}

// resolve returns the storage buffer behind a RawBuffer owned by this backend.
func (b *Backend) resolve(raw *tensor.RawBuffer) (*deviceBuffer, error) {
	if raw.Device() != tensor.WebGPU {
		return nil, fmt.Errorf("%w: %s buffer passed to WebGPU backend", tensor.ErrDeviceMismatch, raw.Device())
	}
	mem, ok := raw.Memory().(*deviceBuffer)
	if !ok || mem.backend != b {
		return nil, fmt.Errorf("%w: buffer was allocated by another backend", tensor.ErrDeviceMismatch)
	}
	if mem.released {
		return nil, fmt.Errorf("webgpu: use of released buffer")
	}
	if raw.DType() != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: %w: %s (only float32 is supported)", tensor.ErrUnsupportedDType, raw.DType())
	}
	return mem, nil
}

// compileShader compiles WGSL code, caching the module by name.
func (b *Backend) compileShader(name, code string) *wgpu.ShaderModule {
	b.mu.RLock()
	if shader, exists := b.shaders[name]; exists {
		b.mu.RUnlock()
		return shader
	}
	b.mu.RUnlock()

	shader := b.device.CreateShaderModuleWGSL(code)

	b.mu.Lock()
	b.shaders[name] = shader
	b.mu.Unlock()
	return shader
}

// pipeline returns the cached compute pipeline for a kernel.
func (b *Backend) pipeline(name, code string) *wgpu.ComputePipeline {
	b.mu.RLock()
	if p, exists := b.pipelines[name]; exists {
		b.mu.RUnlock()
		return p
	}
	b.mu.RUnlock()

	p := b.device.CreateComputePipelineSimple(nil, b.compileShader(name, code), "main")

	b.mu.Lock()
	b.pipelines[name] = p
	b.mu.Unlock()
	return p
}

// createBuffer creates a buffer initialized with data.
func (b *Backend) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := alignedSize(len(data))
	buffer := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mapped := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(unsafe.Slice((*byte)(mapped), size), data)
	buffer.Unmap()
	return buffer
}

// readRange copies size bytes starting at offset from a storage buffer to the host.
// Pending kernels are submitted first.
func (b *Backend) readRange(src *wgpu.Buffer, offset, size uint64) ([]byte, error) {
	b.flushCommands()

	staging := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, offset, staging, 0, size)
	b.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(b.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("webgpu: map staging buffer: %w", err)
	}
	mapped := staging.GetMappedRange(0, size)
	out := make([]byte, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	copy(out, unsafe.Slice((*byte)(mapped), size))
	staging.Unmap()
	return out, nil
}

// storage is a buffer bound in full to one kernel slot.
type storage struct {
	buffer *wgpu.Buffer
	size   uint64
}

func bind(mem *deviceBuffer) storage {
	return storage{buffer: mem.buffer, size: mem.capacity}
}

// dispatch encodes one kernel launch and queues it. Storage buffers take
// bindings 0..len(bufs)-1 and the uniform block takes the next slot.
func (b *Backend) dispatch(name, code string, params *uniform, gx, gy uint32, bufs ...storage) {
	pipeline := b.pipeline(name, code)

	data := params.bytes()
	uniformBuf := b.createBuffer(data, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer uniformBuf.Release()

	entries := make([]wgpu.BindGroupEntry, 0, len(bufs)+1)
	for i, s := range bufs {
		//nolint:gosec // G115: binding indices are small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), s.buffer, 0, s.size))
	}
	//nolint:gosec // G115: binding indices are small
	entries = append(entries, wgpu.BufferBindingEntry(uint32(len(bufs)), uniformBuf, 0, uint64(len(data))))

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(gx, gy, 1)
	pass.End()

	b.queueCommand(encoder.Finish(nil))
}

// dispatch1D launches a kernel over n elements.
func (b *Backend) dispatch1D(name, code string, n int, params *uniform, bufs ...storage) {
	gx, gy := dispatchSize(n)
	b.dispatch(name, code, params, gx, gy, bufs...)
}

// scratch allocates a temporary storage buffer of n float32 elements.
func (b *Backend) scratch(n int) (*deviceBuffer, error) {
	raw, err := b.Alloc(tensor.Float32, n)
	if err != nil {
		return nil, err
	}
	return raw.Memory().(*deviceBuffer), nil
}
