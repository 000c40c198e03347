//go:build windows

package webgpu

import (
	"math/bits"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPerClass bounds how many idle buffers are kept per size class.
const maxPerClass = 32

// storageUsage is the usage every array buffer is created with.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// BufferPool recycles storage buffers by power-of-two size class.
type BufferPool struct {
	device *wgpu.Device

	mu   sync.Mutex
	idle map[uint64][]*wgpu.Buffer

	allocated uint64
	released  uint64
	hits      uint64
	misses    uint64
}

// NewBufferPool creates a pool that allocates from device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		idle:   make(map[uint64][]*wgpu.Buffer),
	}
}

// sizeClass rounds size up to the next power of two (minimum 16 bytes).
func sizeClass(size uint64) uint64 {
	if size <= 16 {
		return 16
	}
	return 1 << bits.Len64(size-1)
}

// Acquire returns a storage buffer of at least size bytes together with its
// actual capacity.
func (p *BufferPool) Acquire(size uint64) (*wgpu.Buffer, uint64) {
	class := sizeClass(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	if free := p.idle[class]; len(free) > 0 {
		buf := free[len(free)-1]
		p.idle[class] = free[:len(free)-1]
		p.hits++
		return buf, class
	}

	p.misses++
	p.allocated++
	buf := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: storageUsage,
		Size:  class,
	})
	return buf, class
}

// Release returns a buffer of the given capacity to the pool, or frees it
// when its class is full.
func (p *BufferPool) Release(buf *wgpu.Buffer, capacity uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.released++
	if len(p.idle[capacity]) >= maxPerClass {
		buf.Release()
		return
	}
	p.idle[capacity] = append(p.idle[capacity], buf)
}

// Clear frees every idle buffer.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class, free := range p.idle {
		for _, buf := range free {
			buf.Release()
		}
		delete(p.idle, class)
	}
}

// Stats returns pool counters and the number of idle buffers.
func (p *BufferPool) Stats() (allocated, released, hits, misses uint64, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, free := range p.idle {
		idle += len(free)
	}
	return p.allocated, p.released, p.hits, p.misses, idle
}
