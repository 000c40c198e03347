//go:build windows

package webgpu

import (
	"fmt"
	"math"

	"github.com/born-ml/carray/internal/tensor"
	"github.com/go-webgpu/webgpu/wgpu"
)

// Alloc allocates a zeroed float32 buffer of n elements.
func (b *Backend) Alloc(dtype tensor.DataType, n int) (*tensor.RawBuffer, error) {
	if dtype != tensor.Float32 {
		return nil, fmt.Errorf("webgpu: %w: %s (only float32 is supported)", tensor.ErrUnsupportedDType, dtype)
	}
	if n < 0 {
		return nil, fmt.Errorf("webgpu: invalid length %d", n)
	}

	buffer, capacity := b.bufferPool.Acquire(alignedSize(n * dtype.Size()))
	mem := &deviceBuffer{backend: b, buffer: buffer, capacity: capacity}
	b.trackAlloc(capacity)

	raw, err := tensor.NewDeviceRaw(dtype, tensor.WebGPU, mem, n)
	if err != nil {
		mem.Release()
		return nil, err
	}
	if n > 0 {
		// Pooled buffers keep their previous contents.
		b.dispatch1D("fill", fillShader, n, (&uniform{}).u32(n).u32(0).f32(0), bind(mem))
	}
	return raw, nil
}

// Upload copies host bytes into dst.
func (b *Backend) Upload(dst *tensor.RawBuffer, src []byte) error {
	mem, err := b.resolve(dst)
	if err != nil {
		return err
	}
	if len(src) != dst.ByteSize() {
		return fmt.Errorf("upload: %w: %d bytes into %d", tensor.ErrLengthMismatch, len(src), dst.ByteSize())
	}
	if len(src) == 0 {
		return nil
	}

	staging := b.createBuffer(src, wgpu.BufferUsageCopySrc)
	defer staging.Release()

	encoder := b.device.CreateCommandEncoder(nil)
	//nolint:gosec // G115: offsets and sizes are non-negative
	encoder.CopyBufferToBuffer(staging, 0, mem.buffer, uint64(dst.ByteOffset()), uint64(len(src)))
	b.queueCommand(encoder.Finish(nil))
	b.flushCommands()
	return nil
}

// Download copies src into host bytes.
func (b *Backend) Download(src *tensor.RawBuffer, dst []byte) error {
	mem, err := b.resolve(src)
	if err != nil {
		return err
	}
	if len(dst) != src.ByteSize() {
		return fmt.Errorf("download: %w: %d bytes into %d", tensor.ErrLengthMismatch, src.ByteSize(), len(dst))
	}
	if len(dst) == 0 {
		return nil
	}

	//nolint:gosec // G115: offsets and sizes are non-negative
	data, err := b.readRange(mem.buffer, uint64(src.ByteOffset()), uint64(len(dst)))
	if err != nil {
		return err
	}
	copy(dst, data)
	return nil
}

// Copy copies src into dst. Regions of the same allocation go through a
// temporary buffer.
func (b *Backend) Copy(dst, src *tensor.RawBuffer) error {
	dm, sm, err := b.resolvePair("copy", dst, src)
	if err != nil {
		return err
	}
	if dst.Len() == 0 {
		return nil
	}

	//nolint:gosec // G115: offsets and sizes are non-negative
	size, srcOff, dstOff := uint64(src.ByteSize()), uint64(src.ByteOffset()), uint64(dst.ByteOffset())
	encoder := b.device.CreateCommandEncoder(nil)
	if dm != sm {
		encoder.CopyBufferToBuffer(sm.buffer, srcOff, dm.buffer, dstOff, size)
		b.queueCommand(encoder.Finish(nil))
		return nil
	}

	tmp, err := b.scratch(src.Len())
	if err != nil {
		return err
	}
	defer tmp.Release()
	encoder.CopyBufferToBuffer(sm.buffer, srcOff, tmp.buffer, 0, size)
	encoder.CopyBufferToBuffer(tmp.buffer, 0, dm.buffer, dstOff, size)
	b.queueCommand(encoder.Finish(nil))
	return nil
}

// Fill sets every element of x to value.
func (b *Backend) Fill(x *tensor.RawBuffer, value any) error {
	mem, err := b.resolve(x)
	if err != nil {
		return err
	}
	v, err := tensor.CastScalar(value, tensor.Float32)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}
	if x.Len() == 0 {
		return nil
	}
	b.dispatch1D("fill", fillShader, x.Len(), (&uniform{}).u32(x.Len()).u32(x.Offset()).f32(v.(float32)), bind(mem))
	return nil
}

// Scale multiplies every element of x by alpha in place.
func (b *Backend) Scale(x *tensor.RawBuffer, alpha any) error {
	mem, err := b.resolve(x)
	if err != nil {
		return err
	}
	a, err := tensor.CastScalar(alpha, tensor.Float32)
	if err != nil {
		return fmt.Errorf("scale: %w", err)
	}
	if x.Len() == 0 {
		return nil
	}
	b.dispatch1D("scale", scaleShader, x.Len(), (&uniform{}).u32(x.Len()).u32(x.Offset()).f32(a.(float32)), bind(mem))
	return nil
}

// Hadamard multiplies dst by x element-wise in place.
func (b *Backend) Hadamard(dst, x *tensor.RawBuffer) error {
	dm, xm, err := b.resolvePair("hadamard", dst, x)
	if err != nil {
		return err
	}
	n := dst.Len()
	if n == 0 {
		return nil
	}

	src, srcOff := xm, x.Offset()
	if dm == xm {
		// A buffer cannot be bound writable and read-only in one pass.
		tmp, err := b.detach(x, xm)
		if err != nil {
			return err
		}
		defer tmp.Release()
		src, srcOff = tmp, 0
	}
	b.dispatch1D("hadamard", hadamardShader, n, (&uniform{}).u32(n).u32(dst.Offset()).u32(srcOff), bind(dm), bind(src))
	return nil
}

// Map applies fn to every element of x in place.
func (b *Backend) Map(x *tensor.RawBuffer, fn tensor.UnaryOp) error {
	mem, err := b.resolve(x)
	if err != nil {
		return err
	}
	if fn < tensor.Identity || fn > tensor.Softplus {
		return fmt.Errorf("map: unknown function %d", fn)
	}
	if x.Len() == 0 {
		return nil
	}
	b.dispatch1D("map", mapShader, x.Len(), (&uniform{}).u32(x.Len()).u32(x.Offset()).u32(int(fn)), bind(mem))
	return nil
}

// Dot returns sum(x[i] * y[i]) as a float32.
func (b *Backend) Dot(x, y *tensor.RawBuffer) (any, error) {
	xm, ym, err := b.resolvePair("dot", x, y)
	if err != nil {
		return nil, err
	}
	n := x.Len()
	if n == 0 {
		return float32(0), nil
	}

	gx, gy := dispatchSize(n)
	partials, err := b.scratch(int(gx * gy))
	if err != nil {
		return nil, err
	}
	defer partials.Release()

	b.dispatch("dot", dotShader, (&uniform{}).u32(n).u32(x.Offset()).u32(y.Offset()), gx, gy,
		bind(xm), bind(ym), bind(partials))

	sums, err := b.readPartials(partials, int(gx*gy))
	if err != nil {
		return nil, err
	}
	return float32(sumFloat32(sums)), nil
}

// Norm returns the p-norm of x. Finite positive p is reduced on the device;
// other orders read the region back and finish on the host.
func (b *Backend) Norm(x *tensor.RawBuffer, p float64) (float64, error) {
	mem, err := b.resolve(x)
	if err != nil {
		return 0, err
	}
	n := x.Len()
	if n == 0 {
		return 0, nil
	}

	if p <= 0 || math.IsInf(p, 0) || math.IsNaN(p) {
		data := make([]byte, x.ByteSize())
		if err := b.Download(x, data); err != nil {
			return 0, err
		}
		return hostNorm(tensor.FromBytes[float32](data), p), nil
	}

	gx, gy := dispatchSize(n)
	partials, err := b.scratch(int(gx * gy))
	if err != nil {
		return 0, err
	}
	defer partials.Release()

	b.dispatch("powsum", powSumShader, (&uniform{}).u32(n).u32(x.Offset()).f32(float32(p)), gx, gy,
		bind(mem), bind(partials))

	sums, err := b.readPartials(partials, int(gx*gy))
	if err != nil {
		return 0, err
	}
	return rootOf(sumFloat32(sums), p), nil
}

// Gemm computes c = alpha*op(a)*op(b) + beta*c for row-major matrices.
// Adjoint is treated as Transpose since buffers are real.
func (b *Backend) Gemm(tA, tB tensor.Orientation, m, n, k int, alpha any, a, bb *tensor.RawBuffer, beta any, c *tensor.RawBuffer) error {
	am, err := b.resolve(a)
	if err != nil {
		return err
	}
	bm, err := b.resolve(bb)
	if err != nil {
		return err
	}
	cm, err := b.resolve(c)
	if err != nil {
		return err
	}
	if a.Len() != m*k || bb.Len() != k*n || c.Len() != m*n {
		return fmt.Errorf("gemm: %w: op(a) %dx%d (%d elems), op(b) %dx%d (%d elems), c %dx%d (%d elems)",
			tensor.ErrShapeMismatch, m, k, a.Len(), k, n, bb.Len(), m, n, c.Len())
	}
	al, err := tensor.CastScalar(alpha, tensor.Float32)
	if err != nil {
		return fmt.Errorf("gemm: alpha: %w", err)
	}
	be, err := tensor.CastScalar(beta, tensor.Float32)
	if err != nil {
		return fmt.Errorf("gemm: beta: %w", err)
	}
	if m == 0 || n == 0 {
		return nil
	}
	if k == 0 {
		return b.Scale(c, be)
	}

	gx, gy := (n+gemmTile-1)/gemmTile, (m+gemmTile-1)/gemmTile
	if gx > maxWorkgroupsPerDim || gy > maxWorkgroupsPerDim {
		return fmt.Errorf("gemm: %dx%d result exceeds the dispatch limit", m, n)
	}

	offA, offB := a.Offset(), bb.Offset()
	if am == cm {
		tmp, err := b.detach(a, am)
		if err != nil {
			return err
		}
		defer tmp.Release()
		am, offA = tmp, 0
	}
	if bm == cm {
		tmp, err := b.detach(bb, bm)
		if err != nil {
			return err
		}
		defer tmp.Release()
		bm, offB = tmp, 0
	}

	params := (&uniform{}).u32(m).u32(n).u32(k).
		u32(boolWord(tA.Swaps())).u32(boolWord(tB.Swaps())).
		u32(offA).u32(offB).u32(c.Offset()).
		f32(al.(float32)).f32(be.(float32))
	//nolint:gosec // G115: bounded by maxWorkgroupsPerDim above
	b.dispatch("gemm", gemmShader, params, uint32(gx), uint32(gy), bind(am), bind(bm), bind(cm))
	return nil
}

func (b *Backend) resolvePair(op string, x, y *tensor.RawBuffer) (*deviceBuffer, *deviceBuffer, error) {
	xm, err := b.resolve(x)
	if err != nil {
		return nil, nil, err
	}
	ym, err := b.resolve(y)
	if err != nil {
		return nil, nil, err
	}
	if x.Len() != y.Len() {
		return nil, nil, fmt.Errorf("%s: %w: %d vs %d", op, tensor.ErrLengthMismatch, x.Len(), y.Len())
	}
	return xm, ym, nil
}

// detach copies the region of raw into a fresh scratch buffer at offset 0.
func (b *Backend) detach(raw *tensor.RawBuffer, mem *deviceBuffer) (*deviceBuffer, error) {
	tmp, err := b.scratch(raw.Len())
	if err != nil {
		return nil, err
	}
	encoder := b.device.CreateCommandEncoder(nil)
	//nolint:gosec // G115: offsets and sizes are non-negative
	encoder.CopyBufferToBuffer(mem.buffer, uint64(raw.ByteOffset()), tmp.buffer, 0, uint64(raw.ByteSize()))
	b.queueCommand(encoder.Finish(nil))
	return tmp, nil
}

func (b *Backend) readPartials(mem *deviceBuffer, n int) ([]float32, error) {
	//nolint:gosec // G115: n is positive
	data, err := b.readRange(mem.buffer, 0, uint64(n*4))
	if err != nil {
		return nil, err
	}
	return tensor.FromBytes[float32](data), nil
}

func boolWord(v bool) int {
	if v {
		return 1
	}
	return 0
}
