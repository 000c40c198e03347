//go:build windows

package webgpu

import (
	"math"
	"testing"

	"github.com/born-ml/carray/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New()
	if err != nil {
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(b.Release)
	return b
}

func upload(t *testing.T, b *Backend, vals ...float32) *tensor.RawBuffer {
	t.Helper()
	raw, err := b.Alloc(tensor.Float32, len(vals))
	require.NoError(t, err)
	require.NoError(t, b.Upload(raw, tensor.AsBytes(vals)))
	return raw
}

func download(t *testing.T, b *Backend, raw *tensor.RawBuffer) []float32 {
	t.Helper()
	out := make([]byte, raw.ByteSize())
	require.NoError(t, b.Download(raw, out))
	return tensor.FromBytes[float32](out)
}

func TestBackendIdentity(t *testing.T) {
	b := newBackend(t)
	assert.NotEmpty(t, b.Name())
	assert.Equal(t, tensor.WebGPU, b.Device())

	_, err := b.Alloc(tensor.Float64, 4)
	require.ErrorIs(t, err, tensor.ErrUnsupportedDType)
}

func TestAllocIsZeroed(t *testing.T) {
	b := newBackend(t)
	raw := upload(t, b, 1, 2, 3, 4)
	raw.Release()

	// The pooled buffer is reused and must come back cleared.
	again, err := b.Alloc(tensor.Float32, 4)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0, 0}, download(t, b, again))
	assert.Positive(t, b.MemoryStats().PoolHits)
}

func TestFillScaleView(t *testing.T) {
	b := newBackend(t)
	raw := upload(t, b, 0, 0, 0, 0, 0, 0)
	view, err := raw.Slice(2, 4)
	require.NoError(t, err)

	require.NoError(t, b.Fill(view, 1.5))
	require.NoError(t, b.Scale(view, 2))
	assert.Equal(t, []float32{0, 0, 3, 3, 3, 3}, download(t, b, raw))
	assert.Equal(t, []float32{3, 3, 3, 3}, download(t, b, view))
}

func TestHadamardAliased(t *testing.T) {
	b := newBackend(t)
	raw := upload(t, b, 1, 2, 3, 4)
	lo, err := raw.Slice(0, 2)
	require.NoError(t, err)
	hi, err := raw.Slice(2, 2)
	require.NoError(t, err)

	require.NoError(t, b.Hadamard(lo, hi))
	assert.Equal(t, []float32{3, 8, 3, 4}, download(t, b, raw))
}

func TestMap(t *testing.T) {
	b := newBackend(t)
	raw := upload(t, b, -1, 0, 2)
	require.NoError(t, b.Map(raw, tensor.ReLU))
	assert.Equal(t, []float32{0, 0, 2}, download(t, b, raw))
}

func TestDotNorm(t *testing.T) {
	b := newBackend(t)
	x := upload(t, b, 3, -4, 0)
	y := upload(t, b, 1, 1, 1)

	d, err := b.Dot(x, y)
	require.NoError(t, err)
	assert.Equal(t, float32(-1), d)

	n2, err := b.Norm(x, 2)
	require.NoError(t, err)
	assert.InDelta(t, 5, n2, 1e-5)

	inf, err := b.Norm(x, math.Inf(1))
	require.NoError(t, err)
	assert.InDelta(t, 4, inf, 1e-6)
}

func TestGemm(t *testing.T) {
	b := newBackend(t)
	a := upload(t, b, 1, 2, 3, 4, 5, 6)
	bm := upload(t, b, 7, 8, 9, 10, 11, 12)
	c, err := b.Alloc(tensor.Float32, 4)
	require.NoError(t, err)

	require.NoError(t, b.Gemm(tensor.Plain, tensor.Plain, 2, 2, 3, 1, a, bm, 0, c))
	assert.Equal(t, []float32{58, 64, 139, 154}, download(t, b, c))

	c3, err := b.Alloc(tensor.Float32, 9)
	require.NoError(t, err)
	require.NoError(t, b.Gemm(tensor.Transpose, tensor.Plain, 3, 3, 2, 1, a, a, 0, c3))
	assert.Equal(t, []float32{17, 22, 27, 22, 29, 36, 27, 36, 45}, download(t, b, c3))
}

func TestCopySameAllocation(t *testing.T) {
	b := newBackend(t)
	raw := upload(t, b, 1, 2, 3, 4)
	lo, err := raw.Slice(0, 2)
	require.NoError(t, err)
	hi, err := raw.Slice(2, 2)
	require.NoError(t, err)

	require.NoError(t, b.Copy(hi, lo))
	assert.Equal(t, []float32{1, 2, 1, 2}, download(t, b, raw))
}
