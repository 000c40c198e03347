package webgpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformPadding(t *testing.T) {
	empty := (&uniform{}).bytes()
	assert.Len(t, empty, 16)

	u := (&uniform{}).u32(7).u32(3).f32(1.5)
	b := u.bytes()
	require.Len(t, b, 16)
	assert.Equal(t, uint32(7), binary.LittleEndian.Uint32(b[0:4]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(b[4:8]))
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(b[12:16]))

	five := (&uniform{}).u32(1).u32(2).u32(3).u32(4).u32(5).bytes()
	assert.Len(t, five, 32)
}

func TestDispatchSize(t *testing.T) {
	tests := []struct {
		n    int
		x, y uint32
	}{
		{0, 0, 0},
		{1, 1, 1},
		{256, 1, 1},
		{257, 2, 1},
		{maxWorkgroupsPerDim * workgroupSize, maxWorkgroupsPerDim, 1},
		{maxWorkgroupsPerDim*workgroupSize + 1, 32768, 2},
	}
	for _, tt := range tests {
		x, y := dispatchSize(tt.n)
		assert.Equal(t, tt.x, x, "n=%d", tt.n)
		assert.Equal(t, tt.y, y, "n=%d", tt.n)
		assert.GreaterOrEqual(t, int(x)*int(y)*workgroupSize, tt.n)
	}
}

func TestAlignedSize(t *testing.T) {
	assert.Equal(t, uint64(4), alignedSize(0))
	assert.Equal(t, uint64(4), alignedSize(3))
	assert.Equal(t, uint64(8), alignedSize(8))
	assert.Equal(t, uint64(12), alignedSize(9))
}
