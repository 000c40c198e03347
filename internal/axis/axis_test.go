package axis

import (
	"testing"

	"github.com/born-ml/carray/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layerAxis(t *testing.T) *Axis {
	t.Helper()
	ax, err := Build(
		GroupSpec("layer1",
			LeafSpec("weight", 2, 3),
			LeafSpec("bias", 2),
		),
		GroupSpec("layer2",
			LeafSpec("weight", 1, 2),
			LeafSpec("bias", 1),
		),
		LeafSpec("scale"),
	)
	require.NoError(t, err)
	return ax
}

func TestBuildLayout(t *testing.T) {
	ax := layerAxis(t)

	assert.Equal(t, 12, ax.Len())
	assert.Equal(t, []string{"layer1", "layer2", "scale"}, ax.Keys())

	leaves := ax.Leaves()
	require.Len(t, leaves, 5)
	assert.Equal(t, "layer1.weight", leaves[0].Path)
	assert.Equal(t, LeafInfo{Path: "layer2.bias", Offset: 10, Len: 1, Shape: tensor.Shape{1}}, leaves[3])
	assert.Equal(t, "scale", leaves[4].Path)
	assert.True(t, leaves[4].Shape.IsScalar())

	require.NoError(t, ax.Validate())
}

func TestLayoutCoverage(t *testing.T) {
	ax := layerAxis(t)

	covered := make([]int, ax.Len())
	for _, leaf := range ax.Leaves() {
		for i := leaf.Offset; i < leaf.Offset+leaf.Len; i++ {
			covered[i]++
		}
	}
	for i, c := range covered {
		assert.Equal(t, 1, c, "element %d covered %d times", i, c)
	}
}

func TestLookup(t *testing.T) {
	ax := layerAxis(t)

	n, err := ax.Lookup("layer1.bias")
	require.NoError(t, err)
	assert.Equal(t, 6, n.Offset())
	assert.Equal(t, 2, n.Len())
	assert.True(t, n.IsLeaf())

	n, err = ax.Lookup("layer2")
	require.NoError(t, err)
	assert.False(t, n.IsLeaf())
	assert.Equal(t, tensor.Shape{3}, n.Shape())

	root, err := ax.Lookup("")
	require.NoError(t, err)
	assert.Same(t, ax.Root(), root)
}

func TestLookupIntegerRows(t *testing.T) {
	ax := layerAxis(t)

	row, err := ax.Lookup("layer1.weight.1")
	require.NoError(t, err)
	assert.Equal(t, 3, row.Offset())
	assert.Equal(t, tensor.Shape{3}, row.Shape())

	elem, err := ax.Lookup("layer1.weight.1.2")
	require.NoError(t, err)
	assert.Equal(t, 5, elem.Offset())
	assert.True(t, elem.Shape().IsScalar())

	_, err = ax.Lookup("layer1.weight.2")
	assert.ErrorIs(t, err, tensor.ErrKeyNotFound)
}

func TestLookupMissing(t *testing.T) {
	ax := layerAxis(t)

	for _, path := range []string{"layer3", "layer1.gamma", "scale.0", "layer1.weight.x"} {
		_, err := ax.Lookup(path)
		assert.ErrorIs(t, err, tensor.ErrKeyNotFound, path)
		assert.Contains(t, err.Error(), path)
	}
}

func TestSubRebases(t *testing.T) {
	ax := layerAxis(t)

	sub, err := ax.Sub("layer2")
	require.NoError(t, err)
	assert.Equal(t, 3, sub.Len())

	leaves := sub.Leaves()
	require.Len(t, leaves, 2)
	assert.Equal(t, "weight", leaves[0].Path)
	assert.Equal(t, 0, leaves[0].Offset)
	assert.Equal(t, 2, leaves[1].Offset)
	require.NoError(t, sub.Validate())

	n, err := sub.Lookup("bias")
	require.NoError(t, err)
	assert.Equal(t, 2, sub.RelOffset(n))
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(LeafSpec("w", 2), LeafSpec("w", 3))
	assert.ErrorIs(t, err, tensor.ErrDuplicateKey)

	_, err = Build(LeafSpec("a.b", 2))
	assert.ErrorIs(t, err, tensor.ErrInvalidLayout)

	_, err = Build(GroupSpec("g", LeafSpec("", 1)))
	assert.ErrorIs(t, err, tensor.ErrInvalidLayout)

	_, err = Build(LeafSpec("neg", -1))
	assert.Error(t, err)
}

func TestEmptyAxis(t *testing.T) {
	ax, err := Build()
	require.NoError(t, err)
	assert.Equal(t, 0, ax.Len())
	assert.Empty(t, ax.Leaves())
	require.NoError(t, ax.Validate())

	ax, err = Build(GroupSpec("dropout"), LeafSpec("w", 2))
	require.NoError(t, err)
	n, err := ax.Lookup("dropout")
	require.NoError(t, err)
	assert.False(t, n.IsLeaf())
	assert.Equal(t, 0, n.Len())
	require.NoError(t, ax.Validate())
}

func TestFlat(t *testing.T) {
	ax, err := Flat(2, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, ax.Len())
	assert.Equal(t, tensor.Shape{2, 2}, ax.Shape())

	row, err := ax.Lookup("1")
	require.NoError(t, err)
	assert.Equal(t, 2, row.Offset())
}

func TestFromLeaves(t *testing.T) {
	ax := layerAxis(t)

	var placed []PlacedLeaf
	for _, l := range ax.Leaves() {
		placed = append(placed, PlacedLeaf{Path: l.Path, Offset: l.Offset, Shape: l.Shape})
	}
	rebuilt, err := FromLeaves(placed, ax.Len())
	require.NoError(t, err)
	assert.Equal(t, ax.Leaves(), rebuilt.Leaves())
	assert.Equal(t, ax.Keys(), rebuilt.Keys())
	require.NoError(t, rebuilt.Validate())
}

func TestFromLeavesRejectsBadLayouts(t *testing.T) {
	_, err := FromLeaves([]PlacedLeaf{
		{Path: "a", Offset: 0, Shape: tensor.Shape{2}},
		{Path: "b", Offset: 3, Shape: tensor.Shape{1}},
	}, 4)
	assert.ErrorIs(t, err, tensor.ErrInvalidLayout, "gap")

	_, err = FromLeaves([]PlacedLeaf{
		{Path: "a", Offset: 0, Shape: tensor.Shape{2}},
	}, 3)
	assert.ErrorIs(t, err, tensor.ErrInvalidLayout, "short coverage")

	_, err = FromLeaves([]PlacedLeaf{
		{Path: "g.x", Offset: 0, Shape: tensor.Shape{1}},
		{Path: "h", Offset: 1, Shape: tensor.Shape{1}},
		{Path: "g.y", Offset: 2, Shape: tensor.Shape{1}},
	}, 3)
	assert.ErrorIs(t, err, tensor.ErrInvalidLayout, "non-contiguous group")

	_, err = FromLeaves([]PlacedLeaf{
		{Path: "a", Offset: 0, Shape: tensor.Shape{1}},
		{Path: "a", Offset: 1, Shape: tensor.Shape{1}},
	}, 2)
	assert.ErrorIs(t, err, tensor.ErrDuplicateKey)
}

func TestString(t *testing.T) {
	ax, err := Build(GroupSpec("l", LeafSpec("w", 2, 2)))
	require.NoError(t, err)
	assert.Equal(t, "<root> [0:4]\n  l [0:4]\n    w [0:4] (2, 2)\n", ax.String())
}
