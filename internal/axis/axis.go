// Package axis implements the immutable layout tree that maps key paths of a
// component array to contiguous sub-ranges of its flat buffer.
//
// An Axis carries no data, only layout, so it is shared freely between arrays
// that differ in element type or memory space.
package axis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/born-ml/carray/internal/tensor"
)

// Separator splits the components of a key path.
const Separator = "."

// Node is one entry of the layout tree: a leaf with a shape, or a group with
// ordered children. Offsets are absolute within the owning buffer.
type Node struct {
	name     string
	offset   int
	length   int
	shape    tensor.Shape // Leaves only
	children []*Node      // Groups only, in layout order
	index    map[string]int
}

// Name returns the node's key within its parent.
func (n *Node) Name() string { return n.name }

// Offset returns the absolute element offset.
func (n *Node) Offset() int { return n.offset }

// Len returns the number of elements covered.
func (n *Node) Len() int { return n.length }

// IsLeaf reports whether the node addresses a value rather than a group.
func (n *Node) IsLeaf() bool { return n.children == nil }

// Shape returns the logical shape of a leaf. Groups report a flat vector shape.
func (n *Node) Shape() tensor.Shape {
	if n.IsLeaf() {
		return n.shape.Clone()
	}
	return tensor.Shape{n.length}
}

// Children returns the children in layout order.
func (n *Node) Children() []*Node {
	return n.children
}

// Child returns the named child.
func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}

// Axis is an immutable layout tree rooted at a node.
// A sub-axis produced by Sub shares nodes with its parent and is rebased so
// that offsets reported through it are relative to the sub-range.
type Axis struct {
	root *Node
	base int
}

// Root returns the root node.
func (a *Axis) Root() *Node { return a.root }

// Len returns the number of elements covered by the axis.
func (a *Axis) Len() int { return a.root.length }

// Shape returns the logical shape of the whole axis.
func (a *Axis) Shape() tensor.Shape { return a.root.Shape() }

// RelOffset returns a node's offset relative to this axis.
func (a *Axis) RelOffset(n *Node) int { return n.offset - a.base }

// Keys returns the names of the root's children.
func (a *Axis) Keys() []string {
	keys := make([]string, len(a.root.children))
	for i, c := range a.root.children {
		keys[i] = c.name
	}
	return keys
}

// Lookup resolves a dotted key path. The empty path resolves to the root.
//
// Named children are matched first. An integer component applied to a leaf
// of rank >= 1 selects a row along its first dimension, so "weight.0" is the
// first row of a matrix and "bias.1" the second element of a vector.
func (a *Axis) Lookup(path string) (*Node, error) {
	node := a.root
	if path == "" {
		return node, nil
	}
	for _, key := range strings.Split(path, Separator) {
		next, err := step(node, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, path)
		}
		node = next
	}
	return node, nil
}

// Sub returns the axis rooted at path, rebased to start at offset zero.
func (a *Axis) Sub(path string) (*Axis, error) {
	node, err := a.Lookup(path)
	if err != nil {
		return nil, err
	}
	return &Axis{root: node, base: node.offset}, nil
}

// LeafInfo describes one leaf reached by Walk.
type LeafInfo struct {
	Path   string       // Dotted key path relative to the axis root
	Offset int          // Offset relative to the axis
	Len    int          // Number of elements
	Shape  tensor.Shape // Logical shape
}

// Leaves returns all leaves in layout order.
func (a *Axis) Leaves() []LeafInfo {
	var out []LeafInfo
	var walk func(prefix string, n *Node)
	walk = func(prefix string, n *Node) {
		if n.IsLeaf() {
			out = append(out, LeafInfo{Path: prefix, Offset: n.offset - a.base, Len: n.length, Shape: n.shape.Clone()})
			return
		}
		for _, c := range n.children {
			walk(join(prefix, c.name), c)
		}
	}
	walk("", a.root)
	return out
}

// Validate checks the layout invariants: leaves are disjoint, in bounds and
// cover the axis range exactly once, and every leaf shape agrees with its length.
func (a *Axis) Validate() error {
	pos := 0
	for _, leaf := range a.Leaves() {
		if leaf.Shape.NumElements() != leaf.Len {
			return fmt.Errorf("%w: leaf %q has shape %v but length %d", tensor.ErrShapeMismatch, leaf.Path, leaf.Shape, leaf.Len)
		}
		if leaf.Offset != pos {
			return fmt.Errorf("%w: leaf %q starts at %d, expected %d", tensor.ErrInvalidLayout, leaf.Path, leaf.Offset, pos)
		}
		pos += leaf.Len
	}
	if pos != a.Len() {
		return fmt.Errorf("%w: leaves cover %d of %d elements", tensor.ErrInvalidLayout, pos, a.Len())
	}
	return nil
}

// String renders the tree, one node per line.
func (a *Axis) String() string {
	var sb strings.Builder
	var walk func(depth int, n *Node)
	walk = func(depth int, n *Node) {
		name := n.name
		if depth == 0 && name == "" {
			name = "<root>"
		}
		fmt.Fprintf(&sb, "%s%s [%d:%d]", strings.Repeat("  ", depth), name, n.offset-a.base, n.offset-a.base+n.length)
		if n.IsLeaf() {
			fmt.Fprintf(&sb, " %v", n.shape)
		}
		sb.WriteByte('\n')
		for _, c := range n.children {
			walk(depth+1, c)
		}
	}
	walk(0, a.root)
	return sb.String()
}

func step(node *Node, key string) (*Node, error) {
	if child, ok := node.Child(key); ok {
		return child, nil
	}
	if !node.IsLeaf() || len(node.shape) == 0 {
		return nil, tensor.ErrKeyNotFound
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= node.shape[0] {
		return nil, tensor.ErrKeyNotFound
	}
	rowShape := node.shape[1:].Clone()
	if len(rowShape) == 0 {
		rowShape = tensor.Shape{}
	}
	rowLen := rowShape.NumElements()
	return &Node{
		name:   key,
		offset: node.offset + i*rowLen,
		length: rowLen,
		shape:  rowShape,
	}, nil
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + Separator + name
}
