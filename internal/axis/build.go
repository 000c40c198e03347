package axis

import (
	"fmt"
	"strings"

	"github.com/born-ml/carray/internal/tensor"
)

// Spec describes one entry to lay out: a leaf when Children is nil, a group otherwise.
type Spec struct {
	Name     string
	Shape    tensor.Shape // Leaf shape; nil or empty means scalar
	Children []Spec       // Non-nil (possibly empty) for groups
}

// LeafSpec returns a Spec for a leaf of the given shape.
func LeafSpec(name string, shape ...int) Spec {
	return Spec{Name: name, Shape: tensor.Shape(shape)}
}

// GroupSpec returns a Spec for a group. A group without children covers no elements.
func GroupSpec(name string, children ...Spec) Spec {
	if children == nil {
		children = []Spec{}
	}
	return Spec{Name: name, Children: children}
}

// Build lays out specs contiguously in the given order under an unnamed root group.
func Build(specs ...Spec) (*Axis, error) {
	root, err := build(GroupSpec("", specs...), 0, true)
	if err != nil {
		return nil, err
	}
	return &Axis{root: root}, nil
}

// Flat returns an axis with a single unnamed leaf of the given shape.
// It is the layout of a plain (non-structured) array.
func Flat(shape ...int) (*Axis, error) {
	s := tensor.Shape(shape)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Axis{root: &Node{length: s.NumElements(), shape: s.Clone()}}, nil
}

func build(spec Spec, offset int, isRoot bool) (*Node, error) {
	if !isRoot {
		if err := validateName(spec.Name); err != nil {
			return nil, err
		}
	}

	if spec.Children == nil {
		shape := spec.Shape.Clone()
		if shape == nil {
			shape = tensor.Shape{}
		}
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("leaf %q: %w", spec.Name, err)
		}
		return &Node{name: spec.Name, offset: offset, length: shape.NumElements(), shape: shape}, nil
	}

	node := &Node{
		name:     spec.Name,
		offset:   offset,
		children: make([]*Node, 0, len(spec.Children)),
		index:    make(map[string]int, len(spec.Children)),
	}
	pos := offset
	for _, cs := range spec.Children {
		if _, dup := node.index[cs.Name]; dup {
			return nil, fmt.Errorf("%w: %q in group %q", tensor.ErrDuplicateKey, cs.Name, spec.Name)
		}
		child, err := build(cs, pos, false)
		if err != nil {
			if spec.Name != "" {
				return nil, fmt.Errorf("group %q: %w", spec.Name, err)
			}
			return nil, err
		}
		node.index[cs.Name] = len(node.children)
		node.children = append(node.children, child)
		pos += child.length
	}
	node.length = pos - offset
	return node, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty key", tensor.ErrInvalidLayout)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: key %q contains %q", tensor.ErrInvalidLayout, name, Separator)
	}
	return nil
}

// PlacedLeaf is a leaf with an explicit dotted path and offset, as read back
// from a serialized layout.
type PlacedLeaf struct {
	Path   string
	Offset int
	Shape  tensor.Shape
}

// FromLeaves rebuilds an axis from leaves sorted by offset. Groups are implied
// by dotted paths and must be contiguous; leaves must cover [0, total) exactly.
func FromLeaves(leaves []PlacedLeaf, total int) (*Axis, error) {
	if len(leaves) == 1 && leaves[0].Path == "" && leaves[0].Offset == 0 {
		ax, err := Flat(leaves[0].Shape...)
		if err != nil {
			return nil, err
		}
		if ax.Len() != total {
			return nil, fmt.Errorf("%w: leaf covers %d of %d elements", tensor.ErrInvalidLayout, ax.Len(), total)
		}
		return ax, nil
	}
	root := &Node{children: []*Node{}, index: map[string]int{}}
	pos := 0
	for _, pl := range leaves {
		shape := pl.Shape.Clone()
		if shape == nil {
			shape = tensor.Shape{}
		}
		if err := shape.Validate(); err != nil {
			return nil, fmt.Errorf("leaf %q: %w", pl.Path, err)
		}
		if pl.Offset != pos {
			return nil, fmt.Errorf("%w: leaf %q starts at %d, expected %d", tensor.ErrInvalidLayout, pl.Path, pl.Offset, pos)
		}
		if err := insert(root, strings.Split(pl.Path, Separator), pl.Path, pos, shape); err != nil {
			return nil, err
		}
		pos += shape.NumElements()
	}
	if pos != total {
		return nil, fmt.Errorf("%w: leaves cover %d of %d elements", tensor.ErrInvalidLayout, pos, total)
	}
	ax := &Axis{root: root}
	fixLengths(root)
	return ax, nil
}

// insert places a leaf under parent, creating groups on the way. A group may
// only be extended while it is the most recently appended child, which keeps
// every group contiguous.
func insert(parent *Node, keys []string, path string, offset int, shape tensor.Shape) error {
	for _, k := range keys {
		if err := validateName(k); err != nil {
			return fmt.Errorf("leaf %q: %w", path, err)
		}
	}
	for depth, key := range keys {
		last := depth == len(keys)-1
		i, exists := parent.index[key]
		if exists {
			if last || parent.children[i].IsLeaf() {
				return fmt.Errorf("%w: %q", tensor.ErrDuplicateKey, path)
			}
			if i != len(parent.children)-1 {
				return fmt.Errorf("%w: group of %q is not contiguous", tensor.ErrInvalidLayout, path)
			}
			parent = parent.children[i]
			continue
		}
		var child *Node
		if last {
			child = &Node{name: key, offset: offset, length: shape.NumElements(), shape: shape}
		} else {
			child = &Node{name: key, offset: offset, children: []*Node{}, index: map[string]int{}}
		}
		parent.index[key] = len(parent.children)
		parent.children = append(parent.children, child)
		parent = child
	}
	return nil
}

func fixLengths(n *Node) int {
	if n.IsLeaf() {
		return n.length
	}
	total := 0
	for _, c := range n.children {
		total += fixLengths(c)
	}
	n.length = total
	return total
}
