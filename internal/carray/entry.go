package carray

import (
	"fmt"

	"github.com/born-ml/carray/internal/axis"
	"github.com/born-ml/carray/internal/tensor"
)

// Entry is one named value of a nested key→array mapping: a leaf holding
// values of a logical shape, or a group of further entries.
type Entry[T tensor.Scalar] struct {
	Name     string
	Shape    tensor.Shape
	Values   []T        // Leaf values in row-major order; nil means zeros
	Children []Entry[T] // Non-nil (possibly empty) for groups
}

// Leaf returns a leaf entry. Without an explicit shape the values form a vector.
func Leaf[T tensor.Scalar](name string, values []T, shape ...int) Entry[T] {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	return Entry[T]{Name: name, Shape: tensor.Shape(shape), Values: values}
}

// Zeros returns a zero-filled leaf entry of the given shape.
func Zeros[T tensor.Scalar](name string, shape ...int) Entry[T] {
	return Entry[T]{Name: name, Shape: tensor.Shape(shape)}
}

// Value returns a scalar leaf entry.
func Value[T tensor.Scalar](name string, v T) Entry[T] {
	return Entry[T]{Name: name, Shape: tensor.Shape{}, Values: []T{v}}
}

// Group returns a group entry.
func Group[T tensor.Scalar](name string, children ...Entry[T]) Entry[T] {
	if children == nil {
		children = []Entry[T]{}
	}
	return Entry[T]{Name: name, Children: children}
}

// IsGroup reports whether the entry is a group.
func (e Entry[T]) IsGroup() bool {
	return e.Children != nil
}

func (e Entry[T]) spec() axis.Spec {
	if !e.IsGroup() {
		return axis.Spec{Name: e.Name, Shape: e.Shape}
	}
	children := make([]axis.Spec, len(e.Children))
	for i, c := range e.Children {
		children[i] = c.spec()
	}
	return axis.GroupSpec(e.Name, children...)
}

// flatten copies leaf values into dst starting at pos, in layout order.
func (e Entry[T]) flatten(dst []T, pos int, prefix string) (int, error) {
	path := e.Name
	if prefix != "" {
		path = prefix + axis.Separator + e.Name
	}
	if e.IsGroup() {
		for _, c := range e.Children {
			var err error
			if pos, err = c.flatten(dst, pos, path); err != nil {
				return pos, err
			}
		}
		return pos, nil
	}

	n := e.Shape.NumElements()
	if e.Values != nil && len(e.Values) != n {
		return pos, fmt.Errorf("carray: entry %q: %w: %d values for shape %v", path, tensor.ErrShapeMismatch, len(e.Values), e.Shape)
	}
	copy(dst[pos:pos+n], e.Values)
	return pos + n, nil
}
