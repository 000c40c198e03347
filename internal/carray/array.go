// Package carray implements component arrays: a flat buffer of one element
// type, resident on one backend, paired with an immutable axis that names
// contiguous sub-ranges of it.
//
// Views share the buffer of the array they were taken from. Arrays do no
// locking; concurrent writes through overlapping views are undefined.
package carray

import (
	"fmt"
	"sort"

	"github.com/born-ml/carray/internal/axis"
	"github.com/born-ml/carray/internal/tensor"
)

// Array is a component array with elements of type T.
type Array[T tensor.Scalar] struct {
	raw     *tensor.RawBuffer
	axis    *axis.Axis
	backend tensor.Backend
}

// New lays out entries in order, concatenates their values into one buffer
// and uploads it to backend.
func New[T tensor.Scalar](backend tensor.Backend, entries ...Entry[T]) (*Array[T], error) {
	specs := make([]axis.Spec, len(entries))
	for i, e := range entries {
		specs[i] = e.spec()
	}
	ax, err := axis.Build(specs...)
	if err != nil {
		return nil, fmt.Errorf("carray: %w", err)
	}

	host := make([]T, ax.Len())
	pos := 0
	for _, e := range entries {
		if pos, err = e.flatten(host, pos, ""); err != nil {
			return nil, err
		}
	}
	return fromHost(backend, ax, host)
}

// FromMap builds an array of vector leaves from a flat mapping, in sorted key order.
func FromMap[T tensor.Scalar](backend tensor.Backend, values map[string][]T) (*Array[T], error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]Entry[T], len(keys))
	for i, k := range keys {
		entries[i] = Leaf(k, values[k])
	}
	return New(backend, entries...)
}

// FromSlice wraps host values as an array with a single unnamed leaf of the
// given shape. Without a shape the values form a vector.
func FromSlice[T tensor.Scalar](backend tensor.Backend, values []T, shape ...int) (*Array[T], error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	ax, err := axis.Flat(shape...)
	if err != nil {
		return nil, fmt.Errorf("carray: %w", err)
	}
	if ax.Len() != len(values) {
		return nil, fmt.Errorf("carray: %w: %d values for shape %v", tensor.ErrShapeMismatch, len(values), tensor.Shape(shape))
	}
	return fromHost(backend, ax, values)
}

// FromRaw reinterprets an existing buffer against an existing axis. The
// array takes ownership of raw.
func FromRaw[T tensor.Scalar](raw *tensor.RawBuffer, ax *axis.Axis, backend tensor.Backend) (*Array[T], error) {
	if want := tensor.DataTypeOf[T](); raw.DType() != want {
		return nil, fmt.Errorf("carray: %w: buffer is %s, array is %s", tensor.ErrDTypeMismatch, raw.DType(), want)
	}
	if raw.Len() != ax.Len() {
		return nil, fmt.Errorf("carray: %w: buffer has %d elements, axis covers %d", tensor.ErrLengthMismatch, raw.Len(), ax.Len())
	}
	if raw.Device() != backend.Device() {
		return nil, fmt.Errorf("carray: %w: %s buffer for %s backend", tensor.ErrDeviceMismatch, raw.Device(), backend.Name())
	}
	if err := ax.Validate(); err != nil {
		return nil, fmt.Errorf("carray: %w", err)
	}
	return &Array[T]{raw: raw, axis: ax, backend: backend}, nil
}

// Similar returns a zeroed array with the same axis and backend as a.
func Similar[T tensor.Scalar](a *Array[T]) (*Array[T], error) {
	raw, err := a.backend.Alloc(a.raw.DType(), a.Len())
	if err != nil {
		return nil, tensor.WrapBackend(a.backend, "alloc", err)
	}
	return &Array[T]{raw: raw, axis: a.axis, backend: a.backend}, nil
}

// Empty returns a zeroed array with a single unnamed leaf of the given shape.
func Empty[T tensor.Scalar](backend tensor.Backend, shape ...int) (*Array[T], error) {
	ax, err := axis.Flat(shape...)
	if err != nil {
		return nil, fmt.Errorf("carray: %w", err)
	}
	raw, err := backend.Alloc(tensor.DataTypeOf[T](), ax.Len())
	if err != nil {
		return nil, tensor.WrapBackend(backend, "alloc", err)
	}
	return &Array[T]{raw: raw, axis: ax, backend: backend}, nil
}

func fromHost[T tensor.Scalar](backend tensor.Backend, ax *axis.Axis, host []T) (*Array[T], error) {
	raw, err := backend.Alloc(tensor.DataTypeOf[T](), ax.Len())
	if err != nil {
		return nil, tensor.WrapBackend(backend, "alloc", err)
	}
	if len(host) > 0 {
		if err := backend.Upload(raw, tensor.AsBytes(host)); err != nil {
			raw.Release()
			return nil, tensor.WrapBackend(backend, "upload", err)
		}
	}
	return &Array[T]{raw: raw, axis: ax, backend: backend}, nil
}

// Len returns the number of elements.
func (a *Array[T]) Len() int {
	return a.raw.Len()
}

// Axis returns the layout.
func (a *Array[T]) Axis() *axis.Axis {
	return a.axis
}

// Shape returns the logical shape: the leaf shape for a single leaf, the
// element count for a group.
func (a *Array[T]) Shape() tensor.Shape {
	return a.axis.Shape()
}

// Keys returns the names at the top of the layout.
func (a *Array[T]) Keys() []string {
	return a.axis.Keys()
}

// Backend returns the backend the buffer lives on.
func (a *Array[T]) Backend() tensor.Backend {
	return a.backend
}

// DType returns the element type.
func (a *Array[T]) DType() tensor.DataType {
	return a.raw.DType()
}

// Device returns the memory space of the buffer.
func (a *Array[T]) Device() tensor.Device {
	return a.raw.Device()
}

// Data returns the flat buffer without its axis.
func (a *Array[T]) Data() *tensor.RawBuffer {
	return a.raw
}

// IsView reports whether a aliases another array's buffer.
func (a *Array[T]) IsView() bool {
	return !a.raw.IsOwner()
}

// Host returns the elements as a slice. Host-resident arrays return a
// zero-copy view of the buffer; device-resident arrays return a downloaded copy.
func (a *Array[T]) Host() ([]T, error) {
	if a.raw.IsHost() {
		return tensor.HostSlice[T](a.raw), nil
	}
	return a.download()
}

func (a *Array[T]) download() ([]T, error) {
	out := make([]T, a.Len())
	if err := a.backend.Download(a.raw, tensor.AsBytes(out)); err != nil {
		return nil, tensor.WrapBackend(a.backend, "download", err)
	}
	return out, nil
}

// View returns a non-owning array over the sub-range at path. Its axis is
// the subtree at path. The empty path returns a view of the whole array.
func (a *Array[T]) View(path string) (*Array[T], error) {
	node, err := a.axis.Lookup(path)
	if err != nil {
		return nil, fmt.Errorf("carray: %w", err)
	}
	sub, err := a.axis.Sub(path)
	if err != nil {
		return nil, fmt.Errorf("carray: %w", err)
	}
	raw, err := a.raw.Slice(a.axis.RelOffset(node), node.Len())
	if err != nil {
		return nil, fmt.Errorf("carray: view %q: %w", path, err)
	}
	return &Array[T]{raw: raw, axis: sub, backend: a.backend}, nil
}

// Get returns a host copy of the values at path.
func (a *Array[T]) Get(path string) ([]T, error) {
	v, err := a.View(path)
	if err != nil {
		return nil, err
	}
	return v.download()
}

// Scalar returns the value of the single-element entry at path.
func (a *Array[T]) Scalar(path string) (T, error) {
	var zero T
	v, err := a.View(path)
	if err != nil {
		return zero, err
	}
	if v.Len() != 1 {
		return zero, fmt.Errorf("carray: scalar %q: %w: entry has %d elements", path, tensor.ErrShapeMismatch, v.Len())
	}
	vals, err := v.download()
	if err != nil {
		return zero, err
	}
	return vals[0], nil
}

// Set writes values into the sub-range at path.
func (a *Array[T]) Set(path string, values []T) error {
	v, err := a.View(path)
	if err != nil {
		return err
	}
	if len(values) != v.Len() {
		return fmt.Errorf("carray: set %q: %w: %d values into %d elements", path, tensor.ErrShapeMismatch, len(values), v.Len())
	}
	if len(values) == 0 {
		return nil
	}
	return tensor.WrapBackend(a.backend, "upload", a.backend.Upload(v.raw, tensor.AsBytes(values)))
}

// SetFrom copies src into the sub-range at path. When src lives on another
// backend the values go through host memory.
func (a *Array[T]) SetFrom(path string, src *Array[T]) error {
	v, err := a.View(path)
	if err != nil {
		return err
	}
	if src.Len() != v.Len() {
		return fmt.Errorf("carray: set %q: %w: %d values into %d elements", path, tensor.ErrShapeMismatch, src.Len(), v.Len())
	}
	if v.Len() == 0 {
		return nil
	}
	if src.backend == a.backend {
		return tensor.WrapBackend(a.backend, "copy", a.backend.Copy(v.raw, src.raw))
	}
	vals, err := src.download()
	if err != nil {
		return err
	}
	return tensor.WrapBackend(a.backend, "upload", a.backend.Upload(v.raw, tensor.AsBytes(vals)))
}

// Fill sets every element to x with one backend call. A zero-length array
// is left untouched and nothing is dispatched.
func (a *Array[T]) Fill(x T) error {
	if a.Len() == 0 {
		return nil
	}
	return tensor.WrapBackend(a.backend, "fill", a.backend.Fill(a.raw, x))
}

// Apply replaces every element by fn(element) in place.
func (a *Array[T]) Apply(fn tensor.UnaryOp) error {
	if a.Len() == 0 {
		return nil
	}
	return tensor.WrapBackend(a.backend, "map", a.backend.Map(a.raw, fn))
}

// Release frees the buffer. Releasing a view is a no-op.
func (a *Array[T]) Release() {
	a.raw.Release()
}

// String describes the array and its layout.
func (a *Array[T]) String() string {
	return fmt.Sprintf("Array[%s] len=%d on %s\n%s", a.DType(), a.Len(), a.backend.Name(), a.axis)
}
