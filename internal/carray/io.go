package carray

import (
	"fmt"
	"io"

	"github.com/born-ml/carray/internal/axis"
	"github.com/born-ml/carray/internal/serialization"
	"github.com/born-ml/carray/internal/tensor"
)

// Save writes a in SafeTensors format: one header entry per leaf, and the
// flat buffer as the data section.
func Save[T tensor.Scalar](w io.Writer, a *Array[T], metadata map[string]string) error {
	f, err := toFile(a, metadata)
	if err != nil {
		return err
	}
	if err := serialization.Write(w, f); err != nil {
		return fmt.Errorf("carray: save: %w", err)
	}
	return nil
}

// SaveFile writes a to path in SafeTensors format.
func SaveFile[T tensor.Scalar](path string, a *Array[T], metadata map[string]string) error {
	f, err := toFile(a, metadata)
	if err != nil {
		return err
	}
	if err := serialization.WriteFile(path, f); err != nil {
		return fmt.Errorf("carray: save %s: %w", path, err)
	}
	return nil
}

// Load reads an array written by Save and uploads it to backend.
// Groups are rebuilt from the dotted leaf names; empty groups are not preserved.
func Load[T tensor.Scalar](r io.Reader, backend tensor.Backend) (*Array[T], map[string]string, error) {
	f, err := serialization.Read(r)
	if err != nil {
		return nil, nil, fmt.Errorf("carray: load: %w", err)
	}
	a, err := fromFile[T](f, backend)
	return a, f.Metadata, err
}

// LoadFile reads the array stored at path.
func LoadFile[T tensor.Scalar](path string, backend tensor.Backend) (*Array[T], map[string]string, error) {
	f, err := serialization.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("carray: load %s: %w", path, err)
	}
	a, err := fromFile[T](f, backend)
	return a, f.Metadata, err
}

func toFile[T tensor.Scalar](a *Array[T], metadata map[string]string) (*serialization.File, error) {
	data := make([]byte, a.raw.ByteSize())
	if len(data) > 0 {
		if err := a.backend.Download(a.raw, data); err != nil {
			return nil, tensor.WrapBackend(a.backend, "download", err)
		}
	}

	size := int64(a.DType().Size())
	leaves := a.axis.Leaves()
	tensors := make([]serialization.TensorInfo, len(leaves))
	for i, l := range leaves {
		tensors[i] = serialization.TensorInfo{
			Name:  l.Path,
			Shape: []int(l.Shape),
			Begin: int64(l.Offset) * size,
			End:   int64(l.Offset+l.Len) * size,
		}
	}
	return &serialization.File{
		DType:    a.DType(),
		Tensors:  tensors,
		Metadata: metadata,
		Data:     data,
	}, nil
}

func fromFile[T tensor.Scalar](f *serialization.File, backend tensor.Backend) (*Array[T], error) {
	if want := tensor.DataTypeOf[T](); f.DType != want {
		return nil, fmt.Errorf("carray: load: %w: file holds %s, array is %s", tensor.ErrDTypeMismatch, f.DType, want)
	}

	size := int64(f.DType.Size())
	leaves := make([]axis.PlacedLeaf, len(f.Tensors))
	for i, t := range f.Tensors {
		leaves[i] = axis.PlacedLeaf{
			Path:   t.Name,
			Offset: int(t.Begin / size),
			Shape:  tensor.Shape(t.Shape),
		}
	}
	ax, err := axis.FromLeaves(leaves, int(int64(len(f.Data))/size))
	if err != nil {
		return nil, fmt.Errorf("carray: load: %w", err)
	}

	raw, err := backend.Alloc(f.DType, ax.Len())
	if err != nil {
		return nil, tensor.WrapBackend(backend, "alloc", err)
	}
	if len(f.Data) > 0 {
		if err := backend.Upload(raw, f.Data); err != nil {
			raw.Release()
			return nil, tensor.WrapBackend(backend, "upload", err)
		}
	}
	return &Array[T]{raw: raw, axis: ax, backend: backend}, nil
}
