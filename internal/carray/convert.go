package carray

import (
	"github.com/born-ml/carray/internal/tensor"
)

// Convert returns a copy of a with element type U on the same backend.
// The result shares a's axis. Converting complex to real keeps the real part.
func Convert[U, T tensor.Scalar](a *Array[T]) (*Array[U], error) {
	src, err := a.download()
	if err != nil {
		return nil, err
	}
	dst := make([]U, len(src))
	for i, v := range src {
		dst[i] = tensor.Convert[U](v)
	}
	return fromHost(a.backend, a.axis, dst)
}

// To returns a copy of a on backend. The result shares a's axis.
func To[T tensor.Scalar](a *Array[T], backend tensor.Backend) (*Array[T], error) {
	data := make([]byte, a.raw.ByteSize())
	if len(data) > 0 {
		if err := a.backend.Download(a.raw, data); err != nil {
			return nil, tensor.WrapBackend(a.backend, "download", err)
		}
	}

	raw, err := backend.Alloc(a.raw.DType(), a.Len())
	if err != nil {
		return nil, tensor.WrapBackend(backend, "alloc", err)
	}
	if len(data) > 0 {
		if err := backend.Upload(raw, data); err != nil {
			raw.Release()
			return nil, tensor.WrapBackend(backend, "upload", err)
		}
	}
	return &Array[T]{raw: raw, axis: a.axis, backend: backend}, nil
}

// Clone returns a copy of a on the same backend, sharing a's axis.
func Clone[T tensor.Scalar](a *Array[T]) (*Array[T], error) {
	out, err := Similar(a)
	if err != nil {
		return nil, err
	}
	if a.Len() == 0 {
		return out, nil
	}
	if err := a.backend.Copy(out.raw, a.raw); err != nil {
		out.Release()
		return nil, tensor.WrapBackend(a.backend, "copy", err)
	}
	return out, nil
}
