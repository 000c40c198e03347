package carray

import (
	"github.com/born-ml/carray/internal/backend/cpu"
	"github.com/born-ml/carray/internal/tensor"
	"github.com/stretchr/testify/mock"
)

// stubBackend records bulk calls and forwards them to a real CPU backend.
type stubBackend struct {
	mock.Mock
	*cpu.CPUBackend
}

func newStubBackend() *stubBackend {
	return &stubBackend{CPUBackend: cpu.New()}
}

func (s *stubBackend) Fill(x *tensor.RawBuffer, value any) error {
	args := s.Called(x.Len(), value)
	if err := args.Error(0); err != nil {
		return err
	}
	return s.CPUBackend.Fill(x, value)
}

func (s *stubBackend) Scale(x *tensor.RawBuffer, alpha any) error {
	args := s.Called(x.Len(), alpha)
	if err := args.Error(0); err != nil {
		return err
	}
	return s.CPUBackend.Scale(x, alpha)
}

func (s *stubBackend) Gemm(tA, tB tensor.Orientation, m, n, k int, alpha any, a, b *tensor.RawBuffer, beta any, c *tensor.RawBuffer) error {
	args := s.Called(tA, tB)
	if err := args.Error(0); err != nil {
		return err
	}
	return s.CPUBackend.Gemm(tA, tB, m, n, k, alpha, a, b, beta, c)
}
