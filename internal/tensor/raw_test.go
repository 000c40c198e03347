package tensor

import (
	"errors"
	"testing"
)

func TestHostRawZeroCopy(t *testing.T) {
	raw, err := NewHostRaw(Float64, 6)
	if err != nil {
		t.Fatalf("NewHostRaw: %v", err)
	}

	data := raw.AsFloat64()
	if len(data) != 6 {
		t.Errorf("AsFloat64 length = %d, want 6", len(data))
	}

	data[0] = 42
	if raw.AsFloat64()[0] != 42 {
		t.Error("AsFloat64 should return zero-copy slice")
	}
}

func TestRawSliceAliases(t *testing.T) {
	raw, _ := NewHostRaw(Float32, 6)

	view, err := raw.Slice(4, 2)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if view.IsOwner() {
		t.Error("slice should not own memory")
	}
	if view.Offset() != 4 || view.Len() != 2 {
		t.Errorf("slice offset/len = %d/%d, want 4/2", view.Offset(), view.Len())
	}

	view.AsFloat32()[1] = 7
	if raw.AsFloat32()[5] != 7 {
		t.Error("write through slice should be visible in parent")
	}
	if !raw.SameMemory(view) {
		t.Error("slice should share memory with parent")
	}

	// Nested slice keeps absolute offsets.
	inner, _ := view.Slice(1, 1)
	if inner.Offset() != 5 {
		t.Errorf("nested slice offset = %d, want 5", inner.Offset())
	}

	// Releasing a view must not free the parent.
	view.Release()
	if raw.Len() != 6 || raw.AsFloat32()[5] != 7 {
		t.Error("releasing a view should not affect the owner")
	}
}

func TestRawSliceOutOfRange(t *testing.T) {
	raw, _ := NewHostRaw(Float32, 3)
	if _, err := raw.Slice(2, 2); err == nil {
		t.Error("expected error for slice past end")
	}
	if _, err := raw.Slice(-1, 1); err == nil {
		t.Error("expected error for negative offset")
	}
}

func TestRawZeroLength(t *testing.T) {
	raw, err := NewHostRaw(Complex128, 0)
	if err != nil {
		t.Fatalf("NewHostRaw: %v", err)
	}
	if got := raw.AsComplex128(); len(got) != 0 {
		t.Errorf("AsComplex128 length = %d, want 0", len(got))
	}
}

func TestRawDTypePanics(t *testing.T) {
	raw, _ := NewHostRaw(Float32, 2)
	defer func() {
		if recover() == nil {
			t.Error("AsFloat64 on float32 buffer should panic")
		}
	}()
	_ = raw.AsFloat64()
}

func TestHostSliceAndBytes(t *testing.T) {
	src := []complex64{1 + 2i, 3 - 4i}
	raw, err := WrapHostBytes(Complex64, AsBytes(src))
	if err != nil {
		t.Fatalf("WrapHostBytes: %v", err)
	}
	got := HostSlice[complex64](raw)
	if got[1] != 3-4i {
		t.Errorf("HostSlice[1] = %v, want 3-4i", got[1])
	}

	back := FromBytes[complex64](raw.Bytes())
	back[0] = 0
	if src[0] != 1+2i {
		t.Error("FromBytes should copy")
	}

	if _, err := WrapHostBytes(Float64, make([]byte, 5)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("WrapHostBytes error = %v, want ErrLengthMismatch", err)
	}
}

func TestCastScalar(t *testing.T) {
	v, err := CastScalar(2, Float32)
	if err != nil || v.(float32) != 2 {
		t.Errorf("CastScalar(2, Float32) = %v, %v", v, err)
	}

	v, err = CastScalar(1.5, Complex128)
	if err != nil || v.(complex128) != 1.5 {
		t.Errorf("CastScalar(1.5, Complex128) = %v, %v", v, err)
	}

	if _, err := CastScalar(1+1i, Float64); !errors.Is(err, ErrDTypeMismatch) {
		t.Errorf("CastScalar complex->real error = %v, want ErrDTypeMismatch", err)
	}
	if _, err := CastScalar("x", Float64); !errors.Is(err, ErrUnsupportedDType) {
		t.Errorf("CastScalar string error = %v, want ErrUnsupportedDType", err)
	}
}

func TestConvertAndConj(t *testing.T) {
	if got := Convert[float32](complex128(3 + 4i)); got != 3 {
		t.Errorf("Convert complex->float32 = %v, want 3", got)
	}
	if got := Convert[complex64](float64(2)); got != 2 {
		t.Errorf("Convert float64->complex64 = %v, want 2", got)
	}
	if got := Conj(complex128(1 + 2i)); got != 1-2i {
		t.Errorf("Conj = %v, want 1-2i", got)
	}
	if got := Conj(float32(5)); got != 5 {
		t.Errorf("Conj real = %v, want 5", got)
	}
}

func TestBackendErrorMatching(t *testing.T) {
	cause := errors.New("device lost")
	err := error(&BackendError{Backend: "WebGPU", Op: "fill", Err: cause})

	if !errors.Is(err, ErrBackend) {
		t.Error("BackendError should match ErrBackend")
	}
	if !errors.Is(err, cause) {
		t.Error("BackendError should unwrap to its cause")
	}

	if WrapBackend(nil, "fill", nil) != nil {
		t.Error("WrapBackend(nil) should be nil")
	}
	if wrapped := WrapBackend(nil, "gemm", err); wrapped != err {
		t.Error("WrapBackend should not double-wrap")
	}
}

func TestShapeHelpers(t *testing.T) {
	tests := []struct {
		shape Shape
		n     int
		str   string
	}{
		{Shape{}, 1, "()"},
		{Shape{4}, 4, "(4,)"},
		{Shape{2, 3}, 6, "(2, 3)"},
		{Shape{0, 3}, 0, "(0, 3)"},
	}
	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.n {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.n)
		}
		if got := tt.shape.String(); got != tt.str {
			t.Errorf("String() = %q, want %q", got, tt.str)
		}
	}

	if err := (Shape{2, -1}).Validate(); err == nil {
		t.Error("negative dimension should fail validation")
	}
	if strides := (Shape{2, 3, 4}).ComputeStrides(); strides[0] != 12 || strides[1] != 4 || strides[2] != 1 {
		t.Errorf("ComputeStrides = %v, want [12 4 1]", strides)
	}
}

func checkScalar[T Scalar](t *testing.T, want DataType) {
	t.Helper()
	if got := DataTypeOf[T](); got != want {
		t.Errorf("DataTypeOf = %s, want %s", got, want)
	}
	v := Convert[T](2.5)
	if back := Convert[float64](v); back != 2.5 {
		t.Errorf("%s: Convert round trip = %v, want 2.5", want, back)
	}
	c, err := CastScalar(v, want)
	if err != nil || c != any(v) {
		t.Errorf("%s: CastScalar = %v, %v", want, c, err)
	}
}

// Every type admitted by Scalar resolves to a DataType.
func TestScalarTypesResolve(t *testing.T) {
	checkScalar[float32](t, Float32)
	checkScalar[float64](t, Float64)
	checkScalar[complex64](t, Complex64)
	checkScalar[complex128](t, Complex128)
}
