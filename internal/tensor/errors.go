package tensor

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by axes, arrays and backends.
var (
	// ErrKeyNotFound is returned when a key path is absent from an axis.
	ErrKeyNotFound = errors.New("key not found")

	// ErrShapeMismatch is returned when an assigned value's element count or
	// dimensions disagree with the target region.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrLengthMismatch is returned when two flat buffers must have equal length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrBackend is matched by every *BackendError.
	ErrBackend = errors.New("backend error")

	// ErrDeviceMismatch is returned when operands live in different memory spaces.
	ErrDeviceMismatch = errors.New("device mismatch")

	// ErrDTypeMismatch is returned when operands have different element types.
	ErrDTypeMismatch = errors.New("dtype mismatch")

	// ErrUnsupportedDType is returned for element types a backend cannot handle.
	ErrUnsupportedDType = errors.New("unsupported dtype")

	// ErrInvalidLayout is returned when leaf ranges do not exactly cover a buffer.
	ErrInvalidLayout = errors.New("invalid layout")

	// ErrDuplicateKey is returned when two siblings share a name.
	ErrDuplicateKey = errors.New("duplicate key")
)

// BackendError wraps an opaque failure surfaced from a numeric backend.
// It is reported as-is; nothing in this module retries it.
type BackendError struct {
	Backend string // Backend name (e.g., "CPU", "WebGPU")
	Op      string // Operation that failed (e.g., "gemm", "fill")
	Err     error  // Underlying cause
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// Is makes every BackendError match ErrBackend.
func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// WrapBackend returns nil for a nil err, the err itself if it already is a
// *BackendError, and a new *BackendError otherwise.
func WrapBackend(b Backend, op string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	name := "unknown"
	if b != nil {
		name = b.Name()
	}
	return &BackendError{Backend: name, Op: op, Err: err}
}
