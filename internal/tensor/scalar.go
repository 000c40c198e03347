package tensor

import "fmt"

// CastScalar converts a Go number to the Go type backing dtype.
// Complex values cast to a real dtype are rejected unless their imaginary part is zero.
func CastScalar(v any, dtype DataType) (any, error) {
	var c complex128
	switch x := v.(type) {
	case float32:
		c = complex(float64(x), 0)
	case float64:
		c = complex(x, 0)
	case complex64:
		c = complex128(x)
	case complex128:
		c = x
	case int:
		c = complex(float64(x), 0)
	case int32:
		c = complex(float64(x), 0)
	case int64:
		c = complex(float64(x), 0)
	default:
		return nil, fmt.Errorf("%w: scalar of type %T", ErrUnsupportedDType, v)
	}

	if !dtype.IsComplex() && imag(c) != 0 {
		return nil, fmt.Errorf("%w: complex scalar %v for %s buffer", ErrDTypeMismatch, c, dtype)
	}

	switch dtype {
	case Float32:
		return float32(real(c)), nil
	case Float64:
		return real(c), nil
	case Complex64:
		return complex64(c), nil
	case Complex128:
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
}

// Conj returns the complex conjugate of v; real values are returned unchanged.
func Conj[T Scalar](v T) T {
	switch x := any(v).(type) {
	case complex64:
		return any(complex(real(x), -imag(x))).(T)
	case complex128:
		return any(complex(real(x), -imag(x))).(T)
	default:
		return v
	}
}

// Convert converts between element types. Converting a complex value to a
// real type keeps the real part.
func Convert[U, T Scalar](v T) U {
	var c complex128
	switch x := any(v).(type) {
	case float32:
		c = complex(float64(x), 0)
	case float64:
		c = complex(x, 0)
	case complex64:
		c = complex128(x)
	case complex128:
		c = x
	}

	var out U
	switch any(out).(type) {
	case float32:
		return any(float32(real(c))).(U)
	case float64:
		return any(real(c)).(U)
	case complex64:
		return any(complex64(c)).(U)
	case complex128:
		return any(c).(U)
	}
	return out
}
