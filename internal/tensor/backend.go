package tensor

// Orientation selects how a matrix operand is read by Gemm.
type Orientation int

// Supported operand orientations.
const (
	Plain     Orientation = iota // Use the operand as stored.
	Transpose                    // Use the transpose.
	Adjoint                      // Use the conjugate transpose.
)

// String returns a short name for the orientation.
func (o Orientation) String() string {
	switch o {
	case Plain:
		return "plain"
	case Transpose:
		return "transpose"
	case Adjoint:
		return "adjoint"
	default:
		return "unknown"
	}
}

// Swaps reports whether the orientation exchanges rows and columns.
func (o Orientation) Swaps() bool {
	return o == Transpose || o == Adjoint
}

// UnaryOp names an element-wise function applied in place by Backend.Map.
type UnaryOp int

// Supported element-wise functions.
const (
	Identity UnaryOp = iota
	Tanh
	Sigmoid
	ReLU
	Sin
	Softplus
)

// String returns the function name.
func (op UnaryOp) String() string {
	switch op {
	case Identity:
		return "identity"
	case Tanh:
		return "tanh"
	case Sigmoid:
		return "sigmoid"
	case ReLU:
		return "relu"
	case Sin:
		return "sin"
	case Softplus:
		return "softplus"
	default:
		return "unknown"
	}
}

// ParseUnaryOp converts a function name to a UnaryOp.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	for op := Identity; op <= Softplus; op++ {
		if op.String() == s {
			return op, true
		}
	}
	return 0, false
}

// Backend is the numeric contract that component arrays forward to.
// Every method operates on the region addressed by the given RawBuffer views
// (offset and length), never on the whole allocation.
//
// Scalars are passed as any and must match the buffer dtype
// (float32, float64, complex64 or complex128).
//
// Implementations:
//   - backend/cpu: Pure Go BLAS (gonum)
//   - backend/webgpu: WGSL compute kernels via WebGPU
//
// Accelerator backends may enqueue work and return before it completes.
// Errors from enqueued work surface no later than the next Download, Dot, Norm
// or Synchronize call.
type Backend interface {
	// Memory management
	Alloc(dtype DataType, n int) (*RawBuffer, error) // zero-initialized buffer in this backend's memory space
	Upload(dst *RawBuffer, src []byte) error         // host bytes -> dst
	Download(src *RawBuffer, dst []byte) error       // src -> host bytes (waits for pending work)
	Copy(dst, src *RawBuffer) error                  // same-device copy of equal-length regions

	// Bulk element-wise operations (in place)
	Fill(x *RawBuffer, value any) error  // x[i] = value
	Scale(x *RawBuffer, alpha any) error // x[i] *= alpha
	Hadamard(dst, x *RawBuffer) error    // dst[i] *= x[i]
	Map(x *RawBuffer, fn UnaryOp) error  // x[i] = fn(x[i]), real dtypes only

	// Reductions
	Dot(x, y *RawBuffer) (any, error)              // sum(conj(x[i]) * y[i])
	Norm(x *RawBuffer, p float64) (float64, error) // p-norm of the flat region

	// Gemm computes c = alpha*op(a)*op(b) + beta*c for row-major matrices,
	// where op(a) is m×k and op(b) is k×n. Orientations are already canonical.
	Gemm(tA, tB Orientation, m, n, k int, alpha any, a, b *RawBuffer, beta any, c *RawBuffer) error

	// Synchronize waits for all enqueued work.
	Synchronize() error

	// Metadata
	Name() string   // Backend name (e.g., "CPU", "WebGPU").
	Device() Device // Memory space of buffers created by Alloc.
}
