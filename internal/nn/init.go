package nn

import (
	"math"
	"math/rand/v2"

	"github.com/born-ml/carray/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Draws fanIn*fanOut values from the uniform distribution
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
// Complex element types get a real-valued draw.
func Xavier[T tensor.Scalar](rng *rand.Rand, fanIn, fanOut int) []T {
	bound := 0.0
	if fanIn+fanOut > 0 {
		bound = math.Sqrt(6.0 / float64(fanIn+fanOut))
	}
	return Uniform[T](rng, fanIn*fanOut, bound)
}

// Uniform draws n values from U(-bound, bound).
func Uniform[T tensor.Scalar](rng *rand.Rand, n int, bound float64) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = tensor.Convert[T]((rng.Float64()*2.0 - 1.0) * bound)
	}
	return out
}

// NewRand returns a PCG-backed generator for seed. It is the usual way to
// obtain the explicit random source every initializer takes.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
