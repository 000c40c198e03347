package webgpu

import "math"

// sumFloat32 accumulates kernel partial sums in float64.
func sumFloat32(xs []float32) float64 {
	var s float64
	for _, v := range xs {
		s += float64(v)
	}
	return s
}

// rootOf finishes a p-norm from the sum of |x|^p.
func rootOf(sum, p float64) float64 {
	switch p {
	case 1:
		return sum
	case 2:
		return math.Sqrt(sum)
	default:
		return math.Pow(sum, 1/p)
	}
}

// hostNorm computes the norm orders the reduction kernel does not cover:
// +Inf (max), -Inf (min), 0 (non-zero count) and negative p.
func hostNorm(x []float32, p float64) float64 {
	switch {
	case math.IsInf(p, 1):
		m := 0.0
		for _, v := range x {
			m = math.Max(m, math.Abs(float64(v)))
		}
		return m
	case math.IsInf(p, -1):
		m := math.Inf(1)
		for _, v := range x {
			m = math.Min(m, math.Abs(float64(v)))
		}
		return m
	case p == 0:
		count := 0.0
		for _, v := range x {
			if v != 0 {
				count++
			}
		}
		return count
	default:
		sum := 0.0
		for _, v := range x {
			sum += math.Pow(math.Abs(float64(v)), p)
		}
		return rootOf(sum, p)
	}
}
