// Package vector ranks stored article vectors against a query by cosine similarity.
package vector

import "math"

// Dot returns the inner product of two equal-length vectors, accumulated in float64.
func Dot(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// L2Norm returns the L2 norm of a vector.
func L2Norm(x []float32) float64 {
	return math.Sqrt(Dot(x, x))
}

// Cosine returns the cosine similarity of a and b, clamped to [-1, 1].
// ok is false when the lengths differ, either vector is empty, or either has zero norm.
func Cosine(a, b []float32) (sim float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	na, nb := L2Norm(a), L2Norm(b)
	if na == 0 || nb == 0 {
		return 0, false
	}
	sim = Dot(a, b) / (na * nb)
	return math.Max(-1, math.Min(1, sim)), true
}
