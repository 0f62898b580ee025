package services

import "math"

// l2Normalize scales the vector to unit length in place and returns it.
// A zero vector is returned unchanged; the inner product against it is
// zero everywhere, which ranks it last naturally.
func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// l2NormalizeBatch normalizes every vector in place and returns the slice.
func l2NormalizeBatch(vs [][]float32) [][]float32 {
	for i := range vs {
		vs[i] = l2Normalize(vs[i])
	}
	return vs
}
