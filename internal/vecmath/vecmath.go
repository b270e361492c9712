// Package vecmath provides the similarity primitives used by the scoring
// engine: magnitude and cosine similarity over fixed-length float vectors.
package vecmath

import "math"

// epsilon floors the cosine denominator so a degenerate zero vector yields a
// harmless near-zero score instead of NaN or Inf
const epsilon = 1e-10

// Magnitude returns the Euclidean norm sqrt(sum v_i^2) of v
func Magnitude(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// CosineSimilarity returns the cosine of the angle between q and v, with
// vMag the precomputed magnitude of v. It returns exactly -1 when either
// vector is missing or their lengths differ; that is a contract-violation
// signal, not a low-confidence score, and it lands below any usable
// similarity threshold.
func CosineSimilarity(q, v []float64, vMag float64) float64 {
	if len(q) == 0 || len(v) == 0 || len(q) != len(v) {
		return -1
	}

	var dot float64
	for i := range q {
		dot += q[i] * v[i]
	}

	denom := Magnitude(q) * vMag
	if denom < epsilon {
		denom = epsilon
	}
	return dot / denom
}
