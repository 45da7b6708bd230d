// Package similarity holds the vector primitives shared by scoring and
// ranking.
package similarity

import (
	"fmt"
	"math"

	"scoresim/internal/domain"
)

// Cosine returns dot(a,b) / (|a|*|b|). Vectors of different length are a
// programmer error. A zero-magnitude vector yields NaN, which is returned
// as is.
func Cosine(a, b domain.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("cosine of vectors with length %d and %d: %w", len(a), len(b), domain.ErrInvalidArgument)
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b domain.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dot of vectors with length %d and %d: %w", len(a), len(b), domain.ErrInvalidArgument)
	}
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum, nil
}

// Magnitude returns the L2 norm of v.
func Magnitude(v domain.Vector) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// IsZero reports whether every component of v is zero.
func IsZero(v domain.Vector) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Mean returns the component-wise mean of vectors, used as a file centroid.
func Mean(vectors []domain.Vector) (domain.Vector, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("mean of no vectors: %w", domain.ErrInvalidArgument)
	}
	dim := len(vectors[0])
	out := make(domain.Vector, dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has length %d, want %d: %w", i, len(v), dim, domain.ErrInvalidArgument)
		}
		for j, x := range v {
			out[j] += x
		}
	}
	n := float64(len(vectors))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}
