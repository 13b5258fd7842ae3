package embeddings

import (
	"fmt"
	"math"

	"github.com/memvault/memvault/internal/apperrors"
)

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Vectors of different lengths are a contract violation and fail
// with ErrDimensionMismatch. A zero-norm vector yields exactly 0 rather
// than NaN so degenerate vectors rank below any real match.
func CosineSimilarity(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", apperrors.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), nil
}

// Normalize scales v to unit length in place. Zero vectors are left as-is.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
