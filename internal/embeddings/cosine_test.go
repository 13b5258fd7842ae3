package embeddings

import (
	"errors"
	"math"
	"testing"

	"github.com/memvault/memvault/internal/apperrors"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	v := []float32{0.3, -0.5, 0.8}
	score, err := CosineSimilarity(v, v)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(float64(score)-1.0) > 1e-6 {
		t.Errorf("Expected ~1.0 for identical vectors, got %f", score)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	score, err := CosineSimilarity([]float32{1, 0, 0}, []float32{0, 1, 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(float64(score)) > 1e-6 {
		t.Errorf("Expected ~0.0 for orthogonal vectors, got %f", score)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	score, err := CosineSimilarity([]float32{1, 0}, []float32{-1, 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if math.Abs(float64(score)+1.0) > 1e-6 {
		t.Errorf("Expected ~-1.0 for opposite vectors, got %f", score)
	}
}

func TestCosineSimilarityDimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0})
	if !errors.Is(err, apperrors.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch, got %v", err)
	}
}

func TestCosineSimilarityZeroNorm(t *testing.T) {
	// Zero-norm input returns exactly 0, never NaN; degenerate vectors
	// must rank below any real match.
	score, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if score != 0 {
		t.Errorf("Expected exactly 0 for zero-norm vector, got %f", score)
	}
	if math.IsNaN(float64(score)) {
		t.Error("Zero-norm similarity must not be NaN")
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("Expected unit norm, got %f", math.Sqrt(norm))
	}

	zero := []float32{0, 0}
	Normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("Zero vector must stay zero, got %v", zero)
	}
}
