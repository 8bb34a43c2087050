package auth

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateEmbedding is returned when either vector has zero Euclidean
// norm. Cosine similarity is undefined there; silently returning 0 or NaN
// would masquerade as a legitimate score, so it is always an explicit error.
var ErrDegenerateEmbedding = errors.New("auth: degenerate embedding (zero norm)")

// CosineSimilarity normalises both vectors to unit Euclidean norm and
// returns their dot product, in [-1, 1]. The vectors must have identical
// length. Accumulation runs in float64 to keep precision over the float32
// port vectors.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("auth: embedding length mismatch: %d vs %d", len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrDegenerateEmbedding
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0, ErrDegenerateEmbedding
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// MatchPercentage rescales a cosine similarity to the 0–100 reporting unit,
// rounded to two decimals. Sign is preserved: a negative similarity yields a
// negative percentage, which is diagnostic of a wrong-speaker match and is
// surfaced rather than clamped.
func MatchPercentage(similarity float64) float64 {
	return math.Round(similarity*10000) / 100
}
