package auth_test

import (
	"errors"
	"math"
	"testing"

	"github.com/scveran/voxauth/internal/auth"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	v := []float32{0.5, -1.25, 3, 0.75}
	neg := make([]float32, len(v))
	for i, x := range v {
		neg[i] = -x
	}

	t.Run("self similarity is one", func(t *testing.T) {
		t.Parallel()
		got, err := auth.CosineSimilarity(v, v)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-1) > 1e-9 {
			t.Errorf("CosineSimilarity(v, v) = %v, want 1", got)
		}
	})

	t.Run("negated vector is minus one", func(t *testing.T) {
		t.Parallel()
		got, err := auth.CosineSimilarity(v, neg)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got+1) > 1e-9 {
			t.Errorf("CosineSimilarity(v, -v) = %v, want -1", got)
		}
	})

	t.Run("orthogonal vectors score zero", func(t *testing.T) {
		t.Parallel()
		got, err := auth.CosineSimilarity([]float32{1, 0}, []float32{0, 1})
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got) > 1e-9 {
			t.Errorf("got %v, want 0", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		t.Parallel()
		w := []float32{2, 0.1, -0.4, 1}
		ab, err := auth.CosineSimilarity(v, w)
		if err != nil {
			t.Fatal(err)
		}
		ba, err := auth.CosineSimilarity(w, v)
		if err != nil {
			t.Fatal(err)
		}
		if ab != ba {
			t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
		}
	})

	t.Run("length mismatch errors", func(t *testing.T) {
		t.Parallel()
		if _, err := auth.CosineSimilarity(v, v[:2]); err == nil {
			t.Fatal("want error for mismatched lengths")
		}
	})

	t.Run("zero vector is degenerate", func(t *testing.T) {
		t.Parallel()
		_, err := auth.CosineSimilarity(v, make([]float32, len(v)))
		if !errors.Is(err, auth.ErrDegenerateEmbedding) {
			t.Fatalf("got %v, want ErrDegenerateEmbedding", err)
		}
	})

	t.Run("empty vectors are degenerate", func(t *testing.T) {
		t.Parallel()
		_, err := auth.CosineSimilarity(nil, nil)
		if !errors.Is(err, auth.ErrDegenerateEmbedding) {
			t.Fatalf("got %v, want ErrDegenerateEmbedding", err)
		}
	})
}

func TestMatchPercentage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sim  float64
		want float64
	}{
		{1, 100},
		{0.75, 75},
		{0.123456, 12.35},
		{0.999949, 99.99},
		{0, 0},
		{-0.5, -50},
	}
	for _, tt := range tests {
		if got := auth.MatchPercentage(tt.sim); got != tt.want {
			t.Errorf("MatchPercentage(%v) = %v, want %v", tt.sim, got, tt.want)
		}
	}
}
