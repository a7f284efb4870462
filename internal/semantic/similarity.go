// Package semantic scores how closely sentences relate to the main concept
// of a document.
package semantic

import (
	"context"
	"math"

	"github.com/matsen/statements/internal/vocab"
)

// Scorer rates each sentence against the main concept of a document.
// Higher scores mean closer relation; scores are returned in input order.
type Scorer interface {
	Score(ctx context.Context, sentences []string) ([]float64, error)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 0
	}

	return dot / denominator
}

// TitleSimilarity returns |1 - cosine distance| between each sentence vector
// and the title vector, both built from the document vocabulary. Sentences or
// titles without known tokens score 0.
func TitleSimilarity(v *vocab.Vocabulary, title string, sentences []string) []float64 {
	titleVec := vocab.SentenceVector(title, v)
	out := make([]float64, len(sentences))
	for i, vec := range vocab.Vectorize(sentences, v) {
		out[i] = math.Abs(CosineSimilarity(vec, titleVec))
	}
	return out
}

// TitleScorer scores sentences by their embedding similarity to the title.
type TitleScorer struct {
	Vocabulary *vocab.Vocabulary
	Title      string
}

// Score implements Scorer.
func (s TitleScorer) Score(_ context.Context, sentences []string) ([]float64, error) {
	return TitleSimilarity(s.Vocabulary, s.Title, sentences), nil
}

// Above returns the indices of scores strictly greater than threshold.
func Above(scores []float64, threshold float64) []int {
	var out []int
	for i, s := range scores {
		if s > threshold {
			out = append(out, i)
		}
	}
	return out
}
