// Package embedding provides vector embedding lookups for tokens and text.
package embedding

// SentinelToken is a string guaranteed to be out of every model's vocabulary.
// Its vector marks "no real embedding available" for a model.
const SentinelToken = "hrgenbrmpf"

// Embedding represents a vector embedding of a token or text.
type Embedding struct {
	Vector []float32 // The embedding vector (e.g., 300 dimensions for de_core_news_lg)
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// Equal reports whether two embeddings are identical component-wise.
func (e Embedding) Equal(other Embedding) bool {
	if len(e.Vector) != len(other.Vector) {
		return false
	}
	for i := range e.Vector {
		if e.Vector[i] != other.Vector[i] {
			return false
		}
	}
	return true
}

// IsZero reports whether every component is zero.
func (e Embedding) IsZero() bool {
	for _, v := range e.Vector {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share the backing array.
func (e Embedding) Clone() Embedding {
	v := make([]float32, len(e.Vector))
	copy(v, e.Vector)
	return Embedding{Vector: v}
}
