package embedding

import "context"

// Provider generates embeddings from text.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// BatchProvider is implemented by providers that can embed many texts in one call.
// Results are returned in input order.
type BatchProvider interface {
	Provider
	EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error)
}

// EmbedAll embeds texts with a single batched call when the provider supports it,
// and falls back to sequential Embed calls otherwise.
func EmbedAll(ctx context.Context, p Provider, texts []string) ([]Embedding, error) {
	if bp, ok := p.(BatchProvider); ok {
		return bp.EmbedBatch(ctx, texts)
	}
	out := make([]Embedding, len(texts))
	for i, text := range texts {
		emb, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}
