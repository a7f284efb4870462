package vocab

import (
	"context"
	"errors"
	"sync"

	"github.com/matsen/statements/internal/embedding"
)

// mapProvider embeds known tokens from a table and everything else, including
// the sentinel, as the unknown vector.
type mapProvider struct {
	mu      sync.Mutex
	dim     int
	vectors map[string][]float32
	unknown []float32
	calls   int
	fail    bool
}

func newMapProvider(dim int, vectors map[string][]float32) *mapProvider {
	return &mapProvider{dim: dim, vectors: vectors, unknown: make([]float32, dim)}
}

func (p *mapProvider) Embed(_ context.Context, text string) (embedding.Embedding, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.fail {
		return embedding.Embedding{}, errors.New("model unavailable")
	}
	if v, ok := p.vectors[text]; ok {
		return embedding.Embedding{Vector: v}, nil
	}
	return embedding.Embedding{Vector: p.unknown}, nil
}

func (p *mapProvider) ModelName() string { return "map" }
func (p *mapProvider) Dimensions() int   { return p.dim }

// batchMapProvider adds batch support to mapProvider.
type batchMapProvider struct {
	*mapProvider
	batches int
}

func (p *batchMapProvider) EmbedBatch(ctx context.Context, texts []string) ([]embedding.Embedding, error) {
	p.batches++
	out := make([]embedding.Embedding, len(texts))
	for i, t := range texts {
		emb, err := p.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}
