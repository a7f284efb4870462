package vocab

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/statements/internal/embedding"
	"github.com/matsen/statements/internal/metrics"
)

// Vocabulary maps the distinct tokens of one document to their vectors.
// Tokens whose vector equals the provider's sentinel vector are never present.
// A Vocabulary is immutable once built and safe for concurrent reads.
type Vocabulary struct {
	model    string
	dim      int
	tokens   []string
	index    map[string]int
	vectors  [][]float32
	excluded int
}

// Len returns the number of tokens with a usable vector.
func (v *Vocabulary) Len() int { return len(v.tokens) }

// Dimensions returns the vector width.
func (v *Vocabulary) Dimensions() int { return v.dim }

// Excluded returns how many distinct tokens were dropped as sentinel-equal.
func (v *Vocabulary) Excluded() int { return v.excluded }

// ModelName returns the model the vectors came from.
func (v *Vocabulary) ModelName() string { return v.model }

// Tokens returns the vocabulary tokens in sorted order.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Contains reports whether token has a vector.
func (v *Vocabulary) Contains(token string) bool {
	_, ok := v.index[token]
	return ok
}

// Vector returns the vector of token.
func (v *Vocabulary) Vector(token string) ([]float32, bool) {
	i, ok := v.index[token]
	if !ok {
		return nil, false
	}
	return v.vectors[i], true
}

// Builder builds vocabularies from an embedding provider.
type Builder struct {
	provider embedding.Provider
	workers  int
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Builder.
type Option func(*Builder)

// WithWorkers bounds concurrent lookups for providers without batch support.
func WithWorkers(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithLogger sets the builder logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithMetrics records vocabulary sizes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// NewBuilder creates a Builder for provider.
func NewBuilder(provider embedding.Provider, opts ...Option) *Builder {
	b := &Builder{
		provider: provider,
		workers:  runtime.GOMAXPROCS(0),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build embeds every distinct token of text. Call it once per document with
// all available text (full text and title); lookups dominate latency.
func Build(ctx context.Context, provider embedding.Provider, text string) (*Vocabulary, error) {
	return NewBuilder(provider).Build(ctx, text)
}

// Build embeds every distinct token of text and drops sentinel-equal vectors.
// Empty text yields an empty vocabulary without contacting the provider.
func (b *Builder) Build(ctx context.Context, text string) (*Vocabulary, error) {
	v := &Vocabulary{
		model: b.provider.ModelName(),
		dim:   b.provider.Dimensions(),
		index: make(map[string]int),
	}

	tokens := Distinct(text)
	if len(tokens) == 0 {
		return v, nil
	}

	// The sentinel rides along as the first lookup.
	queries := append([]string{embedding.SentinelToken}, tokens...)
	embs, err := b.lookup(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("embedding vocabulary: %w", err)
	}

	sentinel := embs[0]
	v.dim = sentinel.Dimensions()
	for i, tok := range tokens {
		emb := embs[i+1]
		if emb.Dimensions() != v.dim {
			return nil, fmt.Errorf("token %q: got %d dimensions, want %d", tok, emb.Dimensions(), v.dim)
		}
		if emb.Equal(sentinel) {
			v.excluded++
			continue
		}
		v.index[tok] = len(v.tokens)
		v.tokens = append(v.tokens, tok)
		v.vectors = append(v.vectors, emb.Vector)
	}

	b.logger.Debug("built vocabulary",
		zap.String("model", v.model),
		zap.Int("tokens", v.Len()),
		zap.Int("excluded", v.excluded),
		zap.Int("dimensions", v.dim))
	if b.metrics != nil {
		b.metrics.VocabularyTokens.WithLabelValues("kept").Observe(float64(v.Len()))
		b.metrics.VocabularyTokens.WithLabelValues("excluded").Observe(float64(v.excluded))
	}
	return v, nil
}

// lookup embeds queries in one batch when possible, otherwise with a bounded
// fan-out of single lookups. Results are in query order.
func (b *Builder) lookup(ctx context.Context, queries []string) ([]embedding.Embedding, error) {
	if bp, ok := b.provider.(embedding.BatchProvider); ok {
		embs, err := bp.EmbedBatch(ctx, queries)
		if err != nil {
			return nil, err
		}
		if len(embs) != len(queries) {
			return nil, fmt.Errorf("provider returned %d embeddings for %d tokens", len(embs), len(queries))
		}
		return embs, nil
	}

	embs := make([]embedding.Embedding, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			emb, err := b.provider.Embed(gctx, q)
			if err != nil {
				return fmt.Errorf("token %q: %w", q, err)
			}
			embs[i] = emb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embs, nil
}
