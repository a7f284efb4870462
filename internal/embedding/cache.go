package embedding

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/matsen/statements/internal/metrics"
)

// DefaultCacheSize is the number of vectors kept in memory by CachedProvider.
const DefaultCacheSize = 50000

// VectorStore persists vectors per model across runs.
type VectorStore interface {
	GetVectors(model string, texts []string) (map[string][]float32, error)
	PutVectors(model string, vectors map[string][]float32) error
}

// CachedProvider decorates a Provider with an in-memory LRU and an optional
// persistent VectorStore. Store failures are logged and never fail a lookup.
type CachedProvider struct {
	inner   Provider
	cache   *lru.Cache[string, []float32]
	store   VectorStore
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// CacheOption configures a CachedProvider.
type CacheOption func(*CachedProvider)

// WithStore adds a persistent second cache tier.
func WithStore(s VectorStore) CacheOption {
	return func(c *CachedProvider) {
		c.store = s
	}
}

// WithCacheLogger sets the logger used for store warnings.
func WithCacheLogger(l *zap.Logger) CacheOption {
	return func(c *CachedProvider) {
		c.logger = l
	}
}

// WithCacheMetrics records hits and misses per tier.
func WithCacheMetrics(m *metrics.Metrics) CacheOption {
	return func(c *CachedProvider) {
		c.metrics = m
	}
}

// NewCachedProvider wraps inner with an LRU holding up to size vectors.
func NewCachedProvider(inner Provider, size int, opts ...CacheOption) (*CachedProvider, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}
	c := &CachedProvider{
		inner:  inner,
		cache:  cache,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Embed returns a cached vector or asks the inner provider.
func (c *CachedProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	out, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return Embedding{}, err
	}
	return out[0], nil
}

// EmbedBatch resolves texts from the memory tier, then the store, and sends
// only the remaining misses to the inner provider in one call.
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	out := make([]Embedding, len(texts))
	missing := make(map[string][]int)
	for i, text := range texts {
		if vec, ok := c.cache.Get(text); ok {
			c.count("memory", "hit")
			out[i] = Embedding{Vector: vec}.Clone()
			continue
		}
		c.count("memory", "miss")
		missing[text] = append(missing[text], i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	if c.store != nil {
		keys := make([]string, 0, len(missing))
		for text := range missing {
			keys = append(keys, text)
		}
		stored, err := c.store.GetVectors(c.inner.ModelName(), keys)
		if err != nil {
			c.logger.Warn("reading cached vectors", zap.String("model", c.inner.ModelName()), zap.Error(err))
		}
		for text, vec := range stored {
			c.count("store", "hit")
			c.cache.Add(text, vec)
			for _, i := range missing[text] {
				out[i] = Embedding{Vector: vec}.Clone()
			}
			delete(missing, text)
		}
		for range missing {
			c.count("store", "miss")
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	unique := make([]string, 0, len(missing))
	for text := range missing {
		unique = append(unique, text)
	}
	embs, err := EmbedAll(ctx, c.inner, unique)
	if err != nil {
		return nil, err
	}

	fresh := make(map[string][]float32, len(unique))
	for j, text := range unique {
		vec := embs[j].Vector
		fresh[text] = vec
		c.cache.Add(text, vec)
		for _, i := range missing[text] {
			out[i] = embs[j].Clone()
		}
	}
	if c.store != nil {
		if err := c.store.PutVectors(c.inner.ModelName(), fresh); err != nil {
			c.logger.Warn("writing cached vectors", zap.String("model", c.inner.ModelName()), zap.Error(err))
		}
	}
	return out, nil
}

func (c *CachedProvider) count(tier, result string) {
	if c.metrics != nil {
		c.metrics.EmbeddingCacheTotal.WithLabelValues(tier, result).Inc()
	}
}

// ModelName returns the inner model name.
func (c *CachedProvider) ModelName() string {
	return c.inner.ModelName()
}

// Dimensions returns the inner vector width.
func (c *CachedProvider) Dimensions() int {
	return c.inner.Dimensions()
}

// Len returns the number of vectors held in memory.
func (c *CachedProvider) Len() int {
	return c.cache.Len()
}
