package embedding

import (
	"context"
	"time"

	"github.com/matsen/statements/internal/metrics"
)

// InstrumentedProvider records request counts and latency of an inner provider.
type InstrumentedProvider struct {
	inner   Provider
	metrics *metrics.Metrics
}

// NewInstrumentedProvider wraps inner. A nil m returns inner unchanged.
func NewInstrumentedProvider(inner Provider, m *metrics.Metrics) Provider {
	if m == nil {
		return inner
	}
	return &InstrumentedProvider{inner: inner, metrics: m}
}

// Embed implements Provider.
func (p *InstrumentedProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	start := time.Now()
	emb, err := p.inner.Embed(ctx, text)
	p.observe(start, err)
	return emb, err
}

// EmbedBatch implements BatchProvider, batching only if the inner provider does.
func (p *InstrumentedProvider) EmbedBatch(ctx context.Context, texts []string) ([]Embedding, error) {
	start := time.Now()
	embs, err := EmbedAll(ctx, p.inner, texts)
	p.observe(start, err)
	return embs, err
}

func (p *InstrumentedProvider) observe(start time.Time, err error) {
	model := p.inner.ModelName()
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.EmbeddingRequestsTotal.WithLabelValues(model, status).Inc()
	p.metrics.EmbeddingRequestDuration.WithLabelValues(model).Observe(time.Since(start).Seconds())
}

// ModelName implements Provider.
func (p *InstrumentedProvider) ModelName() string {
	return p.inner.ModelName()
}

// Dimensions implements Provider.
func (p *InstrumentedProvider) Dimensions() int {
	return p.inner.Dimensions()
}
