// Package metrics holds the Prometheus collectors of a stmt run.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stmt"

// Metrics groups the collectors on a private registry so that tests and
// concurrent runs never collide on the global default registry.
type Metrics struct {
	Registry *prometheus.Registry

	EmbeddingRequestsTotal   *prometheus.CounterVec
	EmbeddingRequestDuration *prometheus.HistogramVec
	EmbeddingCacheTotal      *prometheus.CounterVec
	VocabularyTokens         *prometheus.HistogramVec
	SegmentsTotal            *prometheus.CounterVec
	FallbacksTotal           *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		EmbeddingRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_requests_total",
				Help:      "Total number of embedding requests",
			},
			[]string{"model", "status"},
		),
		EmbeddingRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "embedding_request_duration_seconds",
				Help:      "Embedding request duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"model"},
		),
		EmbeddingCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "embedding_cache_total",
				Help:      "Embedding cache lookups by tier and result",
			},
			[]string{"tier", "result"}, // tier: memory/store, result: hit/miss
		),
		VocabularyTokens: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "vocabulary_tokens",
				Help:      "Distinct tokens per document vocabulary",
				Buckets:   prometheus.ExponentialBuckets(16, 2, 10),
			},
			[]string{"kind"}, // kind: kept/excluded
		),
		SegmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segments_total",
				Help:      "Segments produced per segmentation mode",
			},
			[]string{"mode"},
		),
		FallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "segmentation_fallbacks_total",
				Help:      "Passages segmented as a single block",
			},
			[]string{"reason"},
		),
	}

	m.Registry.MustRegister(
		m.EmbeddingRequestsTotal,
		m.EmbeddingRequestDuration,
		m.EmbeddingCacheTotal,
		m.VocabularyTokens,
		m.SegmentsTotal,
		m.FallbacksTotal,
	)
	return m
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
