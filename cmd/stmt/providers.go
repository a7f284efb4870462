package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/matsen/statements/internal/config"
	"github.com/matsen/statements/internal/embedding"
	"github.com/matsen/statements/internal/storage"
)

// DefaultOpenAIModel is used when embedding.model is unset for OpenAI.
const DefaultOpenAIModel = "text-embedding-3-small"

var errModelNotFound = errors.New("embedding model not found")

// providerUnavailableError reports an unreachable embedding service.
type providerUnavailableError struct {
	provider string
	err      error
}

func (e *providerUnavailableError) Error() string {
	return fmt.Sprintf("%s is not reachable: %v", e.provider, e.err)
}

func (e *providerUnavailableError) Unwrap() error { return e.err }

// newProvider builds the configured provider. Remote providers are wrapped
// with metrics and the two-tier vector cache; local word vectors only with
// metrics.
func newProvider(ctx context.Context, cfg *config.Config, db *storage.DB) (embedding.Provider, error) {
	ec := cfg.Embedding

	var base embedding.Provider
	switch ec.Provider {
	case config.ProviderOllama:
		var opts []embedding.OllamaOption
		if ec.BaseURL != "" {
			opts = append(opts, embedding.WithBaseURL(ec.BaseURL))
		}
		if ec.Model != "" {
			opts = append(opts, embedding.WithModel(ec.Model))
		}
		if ec.Dimensions > 0 {
			opts = append(opts, embedding.WithDimensions(ec.Dimensions))
		}
		if ec.RateLimit > 0 {
			opts = append(opts, embedding.WithRateLimit(ec.RateLimit))
		}
		if ec.BatchSize > 0 {
			opts = append(opts, embedding.WithBatchSize(ec.BatchSize))
		}
		ollama := embedding.NewOllamaProvider(opts...)
		if err := validateOllama(ctx, ollama); err != nil {
			return nil, err
		}
		base = ollama

	case config.ProviderOpenAI:
		if ec.APIKey == "" {
			return nil, fmt.Errorf("embedding.api_key is required for the %s provider", ec.Provider)
		}
		model := ec.Model
		if model == "" {
			model = DefaultOpenAIModel
		}
		base = embedding.NewOpenAIProvider(embedding.OpenAIConfig{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      model,
			Dimensions: ec.Dimensions,
			BatchSize:  ec.BatchSize,
		})

	case config.ProviderWordVec:
		wv, err := embedding.LoadWordVectors(ec.VectorsPath)
		if err != nil {
			return nil, err
		}
		log.Sugar().Debugf("loaded %d word vectors from %s", wv.Len(), ec.VectorsPath)
		return embedding.NewInstrumentedProvider(wv, registry), nil

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", ec.Provider)
	}

	opts := []embedding.CacheOption{
		embedding.WithCacheLogger(log),
		embedding.WithCacheMetrics(registry),
	}
	if db != nil {
		opts = append(opts, embedding.WithStore(db))
	}
	cached, err := embedding.NewCachedProvider(embedding.NewInstrumentedProvider(base, registry), ec.CacheSize, opts...)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// validateOllama checks that Ollama is running and serves the model.
func validateOllama(ctx context.Context, p *embedding.OllamaProvider) error {
	if err := p.IsAvailable(ctx); err != nil {
		return &providerUnavailableError{provider: "Ollama", err: fmt.Errorf("%w (start it with 'ollama serve')", err)}
	}
	ok, err := p.HasModel(ctx)
	if err != nil {
		return fmt.Errorf("checking model availability: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %q (run 'ollama pull %s')", errModelNotFound, p.ModelName(), p.ModelName())
	}
	return nil
}
