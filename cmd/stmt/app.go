package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/matsen/statements/internal/config"
	"github.com/matsen/statements/internal/embedding"
	"github.com/matsen/statements/internal/pipeline"
	"github.com/matsen/statements/internal/storage"
	"github.com/matsen/statements/internal/transcript"
)

// segmentFlags are the segmentation flags shared by several commands.
// Zero values fall back to the configuration.
type segmentFlags struct {
	length   int
	minWords int
	workers  int
	greedy   bool
}

// mustLoadConfig loads and validates the global configuration, exits on error.
func mustLoadConfig() *config.Config {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	if cfg.CachePath == "" {
		exitWithError(ExitConfigError, "cache_path not configured (use 'stmt config cache_path /path/to/stmt.db')")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.CachePath), 0o755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(cfg.CachePath)
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadDocument parses a transcript file, exits on error.
func mustLoadDocument(path string) *transcript.Document {
	doc, err := transcript.Load(path)
	if err != nil {
		if errors.Is(err, transcript.ErrNoPassages) {
			exitWithError(ExitDataError, "%s: no timecoded passages found", path)
		}
		exitWithError(ExitDataError, "loading transcript: %v", err)
	}
	return doc
}

// mustBuildProvider builds the configured embedding provider, exits on error.
// A nil db disables the persistent cache tier.
func mustBuildProvider(ctx context.Context, cfg *config.Config, db *storage.DB) embedding.Provider {
	p, err := newProvider(ctx, cfg, db)
	if err != nil {
		var unavailable *providerUnavailableError
		switch {
		case errors.As(err, &unavailable):
			exitWithError(ExitProviderUnavailable, "%v", err)
		case errors.Is(err, errModelNotFound):
			exitWithError(ExitModelNotFound, "%v", err)
		default:
			exitWithError(ExitConfigError, "building embedding provider: %v", err)
		}
	}
	return p
}

// newSegmenter combines flags and configuration into a Segmenter.
func newSegmenter(cfg *config.Config, provider embedding.Provider, f segmentFlags) *pipeline.Segmenter {
	length := cfg.Segment.Length
	if f.length > 0 {
		length = f.length
	}
	minWords := cfg.Segment.MinWords
	if f.minWords > 0 {
		minWords = f.minWords
	}
	workers := cfg.Segment.Workers
	if f.workers > 0 {
		workers = f.workers
	}
	log.Debug("segmenter",
		zap.Int("length", length),
		zap.Int("min_words", minWords),
		zap.Int("workers", workers),
		zap.Bool("greedy", f.greedy))
	return pipeline.NewSegmenter(provider,
		pipeline.WithSegmentLength(length),
		pipeline.WithMinWords(minWords),
		pipeline.WithWorkers(workers),
		pipeline.WithMaxSegments(cfg.Segment.MaxSegments),
		pipeline.WithGreedy(f.greedy),
		pipeline.WithLogger(log),
		pipeline.WithMetrics(registry))
}

// segmentLength returns the effective segment length.
func segmentLength(cfg *config.Config, f segmentFlags) int {
	if f.length > 0 {
		return f.length
	}
	return cfg.Segment.Length
}

// openCache opens the vector cache unless --no-cache is set.
func openCache(cfg *config.Config) *storage.DB {
	if noCache {
		return nil
	}
	return mustOpenDatabase(cfg)
}
