package config

import (
	"fmt"
	"sort"
	"strconv"
)

// fields maps dotted keys to the fields of c.
func (c *Config) fields() map[string]any {
	return map[string]any{
		"embedding.provider":     &c.Embedding.Provider,
		"embedding.model":        &c.Embedding.Model,
		"embedding.base_url":     &c.Embedding.BaseURL,
		"embedding.api_key":      &c.Embedding.APIKey,
		"embedding.dimensions":   &c.Embedding.Dimensions,
		"embedding.vectors_path": &c.Embedding.VectorsPath,
		"embedding.rate_limit":   &c.Embedding.RateLimit,
		"embedding.batch_size":   &c.Embedding.BatchSize,
		"embedding.cache_size":   &c.Embedding.CacheSize,
		"segment.length":         &c.Segment.Length,
		"segment.min_words":      &c.Segment.MinWords,
		"segment.workers":        &c.Segment.Workers,
		"segment.max_segments":   &c.Segment.MaxSegments,
		"wikify.service":         &c.Wikify.Service,
		"wikify.tagme_token":     &c.Wikify.TagMeToken,
		"wikify.dandelion_token": &c.Wikify.DandelionToken,
		"wikify.language":        &c.Wikify.Language,
		"wikify.min_score":       &c.Wikify.MinScore,
		"wikify.rate_limit":      &c.Wikify.RateLimit,
		"claims.url":             &c.Claims.URL,
		"claims.token":           &c.Claims.Token,
		"claims.label":           &c.Claims.Label,
		"claims.rate_limit":      &c.Claims.RateLimit,
		"cache_path":             &c.CachePath,
		"pdf_reader":             &c.PDFReader,
	}
}

// Keys returns the settable keys in sorted order.
func Keys() []string {
	var c Config
	keys := make([]string, 0, len(c.fields()))
	for k := range c.fields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted key such as "segment.length".
func (c *Config) Get(key string) (string, error) {
	f, ok := c.fields()[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	switch p := f.(type) {
	case *string:
		return *p, nil
	case *int:
		return strconv.Itoa(*p), nil
	case *float64:
		return strconv.FormatFloat(*p, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("unsupported type for key %s", key)
}

// Set parses value into the field of a dotted key and validates the result.
// The configuration is unchanged on error.
func (c *Config) Set(key, value string) error {
	next := *c
	f, ok := next.fields()[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}
	switch p := f.(type) {
	case *string:
		*p = value
	case *int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*p = n
	case *float64:
		x, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		*p = x
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
