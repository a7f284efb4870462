// Package config handles the global statements configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config is the effective configuration: defaults, overlaid by
// ~/.config/stmt/config.yml, overlaid by STMT_* environment variables.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding" envPrefix:"EMBEDDING_"`
	Segment   SegmentConfig   `yaml:"segment" envPrefix:"SEGMENT_"`
	Wikify    WikifyConfig    `yaml:"wikify" envPrefix:"WIKIFY_"`
	Claims    ClaimsConfig    `yaml:"claims" envPrefix:"CLAIMS_"`

	CachePath string `yaml:"cache_path,omitempty" env:"CACHE_PATH"` // SQLite vector cache and run history
	PDFReader string `yaml:"pdf_reader,omitempty" env:"PDF_READER"` // Viewer for rendered PDF reports
}

// EmbeddingConfig selects and configures the token embedding source.
type EmbeddingConfig struct {
	Provider    string  `yaml:"provider" env:"PROVIDER"` // ollama, openai, or wordvec
	Model       string  `yaml:"model,omitempty" env:"MODEL"`
	BaseURL     string  `yaml:"base_url,omitempty" env:"BASE_URL"`
	APIKey      string  `yaml:"api_key,omitempty" env:"API_KEY"`
	Dimensions  int     `yaml:"dimensions,omitempty" env:"DIMENSIONS"`
	VectorsPath string  `yaml:"vectors_path,omitempty" env:"VECTORS_PATH"` // word2vec/fastText .vec file
	RateLimit   float64 `yaml:"rate_limit,omitempty" env:"RATE_LIMIT"`
	BatchSize   int     `yaml:"batch_size,omitempty" env:"BATCH_SIZE"`
	CacheSize   int     `yaml:"cache_size,omitempty" env:"CACHE_SIZE"` // In-memory LRU entries
}

// SegmentConfig holds segmentation defaults.
type SegmentConfig struct {
	Length      int `yaml:"length" env:"LENGTH"`
	MinWords    int `yaml:"min_words" env:"MIN_WORDS"`
	Workers     int `yaml:"workers" env:"WORKERS"`
	MaxSegments int `yaml:"max_segments,omitempty" env:"MAX_SEGMENTS"`
}

// WikifyConfig configures the entity annotation service.
type WikifyConfig struct {
	Service        string  `yaml:"service" env:"SERVICE"` // tagme or dandelion
	TagMeToken     string  `yaml:"tagme_token,omitempty" env:"TAGME_TOKEN"`
	DandelionToken string  `yaml:"dandelion_token,omitempty" env:"DANDELION_TOKEN"`
	Language       string  `yaml:"language" env:"LANGUAGE"`
	MinScore       float64 `yaml:"min_score,omitempty" env:"MIN_SCORE"`
	RateLimit      float64 `yaml:"rate_limit,omitempty" env:"RATE_LIMIT"`
}

// ClaimsConfig configures the claim classifier endpoint.
type ClaimsConfig struct {
	URL       string  `yaml:"url,omitempty" env:"URL"`
	Token     string  `yaml:"token,omitempty" env:"TOKEN"`
	Label     string  `yaml:"label,omitempty" env:"LABEL"`
	RateLimit float64 `yaml:"rate_limit,omitempty" env:"RATE_LIMIT"`
}

// Provider names.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderWordVec = "wordvec"
)

// ValidProviders lists the supported embedding providers.
var ValidProviders = []string{ProviderOllama, ProviderOpenAI, ProviderWordVec}

// ValidReaders lists the supported PDF reader values.
var ValidReaders = []string{"system", "skim", "preview", "zathura", "evince", "okular"}

// ValidServices lists the supported wikification services.
var ValidServices = []string{"tagme", "dandelion"}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:  ProviderOllama,
			CacheSize: 50000,
		},
		Segment: SegmentConfig{
			Length:   3,
			MinWords: 3,
			Workers:  4,
		},
		Wikify: WikifyConfig{
			Service:  "tagme",
			Language: "de",
		},
		CachePath: DefaultCachePath(),
		PDFReader: "system",
	}
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	if !contains(ValidProviders, c.Embedding.Provider) {
		return fmt.Errorf("invalid embedding.provider: %s (valid: %v)", c.Embedding.Provider, ValidProviders)
	}
	if c.Embedding.Provider == ProviderWordVec && c.Embedding.VectorsPath == "" {
		return fmt.Errorf("embedding.vectors_path is required for the %s provider", ProviderWordVec)
	}
	if c.Segment.Length < 1 {
		return fmt.Errorf("segment.length must be at least 1, got %d", c.Segment.Length)
	}
	if c.Segment.Workers < 1 {
		return fmt.Errorf("segment.workers must be at least 1, got %d", c.Segment.Workers)
	}
	if c.Segment.MinWords < 0 {
		return fmt.Errorf("segment.min_words must not be negative, got %d", c.Segment.MinWords)
	}
	if err := ValidatePDFReader(c.PDFReader); err != nil {
		return err
	}
	if !contains(ValidServices, c.Wikify.Service) {
		return fmt.Errorf("invalid wikify.service: %s (valid: %v)", c.Wikify.Service, ValidServices)
	}
	return nil
}

// WikifyToken returns the token of the configured wikification service.
func (c *Config) WikifyToken() string {
	if c.Wikify.Service == "dandelion" {
		return c.Wikify.DandelionToken
	}
	return c.Wikify.TagMeToken
}

// ValidatePDFReader checks that the reader value is valid.
func ValidatePDFReader(reader string) error {
	if reader == "" {
		return nil // Empty defaults to "system"
	}
	if contains(ValidReaders, reader) {
		return nil
	}
	return fmt.Errorf("invalid pdf_reader: %s (valid: %v)", reader, ValidReaders)
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
