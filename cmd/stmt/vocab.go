package main

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/statements/internal/config"
	"github.com/matsen/statements/internal/embedding"
	"github.com/matsen/statements/internal/vocab"
)

var (
	vocabTokens bool
	cacheModel  string
)

func init() {
	vocabCmd.Flags().BoolVar(&vocabTokens, "tokens", false, "List the kept tokens")
	rootCmd.AddCommand(vocabCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheModel, "model", "", "Model name (default: configured model)")
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var vocabCmd = &cobra.Command{
	Use:   "vocab <transcript>",
	Short: "Build and inspect the vocabulary of a transcript",
	Long: `Embed every distinct token of a transcript (full text and title) and
report how many tokens have a usable vector. Tokens whose vector equals the
model's response to a nonsense word are excluded.`,
	Args: cobra.ExactArgs(1),
	RunE: runVocab,
}

// VocabResponse is the response for the vocab command.
type VocabResponse struct {
	Title      string   `json:"title"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions"`
	Tokens     int      `json:"tokens"`
	Excluded   int      `json:"excluded"`
	TokenList  []string `json:"token_list,omitempty"`
}

func runVocab(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := mustLoadConfig()
	doc := mustLoadDocument(args[0])
	db := openCache(cfg)
	if db != nil {
		defer db.Close()
	}
	provider := mustBuildProvider(ctx, cfg, db)

	v, err := vocab.NewBuilder(provider,
		vocab.WithWorkers(cfg.Segment.Workers),
		vocab.WithLogger(log),
		vocab.WithMetrics(registry)).Build(ctx, doc.VocabularyText())
	if err != nil {
		exitWithError(ExitError, "building vocabulary: %v", err)
	}

	resp := VocabResponse{
		Title:      doc.Title,
		Model:      v.ModelName(),
		Dimensions: v.Dimensions(),
		Tokens:     v.Len(),
		Excluded:   v.Excluded(),
	}
	if vocabTokens {
		resp.TokenList = v.Tokens()
	}

	if humanOutput {
		outputHuman("%s\n", resp.Title)
		outputHuman("Model:      %s (%d dimensions)\n", resp.Model, resp.Dimensions)
		outputHuman("Tokens:     %d\n", resp.Tokens)
		outputHuman("Excluded:   %d\n", resp.Excluded)
		if vocabTokens {
			outputHuman("\n%s\n", wrapText(strings.Join(resp.TokenList, " "), TextWrapWidth, ""))
		}
		return nil
	}
	return outputJSON(resp)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the token vector cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the number of cached vectors",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached vectors of a model",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

// CacheResponse is the response for the cache commands.
type CacheResponse struct {
	Path    string `json:"path"`
	Model   string `json:"model"`
	Vectors int    `json:"vectors"`
	Status  string `json:"status,omitempty"`
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	model := configuredModel(cfg)
	n, err := db.CountVectors(model)
	if err != nil {
		exitWithError(ExitError, "counting vectors: %v", err)
	}

	if humanOutput {
		outputHuman("%s: %d vectors for %s\n", cfg.CachePath, n, model)
		return nil
	}
	return outputJSON(CacheResponse{Path: cfg.CachePath, Model: model, Vectors: n})
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	db := mustOpenDatabase(cfg)
	defer db.Close()

	model := configuredModel(cfg)
	n, err := db.CountVectors(model)
	if err != nil {
		exitWithError(ExitError, "counting vectors: %v", err)
	}
	if err := db.ClearVectors(model); err != nil {
		exitWithError(ExitError, "clearing vectors: %v", err)
	}

	if humanOutput {
		outputHuman("Removed %d vectors for %s\n", n, model)
		return nil
	}
	return outputJSON(CacheResponse{Path: cfg.CachePath, Model: model, Vectors: n, Status: "cleared"})
}

// configuredModel returns --model or the model name the configured provider
// reports, without contacting it.
func configuredModel(cfg *config.Config) string {
	if cacheModel != "" {
		return cacheModel
	}
	ec := cfg.Embedding
	switch ec.Provider {
	case config.ProviderWordVec:
		return filepath.Base(ec.VectorsPath)
	case config.ProviderOpenAI:
		if ec.Model != "" {
			return ec.Model
		}
		return DefaultOpenAIModel
	default:
		if ec.Model != "" {
			return ec.Model
		}
		return embedding.DefaultModel
	}
}
