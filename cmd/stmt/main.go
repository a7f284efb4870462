// Package main provides the stmt CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matsen/statements/internal/logger"
	"github.com/matsen/statements/internal/metrics"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	logLevel    string
	logEnv      string
	metricsFile string
	noCache     bool

	log      = zap.NewNop()
	registry = metrics.New()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		// This ensures Cobra errors (like missing required flags) are visible
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "stmt",
	Short: "Extract statements from press briefing transcripts",
	Long: `stmt splits transcripts into topically coherent segments and highlights
the statements that make factual claims about the briefing's main concept.

Transcripts are read from PDF, markdown, or extracted plain text. Token
embeddings come from Ollama, an OpenAI-compatible API, or a local word vector
file and are cached in SQLite. All commands output JSON by default.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logEnv, "log-env", "dev", "Log format: dev (console) or prod (JSON)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "Do not read or write the SQLite vector cache")
	rootCmd.Version = Version
}

// setup loads .env files and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	l, err := logger.NewLogger(logEnv, logLevel)
	if err != nil {
		return err
	}
	log = l
	cmd.SetContext(logger.ContextWithLogger(cmd.Context(), log))
	return nil
}

// teardown flushes logs and writes the metrics file.
func teardown(cmd *cobra.Command, args []string) {
	if metricsFile != "" {
		if err := registry.WriteTextfile(metricsFile); err != nil {
			log.Warn("writing metrics file", zap.String("path", metricsFile), zap.Error(err))
		}
	}
	_ = log.Sync()
}
