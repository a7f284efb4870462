package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/statements/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set values of the global configuration file.

Usage:
  stmt config                            # Show the effective config (secrets masked)
  stmt config segment.length             # Get a value
  stmt config segment.length 5           # Set a value in the config file
  stmt config embedding.provider wordvec # Switch embedding provider

Values set here can be overridden per run with STMT_* environment variables,
e.g. STMT_SEGMENT_LENGTH=5 or STMT_EMBEDDING_PROVIDER=openai.

Keys:
  ` + strings.Join(config.Keys(), "\n  "),
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the response for showing the whole config.
type ConfigResponse struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"config"`
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	path := config.GlobalConfigPath()

	// No args: show the effective config
	if len(args) == 0 {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			exitWithError(ExitConfigError, "loading config: %v", err)
		}
		red := cfg.Redacted()
		if humanOutput {
			outputHuman("# %s\n", path)
			for _, k := range config.Keys() {
				v, _ := red.Get(k)
				outputHuman("%-24s %s\n", k, v)
			}
			return nil
		}
		return outputJSON(ConfigResponse{Path: path, Config: red})
	}

	key := normalizeKey(args[0])

	// One arg: get specific value
	if len(args) == 1 {
		cfg, err := config.LoadGlobalConfig()
		if err != nil {
			exitWithError(ExitConfigError, "loading config: %v", err)
		}
		v, err := cfg.Get(key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(v)
		} else {
			outputJSON(map[string]string{key: v})
		}
		return nil
	}

	// Two args: set value in the file, ignoring environment overrides
	value := args[1]
	cfg, err := config.LoadFile(path)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Set(key, value); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if err := cfg.Save(path); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}
	config.ResetGlobalConfigCache()

	if humanOutput {
		fmt.Printf("Updated %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{
			Status: "updated",
			Key:    key,
			Value:  value,
		})
	}
	return nil
}

// normalizeKey converts key formats (segment-length, Segment.Length) to the
// dotted snake case keys.
func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
