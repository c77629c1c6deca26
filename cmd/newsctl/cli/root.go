// Package cli is the newsctl command tree: one-shot feed runs from a terminal
// against the same pipeline the API serves.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"news-pulse/config"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:           "newsctl",
	Short:         "Inspect the news-pulse feed pipeline",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.yaml (default: searched upward from the working directory)")

	rootCmd.AddCommand(newFeedCmd())
	rootCmd.AddCommand(sourcesCmd)
}

// loadConfig reads --config when given, otherwise the usual config.yaml.
func loadConfig() (config.AppConfig, error) {
	if flagConfig == "" {
		return config.GetConfig(), nil
	}
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("loading config: %w", err)
	}
	return *cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
