package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/snippetexec/internal/config"
)

var configFlag string

var rootCmd = &cobra.Command{
	Use:   "snippetexec",
	Short: "snippetexec - sandboxed execution of analysis snippets",
	Long: `snippetexec runs freshly generated JavaScript analysis snippets under a
capability allow-list, a wall-clock budget and an output ceiling, and
returns exactly one typed result envelope.

Configuration is read from snippetexec.yaml (or --config) and overridden
by SNIPPETEXEC_* environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a YAML config file")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
