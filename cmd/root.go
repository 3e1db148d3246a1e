// Package cmd defines the CLI commands for the policyd executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coretrust/policyd/internal/config"
	"github.com/coretrust/policyd/internal/logging"
	"github.com/coretrust/policyd/internal/metrics"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policyd",
		Short: "CoreTrust policy ingestion and serving",
		Long: `policyd ingests AI policy source documents (HTML pages and PDFs),
extracts structured policy records with an LLM, cleans the dataset, and
serves it through a small HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newCleanupCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

// loadConfigAndLogger loads config and builds the logger every command
// shares.
func loadConfigAndLogger() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	metrics.Init()
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "policyd: %v\n", err)
		os.Exit(1)
	}
}
