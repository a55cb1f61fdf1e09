package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/acejarvis/cash-or-card/backend/internal/config"
)

const programName = "cashorcard"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// commonRun builds the process logger from the loaded config.
func commonRun(cfg *config.Config) *slog.Logger {
	if globalFlags.debug {
		cfg.Log.Level = "debug"
	}
	logger := cfg.Log.NewLogger().With("component", programName)
	slog.SetDefault(logger)
	return logger
}

func mustConfig(cmd *cobra.Command) *config.Config {
	cfg := config.FromContext(cmd.Context())
	if cfg == nil {
		slog.Error("no config found in context")
		os.Exit(1)
	}
	return cfg
}

func main() {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Crowd-sourced payment and cash discount facts for restaurants",
		Run: func(cmd *cobra.Command, args []string) {
			serveRun(cmd, args, mustConfig(cmd))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	// Subcommands
	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())

	if err := rootCmd.Execute(); err != nil {
		// cobra has already printed the error
		os.Exit(1)
	}
}
