package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/config"
	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/logging"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bot",
		Short:         "GoMining X bot: hourly farm updates and mention replies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setupConfig loads the configuration and initialises logging from it.
func setupConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Debug("Configuration loaded", "env", cfg.AppEnv, "backend", cfg.StateBackend, "timezone", cfg.Location().String())
	return cfg, nil
}
