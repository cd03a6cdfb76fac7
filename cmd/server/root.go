package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockerp/internal/config"
	"stockerp/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "stockerp",
		Short:        "Inventory ledger and document workflow service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")

	env := func() string { return envFile }
	root.AddCommand(
		newServeCmd(env),
		newMigrateCmd(env),
		newAlertsCmd(env),
		newTokenCmd(env),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads the env file and environment and builds the logger.
func loadConfig(envFile string) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
		Fields:      map[string]any{"service": "stockerp", "version": version},
	})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger.ReplaceDefault(log)
	return cfg, log, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version)
		},
	}
}
