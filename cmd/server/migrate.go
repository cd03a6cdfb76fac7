package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"stockerp/internal/infrastructure/storage/postgres"
	"stockerp/pkg/logger"
)

func newMigrateCmd(envFile func() string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(envFile())
			if err != nil {
				return err
			}
			if err := cfg.ValidateForMigrate(); err != nil {
				return err
			}
			ctx := logger.WithLogger(cmd.Context(), log)
			if err := postgres.MigrateUp(ctx, cfg.DatabaseURL, true); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
			log.Info("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n <= 0 {
					return fmt.Errorf("steps must be a positive integer, got %q", args[0])
				}
				steps = n
			}

			cfg, log, err := loadConfig(envFile())
			if err != nil {
				return err
			}
			if err := cfg.ValidateForMigrate(); err != nil {
				return err
			}
			ctx := logger.WithLogger(cmd.Context(), log)
			if err := postgres.MigrateDown(ctx, cfg.DatabaseURL, steps); err != nil {
				return fmt.Errorf("roll back database: %w", err)
			}
			log.Infow("migrations rolled back", "steps", steps)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(envFile())
			if err != nil {
				return err
			}
			if err := cfg.ValidateForMigrate(); err != nil {
				return err
			}
			v, dirty, err := postgres.MigrationVersion(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			cmd.Printf("version=%d dirty=%t\n", v, dirty)
			return nil
		},
	})

	return cmd
}
