package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	appctx "stockerp/internal/core/context"
	"stockerp/pkg/logger"
)

// newAlertsCmd evaluates alerts once and prints them as JSON.
// Useful from cron against the shared database.
func newAlertsCmd(envFile func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Evaluate stock alerts and print them as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(envFile())
			if err != nil {
				return err
			}
			cfg.RedisURL = ""
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := logger.WithLogger(cmd.Context(), log)
			ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(appctx.SourceCLI))
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			snap, err := a.Alerts.Refresh(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(snap)
		},
	}
}
