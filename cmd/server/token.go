package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	appctx "stockerp/internal/core/context"
	"stockerp/pkg/logger"
)

// newTokenCmd issues an access token for a user. With postgres storage the
// user's role assignment is created when missing.
func newTokenCmd(envFile func() string) *cobra.Command {
	var userID, email, role string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			cfg, log, err := loadConfig(envFile())
			if err != nil {
				return err
			}
			cfg.RedisURL = ""
			if err := cfg.Validate(); err != nil {
				return err
			}
			if role == "" {
				role = cfg.AllAccessRole
			}

			ctx := logger.WithLogger(cmd.Context(), log)
			ctx = appctx.WithTrace(ctx, appctx.NewTraceContext(appctx.SourceCLI))
			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			assignment, err := a.Access.EnsureAssignment(ctx, userID, role)
			if err != nil {
				return err
			}

			tok, exp, err := jwtService(cfg).GenerateAccessToken(appctx.Actor{
				UserID:   userID,
				Email:    email,
				RoleCode: assignment.RoleCode,
			})
			if err != nil {
				return err
			}
			cmd.Println(tok)
			log.Infow("token issued", "user_id", userID, "role_code", assignment.RoleCode, "expires_at", exp.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&role, "role", "", "Role code for a new assignment (defaults to ALL_ACCESS_ROLE)")
	return cmd
}
