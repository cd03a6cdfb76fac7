package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"stockerp/internal/config"
	"stockerp/internal/domain/auth"
	v1 "stockerp/internal/infrastructure/http/v1"
	"stockerp/pkg/logger"
)

// shutdownTimeout gives outstanding requests time to complete.
const shutdownTimeout = 30 * time.Second

func newServeCmd(envFile func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig(envFile())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	log.Infow("starting stockerp server", "version", version, "storage", cfg.Storage)

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	mode := gin.ReleaseMode
	if cfg.Development() {
		mode = gin.DebugMode
	}
	router := v1.NewRouter(v1.RouterConfig{
		Mode:         mode,
		Logger:       log,
		JWTValidator: jwtService(cfg),
		Access:       a.Access,
		Items:        a.Items,
		Ledger:       a.Ledger,
		Documents:    a.Documents,
		Alerts:       a.Alerts,
		Pricing:      a.Pricing,
		Reports:      a.Reports,
		Version:      version,
		Storage:      cfg.Storage,
		HealthChecks: a.Checks,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Errorw("server failed", "error", err)
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
		return err
	}

	log.Info("server stopped")
	return nil
}

// jwtService builds the token service from configuration.
func jwtService(cfg config.Config) *auth.JWTService {
	jwtCfg := auth.DefaultJWTConfig(cfg.JWTSecret)
	if cfg.JWTTTL > 0 {
		jwtCfg.AccessTokenTTL = cfg.JWTTTL
	}
	return auth.NewJWTService(jwtCfg)
}
