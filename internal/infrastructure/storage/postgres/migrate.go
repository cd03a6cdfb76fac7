package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5:// driver
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"stockerp/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateLogger adapts pkg/logger to migrate.Logger.
type migrateLogger struct {
	ctx     context.Context
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...any) {
	logger.Info(l.ctx, "migration: "+strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l migrateLogger) Verbose() bool {
	return l.verbose
}

// MigrateURL rewrites a postgres:// DSN to the scheme of the pgx/v5 migrate driver.
func MigrateURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func newMigrator(ctx context.Context, dsn string, verbose bool) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrateURL(dsn))
	if err != nil {
		return nil, MapError(fmt.Errorf("create migrator: %w", err))
	}
	m.Log = migrateLogger{ctx: ctx, verbose: verbose}
	return m, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, dsn string, verbose bool) error {
	m, err := newMigrator(ctx, dsn, verbose)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info(ctx, "database schema is up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info(ctx, "database migrated", "version", version)
	return nil
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(ctx context.Context, dsn string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	m, err := newMigrator(ctx, dsn, false)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	logger.Info(ctx, "database rolled back", "steps", steps)
	return nil
}

// MigrationVersion returns the applied schema version and its dirty flag.
func MigrationVersion(ctx context.Context, dsn string) (uint, bool, error) {
	m, err := newMigrator(ctx, dsn, false)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}
