package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockerp/internal/core/numerator"
)

var configKeys = []string{
	"APP_ENV", "APP_PORT", "LOG_LEVEL", "STORAGE", "DATABASE_URL", "DB_MAX_CONNS",
	"MIGRATIONS_AUTO", "JWT_SECRET", "JWT_TTL", "ALL_ACCESS_ROLE", "REDIS_URL",
	"ALERT_CACHE_TTL", "NUMERATOR_STRATEGY", "NUMERATOR_RANGE",
}

// clearEnv blanks every config variable for the test. Empty values read as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()
	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.Development())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 20, cfg.DBMaxConns)
	assert.False(t, cfg.MigrationsAuto)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, "Z_ALL", cfg.AllAccessRole)
	assert.Equal(t, 5*time.Minute, cfg.AlertCacheTTL)
	assert.Equal(t, numerator.StrategyStrict, cfg.NumeratorStrategy)
	assert.Equal(t, int64(50), cfg.NumeratorRange)
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/stock")
	t.Setenv("DB_MAX_CONNS", "7")
	t.Setenv("MIGRATIONS_AUTO", "true")
	t.Setenv("ALERT_CACHE_TTL", "30s")
	t.Setenv("NUMERATOR_STRATEGY", "cached")
	t.Setenv("NUMERATOR_RANGE", "100")

	cfg := FromEnv()
	assert.False(t, cfg.Development())
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 7, cfg.DBMaxConns)
	assert.True(t, cfg.MigrationsAuto)
	assert.Equal(t, 30*time.Second, cfg.AlertCacheTTL)
	assert.Equal(t, numerator.StrategyCached, cfg.NumeratorStrategy)
	assert.Equal(t, int64(100), cfg.NumeratorRange)
}

func TestFromEnv_MalformedValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_MAX_CONNS", "many")
	t.Setenv("ALERT_CACHE_TTL", "soon")
	t.Setenv("MIGRATIONS_AUTO", "perhaps")

	cfg := FromEnv()
	assert.Equal(t, 20, cfg.DBMaxConns)
	assert.Equal(t, 5*time.Minute, cfg.AlertCacheTTL)
	assert.False(t, cfg.MigrationsAuto)
}

func TestValidate(t *testing.T) {
	valid := Config{Storage: StorageMemory, JWTSecret: "s", DBMaxConns: 1}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "memory", mutate: func(*Config) {}},
		{name: "postgres with url", mutate: func(c *Config) {
			c.Storage = StoragePostgres
			c.DatabaseURL = "postgres://x"
		}},
		{name: "postgres without url", mutate: func(c *Config) { c.Storage = StoragePostgres },
			wantErr: "DATABASE_URL"},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage = "sqlite" }, wantErr: "unknown STORAGE"},
		{name: "missing secret", mutate: func(c *Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET"},
		{name: "bad pool size", mutate: func(c *Config) { c.DBMaxConns = 0 }, wantErr: "DB_MAX_CONNS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateForMigrate(t *testing.T) {
	assert.Error(t, Config{}.ValidateForMigrate())
	assert.NoError(t, Config{DatabaseURL: "postgres://x"}.ValidateForMigrate())
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is already set, even to "".
	require.NoError(t, os.Unsetenv("APP_PORT"))
	require.NoError(t, os.Unsetenv("JWT_SECRET"))
	t.Cleanup(func() {
		_ = os.Unsetenv("APP_PORT")
		_ = os.Unsetenv("JWT_SECRET")
	})

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=9090\nJWT_SECRET=from-file\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
}
