// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"stockerp/internal/core/numerator"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config is the resolved server configuration.
type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	Storage        string
	DatabaseURL    string
	DBMaxConns     int
	MigrationsAuto bool

	JWTSecret     string
	JWTTTL        time.Duration
	AllAccessRole string

	// RedisURL enables the Redis alert cache, change feed and document lock when set.
	RedisURL      string
	AlertCacheTTL time.Duration

	NumeratorStrategy numerator.Strategy
	NumeratorRange    int64
}

// Development reports whether the server runs in development mode.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Load reads an optional .env file, then the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(), nil
}

// FromEnv builds the configuration from environment variables.
// Callers validate the result for their use with Validate or ValidateForMigrate.
func FromEnv() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		Port:     getEnv("APP_PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Storage:        strings.ToLower(getEnv("STORAGE", StorageMemory)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 20),
		MigrationsAuto: getEnvBool("MIGRATIONS_AUTO", false),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        getEnvDuration("JWT_TTL", 15*time.Minute),
		AllAccessRole: getEnv("ALL_ACCESS_ROLE", "Z_ALL"),

		RedisURL:      os.Getenv("REDIS_URL"),
		AlertCacheTTL: getEnvDuration("ALERT_CACHE_TTL", 5*time.Minute),

		NumeratorStrategy: numerator.ParseStrategy(getEnv("NUMERATOR_STRATEGY", "strict")),
		NumeratorRange:    int64(getEnvInt("NUMERATOR_RANGE", 50)),
	}
}

// Validate checks required settings.
func (c Config) Validate() error {
	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORAGE=postgres")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q (want memory or postgres)", c.Storage)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive, got %d", c.DBMaxConns)
	}
	return nil
}

// ValidateForMigrate checks the settings the migrate command needs.
func (c Config) ValidateForMigrate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
