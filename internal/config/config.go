// Package config reads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Ledger backends.
const (
	LedgerMemory = "memory"
	LedgerRedis  = "redis"
)

type Config struct {
	Port     int
	Store    string
	DBPath   string
	SeedPath string
	Postgres PostgresConfig
	Ledger   string
	Redis    RedisConfig
}

type PostgresConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	PingAttempts int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Load reads envFile if it exists, then builds a Config from the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		} else if err == nil {
			slog.Debug("Loaded env file", "path", envFile)
		}
	}

	cfg := &Config{
		Port:     getEnvInt("PORT", 8080),
		Store:    strings.ToLower(getEnv("STORE", StoreSQLite)),
		DBPath:   getEnv("DB_PATH", "./data/treasures.db"),
		SeedPath: getEnv("SEED_PATH", ""),
		Postgres: PostgresConfig{
			URL:          getEnv("DATABASE_URL", ""),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
			PingAttempts: getEnvInt("DB_PING_ATTEMPTS", 5),
		},
		Ledger: strings.ToLower(getEnv("LEDGER", LedgerMemory)),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "treasurehunt"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backends are known and fully configured.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Port)
	}
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("DB_PATH is required for the sqlite store")
		}
	case StorePostgres:
		if c.Postgres.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	switch c.Ledger {
	case LedgerMemory:
	case LedgerRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required for the redis ledger")
		}
	default:
		return fmt.Errorf("unknown LEDGER %q", c.Ledger)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		i, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return i
		}
		slog.Warn("Ignoring non-integer env var", "key", key, "value", value)
	}
	return fallback
}
