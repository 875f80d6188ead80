// Package config loads service configuration from the environment.
// Values come from (highest to lowest priority): command-line flags
// applied by cmd, process environment, a .env file, defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Jobs     JobsConfig

	// CatalogPath is a catalog YAML file; empty uses the built-in catalog.
	CatalogPath string
	LogLevel    slog.Level
}

type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

type StoreConfig struct {
	Backend string // sqlite or file
	Path    string // database file or directory; empty resolves the default
}

type RedisConfig struct {
	URL string // empty disables the leaderboard cache
}

type RabbitMQConfig struct {
	URI      string // empty disables event publishing
	Exchange string
}

type JobsConfig struct {
	BackupKeep      int
	PruneInterval   time.Duration
	ReviewScanEvery time.Duration
	WarmInterval    time.Duration // leaderboard cache refresh; used only with Redis
}

// Load reads the given .env files (default ".env"; missing files are
// ignored) and builds the configuration from the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables already set in the process.
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	level, err := parseLevel(getEnv("PYLEARN_LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:         getEnv("PYLEARN_ADDR", ":8080"),
			ReadTimeout:  getEnvAsDuration("PYLEARN_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("PYLEARN_WRITE_TIMEOUT", 15*time.Second),
			CORSOrigins:  getEnvAsList("PYLEARN_CORS_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Backend: getEnv("PYLEARN_STORE", "sqlite"),
			Path:    getEnv("PYLEARN_DB", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		RabbitMQ: RabbitMQConfig{
			URI:      getEnv("RABBITMQ_URI", ""),
			Exchange: getEnv("RABBITMQ_EXCHANGE", "pylearn.events"),
		},
		Jobs: JobsConfig{
			BackupKeep:      getEnvAsInt("PYLEARN_BACKUP_KEEP", 10),
			PruneInterval:   getEnvAsDuration("PYLEARN_PRUNE_INTERVAL", time.Hour),
			ReviewScanEvery: getEnvAsDuration("PYLEARN_REVIEW_SCAN_INTERVAL", 15*time.Minute),
			WarmInterval:    getEnvAsDuration("PYLEARN_LEADERBOARD_WARM_INTERVAL", 5*time.Minute),
		},
		CatalogPath: getEnv("PYLEARN_CATALOG", ""),
		LogLevel:    level,
	}
	return cfg, cfg.Validate()
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "sqlite", "file":
	default:
		return fmt.Errorf("PYLEARN_STORE: unknown backend %q (want sqlite or file)", c.Store.Backend)
	}
	if c.Jobs.BackupKeep < 1 {
		return fmt.Errorf("PYLEARN_BACKUP_KEEP must be >= 1, got %d", c.Jobs.BackupKeep)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("PYLEARN_LOG_LEVEL: %w", err)
	}
	return l, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", s, "default", defaultValue)
		return defaultValue
	}
	return v
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", s, "default", defaultValue)
		return defaultValue
	}
	return v
}

func getEnvAsList(key string, defaultValue []string) []string {
	s := getEnv(key, "")
	if s == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
