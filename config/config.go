package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// HTTP listen address for the query + subscribe boundaries
	QuoteAddr string

	// Metrics/health server address
	MetricsAddr string

	// Mutation tick interval in milliseconds
	MutateIntervalMs int

	// Per-subscriber topic queue bound (batches)
	SubQueueSize int

	// Optional SQLite catalog path (built-in defaults when empty)
	CatalogSQLitePath string

	// Optional Redis latest-quote mirror (disabled when empty)
	RedisAddr     string
	RedisPassword string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		QuoteAddr:         getEnv("QUOTE_ADDR", ":8080"),
		MetricsAddr:       getEnv("METRICS_ADDR", ":9090"),
		MutateIntervalMs:  envIntOrDefault("MUTATE_INTERVAL_MS", 2000),
		SubQueueSize:      envIntOrDefault("SUB_QUEUE_SIZE", 16),
		CatalogSQLitePath: getEnv("CATALOG_SQLITE_PATH", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
	}
}

// MutateInterval returns the tick interval as a duration.
func (c *Config) MutateInterval() time.Duration {
	return time.Duration(c.MutateIntervalMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("[config] ignoring invalid %s value: %q", key, v)
	}
	return def
}
