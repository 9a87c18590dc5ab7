package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"catalog-feed-service/fetcher"
)

// Config holds all configuration for the catalog feed service.
type Config struct {
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	// How often registered feeds are re-ingested.
	RefreshInterval time.Duration
	// Per-feed download timeout.
	FetchTimeout time.Duration
	// How long finished progress cells stay visible to late pollers.
	ProgressRetention time.Duration
	// Size cap for downloaded feeds and interactive uploads.
	UploadMaxBytes int64
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "8095"),
		PostgresUser:      os.Getenv("POSTGRES_USER"),
		PostgresPassword:  os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:        os.Getenv("POSTGRES_DB"),
		PostgresHost:      os.Getenv("POSTGRES_HOST"),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:   getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone:  getEnv("POSTGRES_TIMEZONE", "Europe/Istanbul"),
		RefreshInterval:   getEnvDuration("FEED_REFRESH_INTERVAL", 12*time.Hour),
		FetchTimeout:      getEnvDuration("FEED_FETCH_TIMEOUT", 30*time.Second),
		ProgressRetention: getEnvDuration("FEED_PROGRESS_RETENTION", 5*time.Second),
		UploadMaxBytes:    getEnvInt64("FEED_UPLOAD_MAX_BYTES", fetcher.MaxBodyBytes),
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
