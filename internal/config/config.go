package config

import (
	"fmt"
	"os"
)

type Config struct {
	ServiceName       string
	CoreDatabaseURL   string
	HTTPListenAddr    string
	MetricsListenAddr string
	TemporalAddress   string
	LogLevel          string

	// Blob storage for phase evidence files (S3-compatible).
	BlobEndpoint  string
	BlobRegion    string
	BlobBucket    string
	BlobAccessKey string
	BlobSecretKey string
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:       getEnv("SERVICE_NAME", "delivery"),
		CoreDatabaseURL:   getEnv("CORE_DATABASE_URL", ""),
		HTTPListenAddr:    getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsListenAddr: getEnv("METRICS_LISTEN_ADDR", ":9090"),
		TemporalAddress:   getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		BlobEndpoint:      getEnv("BLOB_ENDPOINT", ""),
		BlobRegion:        getEnv("BLOB_REGION", "us-east-1"),
		BlobBucket:        getEnv("BLOB_BUCKET", "delivery-files"),
		BlobAccessKey:     getEnv("BLOB_ACCESS_KEY", ""),
		BlobSecretKey:     getEnv("BLOB_SECRET_KEY", ""),
	}

	return cfg, nil
}

// Validate checks that the settings a given component needs are present.
func (c *Config) Validate(component string) error {
	switch component {
	case "console-api":
		if c.CoreDatabaseURL == "" {
			return fmt.Errorf("CORE_DATABASE_URL is required")
		}
		if c.BlobEndpoint == "" {
			return fmt.Errorf("BLOB_ENDPOINT is required")
		}
	case "worker":
		if c.CoreDatabaseURL == "" {
			return fmt.Errorf("CORE_DATABASE_URL is required")
		}
		if c.TemporalAddress == "" {
			return fmt.Errorf("TEMPORAL_ADDRESS is required")
		}
	default:
		return fmt.Errorf("unknown component %q", component)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
