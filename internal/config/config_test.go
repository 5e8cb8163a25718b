package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, "localhost:7233", cfg.TemporalAddress)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "delivery-files", cfg.BlobBucket)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CORE_DATABASE_URL", "postgres://localhost/delivery")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/delivery", cfg.CoreDatabaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate("console-api"))
	assert.Error(t, cfg.Validate("worker"))
	assert.Error(t, cfg.Validate("nonsense"))

	cfg.CoreDatabaseURL = "postgres://localhost/delivery"
	cfg.BlobEndpoint = "http://localhost:9000"
	cfg.TemporalAddress = "localhost:7233"
	assert.NoError(t, cfg.Validate("console-api"))
	assert.NoError(t, cfg.Validate("worker"))
}
