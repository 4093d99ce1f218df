package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsense/ndvistore/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "ndvistore", cfg.MongoDatabase)
	assert.Equal(t, domain.OwnerModeProperty, cfg.OwnerMode())
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("NDVI_LISTEN_ADDR", ":9090")
	t.Setenv("NDVI_MONGO_DATABASE", "ndvi_staging")
	t.Setenv("NDVI_OWNER_SCOPE_MODE", "user")
	t.Setenv("NDVI_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "ndvi_staging", cfg.MongoDatabase)
	assert.Equal(t, domain.OwnerModeUser, cfg.OwnerMode())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsUnknownOwnerMode(t *testing.T) {
	t.Setenv("NDVI_OWNER_SCOPE_MODE", "tenant")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner scope mode")
}
