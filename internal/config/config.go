// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fieldsense/ndvistore/internal/domain"
)

type Config struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	MongoURI       string   `mapstructure:"mongo_uri"`
	MongoDatabase  string   `mapstructure:"mongo_database"`
	OwnerScopeMode string   `mapstructure:"owner_scope_mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	LogLevel       string   `mapstructure:"log_level"`
	LogFile        string   `mapstructure:"log_file"`
}

// Load reads configuration from NDVI_-prefixed environment variables,
// after loading a .env file if one is present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_database", "ndvistore")
	v.SetDefault("owner_scope_mode", string(domain.OwnerModeProperty))
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("max_upload_bytes", int64(50<<20))
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetEnvPrefix("NDVI")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if !domain.OwnerMode(cfg.OwnerScopeMode).Valid() {
		return nil, fmt.Errorf("invalid owner scope mode %q", cfg.OwnerScopeMode)
	}
	return cfg, nil
}

func (c *Config) OwnerMode() domain.OwnerMode {
	return domain.OwnerMode(c.OwnerScopeMode)
}
