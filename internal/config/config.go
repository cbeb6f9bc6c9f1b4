// Package config loads the ambient settings for a process embedding
// the anvil engine: where diagnostic logs go and how they rotate, and
// the size limit the engine enforces on chunk payloads it writes.
// Nothing in the region/provider API requires it; it exists for
// cmd-style callers that want a single config file instead of wiring
// options by hand.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig controls where diagnostic output goes.
type LoggingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	FilePath   string `mapstructure:"file_path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// LimitsConfig bounds how large a single chunk payload the engine will
// accept, in bytes. It can only tighten the format's 1 MiB hard cap,
// never loosen it.
type LimitsConfig struct {
	MaxChunkBytes int `mapstructure:"max_chunk_bytes"`
}

// Config is the top-level settings document.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Limits  LimitsConfig  `mapstructure:"limits"`
}

// Load reads a "config.yaml" from configDir if given, falling back to
// the current directory, layering ANVIL_-prefixed environment
// variables on top, and finally applying defaults for anything left
// unset. A missing config file is not an error; Load proceeds with
// defaults and environment overrides alone.
func Load(configDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("anvil")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.max_size_mb", 100)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("logging.compress", true)

	v.SetDefault("limits.max_chunk_bytes", 1048576)
}

func validateConfig(cfg *Config) error {
	if cfg.Logging.Enabled && cfg.Logging.FilePath == "" {
		return fmt.Errorf("config: logging.file_path is required when logging.enabled is true")
	}
	if cfg.Limits.MaxChunkBytes <= 0 || cfg.Limits.MaxChunkBytes > 1048576 {
		return fmt.Errorf("config: limits.max_chunk_bytes must be in (0, 1048576]")
	}
	return nil
}
