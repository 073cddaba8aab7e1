package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, applies
// ROSETTA_* environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse parses YAML bytes, applies defaults and env overrides, and
// validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides applies ROSETTA_SECTION_FIELD environment variables
// over the loaded configuration.
func applyEnvOverrides(cfg *Config) {
	overrideString("ROSETTA_STORE_BACKEND", &cfg.Store.Backend)
	overrideString("ROSETTA_STORE_PATH", &cfg.Store.Path)

	overrideFloat("ROSETTA_BUCKET_CAPACITY", &cfg.Bucket.Capacity)
	overrideFloat("ROSETTA_BUCKET_REFILL_RATE", &cfg.Bucket.RefillRate)

	overrideInt64("ROSETTA_QUOTA_DAILY_LIMIT", &cfg.Quota.DailyLimit)

	overrideString("ROSETTA_IDENTITY_MODE", &cfg.Identity.Mode)
	overrideString("ROSETTA_IDENTITY_TOKEN_ENV", &cfg.Identity.TokenEnv)

	overrideInt("ROSETTA_RETENTION_DAYS", &cfg.Retention.Days)
	overrideString("ROSETTA_RETENTION_SCHEDULE", &cfg.Retention.Schedule)

	overrideString("ROSETTA_LOGGING_LEVEL", &cfg.Logging.Level)
	overrideString("ROSETTA_LOGGING_FORMAT", &cfg.Logging.Format)
}

func overrideString(name string, target *string) {
	if value := os.Getenv(name); value != "" {
		*target = value
	}
}

func overrideFloat(name string, target *float64) {
	if value := os.Getenv(name); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideInt64(name string, target *int64) {
	if value := os.Getenv(name); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideInt(name string, target *int) {
	if value := os.Getenv(name); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}
