package main

import (
	"fmt"
	"os"
	"path/filepath"

	"glossa-hq/rosetta/pkg/admission"
	"glossa-hq/rosetta/pkg/admission/identity"
	"glossa-hq/rosetta/pkg/config"
	"glossa-hq/rosetta/pkg/storage"
	"glossa-hq/rosetta/pkg/telemetry/logging"
)

// loadConfig loads the configuration file named by --config. When the
// flag was left at its default and no file exists there, the built-in
// defaults are used so the CLI works without any setup.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) && cfgFile == "rosetta.yaml" {
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
	})
}

func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return storage.NewMemory(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Store.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create store directory: %w", err)
			}
		}
		return storage.NewSQLite(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newTokenSource(cfg *config.Config) (identity.TokenSource, error) {
	switch cfg.Identity.Mode {
	case "device":
		return nil, nil
	case "auto":
		return identity.EnvTokenSource(cfg.Identity.TokenEnv), nil
	case "token":
		if os.Getenv(cfg.Identity.TokenEnv) == "" {
			return nil, fmt.Errorf("identity mode %q requires %s to be set", cfg.Identity.Mode, cfg.Identity.TokenEnv)
		}
		return identity.EnvTokenSource(cfg.Identity.TokenEnv), nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Identity.Mode)
	}
}

// newGate assembles a Gate from the loaded configuration. The caller
// must Close the returned store.
func newGate(cfg *config.Config, logger *logging.Logger) (*admission.Gate, storage.Store, error) {
	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	source, err := newTokenSource(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	gate, err := admission.New(admission.Config{
		Store:       store,
		Logger:      logger,
		TokenSource: source,
		Limits: admission.Limits{
			BucketCapacity: cfg.Bucket.Capacity,
			RefillRate:     cfg.Bucket.RefillRate,
			DailyLimit:     cfg.Quota.DailyLimit,
		},
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return gate, store, nil
}
