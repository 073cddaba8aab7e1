// Package config loads and validates the rosetta configuration file.
//
// Configuration is YAML with environment-variable overrides in the form
// ROSETTA_SECTION_FIELD. The admission constants (bucket capacity,
// refill rate, daily limit) default to the shared translation service's
// published limits and are normally left alone.
package config

// Config is the root configuration structure.
type Config struct {
	// Store selects and configures the snapshot store backend.
	Store StoreConfig `yaml:"store"`

	// Bucket configures the token bucket pacing outgoing calls.
	Bucket BucketConfig `yaml:"bucket"`

	// Quota configures the daily character quota.
	Quota QuotaConfig `yaml:"quota"`

	// Identity configures how the tracking identity is resolved.
	Identity IdentityConfig `yaml:"identity"`

	// Retention configures pruning of stale usage snapshots.
	Retention RetentionConfig `yaml:"retention"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig selects the snapshot store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path.
	// Default: "data/rosetta.db"
	Path string `yaml:"path"`
}

// BucketConfig configures the token bucket.
type BucketConfig struct {
	// Capacity is the burst ceiling in requests.
	// Default: 10
	Capacity float64 `yaml:"capacity"`

	// RefillRate is the sustained rate in requests per second.
	// Default: 2
	RefillRate float64 `yaml:"refill_rate"`
}

// QuotaConfig configures the daily character quota. The warning and
// critical classification thresholds (80% and 95%) are fixed constants
// of the admission policy, not configuration.
type QuotaConfig struct {
	// DailyLimit is the character quota per UTC calendar day.
	// Default: 45000
	DailyLimit int64 `yaml:"daily_limit"`
}

// IdentityConfig configures tracking-identity resolution.
type IdentityConfig struct {
	// Mode is "auto" (token when available, device otherwise),
	// "device" (never read a token), or "token" (require TokenEnv).
	// Default: "auto"
	Mode string `yaml:"mode"`

	// TokenEnv names the environment variable holding the caller token.
	// Default: "ROSETTA_IDENTITY_TOKEN"
	TokenEnv string `yaml:"token_env"`
}

// RetentionConfig configures stale-snapshot pruning.
type RetentionConfig struct {
	// Days is how many days of snapshots to keep. Zero disables pruning.
	// Default: 30
	Days int `yaml:"days"`

	// Schedule is a cron expression for scheduled pruning.
	// Empty means prune only on demand.
	// Default: "0 4 * * *"
	Schedule string `yaml:"schedule"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "text"
	Format string `yaml:"format"`
}
