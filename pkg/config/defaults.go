package config

// Default values for configuration fields. The bucket and quota numbers
// are the shared translation service's published limits.
const (
	DefaultStoreBackend = "sqlite"
	DefaultStorePath    = "data/rosetta.db"

	DefaultBucketCapacity   = 10.0
	DefaultBucketRefillRate = 2.0

	DefaultDailyLimit = 45000

	DefaultIdentityMode     = "auto"
	DefaultIdentityTokenEnv = "ROSETTA_IDENTITY_TOKEN"

	DefaultRetentionDays     = 30
	DefaultRetentionSchedule = "0 4 * * *"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// ApplyDefaults fills unset fields with their default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = DefaultStorePath
	}

	if cfg.Bucket.Capacity == 0 {
		cfg.Bucket.Capacity = DefaultBucketCapacity
	}
	if cfg.Bucket.RefillRate == 0 {
		cfg.Bucket.RefillRate = DefaultBucketRefillRate
	}

	if cfg.Quota.DailyLimit == 0 {
		cfg.Quota.DailyLimit = DefaultDailyLimit
	}

	if cfg.Identity.Mode == "" {
		cfg.Identity.Mode = DefaultIdentityMode
	}
	if cfg.Identity.TokenEnv == "" {
		cfg.Identity.TokenEnv = DefaultIdentityTokenEnv
	}

	if cfg.Retention.Days == 0 {
		cfg.Retention.Days = DefaultRetentionDays
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
