package admission

import (
	"context"
	"fmt"
	"time"

	"glossa-hq/rosetta/pkg/admission/identity"
	"glossa-hq/rosetta/pkg/admission/ledger"
	"glossa-hq/rosetta/pkg/admission/policy"
	"glossa-hq/rosetta/pkg/admission/ratelimit"
	"glossa-hq/rosetta/pkg/clock"
	"glossa-hq/rosetta/pkg/storage"
	"glossa-hq/rosetta/pkg/telemetry/logging"
)

// Limits are the admission constants, fixed at construction.
type Limits struct {
	// BucketCapacity is the burst ceiling in requests.
	BucketCapacity float64

	// RefillRate is the sustained request rate in requests per second.
	RefillRate float64

	// DailyLimit is the character quota per UTC calendar day.
	DailyLimit int64
}

// DefaultLimits are the limits of the shared translation service this
// layer fronts.
var DefaultLimits = Limits{
	BucketCapacity: 10,
	RefillRate:     2,
	DailyLimit:     45000,
}

// Config assembles a Gate's collaborators. Store is required; everything
// else has a usable default.
type Config struct {
	// Store persists usage snapshots and the device identifier.
	Store storage.Store

	// Clock is the time source. Default: the system clock.
	Clock clock.Clock

	// Logger receives operational events. Default: discard.
	Logger *logging.Logger

	// Limits are the admission constants. Zero value means DefaultLimits.
	Limits Limits

	// TokenSource optionally supplies a caller token for pseudonymous
	// tracking. Nil means device-scoped tracking.
	TokenSource identity.TokenSource

	// Transform derives tracking keys from tokens. Default: SHA-256.
	Transform identity.Transform

	// Metrics receives Prometheus observations. Nil disables metrics.
	Metrics *Metrics
}

// Gate is the consumer-facing facade of the admission layer.
//
// One Gate is constructed per consumer session: it resolves the tracking
// identity once, then pairs a token bucket (burst pacing) with a usage
// ledger and quota policy (daily character quota). Callers ask Admit
// before a batch, pace each call through Throttle, and report consumed
// characters through RecordUsage.
//
// Construct gates explicitly and pass them where needed; there is no
// process-wide default instance, so tests can run independent gates in
// parallel.
type Gate struct {
	bucket   *ratelimit.Bucket
	ledger   *ledger.Ledger
	policy   *policy.Policy
	identity identity.Identity
	limits   Limits
	clk      clock.Clock
	logger   *logging.Logger
	metrics  *Metrics
}

// New creates a Gate, resolving the tracking identity for this session.
func New(cfg Config) (*Gate, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("admission: store is required")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.System()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	limits := cfg.Limits
	if limits == (Limits{}) {
		limits = DefaultLimits
	}
	if limits.BucketCapacity <= 0 || limits.RefillRate <= 0 || limits.DailyLimit <= 0 {
		return nil, fmt.Errorf("admission: limits must be positive, got %+v", limits)
	}

	resolver := identity.NewResolver(cfg.TokenSource, cfg.Transform, cfg.Store, logger)
	resolved := resolver.Resolve(context.Background())

	logger.Info("admission gate ready",
		"identity_kind", string(resolved.Kind),
		"identity", resolved.Key,
		"degraded", resolved.Degraded,
		"daily_limit", limits.DailyLimit,
	)

	l := ledger.New(cfg.Store, clk, logger, limits.DailyLimit, resolved.Key)

	return &Gate{
		bucket:   ratelimit.NewBucket(limits.BucketCapacity, limits.RefillRate, clk),
		ledger:   l,
		policy:   policy.New(l, clk),
		identity: resolved,
		limits:   limits,
		clk:      clk,
		logger:   logger,
		metrics:  cfg.Metrics,
	}, nil
}

// Admit decides whether a batch of per-item character counts may
// proceed. Rejection is a decision, not an error; nothing is mutated
// either way.
func (g *Gate) Admit(ctx context.Context, characterCounts []int) policy.Decision {
	decision := g.policy.ValidateBatch(ctx, characterCounts)

	if g.metrics != nil {
		g.metrics.RecordAdmission(decision.Allowed, string(decision.Level))
	}

	if !decision.Allowed {
		g.logger.Info("batch rejected",
			"total_chars", decision.TotalChars,
			"remaining", decision.Remaining,
			"reason", decision.Reason,
		)
	} else if decision.Level != policy.LevelNormal {
		g.logger.Warn("batch admitted near quota",
			"total_chars", decision.TotalChars,
			"level", string(decision.Level),
			"projected_percent", decision.ProjectedPercent,
		)
	}

	return decision
}

// Throttle consumes one bucket token per outgoing call, suspending the
// caller while the bucket refills. Call once before each network call of
// an admitted batch.
func (g *Gate) Throttle(ctx context.Context) error {
	start := g.clk.Now()
	if err := g.bucket.Consume(ctx, 1); err != nil {
		return err
	}

	if waited := g.clk.Now().Sub(start); waited > 0 {
		if g.metrics != nil {
			g.metrics.RecordThrottleWait(waited.Seconds())
		}
		g.logger.Debug("throttled", "waited", waited.String())
	}
	return nil
}

// RecordUsage charges charCount characters to today's quota after a
// successful call. Best-effort: storage failures are logged, never
// returned.
func (g *Gate) RecordUsage(ctx context.Context, charCount int64) {
	g.ledger.RecordUsage(ctx, charCount)

	if g.metrics != nil {
		g.metrics.RecordUsage(charCount, g.ledger.Stats(ctx).PercentUsed)
	}
}

// Stats returns today's usage statistics.
func (g *Gate) Stats(ctx context.Context) ledger.Stats {
	return g.ledger.Stats(ctx)
}

// TimeUntilReset returns the duration until the quota rolls over at the
// next UTC midnight.
func (g *Gate) TimeUntilReset() time.Duration {
	return g.policy.TimeUntilReset()
}

// Identity returns the tracking identity resolved for this session.
func (g *Gate) Identity() identity.Identity {
	return g.identity
}

// Bucket exposes the underlying token bucket for callers that need
// CanConsume or WaitTime introspection.
func (g *Gate) Bucket() *ratelimit.Bucket {
	return g.bucket
}

// Reset zeroes today's usage and refills the bucket. Administrative and
// test use only.
func (g *Gate) Reset(ctx context.Context) {
	g.ledger.Reset(ctx)
	g.bucket.Reset()
}
