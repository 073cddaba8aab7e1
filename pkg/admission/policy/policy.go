package policy

import (
	"context"
	"fmt"
	"time"

	"glossa-hq/rosetta/pkg/admission/ledger"
	"glossa-hq/rosetta/pkg/clock"
)

// Classification thresholds, fixed configuration constants.
const (
	// WarningThreshold is the usage fraction at which admission is
	// flagged as approaching the quota.
	WarningThreshold = 0.80

	// CriticalThreshold is the usage fraction at which admission is
	// flagged as near exhaustion.
	CriticalThreshold = 0.95
)

// Level classifies how close usage is to the daily quota.
type Level string

const (
	// LevelNormal is usage below the warning threshold.
	LevelNormal Level = "normal"

	// LevelWarning is usage at or above 80% but below 95%.
	LevelWarning Level = "warning"

	// LevelCritical is usage at or above 95%.
	LevelCritical Level = "critical"
)

// Decision is the outcome of evaluating a proposed batch against the
// remaining quota. Rejection is an expected, frequent outcome and is
// never surfaced as an error.
type Decision struct {
	// Allowed indicates whether the batch may proceed.
	Allowed bool

	// Reason explains a rejection (empty when allowed).
	Reason string

	// Level classifies the projected usage when allowed, or the
	// current usage when rejected.
	Level Level

	// TotalChars is the summed size of the batch.
	TotalChars int64

	// ProjectedPercent is (used + total) over the daily limit.
	ProjectedPercent float64

	// Remaining is the quota left before this batch.
	Remaining int64
}

// Policy layers admission decisions and threshold classification on top
// of a usage ledger. It is stateless: every decision reads the ledger
// once and never touches the store itself.
type Policy struct {
	ledger *ledger.Ledger
	clk    clock.Clock
}

// New creates a Policy over the given ledger.
func New(l *ledger.Ledger, clk clock.Clock) *Policy {
	if clk == nil {
		clk = clock.System()
	}
	return &Policy{ledger: l, clk: clk}
}

// Classify maps a usage fraction to its threshold level.
func Classify(percentUsed float64) Level {
	switch {
	case percentUsed >= CriticalThreshold:
		return LevelCritical
	case percentUsed >= WarningThreshold:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// ValidateBatch decides whether a batch of per-item character counts may
// proceed as a whole.
//
// The decision is atomic with respect to the ledger read: either the
// entire batch fits the remaining quota and is admitted, or the batch is
// rejected with no partial admission and no mutation. An admitted batch
// carries the classification of the projected usage; critical admission
// still admits, it only flags near-exhaustion.
//
// An empty batch is trivially admitted.
func (p *Policy) ValidateBatch(ctx context.Context, characterCounts []int) Decision {
	var total int64
	for _, n := range characterCounts {
		if n < 0 {
			panic(fmt.Sprintf("policy: character count must be non-negative, got %d", n))
		}
		total += int64(n)
	}

	stats := p.ledger.Stats(ctx)
	limit := p.ledger.DailyLimit()

	if total == 0 {
		return Decision{
			Allowed:          true,
			Level:            Classify(stats.PercentUsed),
			ProjectedPercent: stats.PercentUsed,
			Remaining:        stats.CharsRemaining,
		}
	}

	if stats.CharsUsed+total > limit {
		return Decision{
			Allowed:          false,
			Reason:           fmt.Sprintf("batch of %d characters would exceed remaining quota of %d", total, stats.CharsRemaining),
			Level:            Classify(stats.PercentUsed),
			TotalChars:       total,
			ProjectedPercent: float64(stats.CharsUsed+total) / float64(limit),
			Remaining:        stats.CharsRemaining,
		}
	}

	projected := float64(stats.CharsUsed+total) / float64(limit)
	return Decision{
		Allowed:          true,
		Level:            Classify(projected),
		TotalChars:       total,
		ProjectedPercent: projected,
		Remaining:        stats.CharsRemaining,
	}
}

// TimeUntilReset returns the duration until the next UTC midnight, when
// the daily quota rolls over. Pure function of the clock.
func (p *Policy) TimeUntilReset() time.Duration {
	now := p.clk.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
	return midnight.Sub(now)
}
