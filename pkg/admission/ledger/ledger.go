package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"glossa-hq/rosetta/pkg/clock"
	"glossa-hq/rosetta/pkg/storage"
	"glossa-hq/rosetta/pkg/telemetry/logging"
)

var errMalformedSnapshot = errors.New("malformed usage snapshot")

// keyPrefix namespaces usage snapshots in the store. One key per
// tracking identity; the day lives inside the snapshot, not the key.
const keyPrefix = "usage/"

// Ledger is the authoritative, persisted accounting of characters
// consumed today under the active tracking identity.
//
// The store is the source of truth: every operation reads the current
// snapshot, and any snapshot whose recorded day differs from today (UTC)
// is treated as absent. Day rollover is therefore implicit; there is no
// scheduled reset.
//
// Accounting is best-effort. Store failures fall back to a synthesized
// zero snapshot on read and are logged and swallowed on write: a dropped
// write under-counts usage rather than blocking the consumer.
type Ledger struct {
	store      storage.Store
	clk        clock.Clock
	logger     *logging.Logger
	dailyLimit int64

	mu       sync.Mutex
	identity string
}

// New creates a Ledger enforcing the given daily character limit under
// the given tracking identity.
//
// Panics if dailyLimit is not positive or identity is empty; both are
// fixed at consumer startup and a bad value is a programmer error.
func New(store storage.Store, clk clock.Clock, logger *logging.Logger, dailyLimit int64, identity string) *Ledger {
	if dailyLimit <= 0 {
		panic(fmt.Sprintf("ledger: daily limit must be positive, got %d", dailyLimit))
	}
	if identity == "" {
		panic("ledger: identity cannot be empty")
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &Ledger{
		store:      store,
		clk:        clk,
		logger:     logger.With("component", "ledger"),
		dailyLimit: dailyLimit,
		identity:   identity,
	}
}

// Stats reports usage accumulated today under the active identity.
type Stats struct {
	// CharsUsed is the cumulative character count for today.
	CharsUsed int64

	// CharsRemaining is the quota left today, floored at zero.
	CharsRemaining int64

	// PercentUsed is CharsUsed over the daily limit (0.0-1.0+).
	PercentUsed float64

	// RequestCount is the number of recordings today.
	RequestCount int64

	// NearLimit is true at or above 80% of the daily limit.
	NearLimit bool

	// Critical is true at or above 95% of the daily limit.
	Critical bool
}

// Thresholds for Stats classification. These mirror the policy package
// constants; the ledger carries them so Stats is self-contained.
const (
	nearLimitThreshold = 0.80
	criticalThreshold  = 0.95
)

// RecordUsage adds charCount characters to today's snapshot and
// persists it. A failed store write is logged, not returned.
//
// Panics if charCount is negative.
func (l *Ledger) RecordUsage(ctx context.Context, charCount int64) {
	if charCount < 0 {
		panic(fmt.Sprintf("ledger: character count must be non-negative, got %d", charCount))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.loadTodayLocked(ctx)
	snapshot.CharsUsed += charCount
	snapshot.RequestCount++
	snapshot.LastUpdated = l.clk.Now().UTC()

	l.persistLocked(ctx, snapshot)
}

// CanUseChars reports whether charCount more characters fit within
// today's remaining quota. Pure read, no mutation.
func (l *Ledger) CanUseChars(ctx context.Context, charCount int64) bool {
	if charCount < 0 {
		panic(fmt.Sprintf("ledger: character count must be non-negative, got %d", charCount))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.loadTodayLocked(ctx)
	return snapshot.CharsUsed+charCount <= l.dailyLimit
}

// Stats returns today's usage statistics under the active identity.
func (l *Ledger) Stats(ctx context.Context) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := l.loadTodayLocked(ctx)

	remaining := l.dailyLimit - snapshot.CharsUsed
	if remaining < 0 {
		remaining = 0
	}
	percent := float64(snapshot.CharsUsed) / float64(l.dailyLimit)

	return Stats{
		CharsUsed:      snapshot.CharsUsed,
		CharsRemaining: remaining,
		PercentUsed:    percent,
		RequestCount:   snapshot.RequestCount,
		NearLimit:      percent >= nearLimitThreshold,
		Critical:       percent >= criticalThreshold,
	}
}

// DailyLimit returns the configured daily character limit.
func (l *Ledger) DailyLimit() int64 {
	return l.dailyLimit
}

// Identity returns the active tracking identity.
func (l *Ledger) Identity() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.identity
}

// SetIdentity switches the active tracking identity. Subsequent
// operations target the new identity's snapshot; no usage is migrated
// between identities.
func (l *Ledger) SetIdentity(identity string) {
	if identity == "" {
		panic("ledger: identity cannot be empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.identity = identity
}

// Reset force-writes a zero snapshot for today under the active
// identity. Administrative and test use only.
func (l *Ledger) Reset(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now().UTC()
	l.persistLocked(ctx, &Snapshot{
		Day:         DayKey(now),
		LastUpdated: now,
		Identity:    l.identity,
	})
}

// loadTodayLocked returns today's snapshot, synthesizing a zero snapshot
// when the stored one is absent, stale, or malformed. The synthesized
// snapshot is not persisted until the next write. Caller must hold the
// lock.
func (l *Ledger) loadTodayLocked(ctx context.Context) *Snapshot {
	today := DayKey(l.clk.Now())

	fresh := &Snapshot{
		Day:      today,
		Identity: l.identity,
	}

	data, ok, err := l.store.Get(ctx, l.storeKeyLocked())
	if err != nil {
		l.logger.Warn("usage snapshot read failed, assuming zero usage",
			"identity", l.identity, "error", err.Error())
		return fresh
	}
	if !ok {
		return fresh
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		l.logger.Warn("usage snapshot malformed, assuming zero usage",
			"identity", l.identity, "error", err.Error())
		return fresh
	}

	if snapshot.Day != today {
		// Day rollover: yesterday's snapshot is logically absent.
		return fresh
	}

	return snapshot
}

// persistLocked writes a snapshot, swallowing store failures.
// Caller must hold the lock.
func (l *Ledger) persistLocked(ctx context.Context, snapshot *Snapshot) {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		l.logger.Error("usage snapshot encode failed",
			"identity", l.identity, "error", err.Error())
		return
	}

	if err := l.store.Set(ctx, l.storeKeyLocked(), data); err != nil {
		l.logger.Warn("usage snapshot write failed, usage may under-count",
			"identity", l.identity, "error", err.Error())
	}
}

func (l *Ledger) storeKeyLocked() string {
	return keyPrefix + l.identity
}

// StoreKeyPrefix returns the namespace usage snapshots are stored under.
// The retention pruner uses it to enumerate snapshots.
func StoreKeyPrefix() string {
	return keyPrefix
}

// DecodeStored parses snapshot bytes read directly from the store.
// Exposed for retention pruning and diagnostics.
func DecodeStored(data []byte) (*Snapshot, error) {
	return decodeSnapshot(data)
}
