// Package retention prunes stale usage snapshots from the store.
//
// The ledger never deletes anything: a snapshot for an old day is simply
// ignored on read. Over time a store shared by many identities
// accumulates dead snapshots, so the pruner deletes those older than the
// retention window, either on demand or on a cron schedule.
package retention

import (
	"context"
	"fmt"

	"glossa-hq/rosetta/pkg/admission/ledger"
	"glossa-hq/rosetta/pkg/clock"
	"glossa-hq/rosetta/pkg/storage"
	"glossa-hq/rosetta/pkg/telemetry/logging"
)

// Config configures snapshot pruning.
type Config struct {
	// RetentionDays is how many days of snapshots to keep. Zero
	// disables pruning.
	RetentionDays int

	// Schedule is a cron expression for scheduled pruning. Empty means
	// on-demand only.
	Schedule string
}

// Pruner deletes usage snapshots older than the retention window.
type Pruner struct {
	store  storage.Store
	clk    clock.Clock
	logger *logging.Logger
	config Config
}

// NewPruner creates a Pruner over the given store.
func NewPruner(store storage.Store, clk clock.Clock, logger *logging.Logger, config Config) *Pruner {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Pruner{
		store:  store,
		clk:    clk,
		logger: logger.With("component", "retention"),
		config: config,
	}
}

// Prune deletes snapshots whose recorded day is older than the
// retention window. Returns the number of snapshots deleted.
//
// Malformed snapshots are deleted too: they read as zero usage anyway,
// so removing them loses nothing and keeps the store clean.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	if p.config.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := p.clk.Now().UTC().AddDate(0, 0, -p.config.RetentionDays)

	keys, err := p.store.Keys(ctx, ledger.StoreKeyPrefix())
	if err != nil {
		return 0, fmt.Errorf("failed to list usage snapshots: %w", err)
	}

	deleted := 0
	for _, key := range keys {
		data, ok, err := p.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}

		stale := false
		snapshot, err := ledger.DecodeStored(data)
		if err != nil {
			stale = true
		} else if day, derr := ledger.ParseDay(snapshot.Day); derr != nil || day.Before(cutoff) {
			stale = true
		}

		if !stale {
			continue
		}

		if err := p.store.Delete(ctx, key); err != nil {
			p.logger.Warn("failed to prune snapshot", "key", key, "error", err.Error())
			continue
		}
		deleted++
	}

	if deleted > 0 {
		p.logger.Info("pruned stale usage snapshots",
			"deleted", deleted,
			"retention_days", p.config.RetentionDays,
		)
	}
	return deleted, nil
}
