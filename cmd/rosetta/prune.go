package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"glossa-hq/rosetta/pkg/clock"
	"glossa-hq/rosetta/pkg/config"
	"glossa-hq/rosetta/pkg/retention"
	"glossa-hq/rosetta/pkg/storage"
	"glossa-hq/rosetta/pkg/telemetry/logging"
)

var pruneWatch bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stale usage snapshots",
	Long: `Delete usage snapshots older than the configured retention window.

Without --watch a single pruning pass runs and the command exits. With
--watch the command keeps running, pruning on the configured cron
schedule and reloading the configuration file when it changes. Stop it
with SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		store, err := newStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		if !pruneWatch {
			pruner := newPruner(store, cfg, logger)
			deleted, err := pruner.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Pruned %d stale snapshot(s)\n", deleted)
			return nil
		}

		return watchAndPrune(cmd.Context(), cfg, store, logger)
	},
}

func newPruner(store storage.Store, cfg *config.Config, logger *logging.Logger) *retention.Pruner {
	return retention.NewPruner(store, clock.System(), logger, retention.Config{
		RetentionDays: cfg.Retention.Days,
		Schedule:      cfg.Retention.Schedule,
	})
}

// watchAndPrune runs the retention scheduler until a shutdown signal,
// restarting it when the configuration file changes the retention
// settings.
func watchAndPrune(ctx context.Context, cfg *config.Config, store storage.Store, logger *logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	scheduler := retention.NewScheduler(newPruner(store, cfg, logger), logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	reloads := make(chan *config.Config, 1)
	if _, err := os.Stat(cfgFile); err == nil {
		watcher, err := config.NewWatcher(cfgFile, logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		go watcher.Watch(ctx, func(next *config.Config) {
			select {
			case reloads <- next:
			default:
			}
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case sig := <-sigChan:
			fmt.Printf("\nReceived signal %s, shutting down...\n", sig)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case next := <-reloads:
			if next.Retention == cfg.Retention {
				continue
			}
			logger.Info("retention settings changed, restarting scheduler",
				"days", next.Retention.Days,
				"schedule", next.Retention.Schedule,
			)
			scheduler.Stop()
			cfg = next
			scheduler = retention.NewScheduler(newPruner(store, cfg, logger), logger)
			if err := scheduler.Start(ctx); err != nil {
				return err
			}
		}
	}
}

func init() {
	pruneCmd.Flags().BoolVar(&pruneWatch, "watch", false, "keep running, pruning on the configured schedule")
	rootCmd.AddCommand(pruneCmd)
}
