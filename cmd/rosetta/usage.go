package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show today's quota usage",
	Long: `Show today's character quota usage for the tracking identity the
current configuration resolves to. The quota resets at UTC midnight.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		gate, store, err := newGate(cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		stats := gate.Stats(ctx)
		id := gate.Identity()

		status := "normal"
		if stats.Critical {
			status = "critical"
		} else if stats.NearLimit {
			status = "warning"
		}

		fmt.Printf("Identity:     %s (%s)\n", id.Key, id.Kind)
		if id.Degraded {
			fmt.Println("              (degraded: weak identity transform in use)")
		}
		fmt.Printf("Used:         %d / %d chars (%.1f%%)\n",
			stats.CharsUsed, cfg.Quota.DailyLimit, stats.PercentUsed*100)
		fmt.Printf("Remaining:    %d chars\n", stats.CharsRemaining)
		fmt.Printf("Requests:     %d\n", stats.RequestCount)
		fmt.Printf("Status:       %s\n", status)
		fmt.Printf("Quota resets: %s (next UTC midnight)\n", gate.TimeUntilReset().Round(time.Second))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
}
