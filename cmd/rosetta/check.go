package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var checkChars string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Dry-run a batch admission check",
	Long: `Check whether a batch of requests would be admitted against today's
quota without recording any usage.

The --chars flag takes the per-request character counts as a
comma-separated list. The whole batch is judged at once: if the total
would exceed the daily limit, every request is rejected.`,
	Example: `  rosetta check --chars 1200,800,400`,
	RunE: func(cmd *cobra.Command, args []string) error {
		counts, err := parseCharCounts(checkChars)
		if err != nil {
			return err
		}

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

		decision := gate.Admit(cmd.Context(), counts)

		if decision.Allowed {
			fmt.Printf("ADMITTED  %d request(s), %d chars\n", len(counts), decision.TotalChars)
			fmt.Printf("Projected usage: %.1f%% (%s)\n", decision.ProjectedPercent*100, decision.Level)
		} else {
			fmt.Printf("REJECTED  %d request(s), %d chars\n", len(counts), decision.TotalChars)
			fmt.Printf("Reason: %s\n", decision.Reason)
			fmt.Printf("Remaining today: %d chars\n", decision.Remaining)
			fmt.Printf("Quota resets in: %s\n", gate.TimeUntilReset().Round(time.Second))
		}
		return nil
	},
}

// parseCharCounts parses a comma-separated list of non-negative
// character counts.
func parseCharCounts(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("--chars is required (comma-separated character counts)")
	}

	parts := strings.Split(raw, ",")
	counts := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid character count %q: %w", part, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("character count must be non-negative, got %d", n)
		}
		counts = append(counts, n)
	}
	return counts, nil
}

func init() {
	checkCmd.Flags().StringVar(&checkChars, "chars", "", "comma-separated per-request character counts")
	checkCmd.MarkFlagRequired("chars")
	rootCmd.AddCommand(checkCmd)
}
