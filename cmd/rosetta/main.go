// Rosetta is a client-side admission layer for a shared, rate-limited
// translation service.
//
// It decides, for every character-bearing request a consumer wants to
// make, whether the request may proceed now, must wait, or must be
// rejected: a token bucket smooths bursts of outgoing calls while a
// day-scoped ledger enforces a rolling character quota per tracking
// identity.
//
// Usage:
//
//	# Show today's usage for the resolved identity
//	rosetta usage
//
//	# Dry-run a batch admission check
//	rosetta check --chars 1200,800,400
//
//	# Prune stale usage snapshots once
//	rosetta prune
//
//	# Keep pruning on the configured cron schedule
//	rosetta prune --watch
//
//	# Show version information
//	rosetta version
package main

func main() {
	Execute()
}
