// Package ledger tracks daily character usage against a quota.
//
// Usage is accounted per UTC calendar day under a tracking identity (see
// the identity package). Snapshots are persisted through the storage
// package; the store outlives the process and is the source of truth.
//
// Precondition: exactly one active consumer per tracking identity. Two
// processes writing the same key race last-write-wins on the store and
// can under- or over-count; that is an accepted deployment constraint,
// not something the ledger coordinates around.
package ledger
