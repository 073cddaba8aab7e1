package storage

import "context"

// Store defines the durable snapshot store the admission layer persists
// through. Keys are opaque strings, values are opaque byte slices.
//
// The contract is deliberately minimal: no transactions, no TTL, no
// conditional writes. Each ledger read-then-write is a separate round
// trip; concurrent writers to the same key are last-write-wins. The
// admission layer assumes a single active consumer per tracking key and
// documents that as a precondition rather than solving it here.
//
// Implementations must be safe for concurrent use from multiple
// goroutines within one process.
type Store interface {
	// Get retrieves the value for a key. The second return is false
	// when the key is absent; absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set writes the value for a key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys with the given prefix, in no particular
	// order. An empty prefix returns every key.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases resources held by the store. The store must not
	// be used after Close.
	Close() error
}
