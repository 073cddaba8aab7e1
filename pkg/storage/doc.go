// Package storage provides the durable key-value snapshot store used to
// persist daily usage accounting across process restarts.
//
// Two backends are provided:
//
//   - Memory: in-process map, no persistence (tests, opt-out consumers)
//   - SQLite: single-file database with WAL mode (the default)
//
// The store is shared state: persisted bytes outlive any single process
// and are the source of truth for usage accounting. In-memory copies held
// by the ledger are caches invalidated by day rollover.
package storage
