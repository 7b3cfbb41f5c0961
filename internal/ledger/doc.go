// Package ledger persists the processing history that makes the pipeline
// idempotent across restarts and duplicate filesystem events.
//
// Entries are keyed by content identity and stored in SQLite. The table is
// bounded by the configured history cap: recording past the cap evicts the
// oldest entries by insertion order.
package ledger
