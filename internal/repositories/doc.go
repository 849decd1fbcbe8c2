// Package repositories provides the persistence layer for the tracking
// engine: the artist roster, the tiered release cache, the permanent ISRC
// cross-reference cache, and the append-only run ledger.
//
// All repositories share one SQLite database (schema in
// internal/shared/sql). Writes on the fetch hot path are single-row
// INSERT OR REPLACE statements keyed by track id or ISRC, which keeps
// concurrent upserts from worker goroutines safe: the last writer wins and
// concurrent writers for the same key carry identical rows.
package repositories
