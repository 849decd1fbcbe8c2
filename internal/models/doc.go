// Package models defines domain entities for the release tracking service.
//
// The package contains two categories of types:
//
// 1. Catalog-facing values produced by the extraction pipeline:
//   - [Release] : a track with its canonical (earliest known) release date
//   - [CacheEntry] : a persisted Release plus the fetch timestamp
//
// 2. Persistence-facing records managed by the repositories:
//   - [Artist] : a tracked artist roster entry
//   - [CrossRef] : an ISRC's earliest release, immutable once resolved
//   - [RunRecord] : one row of the append-only run ledger
//   - [ActivityProfile] : derived release-cadence metrics for one artist
//
// Release dates from the catalog may be partial (YYYY or YYYY-MM);
// [ParseReleaseDate] normalizes them to the first day of the year or month.
package models
