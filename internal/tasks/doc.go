// package tasks implements the release tracking engine.
//
// The core abstraction is [TrackerEngine], which fans a per-artist
// extraction pipeline out over a bounded worker pool, resolves canonical
// release dates across re-issues, and persists results through the tiered
// cache store. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
//
// Every outbound catalog call goes through the retry executor in retry.go,
// which classifies failures (rate limit, server, client, transport) and
// applies the matching backoff policy. Per-artist failures are captured at
// the dispatch boundary and logged; they never cancel sibling work or abort
// a multi-artist run.
package tasks
