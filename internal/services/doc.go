// Package services implements the remote music catalog capability the
// tracking engine consumes.
//
// The [Catalog] interface is the narrow contract: artist lookup and search,
// newest-first album listing, album track listing, full track detail, and
// ISRC search. [SpotifyCatalog] is the concrete implementation, speaking the
// Spotify Web API over HTTP with the OAuth2 client credentials flow.
//
// Every outbound failure is normalized into an [*APIError] carrying one of
// the [ErrorKind] classes. Callers (the retry executor in internal/tasks)
// decide retry behavior from the kind alone:
//
//   - [KindRateLimited] : 429 with the server's Retry-After duration
//   - [KindServer] : 5xx responses
//   - [KindClient] : other 4xx responses, never retried
//   - [KindNotFound] : 404, never retried
//   - [KindTransport] : network-level failures
//
// No raw transport or HTTP errors cross this package's boundary.
package services
