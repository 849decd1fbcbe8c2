package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/releaseradar/internal/models"
)

// Adaptive TTL tiers, chosen from the artist's most recent cached release.
// Actively releasing artists are re-polled often; dormant artists' caches
// are trusted for a week, bounding API cost.
const (
	TTLActive   = 6   // hours, most recent release < 30 days old
	TTLModerate = 24  // hours, 30-180 days
	TTLDormant  = 168 // hours, > 180 days or no cached data
)

// ReleaseCacheRepository manages the per-track release cache and the
// activity metrics derived from it. Rows are keyed by track id and
// refreshed with insert-or-replace semantics.
type ReleaseCacheRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewReleaseCacheRepository creates a new ReleaseCacheRepository with the given database connection
func NewReleaseCacheRepository(db *sql.DB) *ReleaseCacheRepository {
	return &ReleaseCacheRepository{db: db, now: time.Now}
}

// Cache upserts a release keyed by track id, stamping fetched_at with the
// current time. Re-caching the same track replaces the row.
func (r *ReleaseCacheRepository) Cache(release models.Release) error {
	return r.CacheAt(release, r.now())
}

// CacheAt upserts a release with an explicit fetch timestamp.
func (r *ReleaseCacheRepository) CacheAt(release models.Release, fetchedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO releases_cache
		(track_id, artist_id, album_id, isrc, release_date, album_name,
		 track_name, album_type, popularity, spotify_url, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		release.TrackID,
		release.ArtistID,
		release.AlbumID,
		release.ISRC,
		release.ReleaseDate.Format(models.DateOnly),
		release.AlbumName,
		release.TrackName,
		release.AlbumType,
		release.Popularity,
		release.URL,
		fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to cache release: %w", err)
	}

	return nil
}

// GetCached returns cached entries for an artist with release_date >= cutoff
// and fetched_at inside the freshness window. A maxAgeHours of 0 or less
// selects the adaptive TTL. An empty result means "nothing cached" or
// "cache stale" - callers refetch either way.
func (r *ReleaseCacheRepository) GetCached(artistID string, cutoff time.Time, maxAgeHours int) ([]models.CacheEntry, error) {
	if maxAgeHours <= 0 {
		maxAgeHours = r.AdaptiveTTL(artistID)
	}

	expiry := r.now().Add(-time.Duration(maxAgeHours) * time.Hour)

	rows, err := r.db.Query(`
		SELECT track_id, artist_id, album_id, isrc, release_date, album_name,
		       track_name, album_type, popularity, spotify_url, fetched_at
		FROM releases_cache
		WHERE artist_id = ?
		AND release_date >= ?
		AND fetched_at >= ?
		ORDER BY release_date DESC
	`, artistID, cutoff.Format(models.DateOnly), expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to query cached releases: %w", err)
	}
	defer rows.Close()

	return scanCacheEntries(rows)
}

// NewSince returns entries fetched strictly after the last completed run.
// With no prior completed run everything matching the cutoff is returned:
// a first run is never a delta.
func (r *ReleaseCacheRepository) NewSince(artistID string, cutoff time.Time) ([]models.CacheEntry, error) {
	var lastRun sql.NullTime
	err := r.db.QueryRow(`
		SELECT run_timestamp FROM run_history
		WHERE status = ?
		ORDER BY run_timestamp DESC LIMIT 1
	`, models.RunCompleted).Scan(&lastRun)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query last run: %w", err)
	}

	if !lastRun.Valid {
		rows, err := r.db.Query(`
			SELECT track_id, artist_id, album_id, isrc, release_date, album_name,
			       track_name, album_type, popularity, spotify_url, fetched_at
			FROM releases_cache
			WHERE artist_id = ? AND release_date >= ?
			ORDER BY release_date DESC
		`, artistID, cutoff.Format(models.DateOnly))
		if err != nil {
			return nil, fmt.Errorf("failed to query cached releases: %w", err)
		}
		defer rows.Close()
		return scanCacheEntries(rows)
	}

	rows, err := r.db.Query(`
		SELECT track_id, artist_id, album_id, isrc, release_date, album_name,
		       track_name, album_type, popularity, spotify_url, fetched_at
		FROM releases_cache
		WHERE artist_id = ? AND release_date >= ? AND fetched_at > ?
		ORDER BY release_date DESC
	`, artistID, cutoff.Format(models.DateOnly), lastRun.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to query new releases: %w", err)
	}
	defer rows.Close()

	return scanCacheEntries(rows)
}

// AdaptiveTTL computes the cache freshness window in hours for an artist
// from their most recent cached release date.
func (r *ReleaseCacheRepository) AdaptiveTTL(artistID string) int {
	var latest sql.NullString
	err := r.db.QueryRow(`
		SELECT MAX(release_date) FROM releases_cache WHERE artist_id = ?
	`, artistID).Scan(&latest)
	if err != nil || !latest.Valid {
		return TTLDormant
	}

	released, err := models.ParseReleaseDate(latest.String)
	if err != nil {
		return TTLDormant
	}

	days := int(r.now().Sub(released).Hours() / 24)
	switch {
	case days < 30:
		return TTLActive
	case days < 180:
		return TTLModerate
	default:
		return TTLDormant
	}
}

// ClearExpired deletes entries fetched more than maxAgeHours ago.
// Returns the number of rows removed.
func (r *ReleaseCacheRepository) ClearExpired(maxAgeHours int) (int, error) {
	expiry := r.now().Add(-time.Duration(maxAgeHours) * time.Hour)

	result, err := r.db.Exec(`DELETE FROM releases_cache WHERE fetched_at < ?`, expiry)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// ClearArtist deletes every cached release for one artist.
// Returns the number of rows removed.
func (r *ReleaseCacheRepository) ClearArtist(artistID string) (int, error) {
	result, err := r.db.Exec(`DELETE FROM releases_cache WHERE artist_id = ?`, artistID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear artist cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// ActivityProfile derives release-cadence metrics from the artist's full
// cached history: release count, recency, annualized rate, and a frequency
// class with a recommended re-check interval for external schedulers.
func (r *ReleaseCacheRepository) ActivityProfile(artistID string) (models.ActivityProfile, error) {
	inactive := models.ActivityProfile{
		LastReleaseDaysAgo: 9999,
		Frequency:          models.FrequencyInactive,
		CheckIntervalDays:  30,
	}

	rows, err := r.db.Query(`
		SELECT release_date FROM releases_cache
		WHERE artist_id = ?
		ORDER BY release_date DESC
	`, artistID)
	if err != nil {
		return inactive, fmt.Errorf("failed to query release history: %w", err)
	}
	defer rows.Close()

	var releases []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return inactive, fmt.Errorf("failed to scan release date: %w", err)
		}
		if parsed, err := models.ParseReleaseDate(raw); err == nil {
			releases = append(releases, parsed)
		}
	}
	if err := rows.Err(); err != nil {
		return inactive, fmt.Errorf("row iteration error: %w", err)
	}

	if len(releases) == 0 {
		return inactive, nil
	}

	daysSinceLast := int(r.now().Sub(releases[0]).Hours() / 24)

	var perYear float64
	if len(releases) > 1 {
		spanDays := releases[0].Sub(releases[len(releases)-1]).Hours() / 24
		if spanDays < 1 {
			spanDays = 1
		}
		perYear = float64(len(releases)) / spanDays * 365
	}

	profile := models.ActivityProfile{
		TotalReleases:      len(releases),
		LastReleaseDaysAgo: daysSinceLast,
		AvgReleasesPerYear: perYear,
	}

	switch {
	case perYear > 4 && daysSinceLast < 180:
		profile.Frequency = models.FrequencyHigh
		profile.CheckIntervalDays = 7
	case perYear > 1 && daysSinceLast < 365:
		profile.Frequency = models.FrequencyMedium
		profile.CheckIntervalDays = 14
	case daysSinceLast < 730:
		profile.Frequency = models.FrequencyLow
		profile.CheckIntervalDays = 30
	default:
		profile.Frequency = models.FrequencyInactive
		profile.CheckIntervalDays = 90
	}

	return profile, nil
}

// scanCacheEntries drains a release cache result set.
func scanCacheEntries(rows *sql.Rows) ([]models.CacheEntry, error) {
	var entries []models.CacheEntry

	for rows.Next() {
		var (
			entry   models.CacheEntry
			isrc    sql.NullString
			rawDate string
		)

		err := rows.Scan(
			&entry.TrackID,
			&entry.ArtistID,
			&entry.AlbumID,
			&isrc,
			&rawDate,
			&entry.AlbumName,
			&entry.TrackName,
			&entry.AlbumType,
			&entry.Popularity,
			&entry.URL,
			&entry.FetchedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}

		entry.ISRC = isrc.String
		if parsed, err := models.ParseReleaseDate(rawDate); err == nil {
			entry.ReleaseDate = parsed
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
