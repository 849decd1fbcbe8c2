package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/releaseradar/internal/models"
)

// CrossRefRepository manages the permanent ISRC lookup cache. An ISRC's
// earliest release is a historical fact, so entries never expire; a
// re-resolution overwrites the row in place.
type CrossRefRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewCrossRefRepository creates a new CrossRefRepository with the given database connection
func NewCrossRefRepository(db *sql.DB) *CrossRefRepository {
	return &CrossRefRepository{db: db, now: time.Now}
}

// Cache stores the earliest known release for an ISRC.
func (r *CrossRefRepository) Cache(isrc string, earliestDate time.Time, albumName string) error {
	_, err := r.db.Exec(`
		INSERT OR REPLACE INTO isrc_lookup_cache
		(isrc, earliest_date, earliest_album_name, cached_at)
		VALUES (?, ?, ?, ?)
	`, isrc, earliestDate.Format(models.DateOnly), albumName, r.now())
	if err != nil {
		return fmt.Errorf("failed to cache isrc lookup: %w", err)
	}

	return nil
}

// Get retrieves a cached ISRC lookup. A miss returns (nil, nil); callers
// fall through to a live catalog search.
func (r *CrossRefRepository) Get(isrc string) (*models.CrossRef, error) {
	var (
		ref     models.CrossRef
		rawDate string
	)

	err := r.db.QueryRow(`
		SELECT isrc, earliest_date, earliest_album_name, cached_at
		FROM isrc_lookup_cache
		WHERE isrc = ?
	`, isrc).Scan(&ref.ISRC, &rawDate, &ref.EarliestAlbumName, &ref.CachedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan isrc lookup: %w", err)
	}

	parsed, err := models.ParseReleaseDate(rawDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cached earliest date %q: %w", rawDate, err)
	}
	ref.EarliestDate = parsed

	return &ref, nil
}
