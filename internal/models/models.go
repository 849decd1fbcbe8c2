package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateOnly is the canonical wire and storage format for release dates.
const DateOnly = "2006-01-02"

// Artist is a tracked roster entry. Identity is the Spotify ID;
// the name is display-only and may go stale.
type Artist struct {
	ID        string    // Row identifier (uuid)
	SpotifyID string    // Spotify artist ID, unique in the roster
	Name      string    // Display name at the time of import
	DateAdded time.Time // When the artist entered the roster
}

// Release is the unit the pipeline reports and caches: one track with its
// canonical release date resolved across re-issues.
type Release struct {
	ArtistID    string
	ArtistName  string
	AlbumID     string
	AlbumName   string
	TrackID     string
	TrackName   string
	AlbumType   string
	ISRC        string // Empty when the catalog carries no code for the track
	ReleaseDate time.Time
	Popularity  int // 0..100
	URL         string
}

// CacheEntry is a persisted Release plus the time it was fetched.
// Entries are keyed by track id; a re-fetch replaces the row.
type CacheEntry struct {
	Release
	FetchedAt time.Time
}

// CrossRef records the earliest known release for an ISRC. A recording's
// earliest release date is a historical fact, so rows never expire.
type CrossRef struct {
	ISRC              string
	EarliestDate      time.Time
	EarliestAlbumName string
	CachedAt          time.Time
}

// RunRecord is one row of the append-only run ledger. The most recent
// completed record defines "last run" for delta-only tracking.
type RunRecord struct {
	ID             string
	Timestamp      time.Time
	ArtistsTracked int
	ReleasesFound  int
	LookbackDays   int
	Duration       time.Duration
	APICallsMade   int
	Status         string
}

// RunCompleted is the status recorded for a successful tracking run.
const RunCompleted = "completed"

// ReleaseFrequency classifies an artist's release cadence.
type ReleaseFrequency string

const (
	FrequencyHigh     ReleaseFrequency = "high"
	FrequencyMedium   ReleaseFrequency = "medium"
	FrequencyLow      ReleaseFrequency = "low"
	FrequencyInactive ReleaseFrequency = "inactive"
)

// ActivityProfile summarizes an artist's cached release history.
// It is derived on demand and never stored.
type ActivityProfile struct {
	TotalReleases      int
	LastReleaseDaysAgo int
	AvgReleasesPerYear float64
	Frequency          ReleaseFrequency
	CheckIntervalDays  int // Recommended re-check interval for schedulers
}

// ParseReleaseDate parses a catalog release date, normalizing partial dates
// (YYYY, YYYY-MM) to the first day of the year or month.
func ParseReleaseDate(s string) (time.Time, error) {
	switch len(s) {
	case 4:
		return time.Parse("2006", s)
	case 7:
		return time.Parse("2006-01", s)
	default:
		return time.Parse(DateOnly, s)
	}
}

var spotifyIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{22}$`)

// ValidateArtistName checks that a roster name is usable.
func ValidateArtistName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("artist name cannot be empty")
	}
	if len(name) > 500 {
		return fmt.Errorf("artist name is too long (max 500 characters)")
	}
	return nil
}

// ValidateSpotifyID checks that an artist id looks like a Spotify ID
// (exactly 22 alphanumeric characters).
func ValidateSpotifyID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("spotify ID cannot be empty")
	}
	if !spotifyIDPattern.MatchString(id) {
		return fmt.Errorf("spotify ID must be exactly 22 alphanumeric characters")
	}
	return nil
}
