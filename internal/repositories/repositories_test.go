package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// testSpotifyID builds a deterministic 22-character artist ID.
func testSpotifyID(n int) string {
	return fmt.Sprintf("%022d", n)
}

func testRelease(artistID, trackID string, released time.Time, popularity int) models.Release {
	return models.Release{
		ArtistID:    artistID,
		ArtistName:  "Test Artist",
		AlbumID:     "album1",
		AlbumName:   "Test Album",
		TrackID:     trackID,
		TrackName:   "Test Track",
		AlbumType:   "album",
		ISRC:        "USRC1" + trackID,
		ReleaseDate: released,
		Popularity:  popularity,
		URL:         "https://open.spotify.com/track/" + trackID,
	}
}

func TestArtistRepository(t *testing.T) {
	t.Run("Add", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)

		added, err := repo.Add("Test Artist", testSpotifyID(1))
		if err != nil {
			t.Fatalf("failed to add artist: %v", err)
		}
		if !added {
			t.Error("expected first add to report true")
		}

		added, err = repo.Add("Test Artist", testSpotifyID(1))
		if err != nil {
			t.Fatalf("duplicate add should not error: %v", err)
		}
		if added {
			t.Error("expected duplicate add to report false")
		}
	})

	t.Run("Add Validates Input", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)

		if _, err := repo.Add("", testSpotifyID(1)); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected validation error for empty name, got %v", err)
		}
		if _, err := repo.Add("Test Artist", "short"); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected validation error for bad ID, got %v", err)
		}
	})

	t.Run("AddBatch", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)

		if _, err := repo.Add("Already Here", testSpotifyID(1)); err != nil {
			t.Fatalf("failed to seed artist: %v", err)
		}

		added, skipped, err := repo.AddBatch([]models.Artist{
			{Name: "Already Here", SpotifyID: testSpotifyID(1)},
			{Name: "New One", SpotifyID: testSpotifyID(2)},
			{Name: "New Two", SpotifyID: testSpotifyID(3)},
		})
		if err != nil {
			t.Fatalf("failed to add batch: %v", err)
		}
		if added != 2 || skipped != 1 {
			t.Errorf("expected 2 added and 1 skipped, got %d and %d", added, skipped)
		}
	})

	t.Run("All And IDs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		for i := 1; i <= 3; i++ {
			if _, err := repo.Add(fmt.Sprintf("Artist %d", i), testSpotifyID(i)); err != nil {
				t.Fatalf("failed to add artist: %v", err)
			}
		}

		artists, err := repo.All()
		if err != nil {
			t.Fatalf("failed to list artists: %v", err)
		}
		if len(artists) != 3 {
			t.Errorf("expected 3 artists, got %d", len(artists))
		}

		ids, err := repo.IDs()
		if err != nil {
			t.Fatalf("failed to list ids: %v", err)
		}
		if len(ids) != 3 {
			t.Errorf("expected 3 ids, got %d", len(ids))
		}
	})

	t.Run("GetBySpotifyID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		if _, err := repo.Add("Test Artist", testSpotifyID(1)); err != nil {
			t.Fatalf("failed to add artist: %v", err)
		}

		artist, err := repo.GetBySpotifyID(testSpotifyID(1))
		if err != nil {
			t.Fatalf("failed to get artist: %v", err)
		}
		if artist.Name != "Test Artist" {
			t.Errorf("unexpected name: %s", artist.Name)
		}

		if _, err := repo.GetBySpotifyID(testSpotifyID(99)); !errors.Is(err, shared.ErrArtistNotFound) {
			t.Errorf("expected ErrArtistNotFound, got %v", err)
		}
	})

	t.Run("Remove", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		if _, err := repo.Add("Test Artist", testSpotifyID(1)); err != nil {
			t.Fatalf("failed to add artist: %v", err)
		}

		removed, err := repo.Remove(testSpotifyID(1))
		if err != nil {
			t.Fatalf("failed to remove artist: %v", err)
		}
		if !removed {
			t.Error("expected removal to report true")
		}

		removed, err = repo.Remove(testSpotifyID(1))
		if err != nil {
			t.Fatalf("second removal should not error: %v", err)
		}
		if removed {
			t.Error("expected second removal to report false")
		}
	})

	t.Run("Count And Clear", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewArtistRepository(db)
		for i := 1; i <= 3; i++ {
			if _, err := repo.Add(fmt.Sprintf("Artist %d", i), testSpotifyID(i)); err != nil {
				t.Fatalf("failed to add artist: %v", err)
			}
		}

		count, err := repo.Count()
		if err != nil {
			t.Fatalf("failed to count artists: %v", err)
		}
		if count != 3 {
			t.Errorf("expected 3 artists, got %d", count)
		}

		cleared, err := repo.Clear()
		if err != nil {
			t.Fatalf("failed to clear roster: %v", err)
		}
		if cleared != 3 {
			t.Errorf("expected 3 rows cleared, got %d", cleared)
		}

		count, err = repo.Count()
		if err != nil {
			t.Fatalf("failed to count artists: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty roster after clear, got %d", count)
		}
	})
}

func TestReleaseCacheRepository(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Cache Upsert Is Idempotent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }

		release := testRelease("artist1", "track1", now.AddDate(0, 0, -5), 50)
		if err := repo.Cache(release); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}

		release.Popularity = 80
		if err := repo.Cache(release); err != nil {
			t.Fatalf("failed to re-cache release: %v", err)
		}

		var count, popularity int
		if err := db.QueryRow(`SELECT COUNT(*), MAX(popularity) FROM releases_cache`).Scan(&count, &popularity); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row after re-cache, got %d", count)
		}
		if popularity != 80 {
			t.Errorf("expected replaced popularity 80, got %d", popularity)
		}
	})

	t.Run("GetCached Respects Freshness Window", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }

		cutoff := now.AddDate(0, 0, -90)
		release := testRelease("artist1", "track1", now.AddDate(0, 0, -10), 50)

		// Fetched 5 hours ago, active-tier TTL is 6 hours
		if err := repo.CacheAt(release, now.Add(-5*time.Hour)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}

		entries, err := repo.GetCached("artist1", cutoff, 0)
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected fresh entry, got %d", len(entries))
		}

		// Re-fetch stamp at 7 hours ago pushes the entry past the TTL
		if err := repo.CacheAt(release, now.Add(-7*time.Hour)); err != nil {
			t.Fatalf("failed to re-cache release: %v", err)
		}

		entries, err = repo.GetCached("artist1", cutoff, 0)
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected stale cache to miss, got %d entries", len(entries))
		}
	})

	t.Run("GetCached Filters By Cutoff", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }

		cutoff := now.AddDate(0, 0, -90)
		inside := testRelease("artist1", "track1", cutoff, 50)
		outside := testRelease("artist1", "track2", cutoff.AddDate(0, 0, -1), 50)

		if err := repo.Cache(inside); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}
		if err := repo.Cache(outside); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}

		entries, err := repo.GetCached("artist1", cutoff, 0)
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected only the boundary release, got %d", len(entries))
		}
		if entries[0].TrackID != "track1" {
			t.Errorf("expected boundary release kept, got %s", entries[0].TrackID)
		}
	})

	t.Run("AdaptiveTTL", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }

		if ttl := repo.AdaptiveTTL("unknown"); ttl != TTLDormant {
			t.Errorf("expected dormant TTL with no data, got %d", ttl)
		}

		if err := repo.Cache(testRelease("active", "t1", now.AddDate(0, 0, -10), 50)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}
		if ttl := repo.AdaptiveTTL("active"); ttl != TTLActive {
			t.Errorf("expected active TTL, got %d", ttl)
		}

		if err := repo.Cache(testRelease("moderate", "t2", now.AddDate(0, 0, -60), 50)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}
		if ttl := repo.AdaptiveTTL("moderate"); ttl != TTLModerate {
			t.Errorf("expected moderate TTL, got %d", ttl)
		}

		if err := repo.Cache(testRelease("dormant", "t3", now.AddDate(0, 0, -200), 50)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}
		if ttl := repo.AdaptiveTTL("dormant"); ttl != TTLDormant {
			t.Errorf("expected dormant TTL, got %d", ttl)
		}
	})

	t.Run("NewSince", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }
		runs := NewRunRepository(db)

		cutoff := now.AddDate(0, 0, -90)

		t.Run("First Run Returns Everything", func(t *testing.T) {
			if err := repo.CacheAt(testRelease("artist1", "old", now.AddDate(0, 0, -20), 50), now.Add(-48*time.Hour)); err != nil {
				t.Fatalf("failed to cache release: %v", err)
			}

			entries, err := repo.NewSince("artist1", cutoff)
			if err != nil {
				t.Fatalf("failed to query delta: %v", err)
			}
			if len(entries) != 1 {
				t.Errorf("expected full set with no prior run, got %d", len(entries))
			}
		})

		t.Run("After A Completed Run", func(t *testing.T) {
			lastRun := now.Add(-24 * time.Hour)
			err := runs.Record(models.RunRecord{Timestamp: lastRun, ArtistsTracked: 1, Status: models.RunCompleted})
			if err != nil {
				t.Fatalf("failed to record run: %v", err)
			}

			if err := repo.CacheAt(testRelease("artist1", "fresh", now.AddDate(0, 0, -5), 50), now.Add(-1*time.Hour)); err != nil {
				t.Fatalf("failed to cache release: %v", err)
			}

			entries, err := repo.NewSince("artist1", cutoff)
			if err != nil {
				t.Fatalf("failed to query delta: %v", err)
			}
			if len(entries) != 1 {
				t.Fatalf("expected only post-run entries, got %d", len(entries))
			}
			if entries[0].TrackID != "fresh" {
				t.Errorf("expected the newly fetched release, got %s", entries[0].TrackID)
			}
		})
	})

	t.Run("ClearExpired", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }

		if err := repo.CacheAt(testRelease("artist1", "old", now.AddDate(0, 0, -10), 50), now.Add(-300*time.Hour)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}
		if err := repo.CacheAt(testRelease("artist1", "new", now.AddDate(0, 0, -10), 50), now.Add(-1*time.Hour)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}

		removed, err := repo.ClearExpired(168)
		if err != nil {
			t.Fatalf("failed to clear cache: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 expired entry removed, got %d", removed)
		}
	})

	t.Run("ClearArtist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }

		if err := repo.Cache(testRelease("artist1", "t1", now.AddDate(0, 0, -10), 50)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}
		if err := repo.Cache(testRelease("artist2", "t2", now.AddDate(0, 0, -10), 50)); err != nil {
			t.Fatalf("failed to cache release: %v", err)
		}

		removed, err := repo.ClearArtist("artist1")
		if err != nil {
			t.Fatalf("failed to clear artist: %v", err)
		}
		if removed != 1 {
			t.Errorf("expected 1 entry removed, got %d", removed)
		}
	})

	t.Run("ActivityProfile", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewReleaseCacheRepository(db)
		repo.now = func() time.Time { return now }

		t.Run("No History", func(t *testing.T) {
			profile, err := repo.ActivityProfile("unknown")
			if err != nil {
				t.Fatalf("failed to derive profile: %v", err)
			}
			if profile.Frequency != models.FrequencyInactive || profile.TotalReleases != 0 {
				t.Errorf("expected inactive default, got %+v", profile)
			}
		})

		t.Run("High Cadence", func(t *testing.T) {
			for i := 0; i < 6; i++ {
				release := testRelease("high", fmt.Sprintf("h%d", i), now.AddDate(0, 0, -30-i*60), 50)
				if err := repo.Cache(release); err != nil {
					t.Fatalf("failed to cache release: %v", err)
				}
			}

			profile, err := repo.ActivityProfile("high")
			if err != nil {
				t.Fatalf("failed to derive profile: %v", err)
			}
			if profile.Frequency != models.FrequencyHigh {
				t.Errorf("expected high cadence, got %s", profile.Frequency)
			}
			if profile.CheckIntervalDays != 7 {
				t.Errorf("expected 7 day interval, got %d", profile.CheckIntervalDays)
			}
		})

		t.Run("Low Cadence", func(t *testing.T) {
			release := testRelease("low", "l1", now.AddDate(0, 0, -400), 50)
			if err := repo.Cache(release); err != nil {
				t.Fatalf("failed to cache release: %v", err)
			}

			profile, err := repo.ActivityProfile("low")
			if err != nil {
				t.Fatalf("failed to derive profile: %v", err)
			}
			if profile.Frequency != models.FrequencyLow {
				t.Errorf("expected low cadence, got %s", profile.Frequency)
			}
		})
	})
}

func TestCrossRefRepository(t *testing.T) {
	t.Run("Miss Returns Nil", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCrossRefRepository(db)

		ref, err := repo.Get("USRC00000000")
		if err != nil {
			t.Fatalf("miss should not error: %v", err)
		}
		if ref != nil {
			t.Errorf("expected nil on miss, got %+v", ref)
		}
	})

	t.Run("Cache And Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCrossRefRepository(db)
		earliest := time.Date(2020, 1, 10, 0, 0, 0, 0, time.UTC)

		if err := repo.Cache("USRC11111111", earliest, "Original Album"); err != nil {
			t.Fatalf("failed to cache crossref: %v", err)
		}

		ref, err := repo.Get("USRC11111111")
		if err != nil {
			t.Fatalf("failed to get crossref: %v", err)
		}
		if ref == nil {
			t.Fatal("expected cached crossref")
		}
		if !ref.EarliestDate.Equal(earliest) {
			t.Errorf("unexpected earliest date: %v", ref.EarliestDate)
		}
		if ref.EarliestAlbumName != "Original Album" {
			t.Errorf("unexpected album name: %s", ref.EarliestAlbumName)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewCrossRefRepository(db)

		if err := repo.Cache("USRC11111111", time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC), "Later"); err != nil {
			t.Fatalf("failed to cache crossref: %v", err)
		}
		earlier := time.Date(2019, 2, 3, 0, 0, 0, 0, time.UTC)
		if err := repo.Cache("USRC11111111", earlier, "Earlier"); err != nil {
			t.Fatalf("failed to replace crossref: %v", err)
		}

		ref, err := repo.Get("USRC11111111")
		if err != nil {
			t.Fatalf("failed to get crossref: %v", err)
		}
		if !ref.EarliestDate.Equal(earlier) {
			t.Errorf("expected replaced date, got %v", ref.EarliestDate)
		}
	})
}

func TestRunRepository(t *testing.T) {
	t.Run("Record Applies Defaults", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)

		err := repo.Record(models.RunRecord{
			ArtistsTracked: 5,
			ReleasesFound:  12,
			LookbackDays:   90,
			Duration:       42 * time.Second,
			APICallsMade:   100,
		})
		if err != nil {
			t.Fatalf("failed to record run: %v", err)
		}

		runs, err := repo.History(1)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(runs) != 1 {
			t.Fatalf("expected 1 run, got %d", len(runs))
		}
		if runs[0].ID == "" {
			t.Error("expected generated run ID")
		}
		if runs[0].Status != models.RunCompleted {
			t.Errorf("expected default completed status, got %s", runs[0].Status)
		}
		if runs[0].Duration != 42*time.Second {
			t.Errorf("expected duration round trip, got %s", runs[0].Duration)
		}
	})

	t.Run("LastCompleted", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)

		last, err := repo.LastCompleted()
		if err != nil {
			t.Fatalf("failed to query last run: %v", err)
		}
		if last != nil {
			t.Errorf("expected nil with no runs, got %v", last)
		}

		older := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
		newer := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
		for _, ts := range []time.Time{older, newer} {
			if err := repo.Record(models.RunRecord{Timestamp: ts, Status: models.RunCompleted}); err != nil {
				t.Fatalf("failed to record run: %v", err)
			}
		}

		last, err = repo.LastCompleted()
		if err != nil {
			t.Fatalf("failed to query last run: %v", err)
		}
		if last == nil || !last.Equal(newer) {
			t.Errorf("expected most recent completed run, got %v", last)
		}
	})

	t.Run("History Honors Limit", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			if err := repo.Record(models.RunRecord{Timestamp: base.AddDate(0, 0, i)}); err != nil {
				t.Fatalf("failed to record run: %v", err)
			}
		}

		runs, err := repo.History(3)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		if len(runs) != 3 {
			t.Fatalf("expected 3 runs, got %d", len(runs))
		}
		if !runs[0].Timestamp.After(runs[1].Timestamp) {
			t.Error("expected newest-first ordering")
		}
	})
}
