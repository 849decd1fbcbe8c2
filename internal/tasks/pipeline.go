package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/services"
)

// noiseKeywords flag alternate versions that are not new material.
// Matching is case-insensitive substring on album and track titles.
var noiseKeywords = []string{
	"live",
	"remaster",
	"demo",
	"commentary",
	"instrumental",
	"karaoke",
}

// albumGroups are the release groups scanned for new material.
// Appears-on compilations by other artists are excluded.
var albumGroups = []string{"album", "single", "compilation"}

// isNoise reports whether a title names an alternate version.
func isNoise(title string) bool {
	lowered := strings.ToLower(title)
	for _, keyword := range noiseKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// earliestRelease is a session-scoped memo of a resolved ISRC lookup.
type earliestRelease struct {
	date  time.Time
	album string
}

// fetchArtistReleases runs the full extraction pipeline for one artist:
// cache short-circuit, newest-first album scan with early stop, noise
// filtering, track detail fetch, ISRC dedup, canonical date resolution,
// popularity cap, and cache write-back.
func (e *TrackerEngine) fetchArtistReleases(
	ctx context.Context,
	artistID, artistName string,
	since time.Time,
	maxTracks int,
	forceRefresh bool,
) ([]models.Release, error) {
	if !forceRefresh {
		entries, err := e.releases.GetCached(artistID, since, 0)
		if err != nil {
			// A broken cache read degrades to a miss, never a failed fetch.
			e.logger.Warn("cache read failed", "artist", artistName, "error", err)
		}
		if len(entries) > 0 {
			e.profiler.CacheHit()
			e.logger.Debug("cache hit", "artist", artistName, "entries", len(entries))
			releases := make([]models.Release, 0, len(entries))
			for _, entry := range entries {
				release := entry.Release
				release.ArtistName = artistName
				releases = append(releases, release)
			}
			return capByPopularity(releases, maxTracks), nil
		}
		e.profiler.CacheMiss()
	}

	seenISRCs := make(map[string]bool)
	sessionRefs := make(map[string]earliestRelease)
	var releases []models.Release

	offset := 0
scan:
	for {
		var page *services.AlbumPage
		err := e.retrier.Do(ctx, "list_albums", func() error {
			p, err := e.catalog.ListAlbums(ctx, artistID, albumGroups, offset)
			if err != nil {
				return err
			}
			page = p
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("album scan failed for %s: %w", artistName, err)
		}

		for _, album := range page.Albums {
			released, err := models.ParseReleaseDate(album.ReleaseDate)
			if err != nil {
				e.logger.Warn("unparseable release date", "album", album.Name, "date", album.ReleaseDate)
				continue
			}

			// Albums arrive newest first, so the first one older than the
			// window ends the scan.
			if released.Before(since) {
				break scan
			}

			if isNoise(album.Name) {
				continue
			}

			albumReleases, err := e.extractAlbum(ctx, artistID, artistName, album, released, since, seenISRCs, sessionRefs)
			if err != nil {
				return nil, err
			}
			releases = append(releases, albumReleases...)
		}

		if !page.HasNext {
			break
		}
		offset = page.NextOffset
	}

	releases = capByPopularity(releases, maxTracks)

	for _, release := range releases {
		if err := e.releases.Cache(release); err != nil {
			e.logger.Warn("cache write failed", "track", release.TrackName, "error", err)
		}
	}

	return releases, nil
}

// extractAlbum expands one in-window album into canonical releases.
func (e *TrackerEngine) extractAlbum(
	ctx context.Context,
	artistID, artistName string,
	album services.Album,
	released, since time.Time,
	seenISRCs map[string]bool,
	sessionRefs map[string]earliestRelease,
) ([]models.Release, error) {
	var tracks []services.AlbumTrack
	err := e.retrier.Do(ctx, "list_album_tracks", func() error {
		t, err := e.catalog.ListAlbumTracks(ctx, album.ID)
		if err != nil {
			return err
		}
		tracks = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("track listing failed for album %s: %w", album.Name, err)
	}

	var releases []models.Release
	for _, track := range tracks {
		if isNoise(track.Name) {
			continue
		}

		var detail *services.TrackDetail
		err := e.retrier.Do(ctx, "get_track", func() error {
			d, err := e.catalog.GetTrack(ctx, track.ID)
			if err != nil {
				return err
			}
			detail = d
			return nil
		})
		if err != nil {
			// One bad track never sinks the album.
			e.logger.Warn("track fetch failed", "track", track.Name, "error", err)
			continue
		}

		canonicalDate := released
		canonicalAlbum := album.Name

		if detail.ISRC != "" {
			if seenISRCs[detail.ISRC] {
				continue
			}
			seenISRCs[detail.ISRC] = true

			earliest := e.resolveEarliest(ctx, detail.ISRC, released, album.Name, sessionRefs)
			canonicalDate = earliest.date
			canonicalAlbum = earliest.album

			// The canonical date can predate the window even when the
			// scanned re-issue is inside it.
			if canonicalDate.Before(since) {
				continue
			}
		}

		releases = append(releases, models.Release{
			ArtistID:    artistID,
			ArtistName:  artistName,
			AlbumID:     album.ID,
			AlbumName:   canonicalAlbum,
			TrackID:     detail.ID,
			TrackName:   detail.Name,
			AlbumType:   album.AlbumType,
			ISRC:        detail.ISRC,
			ReleaseDate: canonicalDate,
			Popularity:  detail.Popularity,
			URL:         detail.URL,
		})
	}

	return releases, nil
}

// resolveEarliest finds the earliest release carrying an ISRC, consulting
// the session memo, then the permanent cross-reference cache, then a live
// catalog search. Search failures degrade gracefully to the album's own
// date. Live resolutions are written back to the permanent cache.
func (e *TrackerEngine) resolveEarliest(
	ctx context.Context,
	isrc string,
	fallbackDate time.Time,
	fallbackAlbum string,
	sessionRefs map[string]earliestRelease,
) earliestRelease {
	if memo, ok := sessionRefs[isrc]; ok {
		return memo
	}

	ref, err := e.crossRefs.Get(isrc)
	if err != nil {
		e.logger.Warn("crossref read failed", "isrc", isrc, "error", err)
	}
	if ref != nil {
		e.profiler.CrossRefHit()
		resolved := earliestRelease{date: ref.EarliestDate, album: ref.EarliestAlbumName}
		sessionRefs[isrc] = resolved
		return resolved
	}
	e.profiler.CrossRefMiss()

	fallback := earliestRelease{date: fallbackDate, album: fallbackAlbum}

	var matches []services.ISRCMatch
	err = e.retrier.Do(ctx, "search_isrc", func() error {
		m, err := e.catalog.SearchByISRC(ctx, isrc)
		if err != nil {
			return err
		}
		matches = m
		return nil
	})
	if err != nil {
		e.logger.Warn("isrc search failed", "isrc", isrc, "error", err)
		return fallback
	}

	resolved := fallback
	found := false
	for _, match := range matches {
		date, err := models.ParseReleaseDate(match.ReleaseDate)
		if err != nil {
			continue
		}
		if !found || date.Before(resolved.date) {
			resolved = earliestRelease{date: date, album: match.AlbumName}
			found = true
		}
	}

	sessionRefs[isrc] = resolved
	if err := e.crossRefs.Cache(isrc, resolved.date, resolved.album); err != nil {
		e.logger.Warn("crossref write failed", "isrc", isrc, "error", err)
	}

	return resolved
}

// capByPopularity keeps the most popular max releases, then restores
// newest-first date order. A max of 0 or less keeps everything.
func capByPopularity(releases []models.Release, max int) []models.Release {
	if max <= 0 || len(releases) <= max {
		return releases
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Popularity > releases[j].Popularity
	})
	releases = releases[:max]
	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].ReleaseDate.After(releases[j].ReleaseDate)
	})

	return releases
}
