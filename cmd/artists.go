package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/releaseradar/internal/formatter"
	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/shared"
	"github.com/urfave/cli/v3"
)

// extractArtistID pulls a Spotify artist ID out of a URI or share URL.
// Returns the empty string when the line is a plain name.
func extractArtistID(line string) string {
	if id, ok := strings.CutPrefix(line, "spotify:artist:"); ok {
		return id
	}
	if rest, ok := strings.CutPrefix(line, "https://open.spotify.com/artist/"); ok {
		if i := strings.IndexAny(rest, "?/"); i >= 0 {
			rest = rest[:i]
		}
		return rest
	}
	return ""
}

// ArtistsAdd adds a single artist to the roster, resolving names through the catalog.
func (r *Runner) ArtistsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	spotifyID := cmd.String("id")

	if name == "" && spotifyID == "" {
		return fmt.Errorf("%w: an artist name or --id is required", shared.ErrMissingArgument)
	}

	if err := r.requireCatalog(); err != nil {
		return err
	}

	var artistID, artistName string
	if spotifyID != "" {
		artist, err := r.catalog.GetArtist(ctx, spotifyID)
		if err != nil {
			return fmt.Errorf("failed to resolve artist %s: %w", spotifyID, err)
		}
		artistID, artistName = artist.ID, artist.Name
	} else {
		artist, err := r.catalog.SearchArtist(ctx, name)
		if err != nil {
			return fmt.Errorf("no artist found for '%s': %w", name, err)
		}
		artistID, artistName = artist.ID, artist.Name
	}

	added, err := r.artists.Add(artistName, artistID)
	if err != nil {
		return fmt.Errorf("failed to add artist: %w", err)
	}

	if added {
		r.writePlainln("✓ Added %s (%s)", artistName, artistID)
	} else {
		r.writePlainln("Already tracking %s (%s)", artistName, artistID)
	}

	return nil
}

// ArtistsImport imports artist names or URIs from a text file, one per line.
// Blank lines and lines starting with '#' are skipped; '-' reads stdin.
func (r *Runner) ArtistsImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: a file path is required ('-' for stdin)", shared.ErrMissingArgument)
	}

	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	added, skipped, failed := 0, 0, 0

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var artistID, artistName string
		if id := extractArtistID(line); id != "" {
			artist, err := r.catalog.GetArtist(ctx, id)
			if err != nil {
				r.logger.Warn("failed to resolve artist", "id", id, "error", err)
				failed++
				continue
			}
			artistID, artistName = artist.ID, artist.Name
		} else {
			artist, err := r.catalog.SearchArtist(ctx, line)
			if err != nil {
				r.logger.Warn("no artist found", "name", line, "error", err)
				failed++
				continue
			}
			artistID, artistName = artist.ID, artist.Name
		}

		ok, err := r.artists.Add(artistName, artistID)
		if err != nil {
			r.logger.Warn("failed to add artist", "name", artistName, "error", err)
			failed++
			continue
		}
		if ok {
			added++
			r.logger.Info("added artist", "name", artistName, "id", artistID)
		} else {
			skipped++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	r.writePlainln("✓ Import complete: %d added, %d already tracked, %d failed", added, skipped, failed)
	return nil
}

// ArtistsImportPlaylist imports every unique artist on a playlist.
func (r *Runner) ArtistsImportPlaylist(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}
	if err := r.requireCatalog(); err != nil {
		return err
	}

	playlistID := cmd.StringArg("id")
	if playlistID == "" {
		return fmt.Errorf("%w: a playlist ID is required", shared.ErrMissingArgument)
	}

	found, err := r.catalog.ListPlaylistArtists(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to read playlist: %w", err)
	}

	batch := make([]models.Artist, 0, len(found))
	for _, artist := range found {
		batch = append(batch, models.Artist{SpotifyID: artist.ID, Name: artist.Name})
	}

	added, skipped, err := r.artists.AddBatch(batch)
	if err != nil {
		return fmt.Errorf("failed to import artists: %w", err)
	}

	r.writePlainln("✓ Imported %d artists from playlist (%d already tracked)", added, skipped)
	return nil
}

// ArtistsList prints the tracked roster.
func (r *Runner) ArtistsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	artists, err := r.artists.All()
	if err != nil {
		return fmt.Errorf("failed to list artists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}

	r.writePlain("Tracked artists: %d\n", len(artists))
	for _, artist := range artists {
		r.writePlain("  %s  %s (added %s)\n", artist.SpotifyID, artist.Name, artist.DateAdded.Format(models.DateOnly))
	}

	return nil
}

// ArtistsRemove removes an artist from the roster.
func (r *Runner) ArtistsRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	spotifyID := cmd.StringArg("id")
	if spotifyID == "" {
		return fmt.Errorf("%w: an artist ID is required", shared.ErrMissingArgument)
	}

	removed, err := r.artists.Remove(spotifyID)
	if err != nil {
		return fmt.Errorf("failed to remove artist: %w", err)
	}

	if removed {
		r.writePlainln("✓ Removed %s", spotifyID)
	} else {
		r.writePlainln("Artist %s is not on the roster", spotifyID)
	}

	return nil
}

// ArtistsExport writes the roster to a JSON backup file.
func (r *Runner) ArtistsExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	artists, err := r.artists.All()
	if err != nil {
		return fmt.Errorf("failed to read roster: %w", err)
	}

	path, err := formatter.WriteRosterBackup(artists, cmd.String("output"))
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d artists to %s", len(artists), path)
	return nil
}

// ArtistsRestore loads a roster backup, skipping artists already tracked.
func (r *Runner) ArtistsRestore(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: a backup file path is required", shared.ErrMissingArgument)
	}

	backup, err := formatter.ReadRosterBackup(path)
	if err != nil {
		return err
	}

	added, skipped, err := r.artists.AddBatch(backup.Artists)
	if err != nil {
		return fmt.Errorf("failed to restore roster: %w", err)
	}

	r.writePlainln("✓ Restored %d artists (%d already tracked)", added, skipped)
	return nil
}

// ArtistsProfile shows an artist's release cadence derived from cached history.
func (r *Runner) ArtistsProfile(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	spotifyID := cmd.StringArg("id")
	if spotifyID == "" {
		return fmt.Errorf("%w: an artist ID is required", shared.ErrMissingArgument)
	}

	profile, err := r.releases.ActivityProfile(spotifyID)
	if err != nil {
		return fmt.Errorf("failed to derive activity profile: %w", err)
	}

	r.writePlain("Releases cached: %d\n", profile.TotalReleases)
	r.writePlain("Last release: %d days ago\n", profile.LastReleaseDaysAgo)
	r.writePlain("Rate: %.1f releases/year\n", profile.AvgReleasesPerYear)
	r.writePlain("Cadence: %s (re-check every %d days)\n", profile.Frequency, profile.CheckIntervalDays)

	return nil
}
