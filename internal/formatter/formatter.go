// package formatter provides functions to export release reports and roster
// backups to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/shared"
)

// ExportToCSV converts a release list to CSV format with columns:
// Date, Artist, Track, Album, Type, Popularity, ISRC, URL
func ExportToCSV(releases []models.Release) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Date", "Artist", "Track", "Album", "Type", "Popularity", "ISRC", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, release := range releases {
		record := []string{
			release.ReleaseDate.Format(models.DateOnly),
			release.ArtistName,
			release.TrackName,
			release.AlbumName,
			release.AlbumType,
			strconv.Itoa(release.Popularity),
			release.ISRC,
			release.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToText converts a release list to plain text, newest first
func ExportToText(releases []models.Release) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Releases: %d\n\n", len(releases)))

	for i, release := range releases {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s (%s)\n",
			i+1,
			release.ReleaseDate.Format(models.DateOnly),
			release.ArtistName,
			release.TrackName,
			release.AlbumName,
		))
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a release list to a Markdown report
func ExportToMarkdown(releases []models.Release) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# New Releases\n\n")
	buf.WriteString(fmt.Sprintf("**Found**: %d\n\n", len(releases)))

	buf.WriteString("| Date | Artist | Track | Album | Type |\n")
	buf.WriteString("|------|--------|-------|-------|------|\n")
	for _, release := range releases {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			release.ReleaseDate.Format(models.DateOnly),
			release.ArtistName,
			release.TrackName,
			release.AlbumName,
			release.AlbumType,
		))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a release list to pretty-printed JSON
func ExportToJSON(releases []models.Release) ([]byte, error) {
	return shared.MarshalJSON(releases, true)
}

// WriteReleases exports a release list to a file in the given format
// (json, csv, markdown, txt). An unknown format falls back to JSON.
func WriteReleases(releases []models.Release, format, filepath string) (string, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "csv":
		data, err = ExportToCSV(releases)
	case "markdown":
		data, err = ExportToMarkdown(releases)
	case "txt":
		data, err = ExportToText(releases)
	case "json":
		fallthrough
	default:
		data, err = ExportToJSON(releases)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return filepath, nil
}

// RosterBackup is the envelope written by WriteRosterBackup.
type RosterBackup struct {
	ExportedAt time.Time       `json:"exported_at"`
	Artists    []models.Artist `json:"artists"`
}

// WriteRosterBackup exports the tracked artist roster to a JSON file.
func WriteRosterBackup(artists []models.Artist, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("roster_backup_%d.json", time.Now().Unix())
	}

	backup := RosterBackup{
		ExportedAt: time.Now(),
		Artists:    artists,
	}

	data, err := shared.MarshalJSON(backup, true)
	if err != nil {
		return "", fmt.Errorf("failed to generate backup JSON: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}

	return filepath, nil
}

// ReadRosterBackup loads a roster backup written by WriteRosterBackup.
func ReadRosterBackup(filepath string) (*RosterBackup, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup file: %w", err)
	}

	var backup RosterBackup
	if err := shared.UnmarshalJSON(data, &backup); err != nil {
		return nil, fmt.Errorf("failed to parse backup file: %w", err)
	}

	return &backup, nil
}
