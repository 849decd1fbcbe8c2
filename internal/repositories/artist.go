package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/releaseradar/internal/models"
	"github.com/desertthunder/releaseradar/internal/shared"
)

// ArtistRepository manages the tracked artist roster.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// Add inserts an artist into the roster. Returns false when the artist is
// already tracked (no error), true when newly added.
func (r *ArtistRepository) Add(name, spotifyID string) (bool, error) {
	if err := models.ValidateArtistName(name); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	if err := models.ValidateSpotifyID(spotifyID); err != nil {
		return false, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	result, err := r.db.Exec(`
		INSERT OR IGNORE INTO artists (id, spotify_artist_id, artist_name, date_added)
		VALUES (?, ?, ?, ?)
	`, shared.GenerateID(), spotifyID, name, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to insert artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// AddBatch inserts many artists, skipping those already tracked.
// Returns the added and skipped counts.
func (r *ArtistRepository) AddBatch(artists []models.Artist) (added, skipped int, err error) {
	for _, artist := range artists {
		ok, addErr := r.Add(artist.Name, artist.SpotifyID)
		if addErr != nil {
			return added, skipped, addErr
		}
		if ok {
			added++
		} else {
			skipped++
		}
	}
	return added, skipped, nil
}

// All retrieves the full roster ordered by date added.
func (r *ArtistRepository) All() ([]models.Artist, error) {
	rows, err := r.db.Query(`
		SELECT id, spotify_artist_id, artist_name, date_added
		FROM artists
		ORDER BY date_added ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []models.Artist
	for rows.Next() {
		var a models.Artist
		if err := rows.Scan(&a.ID, &a.SpotifyID, &a.Name, &a.DateAdded); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return artists, nil
}

// IDs retrieves every tracked artist's Spotify ID.
func (r *ArtistRepository) IDs() ([]string, error) {
	rows, err := r.db.Query(`SELECT spotify_artist_id FROM artists ORDER BY date_added ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artist ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan artist id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return ids, nil
}

// GetBySpotifyID retrieves one roster entry.
func (r *ArtistRepository) GetBySpotifyID(spotifyID string) (*models.Artist, error) {
	var a models.Artist
	err := r.db.QueryRow(`
		SELECT id, spotify_artist_id, artist_name, date_added
		FROM artists
		WHERE spotify_artist_id = ?
	`, spotifyID).Scan(&a.ID, &a.SpotifyID, &a.Name, &a.DateAdded)
	if err == sql.ErrNoRows {
		return nil, shared.ErrArtistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}
	return &a, nil
}

// Remove deletes an artist from the roster by Spotify ID.
// Returns false when no such artist was tracked.
func (r *ArtistRepository) Remove(spotifyID string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM artists WHERE spotify_artist_id = ?`, spotifyID)
	if err != nil {
		return false, fmt.Errorf("failed to delete artist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}

// Count returns the roster size.
func (r *ArtistRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM artists`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count artists: %w", err)
	}
	return count, nil
}

// Clear removes every artist from the roster. Returns the number removed.
func (r *ArtistRepository) Clear() (int, error) {
	result, err := r.db.Exec(`DELETE FROM artists`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear artists: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}
