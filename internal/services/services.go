package services

import (
	"context"
)

// Catalog defines the music catalog capability the tracking engine calls
// against. Implementations must be safe for concurrent use; the engine fans
// out over many artists at once.
type Catalog interface {
	// GetArtist retrieves an artist by catalog ID.
	GetArtist(ctx context.Context, artistID string) (*Artist, error)

	// SearchArtist finds the best-matching artist for a name.
	// Returns ErrArtistNotFound (wrapped) when nothing matches.
	SearchArtist(ctx context.Context, name string) (*Artist, error)

	// ListAlbums retrieves one page of an artist's albums, newest first.
	// types filters by album type (album, single, compilation).
	ListAlbums(ctx context.Context, artistID string, types []string, offset int) (*AlbumPage, error)

	// ListAlbumTracks retrieves the track listing for an album.
	ListAlbumTracks(ctx context.Context, albumID string) ([]AlbumTrack, error)

	// GetTrack retrieves full track detail, including the ISRC and
	// popularity score the album listing omits.
	GetTrack(ctx context.Context, trackID string) (*TrackDetail, error)

	// SearchByISRC finds every release carrying the given recording code.
	SearchByISRC(ctx context.Context, isrc string) ([]ISRCMatch, error)

	// ListPlaylistArtists collects the unique artists appearing on a
	// playlist, for roster imports.
	ListPlaylistArtists(ctx context.Context, playlistID string) ([]Artist, error)

	// Name returns the catalog provider name (e.g., "Spotify").
	Name() string
}

// Artist is a catalog artist reference.
type Artist struct {
	ID   string
	Name string
}

// Album is one entry of a newest-first album listing. ReleaseDate may be
// partial (YYYY or YYYY-MM).
type Album struct {
	ID          string
	Name        string
	ReleaseDate string
	AlbumType   string
}

// AlbumPage is one page of an album listing.
type AlbumPage struct {
	Albums     []Album
	NextOffset int  // Offset of the next page; meaningful only when HasNext
	HasNext    bool // False on the last page
}

// AlbumTrack is a track as it appears in an album listing (no ISRC or
// popularity; those require a full track fetch).
type AlbumTrack struct {
	ID   string
	Name string
}

// TrackDetail is the full track record.
type TrackDetail struct {
	ID         string
	Name       string
	ISRC       string // Empty when the catalog has no code on file
	Popularity int    // 0..100
	URL        string
}

// ISRCMatch is one release carrying a searched recording code.
type ISRCMatch struct {
	TrackID     string
	AlbumName   string
	ReleaseDate string // May be partial
}
