// Spotify API implementation of [Catalog]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Spotify's maximum page size for album and track listings
	albumPageLimit    = 50
	playlistPageLimit = 100
)

type externalIDs struct {
	ISRC string `json:"isrc"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// spotifyArtist represents a Spotify artist object.
type spotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// spotifyAlbum represents a simplified Spotify album object.
type spotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
	AlbumType   string `json:"album_type"`
}

// spotifyTrack represents a Spotify track object.
type spotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []spotifyArtist `json:"artists"`
	Album        spotifyAlbum    `json:"album"`
	ExternalIDs  externalIDs     `json:"external_ids"`
	ExternalURLs externalURLs    `json:"external_urls"`
	Popularity   int             `json:"popularity"`
}

// spotifyPaginatedAlbums represents one page of an artist's albums.
type spotifyPaginatedAlbums struct {
	Items  []spotifyAlbum `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
	Next   *string        `json:"next"`
}

// spotifyPaginatedTracks represents one page of an album's tracks.
type spotifyPaginatedTracks struct {
	Items []spotifyTrack `json:"items"`
	Next  *string        `json:"next"`
}

type spotifyPlaylistTrack struct {
	Track *spotifyTrack `json:"track"`
}

// spotifyPaginatedPlaylistTracks represents one page of a playlist's tracks.
type spotifyPaginatedPlaylistTracks struct {
	Items []spotifyPlaylistTrack `json:"items"`
	Next  *string                `json:"next"`
}

type artistSearchResponse struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

type trackSearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyCatalog implements the Catalog interface against the Spotify Web API.
// Authentication uses the OAuth2 client credentials flow; the returned client
// refreshes its token transparently.
type SpotifyCatalog struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyCatalog creates a catalog client using the client credentials flow.
func NewSpotifyCatalog(ctx context.Context, clientID, clientSecret string) (*SpotifyCatalog, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("missing spotify client_id or client_secret")
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	return &SpotifyCatalog{
		baseURL:    spotifyBaseURL,
		httpClient: conf.Client(ctx),
	}, nil
}

// NewSpotifyCatalogWithClient creates a catalog client with an injected HTTP
// client and base URL. Used by tests against httptest servers.
func NewSpotifyCatalogWithClient(client *http.Client, baseURL string) *SpotifyCatalog {
	if client == nil {
		client = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = spotifyBaseURL
	}
	return &SpotifyCatalog{baseURL: baseURL, httpClient: client}
}

func (s *SpotifyCatalog) Name() string {
	return "Spotify"
}

// doRequest performs a GET against the API and decodes the JSON response.
// All failures come back as *APIError.
func (s *SpotifyCatalog) doRequest(ctx context.Context, endpoint string, result any) error {
	apiURL := s.baseURL + endpoint

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return transportError(fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return nil
}

// GetArtist retrieves an artist by ID.
func (s *SpotifyCatalog) GetArtist(ctx context.Context, artistID string) (*Artist, error) {
	var artist spotifyArtist
	endpoint := fmt.Sprintf("/artists/%s", artistID)
	if err := s.doRequest(ctx, endpoint, &artist); err != nil {
		return nil, err
	}
	return &Artist{ID: artist.ID, Name: artist.Name}, nil
}

// SearchArtist finds the top artist match for a name.
func (s *SpotifyCatalog) SearchArtist(ctx context.Context, name string) (*Artist, error) {
	query := url.QueryEscape(fmt.Sprintf("artist:%s", name))
	endpoint := fmt.Sprintf("/search?q=%s&type=artist&limit=1", query)

	var response artistSearchResponse
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	if len(response.Artists.Items) == 0 {
		return nil, &APIError{Kind: KindNotFound, Message: fmt.Sprintf("no artist matching %q", name)}
	}

	top := response.Artists.Items[0]
	return &Artist{ID: top.ID, Name: top.Name}, nil
}

// ListAlbums retrieves one page of an artist's albums, newest first.
func (s *SpotifyCatalog) ListAlbums(ctx context.Context, artistID string, types []string, offset int) (*AlbumPage, error) {
	groups := strings.Join(types, ",")
	endpoint := fmt.Sprintf("/artists/%s/albums?include_groups=%s&limit=%d&offset=%d",
		artistID, url.QueryEscape(groups), albumPageLimit, offset)

	var response spotifyPaginatedAlbums
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	page := &AlbumPage{Albums: make([]Album, 0, len(response.Items))}
	for _, item := range response.Items {
		page.Albums = append(page.Albums, Album{
			ID:          item.ID,
			Name:        item.Name,
			ReleaseDate: item.ReleaseDate,
			AlbumType:   item.AlbumType,
		})
	}

	if response.Next != nil {
		page.HasNext = true
		page.NextOffset = offset + albumPageLimit
	}

	return page, nil
}

// ListAlbumTracks retrieves the full track listing for an album.
func (s *SpotifyCatalog) ListAlbumTracks(ctx context.Context, albumID string) ([]AlbumTrack, error) {
	var tracks []AlbumTrack
	offset := 0

	for {
		endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", albumID, albumPageLimit, offset)

		var response spotifyPaginatedTracks
		if err := s.doRequest(ctx, endpoint, &response); err != nil {
			return nil, err
		}

		for _, item := range response.Items {
			tracks = append(tracks, AlbumTrack{ID: item.ID, Name: item.Name})
		}

		if response.Next == nil {
			break
		}
		offset += albumPageLimit
	}

	return tracks, nil
}

// GetTrack retrieves full track detail including ISRC and popularity.
func (s *SpotifyCatalog) GetTrack(ctx context.Context, trackID string) (*TrackDetail, error) {
	var track spotifyTrack
	endpoint := fmt.Sprintf("/tracks/%s", trackID)
	if err := s.doRequest(ctx, endpoint, &track); err != nil {
		return nil, err
	}

	return &TrackDetail{
		ID:         track.ID,
		Name:       track.Name,
		ISRC:       track.ExternalIDs.ISRC,
		Popularity: track.Popularity,
		URL:        track.ExternalURLs.Spotify,
	}, nil
}

// SearchByISRC finds every release carrying the given recording code.
func (s *SpotifyCatalog) SearchByISRC(ctx context.Context, isrc string) ([]ISRCMatch, error) {
	query := url.QueryEscape(fmt.Sprintf("isrc:%s", isrc))
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", query, albumPageLimit)

	var response trackSearchResponse
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	matches := make([]ISRCMatch, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		matches = append(matches, ISRCMatch{
			TrackID:     item.ID,
			AlbumName:   item.Album.Name,
			ReleaseDate: item.Album.ReleaseDate,
		})
	}

	return matches, nil
}

// ListPlaylistArtists collects the unique artists appearing on a playlist.
// Ordering follows first appearance in the playlist.
func (s *SpotifyCatalog) ListPlaylistArtists(ctx context.Context, playlistID string) ([]Artist, error) {
	seen := make(map[string]bool)
	var artists []Artist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, playlistPageLimit, offset)

		var response spotifyPaginatedPlaylistTracks
		if err := s.doRequest(ctx, endpoint, &response); err != nil {
			return nil, err
		}

		for _, item := range response.Items {
			if item.Track == nil {
				continue
			}
			for _, artist := range item.Track.Artists {
				// Local files carry no artist ID
				if artist.ID == "" || seen[artist.ID] {
					continue
				}
				seen[artist.ID] = true
				artists = append(artists, Artist{ID: artist.ID, Name: artist.Name})
			}
		}

		if response.Next == nil {
			break
		}
		offset += playlistPageLimit
	}

	return artists, nil
}
