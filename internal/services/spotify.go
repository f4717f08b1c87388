// Spotify API implementation of [SourceService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// Page sizes for offset pagination. Termination relies on a short page,
	// never on the total field: not every catalog reports totals.
	playlistPageSize = 30
	trackPageSize    = 50
)

type externalIDs struct {
	ISRC string `json:"isrc"`
}

// SpotifyAlbum carries the album fields used for candidate tie-breaking.
type SpotifyAlbum struct {
	Name                 string `json:"name"`
	ReleaseDate          string `json:"release_date"`
	ReleaseDatePrecision string `json:"release_date_precision"` // "year", "month", or "day"
}

// SpotifyPlayableItem is the polymorphic entry of a playlist: a track or a
// podcast episode, discriminated by the type field.
type SpotifyPlayableItem struct {
	Type        string       `json:"type"` // "track" or "episode"
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	ExternalIDs externalIDs  `json:"external_ids"`
	Album       SpotifyAlbum `json:"album"`
}

type spotifyPlaylistItem struct {
	Track *SpotifyPlayableItem `json:"track"` // null for removed or local entries
}

type spotifyPaginatedItems struct {
	Items []spotifyPlaylistItem `json:"items"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyPaginatedPlaylists struct {
	Items []SpotifySimplePlaylist `json:"items"`
}

// SpotifyService implements [SourceService] for Spotify API interactions.
// Uses [oauth2] for authentication.
type SpotifyService struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
	logger     *log.Logger
	baseURL    string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, logger *log.Logger) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8888/callback"
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		logger:     logger.With("service", "spotify"),
		baseURL:    spotifyBaseURL,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state)
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" or "auth_code" in credentials; an auth code is exchanged at
// the token endpoint.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: code exchange: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: access_token or auth_code", shared.ErrMissingCredentials)
}

// doRequest performs an authenticated GET request against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// Playlists retrieves all playlists for the authenticated user, paging until
// a page comes back short.
func (s *SpotifyService) Playlists(ctx context.Context) ([]models.PlaylistRef, error) {
	var refs []models.PlaylistRef
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", playlistPageSize, offset)

		var page spotifyPaginatedPlaylists
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		for _, pl := range page.Items {
			refs = append(refs, models.PlaylistRef{ID: pl.ID, Name: pl.Name})
		}

		if len(page.Items) < playlistPageSize {
			break
		}
		offset += playlistPageSize
	}

	return refs, nil
}

// PlaylistTracks retrieves the ISRC-bearing tracks of a playlist.
//
// Episodes, entries without an ISRC, and null track objects are skipped.
// A transport failure mid-pagination truncates to the tracks collected so
// far: the listing is best effort.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error) {
	var tracks []models.SourceTrack
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, trackPageSize, offset)

		var page spotifyPaginatedItems
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			s.logger.Warn("playlist page fetch failed, returning partial listing",
				"playlist", playlistID, "offset", offset, "err", err)
			return tracks, nil
		}

		for _, item := range page.Items {
			if track, ok := s.sourceTrack(item); ok {
				tracks = append(tracks, track)
			}
		}

		if len(page.Items) < trackPageSize {
			break
		}
		offset += trackPageSize
	}

	return tracks, nil
}

// sourceTrack converts one playlist entry to a [models.SourceTrack],
// reporting false for entries that cannot participate in matching.
func (s *SpotifyService) sourceTrack(item spotifyPlaylistItem) (models.SourceTrack, bool) {
	t := item.Track
	if t == nil || t.Type != "track" {
		return models.SourceTrack{}, false
	}

	if t.ExternalIDs.ISRC == "" {
		s.logger.Debug("skipping track without isrc", "track", t.Name)
		return models.SourceTrack{}, false
	}

	meta := models.TrackMeta{Album: t.Album.Name}

	if t.Album.ReleaseDate != "" {
		precision, err := models.PrecisionFromString(t.Album.ReleaseDatePrecision)
		if err == nil {
			if released, err := models.ParseReleaseDate(t.Album.ReleaseDate, precision); err == nil {
				meta.Released = &released
			} else {
				s.logger.Debug("unparseable release date", "track", t.Name, "date", t.Album.ReleaseDate)
			}
		}
	}

	return models.SourceTrack{
		ISRC: models.NormalizeISRC(t.ExternalIDs.ISRC),
		Meta: meta,
	}, true
}
