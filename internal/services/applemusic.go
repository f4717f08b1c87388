// Apple Music web API implementation of [TargetService]
//
// Talks to amp-api.music.apple.com, the private API backing music.apple.com.
// Authentication is a captured browser session: developer bearer token,
// media-user-token, and cookies (see shared.ParseCurlCommand).
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amx/internal/matcher"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultAMBaseURL    = "https://amp-api.music.apple.com"
	defaultStorefront   = "us"
	defaultSyncMarker   = "[amsync]"
	defaultAMRateLimit  = 5.0
	isrcLookupBatchSize = 5  // filter[isrc] query size limit
	appendBatchSize     = 20 // mutation payload size limit
)

// amLibraryPlaylist represents one entry of the library playlists listing.
type amLibraryPlaylist struct {
	ID         string `json:"id"`
	Attributes struct {
		Name string `json:"name"`
	} `json:"attributes"`
}

type amLibraryPlaylistsResponse struct {
	Data []amLibraryPlaylist `json:"data"`
}

// amCatalogSong represents one catalog song from the ISRC filter lookup.
type amCatalogSong struct {
	ID         string `json:"id"`
	Attributes struct {
		ISRC        string `json:"isrc"`
		Name        string `json:"name"`
		AlbumName   string `json:"albumName"`
		ReleaseDate string `json:"releaseDate"` // absent for some catalog entries
	} `json:"attributes"`
}

// amCatalogSongsResponse mirrors the format[resources]=map response shape:
// songs arrive keyed by catalog id under resources.songs.
type amCatalogSongsResponse struct {
	Resources struct {
		Songs map[string]amCatalogSong `json:"songs"`
	} `json:"resources"`
}

type amAppendTrack struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// amAppendRequest is the exact body shape the append endpoint requires:
// {"data":[{"type":"songs","id":...}, ...]}
type amAppendRequest struct {
	Data []amAppendTrack `json:"data"`
}

// AppleMusicService implements [TargetService] against the Apple Music web API.
type AppleMusicService struct {
	baseURL    string
	storefront string
	marker     string
	headers    map[string]string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// AppleMusicOpts contains configuration options for creating an [AppleMusicService].
type AppleMusicOpts struct {
	BaseURL     string            // defaults to the amp-api production host
	Credentials map[string]string // bearer, media_user_token, cookies, storefront
	Marker      string            // sync marker substring, defaults to "[amsync]"
	RateLimit   float64           // requests per second, defaults to 5
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// NewAppleMusicService creates a new Apple Music service from a captured
// browser session. Missing bearer, media-user-token, or cookie values are a
// startup error.
func NewAppleMusicService(opts AppleMusicOpts) (*AppleMusicService, error) {
	creds := opts.Credentials

	bearer := creds["bearer"]
	if bearer == "" {
		return nil, fmt.Errorf("%w: bearer", shared.ErrMissingCredentials)
	}
	mediaUserToken := creds["media_user_token"]
	if mediaUserToken == "" {
		return nil, fmt.Errorf("%w: media_user_token", shared.ErrMissingCredentials)
	}
	cookies := creds["cookies"]
	if cookies == "" {
		return nil, fmt.Errorf("%w: cookies", shared.ErrMissingCredentials)
	}

	storefront := creds["storefront"]
	if storefront == "" {
		storefront = defaultStorefront
	}

	if opts.BaseURL == "" {
		opts.BaseURL = defaultAMBaseURL
	}
	if opts.Marker == "" {
		opts.Marker = defaultSyncMarker
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultAMRateLimit
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	if !strings.HasPrefix(bearer, "Bearer ") {
		bearer = "Bearer " + bearer
	}

	headers := map[string]string{
		"Authorization":    bearer,
		"media-user-token": mediaUserToken,
		"Cookie":           cookies,
		"Origin":           "https://music.apple.com",
		"Referer":          "https://music.apple.com",
	}

	return &AppleMusicService{
		baseURL:    opts.BaseURL,
		storefront: storefront,
		marker:     opts.Marker,
		headers:    headers,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		logger:     opts.Logger.With("service", "applemusic"),
	}, nil
}

func (a *AppleMusicService) Name() string {
	return "Apple Music"
}

// Marker returns the sync marker substring this service filters playlist names by.
func (a *AppleMusicService) Marker() string {
	return a.marker
}

// doRequest performs a rate-limited request with the session headers applied
// and decodes a 2xx JSON response into result.
func (a *AppleMusicService) doRequest(ctx context.Context, method, endpoint string, body []byte, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	var reader *bytes.Reader
	var req *http.Request
	var err error

	if body != nil {
		reader = bytes.NewReader(body)
		req, err = http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, reader)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range a.headers {
		req.Header.Set(key, value)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: apple music status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
	}

	return nil
}

// SyncTargets lists library playlists whose name contains the sync marker.
//
// A transport failure yields an empty list: no targets, nothing to sync this
// run.
func (a *AppleMusicService) SyncTargets(ctx context.Context) []models.PlaylistRef {
	var listing amLibraryPlaylistsResponse
	if err := a.doRequest(ctx, http.MethodGet, "/v1/me/library/playlists", nil, &listing); err != nil {
		a.logger.Warn("failed to list library playlists", "err", err)
		return nil
	}

	var targets []models.PlaylistRef
	for _, pl := range listing.Data {
		if strings.Contains(pl.Attributes.Name, a.marker) {
			targets = append(targets, models.PlaylistRef{ID: pl.ID, Name: pl.Attributes.Name})
		}
	}

	return targets
}

// ResolveTracks bulk-matches source tracks to catalog song ids.
//
// Lookups go out in ISRC batches of five. The operation fails closed: a
// transport failure on any batch, or a release date outside the documented
// Y / Y-M / Y-M-D shapes, aborts the whole resolution. Unresolved tracks are
// logged by ISRC and reported in the result, never as an error.
func (a *AppleMusicService) ResolveTracks(ctx context.Context, tracks []models.SourceTrack) (*ResolveResult, error) {
	candidates := make(map[string][]models.Candidate, len(tracks))

	for start := 0; start < len(tracks); start += isrcLookupBatchSize {
		end := min(start+isrcLookupBatchSize, len(tracks))

		if err := a.lookupCandidates(ctx, tracks[start:end], candidates); err != nil {
			return nil, err
		}
	}

	matches, unresolved := matcher.Resolve(candidates, tracks)
	matcher.LogUnresolved(a.logger, unresolved)

	return &ResolveResult{Matches: matches, Unresolved: unresolved}, nil
}

// lookupCandidates issues one bulk ISRC lookup and folds the response into
// the candidate map.
func (a *AppleMusicService) lookupCandidates(ctx context.Context, batch []models.SourceTrack, candidates map[string][]models.Candidate) error {
	isrcs := make([]string, 0, len(batch))
	for _, t := range batch {
		isrcs = append(isrcs, t.ISRC)
	}

	query := url.Values{}
	query.Set("filter[isrc]", strings.Join(isrcs, ","))
	query.Set("fields[songs]", "id,isrc,name,releaseDate,albumName")
	query.Set("fields[music-videos]", "id")
	query.Set("fields[library-songs]", "id")
	query.Set("fields[playlists]", "supportsSing")
	query.Set("format[resources]", "map")
	query.Set("include", "fields")
	query.Set("omit", "autos")

	endpoint := fmt.Sprintf("/v1/catalog/%s/songs?%s", a.storefront, query.Encode())

	var resp amCatalogSongsResponse
	if err := a.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return fmt.Errorf("isrc lookup: %w", err)
	}

	// The map response shape loses ordering; sort by catalog id so candidate
	// order (and therefore tie-breaking) is deterministic across runs.
	ids := make([]string, 0, len(resp.Resources.Songs))
	for id := range resp.Resources.Songs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessCatalogID(ids[i], ids[j]) })

	for _, id := range ids {
		song := resp.Resources.Songs[id]

		meta := models.TrackMeta{Album: song.Attributes.AlbumName}
		if song.Attributes.ReleaseDate != "" {
			released, err := models.InferReleaseDate(song.Attributes.ReleaseDate)
			if err != nil {
				return fmt.Errorf("%w: song %s: %v", shared.ErrMalformedResponse, song.ID, err)
			}
			meta.Released = &released
		}

		isrc := models.NormalizeISRC(song.Attributes.ISRC)
		candidates[isrc] = append(candidates[isrc], models.Candidate{
			CatalogID: song.ID,
			Meta:      meta,
		})
	}

	return nil
}

// lessCatalogID orders catalog ids numerically when both parse as integers,
// lexicographically otherwise.
func lessCatalogID(a, b string) bool {
	ai, aerr := strconv.ParseUint(a, 10, 64)
	bi, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}

// AppendTracks adds catalog song ids to a library playlist in batches of
// twenty. A rejected batch is logged and counted, not retried; the playlist
// may end up partially synced and the result says by how much.
func (a *AppleMusicService) AppendTracks(ctx context.Context, playlistID string, catalogIDs []string) (*AppendResult, error) {
	result := &AppendResult{}
	endpoint := fmt.Sprintf("/v1/me/library/playlists/%s/tracks", playlistID)

	for start := 0; start < len(catalogIDs); start += appendBatchSize {
		end := min(start+appendBatchSize, len(catalogIDs))
		chunk := catalogIDs[start:end]

		payload := amAppendRequest{Data: make([]amAppendTrack, 0, len(chunk))}
		for _, id := range chunk {
			payload.Data = append(payload.Data, amAppendTrack{Type: "songs", ID: id})
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return result, fmt.Errorf("failed to encode append payload: %w", err)
		}

		result.BatchesAttempted++
		if err := a.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			a.logger.Warn("append batch rejected", "playlist", playlistID, "tracks", len(chunk), "err", err)
			continue
		}

		result.BatchesConfirmed++
		result.TracksAppended += len(chunk)
	}

	return result, nil
}
