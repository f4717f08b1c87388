// package services defines gateways for the two music catalogs
//
// Spotify (source, read-only), Apple Music (target, read+write)
package services

import (
	"context"

	"github.com/desertthunder/amx/internal/matcher"
	"github.com/desertthunder/amx/internal/models"
)

// SourceService is the read side of a sync: the catalog playlists are pulled from.
type SourceService interface {
	// Authenticate performs OAuth or token authentication with the service.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// Playlists retrieves all playlists for the authenticated user.
	Playlists(ctx context.Context) ([]models.PlaylistRef, error)

	// PlaylistTracks retrieves the ISRC-bearing tracks of a playlist.
	// Listing is best effort: a mid-pagination failure truncates to the
	// tracks collected so far rather than failing the playlist.
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.SourceTrack, error)

	// Name returns the name of the service (e.g. "Spotify")
	Name() string
}

// OAuthService extends [SourceService] for providers that authenticate
// through a browser authorization-code flow.
type OAuthService interface {
	SourceService

	// GetAuthURL returns the provider authorization URL bound to a state nonce.
	GetAuthURL(state string) string
}

// TargetService is the write side of a sync: the catalog resolved tracks are pushed into.
type TargetService interface {
	// SyncTargets lists playlists whose name carries the sync marker.
	// A transport failure yields an empty list, not an error; there is
	// simply nothing to sync this run.
	SyncTargets(ctx context.Context) []models.PlaylistRef

	// ResolveTracks bulk-matches source tracks to catalog song ids.
	// Fails closed: any lookup transport failure or malformed catalog
	// metadata aborts the whole operation.
	ResolveTracks(ctx context.Context, tracks []models.SourceTrack) (*ResolveResult, error)

	// AppendTracks adds catalog song ids to a playlist in batches.
	// Individual batch failures are logged and counted, not retried.
	AppendTracks(ctx context.Context, playlistID string, catalogIDs []string) (*AppendResult, error)

	// Name returns the name of the service (e.g. "Apple Music")
	Name() string
}

// ResolveResult contains the outcome of a bulk ISRC resolution.
type ResolveResult struct {
	Matches    []matcher.Match      // resolved tracks in input order
	Unresolved []models.SourceTrack // tracks with no catalog candidate
}

// CatalogIDs returns the resolved catalog ids in match order.
func (r *ResolveResult) CatalogIDs() []string {
	ids := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		ids = append(ids, m.CatalogID)
	}
	return ids
}

// AppendResult reports how much of an append operation the catalog confirmed.
type AppendResult struct {
	BatchesAttempted int
	BatchesConfirmed int
	TracksAppended   int // tracks in confirmed batches
}
