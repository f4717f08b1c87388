// package tasks implements the playlist sync between the source and target catalogs.
//
// The core abstraction is SyncEngine, which matches marker-flagged Apple Music
// playlists to Spotify playlists by name, resolves their tracks, and pushes the
// resolved catalog ids. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
)

// PlaylistSyncResult records what happened to a single sync target.
type PlaylistSyncResult struct {
	Target           models.PlaylistRef   // Apple Music playlist flagged for sync
	Source           models.PlaylistRef   // matched Spotify playlist (zero value when skipped)
	Skipped          bool                 // no source playlist with the stripped name
	TracksFetched    int                  // ISRC-bearing tracks pulled from the source
	Resolved         int                  // tracks matched to a catalog id
	Unresolved       int                  // tracks with no catalog candidate
	UnresolvedTracks []models.SourceTrack // the unmatched tracks, for reporting
	BatchesAttempted int                  // append batches issued
	BatchesConfirmed int                  // append batches the catalog accepted
	TracksAppended   int                  // tracks in confirmed batches
	Err              error                // per-playlist failure, run continues
}

// SyncRunResult aggregates a full sync run for the summary report.
type SyncRunResult struct {
	Playlists       []PlaylistSyncResult
	Matched         int // targets with a source counterpart
	Skipped         int // targets without one
	TotalResolved   int
	TotalUnresolved int
	TotalAppended   int
	DryRun          bool
}

// SyncRunOpts contains per-run options.
type SyncRunOpts struct {
	DryRun bool // resolve but do not append
}

// SyncEngine defines the playlist sync operation.
type SyncEngine interface {
	// Run performs a full source → target sync across all marker-flagged playlists.
	Run(ctx context.Context, progress chan<- ProgressUpdate, opts SyncRunOpts) (*SyncRunResult, error)
}

// PlaylistEngine implements [SyncEngine].
type PlaylistEngine struct {
	source services.SourceService
	target services.TargetService
	marker string
	logger *log.Logger
}

// NewPlaylistEngine creates a new PlaylistEngine with the provided services.
// The marker is the playlist-name substring that flags sync targets and is
// stripped before matching names against the source catalog.
func NewPlaylistEngine(source services.SourceService, target services.TargetService, marker string, logger *log.Logger) *PlaylistEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &PlaylistEngine{
		source: source,
		target: target,
		marker: marker,
		logger: logger.With("component", "sync"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *PlaylistEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full sync across all marker-flagged target playlists.
//
// Playlists are processed sequentially. Per-playlist failures are recorded
// on the result and do not abort the run; only a failure to list the source
// catalog (nothing can be matched without the name index) is terminal.
func (e *PlaylistEngine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts SyncRunOpts) (*SyncRunResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: source service not initialized", shared.ErrServiceUnavailable)
	}
	if e.target == nil {
		return nil, fmt.Errorf("%w: target service not initialized", shared.ErrServiceUnavailable)
	}

	result := &SyncRunResult{DryRun: opts.DryRun}

	e.sendProgress(progress, fetchTargetsUpdate())
	targets := e.target.SyncTargets(ctx)
	if len(targets) == 0 {
		e.logger.Info("no playlists flagged for sync")
		return result, nil
	}

	sources, err := e.source.Playlists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source playlists: %w", err)
	}

	index := make(map[string]models.PlaylistRef, len(sources))
	for _, src := range sources {
		index[strings.TrimSpace(src.Name)] = src
	}
	e.sendProgress(progress, indexSourceUpdate(len(index)))

	total := len(targets)
	for i, target := range targets {
		pr := e.syncPlaylist(ctx, progress, i+1, total, target, index, opts)

		result.Playlists = append(result.Playlists, pr)
		if pr.Skipped {
			result.Skipped++
			continue
		}

		result.Matched++
		result.TotalResolved += pr.Resolved
		result.TotalUnresolved += pr.Unresolved
		result.TotalAppended += pr.TracksAppended

		e.sendProgress(progress, playlistDoneUpdate(i+1, total, pr))
	}

	return result, nil
}

// syncPlaylist fetches, resolves, and appends one sync target.
func (e *PlaylistEngine) syncPlaylist(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	step, total int,
	target models.PlaylistRef,
	index map[string]models.PlaylistRef,
	opts SyncRunOpts,
) PlaylistSyncResult {
	pr := PlaylistSyncResult{Target: target}

	sourceName := strings.TrimSpace(strings.ReplaceAll(target.Name, e.marker, ""))
	source, ok := index[sourceName]
	if !ok {
		// No source counterpart means nothing to sync yet, not an error.
		e.logger.Debug("no source playlist for sync target", "target", target.Name, "wanted", sourceName)
		pr.Skipped = true
		return pr
	}
	pr.Source = source

	e.sendProgress(progress, fetchTracksUpdate(step, total, source))
	tracks, err := e.source.PlaylistTracks(ctx, source.ID)
	if err != nil {
		pr.Err = fmt.Errorf("failed to fetch source tracks: %w", err)
		e.logger.Warn("skipping playlist", "playlist", source.Name, "err", err)
		return pr
	}
	pr.TracksFetched = len(tracks)

	e.sendProgress(progress, resolveTracksUpdate(step, total, len(tracks)))
	resolved, err := e.target.ResolveTracks(ctx, tracks)
	if err != nil {
		// Fail closed: a partial match set is worse than no sync for this
		// playlist. Nothing is appended.
		pr.Err = fmt.Errorf("resolution aborted: %w", err)
		e.logger.Warn("skipping playlist", "playlist", source.Name, "err", err)
		return pr
	}
	pr.Resolved = len(resolved.Matches)
	pr.Unresolved = len(resolved.Unresolved)
	pr.UnresolvedTracks = resolved.Unresolved

	if opts.DryRun {
		e.logger.Info("dry run, not appending", "playlist", target.Name, "resolved", pr.Resolved)
		return pr
	}

	e.sendProgress(progress, appendTracksUpdate(step, total, pr.Resolved, target))
	appendRes, err := e.target.AppendTracks(ctx, target.ID, resolved.CatalogIDs())
	if err != nil {
		pr.Err = fmt.Errorf("append failed: %w", err)
		return pr
	}
	pr.BatchesAttempted = appendRes.BatchesAttempted
	pr.BatchesConfirmed = appendRes.BatchesConfirmed
	pr.TracksAppended = appendRes.TracksAppended

	return pr
}
