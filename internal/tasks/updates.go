package tasks

import (
	"fmt"

	"github.com/desertthunder/amx/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or TUI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchTargets Phase = iota
	IndexSource
	FetchTracks
	ResolveTracks
	AppendTracks
	PlaylistDone
)

func (p Phase) String() string {
	switch p {
	case FetchTargets:
		return "fetch_targets"
	case IndexSource:
		return "index_source"
	case FetchTracks:
		return "fetch_tracks"
	case ResolveTracks:
		return "resolve_tracks"
	case AppendTracks:
		return "append_tracks"
	case PlaylistDone:
		return "playlist_done"
	default:
		return "unknown"
	}
}

// fetchTargetsUpdate is the constructor for [FetchTargets] updates
func fetchTargetsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTargets,
		Step:    1,
		Total:   1,
		Message: "Listing Apple Music playlists flagged for sync...",
	}
}

// indexSourceUpdate is the constructor for [IndexSource] updates
func indexSourceUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   IndexSource,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Indexed %d Spotify playlists by name", count),
	}
}

// fetchTracksUpdate is the constructor for [FetchTracks] updates
func fetchTracksUpdate(step, total int, playlist models.PlaylistRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching tracks from %q", playlist.Name),
		Data:    playlist,
	}
}

// resolveTracksUpdate is the constructor for [ResolveTracks] updates
func resolveTracksUpdate(step, total, trackCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Resolving %d tracks against the Apple Music catalog", trackCount),
	}
}

// appendTracksUpdate is the constructor for [AppendTracks] updates
func appendTracksUpdate(step, total, trackCount int, playlist models.PlaylistRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AppendTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Appending %d tracks to %q", trackCount, playlist.Name),
		Data:    playlist,
	}
}

// playlistDoneUpdate is the constructor for [PlaylistDone] updates
func playlistDoneUpdate(step, total int, result PlaylistSyncResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlaylistDone,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Finished %q", result.Target.Name),
		Data:    result,
	}
}
