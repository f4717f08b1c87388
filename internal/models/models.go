package models

import (
	"strings"
	"time"
)

// TrackMeta carries the descriptive metadata used to tell apart catalog
// entries that share an ISRC (regional re-releases, compilations).
type TrackMeta struct {
	Album    string
	Released *time.Time // nil when the catalog reported no release date
}

// SourceTrack is one playlist entry pulled from the source catalog.
type SourceTrack struct {
	ISRC string // normalized to uppercase on ingestion
	Meta TrackMeta
}

// Candidate is one target-catalog entry that may represent the same
// recording as a source track.
type Candidate struct {
	CatalogID string // opaque Apple Music catalog song id
	Meta      TrackMeta
}

// PlaylistRef identifies a playlist by catalog id and display name.
type PlaylistRef struct {
	ID   string
	Name string
}

// NormalizeISRC uppercases and trims an ISRC so all internal comparisons
// are exact string equality.
func NormalizeISRC(isrc string) string {
	return strings.ToUpper(strings.TrimSpace(isrc))
}
