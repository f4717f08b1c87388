// Package models defines the domain value types passed between the catalog
// gateways, the matcher, and the sync engine.
//
// All types are immutable value objects: one stage produces them, the next
// consumes them.
//
//   - [SourceTrack] : an ISRC plus descriptive metadata pulled from Spotify
//   - [Candidate] : one Apple Music catalog entry sharing a source track's ISRC
//   - [TrackMeta] : album name + optional release date, the tie-breaker data
//   - [PlaylistRef] : name/id pair used for playlists in both catalogs
//
// Release dates arrive from the catalogs at varying precision (year, month,
// or day); [ParseReleaseDate] fills the missing components with fixed
// midpoints so distance scoring degrades gracefully instead of biasing
// toward January 1st.
package models
