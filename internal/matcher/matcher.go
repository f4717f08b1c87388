// package matcher chooses, among target-catalog candidates sharing an ISRC,
// the entry that best matches a source track's metadata.
package matcher

import (
	"github.com/adrg/strutil/metrics"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/amx/internal/models"
)

var levenshtein = metrics.NewLevenshtein()

// Distance scores how far apart two metadata records are. Zero means an
// exact album-name match; otherwise the score is the Levenshtein distance
// between album names plus the absolute difference in days between release
// dates when both are present. A missing date on either side contributes
// nothing, so sparse metadata is never penalized.
func Distance(a, b models.TrackMeta) int {
	if a.Album == b.Album {
		return 0
	}

	d := levenshtein.Distance(a.Album, b.Album)

	if a.Released != nil && b.Released != nil {
		days := int(a.Released.Sub(*b.Released).Hours() / 24)
		if days < 0 {
			days = -days
		}
		d += days
	}

	return d
}

// Match pairs a source track with the catalog entry chosen for it.
type Match struct {
	Track     models.SourceTrack
	CatalogID string
}

// Resolve picks the best candidate for each source track.
//
// Matches are returned in input order. A track whose ISRC has no entry in
// the candidate map (or an empty candidate list) lands in unresolved rather
// than failing the batch. Ties on distance keep the first-listed candidate.
func Resolve(candidates map[string][]models.Candidate, tracks []models.SourceTrack) (matches []Match, unresolved []models.SourceTrack) {
	for _, track := range tracks {
		group, ok := candidates[track.ISRC]
		if !ok || len(group) == 0 {
			unresolved = append(unresolved, track)
			continue
		}

		best := group[0]
		bestDistance := Distance(track.Meta, best.Meta)
		for _, cand := range group[1:] {
			if d := Distance(track.Meta, cand.Meta); d < bestDistance {
				best = cand
				bestDistance = d
			}
		}

		matches = append(matches, Match{Track: track, CatalogID: best.CatalogID})
	}

	return matches, unresolved
}

// LogUnresolved reports tracks that found no catalog entry, identified by ISRC.
func LogUnresolved(logger *log.Logger, unresolved []models.SourceTrack) {
	if logger == nil {
		return
	}
	for _, track := range unresolved {
		logger.Warn("failed to match isrc", "isrc", track.ISRC, "album", track.Meta.Album)
	}
}
