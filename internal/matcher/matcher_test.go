package matcher

import (
	"testing"
	"time"

	"github.com/desertthunder/amx/internal/models"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDistance(t *testing.T) {
	t.Run("Identical Album Names Short-Circuit To Zero", func(t *testing.T) {
		a := models.TrackMeta{Album: "Hits", Released: date(2020, time.January, 1)}
		b := models.TrackMeta{Album: "Hits", Released: date(1987, time.June, 30)}

		if got := Distance(a, b); got != 0 {
			t.Errorf("expected 0 regardless of dates, got %d", got)
		}
	})

	t.Run("Missing Date Is Neutral", func(t *testing.T) {
		a := models.TrackMeta{Album: "Hits", Released: date(2020, time.January, 1)}
		b := models.TrackMeta{Album: "Hitz"}

		// Reduces to album edit distance alone.
		if got := Distance(a, b); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}

		if got := Distance(b, a); got != 1 {
			t.Errorf("expected symmetric 1, got %d", got)
		}
	})

	t.Run("Date Delta Added To Edit Distance", func(t *testing.T) {
		a := models.TrackMeta{Album: "Hits", Released: date(2020, time.January, 1)}
		b := models.TrackMeta{Album: "Hitz", Released: date(2020, time.January, 11)}

		if got := Distance(a, b); got != 11 {
			t.Errorf("expected 1 edit + 10 days = 11, got %d", got)
		}
	})

	t.Run("Case Sensitive Album Comparison", func(t *testing.T) {
		a := models.TrackMeta{Album: "hits"}
		b := models.TrackMeta{Album: "Hits"}

		if got := Distance(a, b); got != 1 {
			t.Errorf("expected 1 for case difference, got %d", got)
		}
	})
}

func TestResolve(t *testing.T) {
	t.Run("Picks Minimum Distance Candidate", func(t *testing.T) {
		// Engineered from a real mismatch: two catalog entries share the
		// ISRC, one on the matching album a day off, one on a compilation.
		tracks := []models.SourceTrack{
			{ISRC: "USABC1234567", Meta: models.TrackMeta{Album: "Hits", Released: date(2020, time.January, 1)}},
		}
		candidates := map[string][]models.Candidate{
			"USABC1234567": {
				{CatalogID: "1", Meta: models.TrackMeta{Album: "Hits", Released: date(2020, time.January, 2)}},
				{CatalogID: "2", Meta: models.TrackMeta{Album: "Best Of", Released: date(2020, time.January, 1)}},
			},
		}

		matches, unresolved := Resolve(candidates, tracks)
		if len(unresolved) != 0 {
			t.Fatalf("expected no unresolved tracks, got %d", len(unresolved))
		}
		if len(matches) != 1 {
			t.Fatalf("expected 1 match, got %d", len(matches))
		}
		if matches[0].CatalogID != "1" {
			t.Errorf("expected candidate 1, got %s", matches[0].CatalogID)
		}
	})

	t.Run("Ties Keep First Listed Candidate", func(t *testing.T) {
		tracks := []models.SourceTrack{
			{ISRC: "GBXYZ7654321", Meta: models.TrackMeta{Album: "Singles"}},
		}
		candidates := map[string][]models.Candidate{
			"GBXYZ7654321": {
				{CatalogID: "first", Meta: models.TrackMeta{Album: "Singles"}},
				{CatalogID: "second", Meta: models.TrackMeta{Album: "Singles"}},
			},
		}

		matches, _ := Resolve(candidates, tracks)
		if len(matches) != 1 || matches[0].CatalogID != "first" {
			t.Errorf("expected tie to keep first candidate, got %+v", matches)
		}
	})

	t.Run("Unknown ISRC Does Not Block The Batch", func(t *testing.T) {
		tracks := []models.SourceTrack{
			{ISRC: "MISSING000001", Meta: models.TrackMeta{Album: "Ghost"}},
			{ISRC: "USABC1234567", Meta: models.TrackMeta{Album: "Hits"}},
		}
		candidates := map[string][]models.Candidate{
			"USABC1234567": {
				{CatalogID: "42", Meta: models.TrackMeta{Album: "Hits"}},
			},
		}

		matches, unresolved := Resolve(candidates, tracks)
		if len(matches) != 1 || matches[0].CatalogID != "42" {
			t.Errorf("expected the known track to resolve, got %+v", matches)
		}
		if len(unresolved) != 1 || unresolved[0].ISRC != "MISSING000001" {
			t.Errorf("expected the unknown track reported unresolved, got %+v", unresolved)
		}
	})

	t.Run("Empty Candidate Group Is Unresolved", func(t *testing.T) {
		tracks := []models.SourceTrack{
			{ISRC: "USABC1234567", Meta: models.TrackMeta{Album: "Hits"}},
		}
		candidates := map[string][]models.Candidate{
			"USABC1234567": {},
		}

		matches, unresolved := Resolve(candidates, tracks)
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %+v", matches)
		}
		if len(unresolved) != 1 {
			t.Errorf("expected 1 unresolved, got %d", len(unresolved))
		}
	})

	t.Run("Preserves Input Order", func(t *testing.T) {
		tracks := []models.SourceTrack{
			{ISRC: "AAAAA0000001", Meta: models.TrackMeta{Album: "A"}},
			{ISRC: "BBBBB0000002", Meta: models.TrackMeta{Album: "B"}},
			{ISRC: "CCCCC0000003", Meta: models.TrackMeta{Album: "C"}},
		}
		candidates := map[string][]models.Candidate{
			"AAAAA0000001": {{CatalogID: "a", Meta: models.TrackMeta{Album: "A"}}},
			"BBBBB0000002": {{CatalogID: "b", Meta: models.TrackMeta{Album: "B"}}},
			"CCCCC0000003": {{CatalogID: "c", Meta: models.TrackMeta{Album: "C"}}},
		}

		matches, _ := Resolve(candidates, tracks)
		want := []string{"a", "b", "c"}
		for i, m := range matches {
			if m.CatalogID != want[i] {
				t.Errorf("position %d: expected %s, got %s", i, want[i], m.CatalogID)
			}
		}
	})
}
