package tasks

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/desertthunder/amx/internal/models"
	"github.com/desertthunder/amx/internal/shared"
	mock "github.com/desertthunder/amx/internal/testing"
)

func released(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func testEngine(source *mock.MockSource, target *mock.MockTarget) *PlaylistEngine {
	return NewPlaylistEngine(source, target, "[amsync]", shared.NewLogger(io.Discard))
}

func TestPlaylistEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolves And Appends Matched Playlist", func(t *testing.T) {
		source := &mock.MockSource{
			PlaylistList: []models.PlaylistRef{{ID: "sp1", Name: "Road Trip"}},
			Tracks: map[string][]models.SourceTrack{
				"sp1": {
					{ISRC: "USUM71703861", Meta: models.TrackMeta{Album: "Divide", Released: released(2017, time.March, 3)}},
				},
			},
		}
		target := &mock.MockTarget{
			Targets: []models.PlaylistRef{{ID: "am1", Name: "[amsync] Road Trip"}},
			Candidates: map[string][]models.Candidate{
				"USUM71703861": {
					{CatalogID: "1", Meta: models.TrackMeta{Album: "Divid", Released: released(2017, time.March, 3)}},
					{CatalogID: "2", Meta: models.TrackMeta{Album: "Divide Live", Released: released(2017, time.March, 3)}},
				},
			},
		}

		engine := testEngine(source, target)
		result, err := engine.Run(ctx, nil, SyncRunOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Matched != 1 || result.Skipped != 0 {
			t.Errorf("expected 1 matched / 0 skipped, got %d / %d", result.Matched, result.Skipped)
		}
		if result.TotalResolved != 1 || result.TotalAppended != 1 {
			t.Errorf("expected 1 resolved and appended, got %d / %d", result.TotalResolved, result.TotalAppended)
		}

		appended := target.AppendCalls["am1"]
		if len(appended) != 1 || appended[0] != "1" {
			t.Errorf("expected closest candidate id 1 appended, got %v", appended)
		}
	})

	t.Run("Matches Targets By Stripped Name", func(t *testing.T) {
		source := &mock.MockSource{
			PlaylistList: []models.PlaylistRef{
				{ID: "sp1", Name: "Road Trip"},
				{ID: "sp2", Name: "  Focus  "},
			},
			Tracks: map[string][]models.SourceTrack{},
		}
		target := &mock.MockTarget{
			Targets: []models.PlaylistRef{
				{ID: "am1", Name: "[amsync] Road Trip"},
				{ID: "am2", Name: "[amsync] Focus"},
				{ID: "am3", Name: "[amsync] Unknown"},
			},
		}

		engine := testEngine(source, target)
		result, err := engine.Run(ctx, nil, SyncRunOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if result.Matched != 2 {
			t.Errorf("expected 2 matched, got %d", result.Matched)
		}
		if result.Skipped != 1 {
			t.Errorf("expected 1 skipped, got %d", result.Skipped)
		}
		for _, pr := range result.Playlists {
			if pr.Target.ID == "am3" {
				if !pr.Skipped {
					t.Error("expected unmatched target skipped")
				}
				if pr.Err != nil {
					t.Errorf("skip is not an error, got %v", pr.Err)
				}
			}
		}
		if len(source.TracksCalls) != 2 {
			t.Errorf("expected 2 track fetches, got %d", len(source.TracksCalls))
		}
	})

	t.Run("No Sync Targets Is Empty Run", func(t *testing.T) {
		source := &mock.MockSource{PlaylistList: []models.PlaylistRef{{ID: "sp1", Name: "Road Trip"}}}
		target := &mock.MockTarget{}

		engine := testEngine(source, target)
		result, err := engine.Run(ctx, nil, SyncRunOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result.Playlists) != 0 {
			t.Errorf("expected empty run, got %d playlists", len(result.Playlists))
		}
	})

	t.Run("Source Listing Failure Is Terminal", func(t *testing.T) {
		source := &mock.MockSource{PlaylistsErr: shared.ErrAPIRequest}
		target := &mock.MockTarget{Targets: []models.PlaylistRef{{ID: "am1", Name: "[amsync] Road Trip"}}}

		engine := testEngine(source, target)
		_, err := engine.Run(ctx, nil, SyncRunOpts{})
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Track Fetch Failure Skips Playlist Not Run", func(t *testing.T) {
		source := &mock.MockSource{
			PlaylistList: []models.PlaylistRef{{ID: "sp1", Name: "Road Trip"}},
			TracksErr:    shared.ErrAPIRequest,
		}
		target := &mock.MockTarget{Targets: []models.PlaylistRef{{ID: "am1", Name: "[amsync] Road Trip"}}}

		engine := testEngine(source, target)
		result, err := engine.Run(ctx, nil, SyncRunOpts{})
		if err != nil {
			t.Fatalf("run should survive per-playlist failure, got %v", err)
		}

		if len(result.Playlists) != 1 {
			t.Fatalf("expected 1 playlist result, got %d", len(result.Playlists))
		}
		if !errors.Is(result.Playlists[0].Err, shared.ErrAPIRequest) {
			t.Errorf("expected recorded ErrAPIRequest, got %v", result.Playlists[0].Err)
		}
		if target.ResolveCalls != 0 {
			t.Error("resolution should not run for a failed fetch")
		}
	})

	t.Run("Resolution Failure Appends Nothing", func(t *testing.T) {
		source := &mock.MockSource{
			PlaylistList: []models.PlaylistRef{{ID: "sp1", Name: "Road Trip"}},
			Tracks: map[string][]models.SourceTrack{
				"sp1": {{ISRC: "AAAA00000001", Meta: models.TrackMeta{Album: "A"}}},
			},
		}
		target := &mock.MockTarget{
			Targets:    []models.PlaylistRef{{ID: "am1", Name: "[amsync] Road Trip"}},
			ResolveErr: shared.ErrAPIRequest,
		}

		engine := testEngine(source, target)
		result, err := engine.Run(ctx, nil, SyncRunOpts{})
		if err != nil {
			t.Fatalf("run should survive per-playlist failure, got %v", err)
		}

		if !errors.Is(result.Playlists[0].Err, shared.ErrAPIRequest) {
			t.Errorf("expected recorded ErrAPIRequest, got %v", result.Playlists[0].Err)
		}
		if len(target.AppendCalls) != 0 {
			t.Errorf("expected no appends after failed resolution, got %v", target.AppendCalls)
		}
	})

	t.Run("Dry Run Resolves Without Appending", func(t *testing.T) {
		source := &mock.MockSource{
			PlaylistList: []models.PlaylistRef{{ID: "sp1", Name: "Road Trip"}},
			Tracks: map[string][]models.SourceTrack{
				"sp1": {{ISRC: "AAAA00000001", Meta: models.TrackMeta{Album: "A"}}},
			},
		}
		target := &mock.MockTarget{
			Targets: []models.PlaylistRef{{ID: "am1", Name: "[amsync] Road Trip"}},
			Candidates: map[string][]models.Candidate{
				"AAAA00000001": {{CatalogID: "9", Meta: models.TrackMeta{Album: "A"}}},
			},
		}

		engine := testEngine(source, target)
		result, err := engine.Run(ctx, nil, SyncRunOpts{DryRun: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !result.DryRun {
			t.Error("expected result flagged as dry run")
		}
		if result.TotalResolved != 1 {
			t.Errorf("expected 1 resolved, got %d", result.TotalResolved)
		}
		if result.TotalAppended != 0 || len(target.AppendCalls) != 0 {
			t.Errorf("dry run must not append, got %v", target.AppendCalls)
		}
	})

	t.Run("Unresolved Tracks Are Reported", func(t *testing.T) {
		source := &mock.MockSource{
			PlaylistList: []models.PlaylistRef{{ID: "sp1", Name: "Road Trip"}},
			Tracks: map[string][]models.SourceTrack{
				"sp1": {
					{ISRC: "AAAA00000001", Meta: models.TrackMeta{Album: "A"}},
					{ISRC: "ZZZZ99999999", Meta: models.TrackMeta{Album: "Z"}},
				},
			},
		}
		target := &mock.MockTarget{
			Targets: []models.PlaylistRef{{ID: "am1", Name: "[amsync] Road Trip"}},
			Candidates: map[string][]models.Candidate{
				"AAAA00000001": {{CatalogID: "9", Meta: models.TrackMeta{Album: "A"}}},
			},
		}

		engine := testEngine(source, target)
		result, err := engine.Run(ctx, nil, SyncRunOpts{})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		pr := result.Playlists[0]
		if pr.Resolved != 1 || pr.Unresolved != 1 {
			t.Errorf("expected 1 resolved / 1 unresolved, got %d / %d", pr.Resolved, pr.Unresolved)
		}
		if len(pr.UnresolvedTracks) != 1 || pr.UnresolvedTracks[0].ISRC != "ZZZZ99999999" {
			t.Errorf("expected unresolved ZZZZ99999999, got %v", pr.UnresolvedTracks)
		}
		if result.TotalUnresolved != 1 {
			t.Errorf("expected run total 1 unresolved, got %d", result.TotalUnresolved)
		}
	})

	t.Run("Nil Services Rejected", func(t *testing.T) {
		engine := NewPlaylistEngine(nil, &mock.MockTarget{}, "[amsync]", shared.NewLogger(io.Discard))
		if _, err := engine.Run(ctx, nil, SyncRunOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}

		engine = NewPlaylistEngine(&mock.MockSource{}, nil, "[amsync]", shared.NewLogger(io.Discard))
		if _, err := engine.Run(ctx, nil, SyncRunOpts{}); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Progress Updates Are Non Blocking", func(t *testing.T) {
		source := &mock.MockSource{
			PlaylistList: []models.PlaylistRef{{ID: "sp1", Name: "Road Trip"}},
			Tracks:       map[string][]models.SourceTrack{},
		}
		target := &mock.MockTarget{Targets: []models.PlaylistRef{{ID: "am1", Name: "[amsync] Road Trip"}}}

		// Unbuffered channel with no reader: every send must fall through.
		progress := make(chan ProgressUpdate)

		engine := testEngine(source, target)
		done := make(chan struct{})
		go func() {
			defer close(done)
			engine.Run(ctx, progress, SyncRunOpts{})
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("run blocked on progress channel")
		}
	})
}

func TestPhaseString(t *testing.T) {
	cases := map[Phase]string{
		FetchTargets:  "fetch_targets",
		IndexSource:   "index_source",
		FetchTracks:   "fetch_tracks",
		ResolveTracks: "resolve_tracks",
		AppendTracks:  "append_tracks",
		PlaylistDone:  "playlist_done",
		Phase(99):     "unknown",
	}
	for phase, want := range cases {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", phase, got, want)
		}
	}
}
