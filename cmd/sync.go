package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/repositories"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/desertthunder/amx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun runs a full Spotify → Apple Music sync across all flagged playlists.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	if err := r.authenticateSpotify(ctx, cmd.Bool("no-browser")); err != nil {
		return err
	}

	dryRun := cmd.Bool("dry-run")
	if dryRun {
		r.writePlain("Starting sync (dry run)...\n\n")
	} else {
		r.writePlain("Starting sync...\n\n")
	}

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchTargets, tasks.IndexSource:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchTracks:
				r.writePlain("\n[%d/%d] %s\n", update.Step, update.Total, update.Message)
			case tasks.ResolveTracks:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.AppendTracks:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	started := time.Now()
	result, err := r.engine.Run(ctx, progressCh, tasks.SyncRunOpts{DryRun: dryRun})
	close(progressCh)
	completed := time.Now()

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("Playlists: %d synced, %d skipped\n", result.Matched, result.Skipped)
	r.writePlain("Tracks: %d resolved, %d unresolved, %d appended\n", result.TotalResolved, result.TotalUnresolved, result.TotalAppended)

	for _, pr := range result.Playlists {
		if pr.Err != nil {
			r.writePlain("  ✗ %s: %v\n", pr.Target.Name, pr.Err)
		}
	}

	if result.TotalUnresolved > 0 {
		r.writePlain("\nNo catalog match for %d tracks:\n", result.TotalUnresolved)
		for _, pr := range result.Playlists {
			for _, track := range pr.UnresolvedTracks {
				r.writePlain("  - %s (%s)\n", track.ISRC, track.Meta.Album)
			}
		}
	}

	if cmd.Bool("no-report") {
		return nil
	}

	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("run completed but history was not recorded", "err", err)
		return nil
	}
	defer db.Close()

	record, err := repositories.NewReportRepository(db).SaveRun(result, started, completed)
	if err != nil {
		r.logger.Warn("run completed but history was not recorded", "err", err)
		return nil
	}

	r.writePlain("\nRecorded as run #%d (%s)\n", record.Sequence, record.ID)
	return nil
}

// SyncHistory lists recorded sync runs.
func (r *Runner) SyncHistory(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := repositories.NewReportRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Sync History (%d runs)", len(runs)))
	for _, run := range runs {
		mode := ""
		if run.DryRun {
			mode = " [dry run]"
		}
		r.writePlain("#%d  %s%s\n", run.Sequence, run.CompletedAt.Format(time.RFC3339), mode)
		r.writePlain("    id: %s\n", run.ID)
		r.writePlain("    playlists: %d synced, %d skipped; tracks: %d resolved, %d unresolved, %d appended\n",
			run.PlaylistsMatched, run.PlaylistsSkipped, run.TracksResolved, run.TracksUnresolved, run.TracksAppended)
	}

	return nil
}

// SyncReport shows the per-playlist outcomes and unmatched tracks of a recorded run.
func (r *Runner) SyncReport(ctx context.Context, cmd *cli.Command) error {
	runID := cmd.StringArg("id")
	if runID == "" {
		return fmt.Errorf("%w: run id", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewReportRepository(db)

	run, err := repo.Get(runID)
	if err != nil {
		return err
	}

	playlists, err := repo.Playlists(runID)
	if err != nil {
		return err
	}

	unmatched, err := repo.Unmatched(runID)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Sync Run #%d", run.Sequence))
	r.writePlain("Started: %s\n", run.StartedAt.Format(time.RFC3339))
	r.writePlain("Completed: %s\n", run.CompletedAt.Format(time.RFC3339))
	if run.DryRun {
		r.writePlain("Mode: dry run\n")
	}

	r.writePlainln("Playlists:")
	for _, pl := range playlists {
		switch {
		case pl.Skipped:
			r.writePlain("  - %s: skipped (no source counterpart)\n", pl.TargetName)
		case pl.ErrorMessage != "":
			r.writePlain("  ✗ %s: %s\n", pl.TargetName, pl.ErrorMessage)
		default:
			r.writePlain("  ✓ %s ← %s: %d/%d resolved, %d appended\n",
				pl.TargetName, pl.SourceName, pl.TracksResolved, pl.TracksFetched, pl.TracksAppended)
		}
	}

	if len(unmatched) > 0 {
		r.writePlainln("Unmatched tracks:")
		for _, track := range unmatched {
			r.writePlain("  - %s (%s)\n", track.ISRC, track.Album)
		}
	}

	return nil
}
