package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AppleMusicTargets lists the library playlists flagged for sync.
func (r *Runner) AppleMusicTargets(ctx context.Context, cmd *cli.Command) error {
	if r.applemusic == nil {
		return fmt.Errorf("%w: Apple Music service not initialized", shared.ErrServiceUnavailable)
	}

	targets := r.applemusic.SyncTargets(ctx)

	if cmd.Bool("json") {
		return r.writeJSON(targets, cmd.Bool("pretty"))
	}

	marker := r.config.Sync.Marker
	r.writePlainHeader(fmt.Sprintf("Apple Music Sync Targets (%d)", len(targets)))
	if len(targets) == 0 {
		r.writePlain("No playlists carry the %q marker.\n", marker)
		r.writePlain("Add %q to an Apple Music playlist name to flag it for sync.\n", marker)
		return nil
	}

	for _, pl := range targets {
		r.writePlain("%s  %s\n", pl.ID, pl.Name)
	}

	return nil
}
