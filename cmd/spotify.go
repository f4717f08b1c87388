package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SpotifyPlaylists lists the authenticated user's playlists.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if err := r.authenticateSpotify(ctx, cmd.Bool("no-browser")); err != nil {
		return err
	}

	playlists, err := r.spotify.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Spotify Playlists (%d)", len(playlists)))
	for _, pl := range playlists {
		r.writePlain("%s  %s\n", pl.ID, pl.Name)
	}

	return nil
}

// SpotifyTracks lists the ISRC-bearing tracks of one playlist.
func (r *Runner) SpotifyTracks(ctx context.Context, cmd *cli.Command) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	if err := r.authenticateSpotify(ctx, cmd.Bool("no-browser")); err != nil {
		return err
	}

	playlistID := cmd.String("id")
	tracks, err := r.spotify.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Tracks in %s (%d)", playlistID, len(tracks)))
	for _, track := range tracks {
		released := "unknown"
		if track.Meta.Released != nil {
			released = track.Meta.Released.Format("2006-01-02")
		}
		r.writePlain("%s  %s (%s)\n", track.ISRC, track.Meta.Album, released)
	}

	return nil
}
