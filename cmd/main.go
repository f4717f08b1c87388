package main

import (
	"context"
	"os"

	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	for _, path := range []string{"config.toml", shared.DefaultConfigPath()} {
		if _, err := os.Stat(path); err == nil {
			if loaded, err := shared.LoadConfig(path); err == nil {
				config = loaded
				break
			}
		}
	}

	if err := shared.LoadEnvOverlay(config, "credentials.env"); err != nil {
		logger.Warn("failed to load credentials.env", "err", err)
	}

	var spotifyService services.SourceService
	var appleMusicService services.TargetService

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.SpotifyCredentials(), logger); err == nil {
			spotifyService = svc
		} else {
			logger.Warn("Spotify service unavailable", "err", err)
		}
	}

	if config.Credentials.AppleMusic.MediaUserToken != "" {
		svc, err := services.NewAppleMusicService(services.AppleMusicOpts{
			Credentials: config.AppleMusicCredentials(),
			Marker:      config.Sync.Marker,
			RateLimit:   config.Sync.RateLimit,
			Logger:      logger,
		})
		if err == nil {
			appleMusicService = svc
		} else {
			logger.Warn("Apple Music service unavailable", "err", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Spotify:    spotifyService,
		AppleMusic: appleMusicService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "amx",
		Usage:    "Sync Spotify playlists into Apple Music",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
