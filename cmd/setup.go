package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig creates a config.toml from the embedded template.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = shared.DefaultConfigPath()
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Config file created at %s\n", configPath)
	r.writePlain("Fill in your Spotify client credentials and Apple Music session values,\n")
	r.writePlain("or run 'amx setup applemusic' to capture the session from a cURL command.\n")

	return nil
}

// SetupDatabase initializes the sync history database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := r.config.Database.Path
	if path == "" {
		path = shared.DefaultDatabasePath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	r.logger.Info("initializing database", "path", path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", path)
	return r.writePlain("✓ Database ready at %s\n", path)
}

// SetupAppleMusic captures Apple Music session credentials from browser headers.
//
// Accepts a cURL command copied from the browser DevTools on music.apple.com
// and writes the extracted session values to a dotenv overlay file.
func (r *Runner) SetupAppleMusic(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")
	outputPath := cmd.String("output")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidInput)
	}

	r.logger.Info("parsing cURL command for Apple Music session headers")

	var curlHeaders *shared.CurlHeaders
	var err error

	if curlFile != "" {
		curlHeaders, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		curlHeaders, err = shared.ParseCurlCommand([]byte(curlCmd))
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	bearer, mediaUserToken, cookies, err := curlHeaders.AppleMusicSession()
	if err != nil {
		return err
	}

	content := fmt.Sprintf("BEARER=%q\nMEDIA_USER_TOKEN=%q\nAMP_COOKIES=%q\n", bearer, mediaUserToken, cookies)
	if err := os.WriteFile(outputPath, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	r.logger.Info("session credentials saved", "path", outputPath)

	r.writePlain("✓ Apple Music session captured\n")
	r.writePlain("Credentials saved to: %s\n", outputPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Run 'amx applemusic targets' to verify the session works\n")
	r.writePlain("2. Add %q to the Apple Music playlists you want synced\n", r.config.Sync.Marker)

	return nil
}
