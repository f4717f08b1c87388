package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/amx/internal/server"
	"github.com/desertthunder/amx/internal/services"
	"github.com/desertthunder/amx/internal/shared"
	"github.com/urfave/cli/v3"
)

// authenticateSpotify walks the full browser OAuth flow: generate a state
// nonce, open the authorization URL, capture the one-time code on the local
// callback listener, and exchange it for an access token.
func (r *Runner) authenticateSpotify(ctx context.Context, noBrowser bool) error {
	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	oauthSrv, ok := r.spotify.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: source service does not support browser authorization", shared.ErrAuthFailed)
	}

	state := shared.GenerateID()
	authURL := oauthSrv.GetAuthURL(state)

	if noBrowser {
		r.writePlain("Open this URL in your browser to authorize:\n\n%s\n\n", authURL)
	} else if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser", "err", err)
		r.writePlain("Open this URL in your browser to authorize:\n\n%s\n\n", authURL)
	}

	timeout := time.Duration(r.config.Sync.HandshakeTimeoutSeconds) * time.Second
	handshake := &server.Handshake{
		Addr:    fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port),
		Timeout: timeout,
		Logger:  r.logger,
	}

	r.logger.Info("waiting for authorization callback", "addr", handshake.Addr)

	code, err := handshake.Capture(ctx, state)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	if err := r.spotify.Authenticate(ctx, map[string]string{"auth_code": code}); err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	r.logger.Info("Spotify authentication complete")
	return nil
}

// AuthLogin runs the Spotify OAuth flow end to end.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.authenticateSpotify(ctx, cmd.Bool("no-browser")); err != nil {
		return err
	}
	return r.writePlain("✓ Spotify authentication successful\n")
}

// AuthStatus reports which credentials are configured without contacting either service.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	check := func(label string, ok bool) {
		if ok {
			r.writePlain("  ✓ %s\n", label)
		} else {
			r.writePlain("  ✗ %s\n", label)
		}
	}

	spotify := r.config.Credentials.Spotify
	r.writePlain("Spotify:\n")
	check("client_id", spotify.ClientID != "")
	check("client_secret", spotify.ClientSecret != "")
	check("redirect_uri", spotify.RedirectURI != "")

	applemusic := r.config.Credentials.AppleMusic
	r.writePlain("Apple Music:\n")
	check("bearer", applemusic.Bearer != "")
	check("media_user_token", applemusic.MediaUserToken != "")
	check("cookies", applemusic.Cookies != "")

	if spotify.ClientID == "" || applemusic.MediaUserToken == "" {
		r.writePlainln("Run 'amx setup applemusic' and fill in config.toml or credentials.env to finish setup.")
	}

	return nil
}
