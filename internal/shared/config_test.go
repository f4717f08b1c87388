package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.RedirectURI != "http://localhost:8888/callback" {
			t.Errorf("unexpected redirect URI: %s", config.Credentials.Spotify.RedirectURI)
		}

		if config.Credentials.AppleMusic.Storefront != "us" {
			t.Errorf("expected storefront us, got %s", config.Credentials.AppleMusic.Storefront)
		}

		if config.Sync.Marker != "[amsync]" {
			t.Errorf("expected marker [amsync], got %s", config.Sync.Marker)
		}

		if config.Sync.HandshakeTimeoutSeconds != 180 {
			t.Errorf("expected handshake timeout 180s, got %d", config.Sync.HandshakeTimeoutSeconds)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Sync.Marker != DefaultConfig().Sync.Marker {
			t.Error("created config marker doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		content := `
[credentials.spotify]
client_id = "id123"
client_secret = "secret456"
redirect_uri = "http://localhost:9999/callback"

[sync]
marker = "[mirror]"
rate_limit = 2.5
`
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "id123" {
			t.Errorf("expected client_id id123, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Sync.Marker != "[mirror]" {
			t.Errorf("expected marker [mirror], got %s", config.Sync.Marker)
		}
		if config.Sync.RateLimit != 2.5 {
			t.Errorf("expected rate limit 2.5, got %f", config.Sync.RateLimit)
		}

		if _, err := LoadConfig(filepath.Join(tmpDir, "missing.toml")); err == nil {
			t.Error("expected error for missing config")
		}

		badPath := filepath.Join(tmpDir, "bad.toml")
		os.WriteFile(badPath, []byte("not [valid toml"), 0644)
		if _, err := LoadConfig(badPath); err == nil {
			t.Error("expected error for invalid TOML")
		}
	})

	t.Run("LoadEnvOverlay", func(t *testing.T) {
		tmpDir := t.TempDir()
		envPath := filepath.Join(tmpDir, "credentials.env")

		content := `CLIENT_ID="env_client"
BEARER="Bearer env_token"
MEDIA_USER_TOKEN="env_mut"
`
		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		config := DefaultConfig()
		config.Credentials.Spotify.ClientSecret = "from_toml"

		if err := LoadEnvOverlay(config, envPath); err != nil {
			t.Fatalf("failed to load overlay: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "env_client" {
			t.Errorf("expected overlaid client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.AppleMusic.Bearer != "Bearer env_token" {
			t.Errorf("expected overlaid bearer, got %s", config.Credentials.AppleMusic.Bearer)
		}
		if config.Credentials.Spotify.ClientSecret != "from_toml" {
			t.Error("values absent from the env file must not be overwritten")
		}

		if err := LoadEnvOverlay(config, filepath.Join(tmpDir, "missing.env")); err != nil {
			t.Errorf("missing env file should not be an error: %v", err)
		}
	})

	t.Run("Credential Maps", func(t *testing.T) {
		config := DefaultConfig()
		config.Credentials.Spotify.ClientID = "id"
		config.Credentials.AppleMusic.MediaUserToken = "mut"

		spotify := config.SpotifyCredentials()
		if spotify["client_id"] != "id" {
			t.Errorf("expected client_id id, got %s", spotify["client_id"])
		}

		applemusic := config.AppleMusicCredentials()
		if applemusic["media_user_token"] != "mut" {
			t.Errorf("expected media_user_token mut, got %s", applemusic["media_user_token"])
		}
		if applemusic["storefront"] != "us" {
			t.Errorf("expected storefront us, got %s", applemusic["storefront"])
		}
	})
}
