package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Server      ServerConfig      `toml:"server"`
	Sync        SyncConfig        `toml:"sync"`
	Database    DatabaseConfig    `toml:"database"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify    SpotifyConfig    `toml:"spotify"`
	AppleMusic AppleMusicConfig `toml:"applemusic"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// AppleMusicConfig contains the session values required by the Apple Music
// web API: a developer bearer token, the media-user-token issued to the
// signed-in browser session, and the session cookies.
type AppleMusicConfig struct {
	Bearer         string `toml:"bearer"`
	MediaUserToken string `toml:"media_user_token"`
	Cookies        string `toml:"cookies"`
	Storefront     string `toml:"storefront"`
}

// ServerConfig contains settings for the local OAuth callback listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// SyncConfig contains sync behavior settings.
type SyncConfig struct {
	Marker                  string  `toml:"marker"`                    // playlist name substring flagging sync targets
	RateLimit               float64 `toml:"rate_limit"`                // Apple Music requests per second
	HandshakeTimeoutSeconds int     `toml:"handshake_timeout_seconds"` // max wait for the OAuth callback
}

// DatabaseConfig contains sync history database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadEnvOverlay reads a dotenv file (historically credentials.env) and
// overlays any credential values it defines onto the config.
//
// A missing file is not an error; only values present in the file override
// the TOML configuration.
func LoadEnvOverlay(config *Config, path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	overlay := map[string]*string{
		"CLIENT_ID":        &config.Credentials.Spotify.ClientID,
		"CLIENT_SECRET":    &config.Credentials.Spotify.ClientSecret,
		"REDIRECT_URI":     &config.Credentials.Spotify.RedirectURI,
		"BEARER":           &config.Credentials.AppleMusic.Bearer,
		"MEDIA_USER_TOKEN": &config.Credentials.AppleMusic.MediaUserToken,
		"AMP_COOKIES":      &config.Credentials.AppleMusic.Cookies,
	}

	for key, target := range overlay {
		if v, ok := vars[key]; ok && v != "" {
			*target = v
		}
	}

	return nil
}

// DefaultConfigPath returns the XDG config home location for config.toml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "amx", "config.toml")
}

// DefaultDatabasePath returns the XDG data home location for the sync history database.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, "amx", "amx.db")
}

// SpotifyCredentials flattens the Spotify config into the credentials map
// consumed by service constructors.
func (c *Config) SpotifyCredentials() map[string]string {
	return map[string]string{
		"client_id":     c.Credentials.Spotify.ClientID,
		"client_secret": c.Credentials.Spotify.ClientSecret,
		"redirect_uri":  c.Credentials.Spotify.RedirectURI,
	}
}

// AppleMusicCredentials flattens the Apple Music config into the credentials
// map consumed by service constructors.
func (c *Config) AppleMusicCredentials() map[string]string {
	return map[string]string{
		"bearer":           c.Credentials.AppleMusic.Bearer,
		"media_user_token": c.Credentials.AppleMusic.MediaUserToken,
		"cookies":          c.Credentials.AppleMusic.Cookies,
		"storefront":       c.Credentials.AppleMusic.Storefront,
	}
}
