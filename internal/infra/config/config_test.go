package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", PublicURL: "http://localhost:8080"},
		Admin:  AdminConfig{Password: "secret"},
		Spotify: SpotifyConfig{
			ClientID:             "test-client-id",
			ClientSecret:         "test-client-secret",
			TokenRefreshInterval: 45 * time.Minute,
		},
		Rooms: RoomsConfig{
			IdleTimeout:         15 * time.Minute,
			SweepInterval:       time.Minute,
			SaveInterval:        time.Minute,
			DefaultRTVThreshold: 3,
		},
		Tags: TagsConfig{
			FetchTimeout: 5 * time.Second,
			Providers:    []ProviderConfig{{Type: "spotify", DisplayName: "Spotify"}},
		},
		Storage: StorageConfig{URL: "memory://"},
	}
}

func TestConfig_Validate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing spotify client id",
			modify:  func(c *Config) { c.Spotify.ClientID = "" },
			wantErr: true,
			errMsg:  "ClientID",
		},
		{
			name:    "missing spotify client secret",
			modify:  func(c *Config) { c.Spotify.ClientSecret = "" },
			wantErr: true,
			errMsg:  "ClientSecret",
		},
		{
			name:    "missing admin password",
			modify:  func(c *Config) { c.Admin.Password = "" },
			wantErr: true,
			errMsg:  "Password",
		},
		{
			name:    "rtv threshold below one",
			modify:  func(c *Config) { c.Rooms.DefaultRTVThreshold = 0 },
			wantErr: true,
			errMsg:  "DefaultRTVThreshold",
		},
		{
			name: "unknown provider type",
			modify: func(c *Config) {
				c.Tags.Providers = append(c.Tags.Providers, ProviderConfig{Type: "musicbrainz", DisplayName: "MB"})
			},
			wantErr: true,
			errMsg:  "Type",
		},
		{
			name:    "sweep longer than idle timeout",
			modify:  func(c *Config) { c.Rooms.SweepInterval = time.Hour },
			wantErr: true,
			errMsg:  "sweep_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
admin:
  password: secret
spotify:
  client_id: id
  client_secret: shh
rooms:
  idle_timeout: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8080/api/callback", cfg.Spotify.RedirectURL)
	assert.Equal(t, 45*time.Minute, cfg.Spotify.TokenRefreshInterval)
	assert.Equal(t, 30*time.Minute, cfg.Rooms.IdleTimeout)
	assert.Equal(t, time.Minute, cfg.Rooms.SweepInterval)
	assert.Equal(t, 3, cfg.Rooms.DefaultRTVThreshold)
	assert.Equal(t, 5*time.Second, cfg.Tags.FetchTimeout)
	assert.Equal(t, "sqlite://jukebox.db", cfg.Storage.URL)
	require.Len(t, cfg.Tags.Providers, 1)
	assert.Equal(t, "spotify", cfg.Tags.Providers[0].Type)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
admin:
  password: from-file
spotify:
  client_id: id
  client_secret: shh
tags:
  providers:
    - type: spotify
      display_name: Spotify
    - type: lastfm
      display_name: Last.fm
`)
	t.Setenv("ADMIN_PASSWORD", "from-env")
	t.Setenv("DB_URL", "memory://")
	t.Setenv("SPOTIFY_REDIRECT_URI", "https://jukebox.example.com/api/callback")
	t.Setenv("LASTFM_API_KEY", "lastfm-key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Admin.Password)
	assert.Equal(t, "memory://", cfg.Storage.URL)
	assert.Equal(t, "https://jukebox.example.com/api/callback", cfg.Spotify.RedirectURL)
	assert.Equal(t, "lastfm-key", cfg.Tags.Providers[1].Settings["api_key"])
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Filters(t *testing.T) {
	cfg := &Config{
		Filters: map[string]FilterConfig{
			"duplicate_track_filter": {Enabled: true, Settings: map[string]any{"k": "v"}},
			"other":                  {Enabled: false},
		},
	}

	assert.True(t, cfg.IsFilterEnabled("duplicate_track_filter"))
	assert.False(t, cfg.IsFilterEnabled("other"))
	assert.False(t, cfg.IsFilterEnabled("missing"))
	assert.Equal(t, map[string]any{"k": "v"}, cfg.FilterSettings("duplicate_track_filter"))
	assert.Nil(t, cfg.FilterSettings("missing"))
}

func TestLoad_ShippedConfig(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "shh")
	t.Setenv("ADMIN_PASSWORD", "secret")
	t.Setenv("DB_URL", "memory://")

	cfg, err := Load(filepath.Join("..", "..", "..", "config", "server.yaml"))
	require.NoError(t, err)

	assert.False(t, cfg.IsFilterEnabled("duplicate_track_filter"), "repeated requests are accepted by default")
	assert.Equal(t, 3, cfg.Rooms.DefaultRTVThreshold)
}
