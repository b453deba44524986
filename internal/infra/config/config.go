// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	Admin   AdminConfig             `yaml:"admin"`
	Spotify SpotifyConfig           `yaml:"spotify"`
	Rooms   RoomsConfig             `yaml:"rooms"`
	Tags    TagsConfig              `yaml:"tags"`
	Storage StorageConfig           `yaml:"storage"`
	Filters map[string]FilterConfig `yaml:"filters"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr      string      `yaml:"addr" default:":8080"`
	PublicURL string      `yaml:"public_url" default:"http://localhost:8080" validate:"url"`
	Hooks     HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	Password string `yaml:"password" validate:"required"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID             string        `yaml:"client_id" validate:"required"`
	ClientSecret         string        `yaml:"client_secret" validate:"required"`
	RedirectURL          string        `yaml:"redirect_url" validate:"omitempty,url"`
	TokenRefreshInterval time.Duration `yaml:"token_refresh_interval" default:"45m" validate:"gt=0"`
}

// RoomsConfig represents room lifecycle configuration.
type RoomsConfig struct {
	IdleTimeout         time.Duration `yaml:"idle_timeout" default:"15m" validate:"gt=0"`
	SweepInterval       time.Duration `yaml:"sweep_interval" default:"1m" validate:"gt=0"`
	SaveInterval        time.Duration `yaml:"save_interval" default:"1m" validate:"gt=0"`
	DefaultRTVThreshold int           `yaml:"default_rtv_threshold" default:"3" validate:"gte=1"`
}

// TagsConfig represents raw-tag fetching configuration.
type TagsConfig struct {
	FetchTimeout time.Duration    `yaml:"fetch_timeout" default:"5s" validate:"gt=0"`
	Providers    []ProviderConfig `yaml:"providers" validate:"dive"`
}

// ProviderConfig represents a single tag provider configuration.
type ProviderConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=spotify lastfm"`
	DisplayName string         `yaml:"display_name" validate:"required"`
	Settings    map[string]any `yaml:"settings"`
}

// StorageConfig represents the durable snapshot store configuration.
type StorageConfig struct {
	URL string `yaml:"url" default:"sqlite://jukebox.db" validate:"required"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.applyDerivedDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Spotify.RedirectURL = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv("DB_URL"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		for i := range c.Tags.Providers {
			if c.Tags.Providers[i].Type == "lastfm" {
				if c.Tags.Providers[i].Settings == nil {
					c.Tags.Providers[i].Settings = make(map[string]any)
				}
				c.Tags.Providers[i].Settings["api_key"] = v
				break
			}
		}
	}
}

// applyDerivedDefaults fills values that depend on other fields.
func (c *Config) applyDerivedDefaults() {
	if c.Spotify.RedirectURL == "" {
		c.Spotify.RedirectURL = strings.TrimSuffix(c.Server.PublicURL, "/") + "/api/callback"
	}
	if len(c.Tags.Providers) == 0 {
		c.Tags.Providers = []ProviderConfig{{Type: "spotify", DisplayName: "Spotify"}}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	if c.Rooms.SweepInterval > c.Rooms.IdleTimeout {
		return errors.Newf("sweep_interval (%s) must not exceed idle_timeout (%s)",
			c.Rooms.SweepInterval, c.Rooms.IdleTimeout)
	}
	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// FilterSettings returns the settings for a filter.
func (c *Config) FilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
