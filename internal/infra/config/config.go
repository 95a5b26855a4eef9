// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// AppName is used for the configuration directory.
const AppName = "oldplayer"

// Config represents the application configuration.
type Config struct {
	Library  LibraryConfig  `yaml:"library"`
	Playback PlaybackConfig `yaml:"playback"`
	State    StateConfig    `yaml:"state"`
	Metadata MetadataConfig `yaml:"metadata"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// LibraryConfig represents playlist store configuration.
type LibraryConfig struct {
	Path                string `yaml:"path"`
	DefaultPlaylistName string `yaml:"default_playlist_name" default:"Favorites" validate:"required"`
	Locale              string `yaml:"locale" default:"und"`
	AutoSave            bool   `yaml:"auto_save" default:"true"`
}

// PlaybackConfig represents the initial playback modes.
type PlaybackConfig struct {
	InListMode    string `yaml:"in_list_mode" default:"sequential" validate:"oneof=sequential random"`
	CrossListMode string `yaml:"cross_list_mode" default:"list_loop" validate:"oneof=stop list_loop single_loop advance"`
	Resume        bool   `yaml:"resume" default:"true"`
}

// StateConfig represents resume state configuration.
type StateConfig struct {
	Path string `yaml:"path"`
}

// MetadataConfig represents metadata resolution configuration.
type MetadataConfig struct {
	Enabled   bool             `yaml:"enabled" default:"true"`
	TimeoutMs int              `yaml:"timeout_ms" default:"2000" validate:"gte=0,lte=60000"`
	Resolvers []ResolverConfig `yaml:"resolvers" validate:"dive"`
}

// ResolverConfig represents a single metadata resolver configuration.
type ResolverConfig struct {
	Type        string         `yaml:"type" validate:"required,oneof=tag filename"`
	DisplayName string         `yaml:"display_name"`
	Settings    map[string]any `yaml:"settings"`
}

// MetricsConfig represents metrics output configuration.
// Metrics are written only when Textfile is set.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stderr"`
	File   string `yaml:"file"`
}

// Default returns a configuration with every default applied.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	cfg.overrideFromEnv()
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads configuration from a YAML file.
// A missing file is not an error: defaults are used.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	var cfg Config

	// Defaults go first so that explicit false values in the file survive
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	case errors.Is(err, os.ErrNotExist):
		zlog.Debug().Msgf("config: no config file, using defaults: path=%s", path)
	default:
		return nil, errors.Wrap(err, "failed to read config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("OLDPLAYER_LIBRARY_PATH"); v != "" {
		c.Library.Path = v
	}
	if v := os.Getenv("OLDPLAYER_STATE_PATH"); v != "" {
		c.State.Path = v
	}
	if v := os.Getenv("OLDPLAYER_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// resolvePaths fills empty file paths with locations under the user config directory.
func (c *Config) resolvePaths() error {
	if c.Library.Path != "" && c.State.Path != "" {
		return nil
	}
	dir, err := DefaultDir()
	if err != nil {
		return err
	}
	if c.Library.Path == "" {
		c.Library.Path = filepath.Join(dir, "playlists.json")
	}
	if c.State.Path == "" {
		c.State.Path = filepath.Join(dir, "state.yaml")
	}
	return nil
}

// DefaultDir returns the application directory under the user config directory.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate user config directory")
	}
	return filepath.Join(base, AppName), nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if _, err := c.Library.LocaleTag(); err != nil {
		return err
	}

	return nil
}

// LocaleTag parses the configured collation locale.
func (l LibraryConfig) LocaleTag() (language.Tag, error) {
	if l.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(l.Locale)
	if err != nil {
		return language.Und, errors.Wrapf(err, "failed to parse locale %q", l.Locale)
	}
	return tag, nil
}
