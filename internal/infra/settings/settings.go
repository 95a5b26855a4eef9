// Package settings persists the resume state between runs.
package settings

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// State is the position and modes restored at startup.
type State struct {
	LastPlaylistIndex int    `yaml:"last_playlist_index" default:"-1"`
	LastSongIndex     int    `yaml:"last_song_index" default:"-1"`
	InListMode        string `yaml:"in_list_mode" default:"sequential" validate:"oneof=sequential random"`
	CrossListMode     string `yaml:"cross_list_mode" default:"list_loop" validate:"oneof=stop list_loop single_loop advance"`
	Volume            int    `yaml:"volume" default:"80" validate:"gte=0,lte=100"`
}

// Default returns the state used when nothing was saved.
func Default() *State {
	var s State
	// Cannot fail for this struct
	_ = defaults.Set(&s)
	return &s
}

// HasPosition reports whether a playing position was saved.
func (s *State) HasPosition() bool {
	return s.LastPlaylistIndex >= 0 && s.LastSongIndex >= 0
}

// Load reads the state from path.
// A missing file yields the default state. An unreadable or invalid file is
// logged and also yields the default state, since resuming is best effort.
func Load(path string) *State {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zlog.Warn().Err(err).Msgf("settings: failed to read state file: path=%s", path)
		}
		return s
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		zlog.Warn().Err(err).Msgf("settings: state file is malformed, ignoring: path=%s", path)
		return Default()
	}
	if err := validator.New().Struct(s); err != nil {
		zlog.Warn().Err(err).Msgf("settings: state file is invalid, ignoring: path=%s", path)
		return Default()
	}
	return s
}

// Save writes the state to path through a temporary file.
func (s *State) Save(path string) error {
	if err := validator.New().Struct(s); err != nil {
		return errors.Wrap(err, "invalid state")
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to marshal state")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write state file")
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "failed to replace state file %s", path)
	}
	return nil
}
