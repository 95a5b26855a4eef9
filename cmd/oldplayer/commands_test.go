package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/oldplayer/internal/app/library"
	"github.com/osa030/oldplayer/internal/app/playback"
	"github.com/osa030/oldplayer/internal/domain/song"
	"github.com/osa030/oldplayer/internal/infra/config"
	"github.com/osa030/oldplayer/internal/infra/settings"
)

// setupLibrary writes one playlist per entry of lists, named by names, plus a
// resume state pointing at (pl, sg).
func setupLibrary(t *testing.T, names []string, lists [][]string, pl, sg int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("OLDPLAYER_LIBRARY_PATH", filepath.Join(dir, "playlists.json"))
	t.Setenv("OLDPLAYER_STATE_PATH", filepath.Join(dir, "state.yaml"))
	t.Setenv("OLDPLAYER_LOG_LEVEL", "")

	cfg, err := config.Default()
	require.NoError(t, err)

	store := library.New(library.WithDefaultPlaylistName(names[0]))
	for i, titles := range lists {
		if i > 0 {
			store.AddPlaylist(names[i])
		}
		songs := make([]song.Song, 0, len(titles))
		for _, title := range titles {
			songs = append(songs, song.New("/music/"+title+".mp3"))
		}
		require.NoError(t, store.AddSongs(i, songs))
	}
	require.NoError(t, store.Save(cfg.Library.Path))

	if pl >= 0 {
		state := settings.Default()
		state.LastPlaylistIndex, state.LastSongIndex = pl, sg
		require.NoError(t, state.Save(cfg.State.Path))
	}
	return cfg
}

// resumeTitle returns the title of the song the saved state points at.
func resumeTitle(t *testing.T, cfg *config.Config) (string, bool) {
	t.Helper()
	state := settings.Load(cfg.State.Path)
	sg, ok := library.Load(cfg.Library.Path).Song(state.LastPlaylistIndex, state.LastSongIndex)
	return sg.Title, ok
}

func TestMutate_RemoveSongsKeepsResumeSong(t *testing.T) {
	tests := []struct {
		name    string
		current int
		remove  []int
		want    string
		wantPos [2]int
	}{
		{name: "before current", current: 2, remove: []int{0}, want: "c", wantPos: [2]int{0, 1}},
		{name: "after current", current: 1, remove: []int{2}, want: "b", wantPos: [2]int{0, 1}},
		{name: "current", current: 1, remove: []int{1}, wantPos: [2]int{-1, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := setupLibrary(t, []string{"L1"}, [][]string{{"a", "b", "c"}}, 0, tt.current)

			require.NoError(t, mutate(cfg, func(e *playback.Engine) error {
				return e.RemoveSongs(0, tt.remove)
			}))

			state := settings.Load(cfg.State.Path)
			assert.Equal(t, tt.wantPos, [2]int{state.LastPlaylistIndex, state.LastSongIndex})
			if tt.want != "" {
				title, ok := resumeTitle(t, cfg)
				require.True(t, ok)
				assert.Equal(t, tt.want, title)
			}
		})
	}
}

func TestMutate_SortPlaylistsKeepsResumePlaylist(t *testing.T) {
	cfg := setupLibrary(t, []string{"Zeta", "Alpha"}, [][]string{{"z"}, {"a"}}, 0, 0)

	require.NoError(t, mutate(cfg, func(e *playback.Engine) error {
		e.SortPlaylists()
		return nil
	}))

	state := settings.Load(cfg.State.Path)
	assert.Equal(t, 1, state.LastPlaylistIndex)
	title, ok := resumeTitle(t, cfg)
	require.True(t, ok)
	assert.Equal(t, "z", title)
}

func TestMutate_RemovePlaylistClearsResumePosition(t *testing.T) {
	cfg := setupLibrary(t, []string{"A", "B"}, [][]string{{"a"}, {"b"}}, 1, 0)

	require.NoError(t, mutate(cfg, func(e *playback.Engine) error {
		return e.RemovePlaylists([]int{1})
	}))

	state := settings.Load(cfg.State.Path)
	assert.False(t, state.HasPosition())
}

func TestMutate_NoSavedPosition(t *testing.T) {
	cfg := setupLibrary(t, []string{"A"}, [][]string{{"a"}}, -1, -1)

	require.NoError(t, mutate(cfg, func(e *playback.Engine) error {
		e.AddPlaylist("B")
		return nil
	}))

	_, err := os.Stat(cfg.State.Path)
	assert.True(t, os.IsNotExist(err), "no state file is created when nothing was saved")
	assert.Equal(t, 2, library.Load(cfg.Library.Path).Count())
}
