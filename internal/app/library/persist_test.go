package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/oldplayer/internal/domain/playlist"
	"github.com/osa030/oldplayer/internal/domain/song"
)

func TestLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")

	s := Load(path, WithDefaultPlaylistName("Liked"))

	assert.Equal(t, []string{"Liked"}, names(s))
	_, err := os.Stat(path + CorruptSuffix)
	assert.True(t, os.IsNotExist(err))
}

func TestLoad_MalformedFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "{{{"},
		{name: "object instead of array", content: `{"name": "x"}`},
		{name: "wrong field types", content: `[{"name": 1, "songs": "x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "playlists.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			s := Load(path)

			assert.Equal(t, []string{DefaultPlaylistName}, names(s))
			backup, err := os.ReadFile(path + CorruptSuffix)
			require.NoError(t, err, "malformed file must be kept aside")
			assert.Equal(t, tt.content, string(backup))
		})
	}
}

func TestLoad_EmptyArraySeedsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	s := Load(path)
	assert.Equal(t, 1, s.Count())
}

func TestLoad_PersistedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")
	content := `[
		{"name": "Jazz", "songs": [
			{"filePath": "/music/So What.mp3", "title": "So What", "artist": "Miles Davis"},
			{"filePath": "/music/Blue in Green.flac"}
		]},
		{"name": "Empty", "songs": []}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := Load(path)

	require.Equal(t, []string{"Jazz", "Empty"}, names(s))

	first, ok := s.Song(0, 0)
	require.True(t, ok)
	assert.Equal(t, "So What", first.Title)
	assert.Equal(t, "Miles Davis", first.Artist)

	second, ok := s.Song(0, 1)
	require.True(t, ok)
	assert.Equal(t, "Blue in Green", second.Title, "missing title falls back to file name")
	assert.Equal(t, song.UnknownArtist, second.Artist)
}

func TestLoad_EmptyNameFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "playlists.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"","songs":[]},{"name":"Kept","songs":[]}]`), 0o644))

	s := Load(path)

	assert.Equal(t, []string{playlist.DefaultName, "Kept"}, names(s))
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "playlists.json")

	s := New()
	require.NoError(t, s.RenamePlaylist(0, "Mine"))
	require.NoError(t, s.AddSong(0, song.Song{
		Title:    "Moanin",
		Artist:   "Art Blakey",
		Album:    "Moanin",
		FilePath: "/music/moanin.mp3",
	}))
	s.AddPlaylist("Second")

	require.NoError(t, s.Save(path))

	loaded := Load(path)
	require.Equal(t, []string{"Mine", "Second"}, names(loaded))

	sg, ok := loaded.Song(0, 0)
	require.True(t, ok)
	assert.Equal(t, "Moanin", sg.Title)
	assert.Equal(t, "Art Blakey", sg.Artist)
	assert.Equal(t, "/music/moanin.mp3", sg.FilePath)
	// album is not persisted
	assert.Equal(t, song.UnknownAlbum, sg.Album)
}

func TestStore_SaveFailureKeepsMemoryState(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	s := New()
	s.AddPlaylist("kept")

	err := s.Save(filepath.Join(blocker, "playlists.json"))
	require.Error(t, err)
	assert.Equal(t, []string{DefaultPlaylistName, "kept"}, names(s))
}
