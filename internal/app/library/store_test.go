package library

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/osa030/oldplayer/internal/domain/playlist"
	"github.com/osa030/oldplayer/internal/domain/song"
)

func names(s *Store) []string {
	result := make([]string, 0, s.Count())
	for _, pl := range s.Playlists() {
		result = append(result, pl.Name)
	}
	return result
}

func titles(t *testing.T, s *Store, index int) []string {
	t.Helper()
	pl, ok := s.Playlist(index)
	require.True(t, ok)
	result := make([]string, 0, pl.SongCount())
	for _, sg := range pl.Songs() {
		result = append(result, sg.Title)
	}
	return result
}

func TestNew_SeedsDefaultPlaylist(t *testing.T) {
	s := New()
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, []string{DefaultPlaylistName}, names(s))

	custom := New(WithDefaultPlaylistName("Liked"))
	assert.Equal(t, []string{"Liked"}, names(custom))
}

func TestStore_BoundsChecked(t *testing.T) {
	s := New()
	require.NoError(t, s.AddSong(0, song.New("/a.mp3")))

	tests := []struct {
		name        string
		playlistIdx int
		songIdx     int
		wantOK      bool
	}{
		{name: "valid", playlistIdx: 0, songIdx: 0, wantOK: true},
		{name: "negative playlist", playlistIdx: -1, songIdx: 0},
		{name: "playlist past end", playlistIdx: 1, songIdx: 0},
		{name: "negative song", playlistIdx: 0, songIdx: -1},
		{name: "song past end", playlistIdx: 0, songIdx: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := s.Song(tt.playlistIdx, tt.songIdx)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestStore_AddPlaylist(t *testing.T) {
	s := New()
	idx := s.AddPlaylist("Jazz")
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, s.Count())

	pl, ok := s.Playlist(idx)
	require.True(t, ok)
	assert.Equal(t, "Jazz", pl.Name)
	assert.Equal(t, idx, s.IndexOf(pl.ID))
}

func TestStore_RemovePlaylist(t *testing.T) {
	t.Run("last playlist is protected", func(t *testing.T) {
		s := New()
		before := s.Playlists()

		for _, idx := range []int{0, -1, 3} {
			err := s.RemovePlaylist(idx)
			assert.True(t, errors.Is(err, ErrLastPlaylistProtected), "index %d", idx)
		}
		assert.Equal(t, before, s.Playlists())
	})

	t.Run("invalid index", func(t *testing.T) {
		s := New()
		s.AddPlaylist("second")

		err := s.RemovePlaylist(2)
		assert.True(t, errors.Is(err, ErrInvalidIndex))
		assert.Equal(t, 2, s.Count())
	})

	t.Run("later playlists shift down", func(t *testing.T) {
		s := New()
		s.AddPlaylist("b")
		s.AddPlaylist("c")
		c, _ := s.Playlist(2)

		require.NoError(t, s.RemovePlaylist(1))
		assert.Equal(t, []string{DefaultPlaylistName, "c"}, names(s))
		assert.Equal(t, 1, s.IndexOf(c.ID))
	})
}

func TestStore_RemoveSong(t *testing.T) {
	s := New()
	require.NoError(t, s.AddSongs(0, []song.Song{song.New("/a.mp3"), song.New("/b.mp3"), song.New("/c.mp3")}))

	assert.True(t, errors.Is(s.RemoveSong(0, 3), ErrInvalidIndex))
	assert.True(t, errors.Is(s.RemoveSong(1, 0), ErrInvalidIndex))

	require.NoError(t, s.RemoveSong(0, 1))
	assert.Equal(t, []string{"a", "c"}, titles(t, s, 0))
}

func TestStore_InvalidPlaylistOperations(t *testing.T) {
	s := New()

	assert.True(t, errors.Is(s.AddSong(5, song.New("/a.mp3")), ErrInvalidIndex))
	assert.True(t, errors.Is(s.AddSongs(-1, nil), ErrInvalidIndex))
	assert.True(t, errors.Is(s.ClearPlaylist(1), ErrInvalidIndex))
	assert.True(t, errors.Is(s.RenamePlaylist(1, "x"), ErrInvalidIndex))
	assert.True(t, errors.Is(s.SortSongsByName(1), ErrInvalidIndex))

	_, err := s.UpdateSongMetadata(0, 0, song.Metadata{Title: "x"})
	assert.True(t, errors.Is(err, ErrInvalidIndex))
}

func TestStore_RenameAndClear(t *testing.T) {
	s := New()
	require.NoError(t, s.AddSong(0, song.New("/a.mp3")))

	require.NoError(t, s.RenamePlaylist(0, "Mine"))
	require.NoError(t, s.RenamePlaylist(0, "Mine"))
	assert.Equal(t, []string{"Mine"}, names(s))

	require.NoError(t, s.RenamePlaylist(0, ""))
	assert.Equal(t, []string{playlist.DefaultName}, names(s))

	require.NoError(t, s.ClearPlaylist(0))
	pl, _ := s.Playlist(0)
	assert.Equal(t, 0, pl.SongCount())
}

func TestStore_UpdateSongMetadata(t *testing.T) {
	s := New()
	require.NoError(t, s.AddSong(0, song.New("/a.mp3")))

	changed, err := s.UpdateSongMetadata(0, 0, song.Metadata{Title: "Alpha", Artist: "", Album: "First"})
	require.NoError(t, err)
	assert.True(t, changed)

	sg, _ := s.Song(0, 0)
	assert.Equal(t, "Alpha", sg.Title)
	assert.Equal(t, song.UnknownArtist, sg.Artist, "empty values never blank existing data")
	assert.Equal(t, "First", sg.Album)
}

func TestStore_SortPlaylistsByName(t *testing.T) {
	s := New(WithDefaultPlaylistName("delta"))
	s.AddPlaylist("Bravo")
	s.AddPlaylist("alpha")
	s.AddPlaylist("charlie")
	s.AddPlaylist("bravo")

	viewed, _ := s.Playlist(1)
	playing, _ := s.Playlist(3)

	s.SortPlaylistsByName()

	assert.Equal(t, []string{"alpha", "Bravo", "bravo", "charlie", "delta"}, names(s))
	assert.Equal(t, 1, s.IndexOf(viewed.ID))
	assert.Equal(t, 3, s.IndexOf(playing.ID))
	assert.Equal(t, -1, s.IndexOf("missing"))
}

func TestStore_SortSongsByName(t *testing.T) {
	s := New(WithLocale(language.English))
	require.NoError(t, s.AddSongs(0, []song.Song{
		{Title: "émigré", FilePath: "/1"},
		{Title: "Zebra", FilePath: "/2"},
		{Title: "apple", FilePath: "/3"},
		{Title: "Echo", FilePath: "/4"},
	}))

	require.NoError(t, s.SortSongsByName(0))
	once := titles(t, s, 0)
	assert.Equal(t, []string{"apple", "Echo", "émigré", "Zebra"}, once)

	require.NoError(t, s.SortSongsByName(0))
	assert.Equal(t, once, titles(t, s, 0), "sorting twice equals sorting once")
}

func TestStore_SortSongsByName_Stable(t *testing.T) {
	s := New()
	songs := make([]song.Song, 0, 5)
	for i := range 5 {
		songs = append(songs, song.Song{Title: "same", FilePath: fmt.Sprintf("/%d", i)})
	}
	require.NoError(t, s.AddSongs(0, songs))

	require.NoError(t, s.SortSongsByName(0))

	pl, _ := s.Playlist(0)
	assert.Equal(t, []string{"/0", "/1", "/2", "/3", "/4"}, pl.FilePaths())
}
