// Package library provides the playlist store.
package library

import (
	"slices"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/osa030/oldplayer/internal/domain/playlist"
	"github.com/osa030/oldplayer/internal/domain/song"
	"github.com/osa030/oldplayer/internal/infra/metrics"
)

// DefaultPlaylistName is the name of the playlist seeded into an empty store.
const DefaultPlaylistName = "Favorites"

// Errors
var (
	ErrInvalidIndex          = errors.New("invalid index")
	ErrLastPlaylistProtected = errors.New("at least one playlist must be kept")
)

// Store owns the ordered set of playlists.
// It always holds at least one playlist. Store is not safe for concurrent use.
type Store struct {
	playlists   []*playlist.Playlist
	defaultName string
	collator    *collate.Collator
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultPlaylistName sets the name of the playlist seeded into an empty store.
func WithDefaultPlaylistName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.defaultName = name
		}
	}
}

// WithLocale sets the collation locale used by the sort operations.
func WithLocale(tag language.Tag) Option {
	return func(s *Store) {
		s.collator = collate.New(tag, collate.IgnoreCase)
	}
}

// New creates a store seeded with one empty default playlist.
func New(opts ...Option) *Store {
	s := newStore(opts...)
	s.ensureDefault()
	return s
}

func newStore(opts ...Option) *Store {
	s := &Store{
		playlists:   make([]*playlist.Playlist, 0),
		defaultName: DefaultPlaylistName,
		collator:    collate.New(language.Und, collate.IgnoreCase),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ensureDefault seeds the default playlist if the store is empty.
func (s *Store) ensureDefault() {
	if len(s.playlists) == 0 {
		s.playlists = append(s.playlists, playlist.New(s.defaultName))
	}
	metrics.PlaylistsGauge.Set(float64(len(s.playlists)))
}

// Count returns the number of playlists.
func (s *Store) Count() int {
	return len(s.playlists)
}

// Playlists returns the playlists in order. The slice is a copy.
func (s *Store) Playlists() []*playlist.Playlist {
	return slices.Clone(s.playlists)
}

// Playlist returns the playlist at index.
func (s *Store) Playlist(index int) (*playlist.Playlist, bool) {
	if index < 0 || index >= len(s.playlists) {
		return nil, false
	}
	return s.playlists[index], true
}

// Song returns the song at songIndex in the playlist at playlistIndex.
func (s *Store) Song(playlistIndex, songIndex int) (song.Song, bool) {
	pl, ok := s.Playlist(playlistIndex)
	if !ok {
		return song.Song{}, false
	}
	return pl.Song(songIndex)
}

// IndexOf returns the current index of the playlist with the given handle, or -1.
// Indices do not survive a sort or removal; callers holding a handle must
// re-resolve it through IndexOf.
func (s *Store) IndexOf(id string) int {
	return slices.IndexFunc(s.playlists, func(p *playlist.Playlist) bool {
		return p.ID == id
	})
}

// AddPlaylist appends a new empty playlist and returns its index.
func (s *Store) AddPlaylist(name string) int {
	s.playlists = append(s.playlists, playlist.New(name))
	metrics.PlaylistsGauge.Set(float64(len(s.playlists)))
	return len(s.playlists) - 1
}

// RemovePlaylist removes the playlist at index; later playlists shift down by one.
// The last remaining playlist cannot be removed.
func (s *Store) RemovePlaylist(index int) error {
	if len(s.playlists) == 1 {
		return ErrLastPlaylistProtected
	}
	if index < 0 || index >= len(s.playlists) {
		return errors.Wrapf(ErrInvalidIndex, "playlist %d", index)
	}
	s.playlists = slices.Delete(s.playlists, index, index+1)
	metrics.PlaylistsGauge.Set(float64(len(s.playlists)))
	return nil
}

// RenamePlaylist changes the name of the playlist at index.
func (s *Store) RenamePlaylist(index int, name string) error {
	pl, err := s.playlist(index)
	if err != nil {
		return err
	}
	if name == "" {
		name = playlist.DefaultName
	}
	pl.Name = name
	return nil
}

// AddSong appends a song to the playlist at index.
func (s *Store) AddSong(index int, sg song.Song) error {
	pl, err := s.playlist(index)
	if err != nil {
		return err
	}
	pl.AddSong(sg)
	return nil
}

// AddSongs appends songs to the playlist at index.
func (s *Store) AddSongs(index int, songs []song.Song) error {
	pl, err := s.playlist(index)
	if err != nil {
		return err
	}
	pl.AddSongs(songs)
	return nil
}

// RemoveSong removes a song; later songs shift down by one.
func (s *Store) RemoveSong(playlistIndex, songIndex int) error {
	pl, err := s.playlist(playlistIndex)
	if err != nil {
		return err
	}
	if !pl.RemoveSong(songIndex) {
		return errors.Wrapf(ErrInvalidIndex, "song %d in playlist %d", songIndex, playlistIndex)
	}
	return nil
}

// ClearPlaylist removes every song of the playlist at index.
func (s *Store) ClearPlaylist(index int) error {
	pl, err := s.playlist(index)
	if err != nil {
		return err
	}
	pl.Clear()
	return nil
}

// UpdateSongMetadata merges the non-empty fields of md into a song.
// Returns whether anything changed.
func (s *Store) UpdateSongMetadata(playlistIndex, songIndex int, md song.Metadata) (bool, error) {
	pl, err := s.playlist(playlistIndex)
	if err != nil {
		return false, err
	}
	if _, ok := pl.Song(songIndex); !ok {
		return false, errors.Wrapf(ErrInvalidIndex, "song %d in playlist %d", songIndex, playlistIndex)
	}
	return pl.UpdateSongMetadata(songIndex, md), nil
}

// SortPlaylistsByName stably reorders the playlists by name.
func (s *Store) SortPlaylistsByName() {
	slices.SortStableFunc(s.playlists, func(a, b *playlist.Playlist) int {
		return s.collator.CompareString(a.Name, b.Name)
	})
}

// SortSongsByName stably reorders the songs of the playlist at index by title.
// Song indices tracked by callers must be re-resolved afterwards.
func (s *Store) SortSongsByName(index int) error {
	pl, err := s.playlist(index)
	if err != nil {
		return err
	}
	pl.SortByTitle(s.collator.CompareString)
	return nil
}

func (s *Store) playlist(index int) (*playlist.Playlist, error) {
	pl, ok := s.Playlist(index)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidIndex, "playlist %d", index)
	}
	return pl, nil
}
