// Package playlist provides the Playlist domain entity.
package playlist

import (
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/osa030/oldplayer/internal/domain/song"
)

// DefaultName is the name given to playlists created without one.
const DefaultName = "New Playlist"

// Playlist represents an ordered list of songs.
// Songs are addressed by position; ID is a stable handle that survives
// reordering of the playlist set.
type Playlist struct {
	ID   string // Stable handle (UUID), not persisted
	Name string // Display name

	songs      []song.Song
	generation uint64 // Incremented on every song mutation
}

// New creates an empty playlist.
func New(name string) *Playlist {
	if name == "" {
		name = DefaultName
	}
	return &Playlist{
		ID:    uuid.New().String(),
		Name:  name,
		songs: make([]song.Song, 0),
	}
}

// Generation returns the mutation counter of the song sequence.
func (p *Playlist) Generation() uint64 {
	return p.generation
}

// SongCount returns the number of songs.
func (p *Playlist) SongCount() int {
	return len(p.songs)
}

// Songs returns a copy of the songs.
func (p *Playlist) Songs() []song.Song {
	return slices.Clone(p.songs)
}

// Song returns the song at index.
func (p *Playlist) Song(index int) (song.Song, bool) {
	if !p.valid(index) {
		return song.Song{}, false
	}
	return p.songs[index], true
}

// AddSong appends a song.
func (p *Playlist) AddSong(s song.Song) {
	p.songs = append(p.songs, s)
	p.generation++
}

// AddSongs appends multiple songs.
func (p *Playlist) AddSongs(songs []song.Song) {
	if len(songs) == 0 {
		return
	}
	p.songs = append(p.songs, songs...)
	p.generation++
}

// RemoveSong removes the song at index, shifting later songs down by one.
// Returns false if index is out of range.
func (p *Playlist) RemoveSong(index int) bool {
	if !p.valid(index) {
		return false
	}
	p.songs = slices.Delete(p.songs, index, index+1)
	p.generation++
	return true
}

// Clear removes all songs.
func (p *Playlist) Clear() {
	p.songs = p.songs[:0]
	p.generation++
}

// UpdateSongMetadata merges non-empty metadata fields into the song at index.
// Metadata does not change ordering, so the generation is left as is.
func (p *Playlist) UpdateSongMetadata(index int, md song.Metadata) bool {
	if !p.valid(index) {
		return false
	}
	return p.songs[index].Merge(md)
}

// SortByTitle stably sorts songs using the given title comparison.
func (p *Playlist) SortByTitle(cmp func(a, b string) int) {
	slices.SortStableFunc(p.songs, func(a, b song.Song) int {
		return cmp(a.Title, b.Title)
	})
	p.generation++
}

// Occurrence returns how many songs before index are identical to the song
// at index. It is 0 for an invalid index.
func (p *Playlist) Occurrence(index int) int {
	if !p.valid(index) {
		return 0
	}
	return lo.Count(p.songs[:index], p.songs[index])
}

// IndexOfOccurrence returns the index of the n-th (zero-based) song identical
// to s, or -1.
func (p *Playlist) IndexOfOccurrence(s song.Song, n int) int {
	for i, sg := range p.songs {
		if sg != s {
			continue
		}
		if n == 0 {
			return i
		}
		n--
	}
	return -1
}

// FilePaths returns the file paths of all songs in order.
func (p *Playlist) FilePaths() []string {
	return lo.Map(p.songs, func(s song.Song, _ int) string {
		return s.FilePath
	})
}

func (p *Playlist) valid(index int) bool {
	return index >= 0 && index < len(p.songs)
}
