// Package song provides the Song domain entity.
package song

import (
	"regexp"
)

const (
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

var (
	pathSeparator  = regexp.MustCompile(`[/\\]`)
	audioExtension = regexp.MustCompile(`(?i)\.(mp3|wav|ogg|flac|m4a)$`)
)

// Song represents a single audio file in a playlist.
// FilePath is the identity used to re-locate a song after a sort or reload.
type Song struct {
	Title    string // Display title
	Artist   string // Artist name
	Album    string // Album name (not persisted)
	FilePath string // Absolute path of the audio file
}

// Metadata holds resolved tag fields for a song.
// Empty fields mean "unknown" and never overwrite existing values.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// New creates a song for the given file path.
// The title defaults to the file name without its audio extension.
func New(path string) Song {
	return Song{
		Title:    TitleFromPath(path),
		Artist:   UnknownArtist,
		Album:    UnknownAlbum,
		FilePath: path,
	}
}

// TitleFromPath derives a display title from a file path.
// Both slash and backslash separators are accepted.
func TitleFromPath(path string) string {
	parts := pathSeparator.Split(path, -1)
	name := parts[len(parts)-1]
	return audioExtension.ReplaceAllString(name, "")
}

// Merge applies the non-empty fields of md to the song.
// Returns true if any field changed.
func (s *Song) Merge(md Metadata) bool {
	changed := false
	if md.Title != "" && md.Title != s.Title {
		s.Title = md.Title
		changed = true
	}
	if md.Artist != "" && md.Artist != s.Artist {
		s.Artist = md.Artist
		changed = true
	}
	if md.Album != "" && md.Album != s.Album {
		s.Album = md.Album
		changed = true
	}
	return changed
}

// IsEmpty reports whether no field is set.
func (md Metadata) IsEmpty() bool {
	return md.Title == "" && md.Artist == "" && md.Album == ""
}

// Fill returns md with its empty fields taken from other.
func (md Metadata) Fill(other Metadata) Metadata {
	if md.Title == "" {
		md.Title = other.Title
	}
	if md.Artist == "" {
		md.Artist = other.Artist
	}
	if md.Album == "" {
		md.Album = other.Album
	}
	return md
}
