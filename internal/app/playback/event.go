package playback

import "github.com/osa030/oldplayer/internal/domain/song"

// EventType represents a playback event type.
type EventType int

const (
	EventSongStarted      EventType = iota // A song was selected for playback
	EventPlaybackStopped                   // Playback stopped, no song selected
	EventStateChanged                      // Pause/resume
	EventPlaylistSwitched                  // Viewed and playing playlist moved (Advance)
	EventViewChanged                       // Viewed playlist changed
	EventModeChanged                       // In-list or cross-list mode changed
	EventPlaylistsChanged                  // Playlist set added/removed/reordered
	EventSongsChanged                      // Songs of a playlist added/removed/reordered
	EventMetadataUpdated                   // Song metadata merged
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventSongStarted:
		return "song_started"
	case EventPlaybackStopped:
		return "playback_stopped"
	case EventStateChanged:
		return "state_changed"
	case EventPlaylistSwitched:
		return "playlist_switched"
	case EventViewChanged:
		return "view_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventPlaylistsChanged:
		return "playlists_changed"
	case EventSongsChanged:
		return "songs_changed"
	case EventMetadataUpdated:
		return "metadata_updated"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
// PlaylistIndex and SongIndex are -1 when not applicable.
type Event struct {
	Type          EventType
	PlaylistIndex int
	SongIndex     int
	Song          *song.Song // Current song (nil for some events)
	State         State
	InListMode    InListMode
	CrossListMode CrossListMode
}

// Notifier receives engine events.
// Notify is called synchronously; the engine does not continue until it returns.
type Notifier interface {
	Notify(Event)
}
