package playback

import (
	"fmt"

	"github.com/osa030/oldplayer/internal/domain/song"
)

// DecisionKind tells the playback boundary what to do.
type DecisionKind int

const (
	DecisionStop   DecisionKind = iota // Stop; no song selected
	DecisionPlay                       // Play a song of the same playlist
	DecisionSwitch                     // Playing playlist changed, then play a song of it
	DecisionPause                      // Pause the current song
	DecisionResume                     // Resume the current song
)

// String returns the string representation of the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionStop:
		return "stop"
	case DecisionPlay:
		return "play"
	case DecisionSwitch:
		return "switch"
	case DecisionPause:
		return "pause"
	case DecisionResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Decision is the result of a sequencing step.
// PlaylistIndex and SongIndex are only meaningful for Play, Switch, Pause and Resume.
type Decision struct {
	Kind          DecisionKind
	PlaylistIndex int
	SongIndex     int
	Song          song.Song
}

// IsPlay reports whether the boundary should start rendering Song.
func (d Decision) IsPlay() bool {
	return d.Kind == DecisionPlay || d.Kind == DecisionSwitch
}

// String returns a short description of the decision.
func (d Decision) String() string {
	switch d.Kind {
	case DecisionPlay, DecisionSwitch, DecisionPause, DecisionResume:
		return fmt.Sprintf("%s playlist=%d song=%d title=%q", d.Kind, d.PlaylistIndex, d.SongIndex, d.Song.Title)
	default:
		return d.Kind.String()
	}
}

func stopDecision() Decision {
	return Decision{Kind: DecisionStop, PlaylistIndex: -1, SongIndex: -1}
}

// nextInList computes the next song index inside one playlist.
// current is -1 when no song of this playlist is selected. For Random,
// order and cursor describe the shuffle order; the returned cursor is the
// consumed position. finished reports that the playlist is exhausted and the
// cross-list mode has to decide.
func nextInList(in InListMode, cross CrossListMode, current, count int, order []int, cursor int) (next, nextCursor int, finished bool) {
	if cross == SingleLoop && current >= 0 && current < count {
		return current, cursor, false
	}

	switch in {
	case Random:
		nextCursor = cursor + 1
		if nextCursor >= 0 && nextCursor < len(order) {
			return order[nextCursor], nextCursor, false
		}
		return -1, nextCursor, true
	default:
		if current+1 < count {
			return current + 1, cursor, false
		}
		return -1, cursor, true
	}
}
