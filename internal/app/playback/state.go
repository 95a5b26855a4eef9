// Package playback provides the sequencing engine that decides what plays next.
package playback

// State represents the playback state.
type State int

const (
	StateStopped State = iota // Nothing rendering audio
	StatePlaying              // Song is playing
	StatePaused               // Song is paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// InListMode governs traversal order within a single playlist.
type InListMode int

const (
	Sequential InListMode = iota // Songs play in list order
	Random                       // Songs play in shuffle order
)

// String returns the string representation of the mode.
func (m InListMode) String() string {
	switch m {
	case Sequential:
		return "sequential"
	case Random:
		return "random"
	default:
		return "unknown"
	}
}

// Toggle switches between Sequential and Random.
func (m InListMode) Toggle() InListMode {
	if m == Random {
		return Sequential
	}
	return Random
}

// CrossListMode governs what happens when a playlist's songs are exhausted.
type CrossListMode int

const (
	Stop       CrossListMode = iota // Stop after the last song
	ListLoop                        // Restart the same playlist
	SingleLoop                      // Replay the current song forever
	Advance                         // Move on to the next playlist
)

// String returns the string representation of the mode.
func (m CrossListMode) String() string {
	switch m {
	case Stop:
		return "stop"
	case ListLoop:
		return "list_loop"
	case SingleLoop:
		return "single_loop"
	case Advance:
		return "advance"
	default:
		return "unknown"
	}
}

// Next returns the mode that follows m when cycling.
// Stop is only reachable by explicit selection; cycling from it returns to ListLoop.
func (m CrossListMode) Next() CrossListMode {
	switch m {
	case ListLoop:
		return SingleLoop
	case SingleLoop:
		return Advance
	default:
		return ListLoop
	}
}

// ParseInListMode parses the string form of an InListMode.
func ParseInListMode(s string) (InListMode, bool) {
	switch s {
	case "sequential":
		return Sequential, true
	case "random":
		return Random, true
	default:
		return Sequential, false
	}
}

// ParseCrossListMode parses the string form of a CrossListMode.
func ParseCrossListMode(s string) (CrossListMode, bool) {
	switch s {
	case "stop":
		return Stop, true
	case "list_loop":
		return ListLoop, true
	case "single_loop":
		return SingleLoop, true
	case "advance":
		return Advance, true
	default:
		return ListLoop, false
	}
}
