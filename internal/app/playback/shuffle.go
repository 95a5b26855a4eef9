package playback

import (
	"math/rand/v2"
	"slices"

	"github.com/osa030/oldplayer/internal/domain/playlist"
)

// Shuffler returns a permutation of 0..n-1.
type Shuffler func(n int) []int

// FisherYates is the default Shuffler: a uniform random permutation.
func FisherYates(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rand.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// shuffleOrder is a permutation over one playlist's song indices.
// It is valid only for the playlist handle and generation it was built for.
type shuffleOrder struct {
	playlistID string
	generation uint64
	order      []int
	cursor     int // Position of the current song in order; -1 before the first
}

// validFor reports whether the order still describes pl.
func (s *shuffleOrder) validFor(pl *playlist.Playlist) bool {
	return pl != nil &&
		s.playlistID == pl.ID &&
		s.generation == pl.Generation() &&
		len(s.order) == pl.SongCount()
}

// reset drops the order.
func (s *shuffleOrder) reset() {
	*s = shuffleOrder{}
}

// build replaces the order with a fresh permutation for pl.
// If anchor is a valid song index it is moved to position 0 so that the
// pass covers every other song exactly once. cursor is left at 0.
func (s *shuffleOrder) build(pl *playlist.Playlist, shuffler Shuffler, anchor int) {
	n := pl.SongCount()
	order := shuffler(n)
	if anchor >= 0 && anchor < n {
		if i := slices.Index(order, anchor); i > 0 {
			order[0], order[i] = order[i], order[0]
		}
	}
	*s = shuffleOrder{
		playlistID: pl.ID,
		generation: pl.Generation(),
		order:      order,
		cursor:     0,
	}
}
