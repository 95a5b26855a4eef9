package playback

import (
	"slices"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/oldplayer/internal/app/library"
	"github.com/osa030/oldplayer/internal/domain/playlist"
	"github.com/osa030/oldplayer/internal/domain/song"
	"github.com/osa030/oldplayer/internal/infra/metrics"
)

// Errors
var (
	ErrStaleMetadata = errors.New("metadata target moved or was removed")
)

// Config holds engine configuration.
type Config struct {
	InListMode    InListMode
	CrossListMode CrossListMode
}

// Option configures an Engine.
type Option func(*Engine)

// WithShuffler replaces the permutation source.
func WithShuffler(s Shuffler) Option {
	return func(e *Engine) {
		e.shuffler = s
	}
}

// WithNotifier sets the receiver of engine events.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// SongRef identifies a song by position together with the file path it had
// when the reference was taken.
type SongRef struct {
	PlaylistID string
	Index      int
	FilePath   string
}

// Engine decides what plays next.
//
// Playlists are tracked by handle, so the viewed and playing cursors survive
// playlist sorting and removal of other playlists. The playing song is tracked
// by index plus file path. Engine is not safe for concurrent use; all calls
// must come from one goroutine.
type Engine struct {
	store    *library.Store
	notifier Notifier
	shuffler Shuffler

	inListMode    InListMode
	crossListMode CrossListMode
	state         State

	viewedID  string // Handle of the playlist shown to the user
	playingID string // Handle of the playlist rendering audio; "" when none
	songIndex int    // Index of the playing song; -1 when none
	songPath  string // File path of the playing song

	shuffle shuffleOrder
}

// NewEngine creates an engine over store. The first playlist is viewed and
// nothing is playing.
func NewEngine(store *library.Store, config Config, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		shuffler:      FisherYates,
		inListMode:    config.InListMode,
		crossListMode: config.CrossListMode,
		state:         StateStopped,
		songIndex:     -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	if pl, ok := store.Playlist(0); ok {
		e.viewedID = pl.ID
	}
	return e
}

// Store returns the playlist store the engine operates on.
func (e *Engine) Store() *library.Store {
	return e.store
}

// InListMode returns the in-list mode.
func (e *Engine) InListMode() InListMode {
	return e.inListMode
}

// CrossListMode returns the cross-list mode.
func (e *Engine) CrossListMode() CrossListMode {
	return e.crossListMode
}

// State returns the playback state.
func (e *Engine) State() State {
	return e.state
}

// ViewedIndex returns the index of the viewed playlist.
func (e *Engine) ViewedIndex() int {
	if idx := e.store.IndexOf(e.viewedID); idx >= 0 {
		return idx
	}
	return 0
}

// Playing returns the playing playlist and song index.
func (e *Engine) Playing() (playlistIndex, songIndex int, ok bool) {
	if e.playingID == "" || e.songIndex < 0 {
		return -1, -1, false
	}
	idx := e.store.IndexOf(e.playingID)
	if idx < 0 {
		return -1, -1, false
	}
	return idx, e.songIndex, true
}

// CurrentSong returns the playing song.
func (e *Engine) CurrentSong() (song.Song, bool) {
	plIdx, songIdx, ok := e.Playing()
	if !ok {
		return song.Song{}, false
	}
	return e.store.Song(plIdx, songIdx)
}

// CurrentRef returns a reference to the playing song for later revalidation.
func (e *Engine) CurrentRef() (SongRef, bool) {
	if _, _, ok := e.Playing(); !ok {
		return SongRef{}, false
	}
	return SongRef{PlaylistID: e.playingID, Index: e.songIndex, FilePath: e.songPath}, true
}

// ShuffleOrder returns a copy of the shuffle order and its cursor.
// The order is nil when no valid shuffle exists.
func (e *Engine) ShuffleOrder() ([]int, int) {
	if e.inListMode != Random || e.shuffle.playlistID == "" {
		return nil, 0
	}
	return slices.Clone(e.shuffle.order), e.shuffle.cursor
}

// OnSongEnded is called by the media engine when the current song finished.
func (e *Engine) OnSongEnded() Decision {
	return e.computeNext()
}

// Next skips to the next song as decided by the modes.
func (e *Engine) Next() Decision {
	return e.computeNext()
}

// Previous plays the song before the current one in list order.
// Returns false if there is none.
func (e *Engine) Previous() (Decision, bool) {
	plIdx, songIdx, ok := e.Playing()
	if !ok || songIdx <= 0 {
		return stopDecision(), false
	}
	return e.play(plIdx, songIdx-1, DecisionPlay), true
}

// PlayPause toggles between playing and paused. A stopped song is started
// again; with no song selected the first song of the viewed playlist starts.
func (e *Engine) PlayPause() Decision {
	plIdx, songIdx, ok := e.Playing()
	if !ok {
		d, err := e.SelectSong(0)
		if err != nil {
			return stopDecision()
		}
		return d
	}

	if e.state == StateStopped {
		return e.play(plIdx, songIdx, DecisionPlay)
	}

	sg, _ := e.store.Song(plIdx, songIdx)
	kind := DecisionResume
	if e.state == StatePlaying {
		e.state = StatePaused
		kind = DecisionPause
	} else {
		e.state = StatePlaying
	}
	e.notify(Event{Type: EventStateChanged, PlaylistIndex: plIdx, SongIndex: songIdx, Song: &sg})
	return Decision{Kind: kind, PlaylistIndex: plIdx, SongIndex: songIdx, Song: sg}
}

// SelectPlaylist changes the viewed playlist. Playback is not affected.
func (e *Engine) SelectPlaylist(index int) error {
	pl, ok := e.store.Playlist(index)
	if !ok {
		return errors.Wrapf(library.ErrInvalidIndex, "playlist %d", index)
	}
	e.viewedID = pl.ID
	e.notify(Event{Type: EventViewChanged, PlaylistIndex: index, SongIndex: -1})
	return nil
}

// SelectSong plays the song at index of the viewed playlist, bypassing
// sequencing. In Random mode a new shuffle pass starts at that song.
func (e *Engine) SelectSong(index int) (Decision, error) {
	plIdx := e.ViewedIndex()
	pl, _ := e.store.Playlist(plIdx)
	if _, ok := pl.Song(index); !ok {
		return stopDecision(), errors.Wrapf(library.ErrInvalidIndex, "song %d in playlist %d", index, plIdx)
	}
	if e.inListMode == Random {
		e.regenerate(pl, index, "manual")
	}
	return e.play(plIdx, index, DecisionPlay), nil
}

// Restore resumes a previously persisted position. Out-of-range values are
// ignored: an invalid playlist leaves everything as is, an invalid song only
// selects the playlist.
func (e *Engine) Restore(playlistIndex, songIndex int) Decision {
	if err := e.SelectPlaylist(playlistIndex); err != nil {
		zlog.Debug().Msgf("playback: ignoring saved playlist index %d", playlistIndex)
		return stopDecision()
	}
	d, err := e.SelectSong(songIndex)
	if err != nil {
		zlog.Debug().Msgf("playback: ignoring saved song index %d", songIndex)
		return stopDecision()
	}
	return d
}

// SetPosition makes the song at (playlistIndex, songIndex) the current song
// without starting it. No events are emitted and the state stays Stopped.
// Returns false and changes nothing when either index is out of range.
func (e *Engine) SetPosition(playlistIndex, songIndex int) bool {
	pl, ok := e.store.Playlist(playlistIndex)
	if !ok {
		return false
	}
	sg, ok := pl.Song(songIndex)
	if !ok {
		return false
	}
	e.viewedID = pl.ID
	e.playingID = pl.ID
	e.songIndex = songIndex
	e.songPath = sg.FilePath
	e.state = StateStopped
	if e.inListMode == Random {
		e.regenerate(pl, songIndex, "restore")
	}
	return true
}

// SetInListMode sets the in-list mode. Entering Random builds a new shuffle
// anchored at the playing song; leaving it drops the shuffle immediately.
func (e *Engine) SetInListMode(mode InListMode) {
	if mode == e.inListMode {
		return
	}
	e.inListMode = mode
	if mode == Random {
		pl, _ := e.sequencePlaylist()
		e.regenerate(pl, e.currentIndexIn(pl), "mode")
		if e.currentIndexIn(pl) < 0 {
			e.shuffle.cursor = -1
		}
	} else {
		e.shuffle.reset()
	}
	e.notify(Event{Type: EventModeChanged, PlaylistIndex: -1, SongIndex: -1})
}

// ToggleInListMode cycles Sequential and Random.
func (e *Engine) ToggleInListMode() InListMode {
	e.SetInListMode(e.inListMode.Toggle())
	return e.inListMode
}

// SetCrossListMode sets the cross-list mode. This is the only way to reach Stop.
func (e *Engine) SetCrossListMode(mode CrossListMode) {
	if mode == e.crossListMode {
		return
	}
	e.crossListMode = mode
	e.notify(Event{Type: EventModeChanged, PlaylistIndex: -1, SongIndex: -1})
}

// ToggleCrossListMode cycles ListLoop, SingleLoop and Advance.
func (e *Engine) ToggleCrossListMode() CrossListMode {
	e.SetCrossListMode(e.crossListMode.Next())
	return e.crossListMode
}

// AddPlaylist appends a playlist and returns its index.
func (e *Engine) AddPlaylist(name string) int {
	idx := e.store.AddPlaylist(name)
	e.notify(Event{Type: EventPlaylistsChanged, PlaylistIndex: idx, SongIndex: -1})
	return idx
}

// RemovePlaylists removes playlists in descending index order. Removal stops
// at the last remaining playlist and ErrLastPlaylistProtected is returned;
// playlists removed before that stay removed. Removing the playing playlist
// stops playback; removing the viewed one moves the view to the first playlist.
func (e *Engine) RemovePlaylists(indices []int) error {
	desc, err := descending(indices, e.store.Count())
	if err != nil {
		return errors.Wrap(err, "playlist")
	}

	var result error
	changed := false
	for _, idx := range desc {
		pl, _ := e.store.Playlist(idx)
		id := pl.ID
		if err := e.store.RemovePlaylist(idx); err != nil {
			result = err
			break
		}
		changed = true
		if id == e.playingID {
			e.clearPlaying()
		}
		if id == e.viewedID {
			first, _ := e.store.Playlist(0)
			e.viewedID = first.ID
		}
	}

	if changed {
		e.notify(Event{Type: EventPlaylistsChanged, PlaylistIndex: -1, SongIndex: -1})
	}
	return result
}

// RenamePlaylist renames the playlist at index.
func (e *Engine) RenamePlaylist(index int, name string) error {
	if err := e.store.RenamePlaylist(index, name); err != nil {
		return err
	}
	e.notify(Event{Type: EventPlaylistsChanged, PlaylistIndex: index, SongIndex: -1})
	return nil
}

// SortPlaylists reorders playlists by name. Cursors follow their handles.
func (e *Engine) SortPlaylists() {
	e.store.SortPlaylistsByName()
	e.notify(Event{Type: EventPlaylistsChanged, PlaylistIndex: -1, SongIndex: -1})
}

// AddSongs appends songs to the playlist at index.
func (e *Engine) AddSongs(index int, songs []song.Song) error {
	if err := e.store.AddSongs(index, songs); err != nil {
		return err
	}
	e.afterSongsChanged(index, "songs_added")
	return nil
}

// RemoveSongs removes songs from the playlist at playlistIndex. Indices are
// applied in descending order so earlier ones stay valid. Removing the playing
// song stops playback; removing songs before it shifts it down.
func (e *Engine) RemoveSongs(playlistIndex int, indices []int) error {
	pl, ok := e.store.Playlist(playlistIndex)
	if !ok {
		return errors.Wrapf(library.ErrInvalidIndex, "playlist %d", playlistIndex)
	}
	desc, err := descending(indices, pl.SongCount())
	if err != nil {
		return errors.Wrapf(err, "song in playlist %d", playlistIndex)
	}
	if len(desc) == 0 {
		return nil
	}

	playingThis := pl.ID == e.playingID && e.songIndex >= 0
	removedCurrent := false
	for _, idx := range desc {
		if playingThis {
			if idx == e.songIndex {
				removedCurrent = true
			} else if idx < e.songIndex {
				e.songIndex--
			}
		}
		if err := e.store.RemoveSong(playlistIndex, idx); err != nil {
			return err
		}
	}

	if removedCurrent {
		e.clearPlaying()
	}
	e.afterSongsChanged(playlistIndex, "songs_removed")
	return nil
}

// ClearPlaylist removes every song of the playlist at index.
func (e *Engine) ClearPlaylist(index int) error {
	pl, ok := e.store.Playlist(index)
	if !ok {
		return errors.Wrapf(library.ErrInvalidIndex, "playlist %d", index)
	}
	if pl.ID == e.playingID {
		e.clearPlaying()
	}
	if err := e.store.ClearPlaylist(index); err != nil {
		return err
	}
	e.afterSongsChanged(index, "songs_removed")
	return nil
}

// SortSongs reorders the songs of the playlist at index by title. The playing
// song is re-located by value; among identical entries the sort is stable, so
// the occurrence count picks the same entry again.
func (e *Engine) SortSongs(index int) error {
	pl, ok := e.store.Playlist(index)
	if !ok {
		return errors.Wrapf(library.ErrInvalidIndex, "playlist %d", index)
	}
	current, hasCurrent := pl.Song(e.currentIndexIn(pl))
	nth := pl.Occurrence(e.currentIndexIn(pl))
	if err := e.store.SortSongsByName(index); err != nil {
		return err
	}
	if hasCurrent {
		e.songIndex = pl.IndexOfOccurrence(current, nth)
		if e.songIndex < 0 {
			e.clearPlaying()
		}
	}
	e.afterSongsChanged(index, "sorted")
	return nil
}

// ApplyMetadata merges resolved metadata into the referenced song. The
// reference is revalidated first: if the song moved or was removed since the
// reference was taken, the update is dropped and ErrStaleMetadata returned.
func (e *Engine) ApplyMetadata(ref SongRef, md song.Metadata) error {
	plIdx := e.store.IndexOf(ref.PlaylistID)
	sg, ok := e.store.Song(plIdx, ref.Index)
	if !ok || sg.FilePath != ref.FilePath {
		metrics.MetadataUpdatesTotal.WithLabelValues("stale").Inc()
		zlog.Debug().Msgf("playback: dropping stale metadata: index=%d path=%s", ref.Index, ref.FilePath)
		return ErrStaleMetadata
	}

	changed, err := e.store.UpdateSongMetadata(plIdx, ref.Index, md)
	if err != nil {
		return err
	}
	if !changed {
		metrics.MetadataUpdatesTotal.WithLabelValues("unchanged").Inc()
		return nil
	}
	metrics.MetadataUpdatesTotal.WithLabelValues("applied").Inc()

	updated, _ := e.store.Song(plIdx, ref.Index)
	e.notify(Event{Type: EventMetadataUpdated, PlaylistIndex: plIdx, SongIndex: ref.Index, Song: &updated})
	return nil
}

// computeNext decides and applies the next step.
func (e *Engine) computeNext() Decision {
	pl, plIdx := e.sequencePlaylist()
	if pl == nil || pl.SongCount() == 0 {
		return e.stop()
	}

	current := e.currentIndexIn(pl)
	if e.inListMode == Random && !e.shuffle.validFor(pl) {
		e.regenerate(pl, current, "stale")
		if current < 0 {
			e.shuffle.cursor = -1
		}
	}

	next, cursor, finished := nextInList(e.inListMode, e.crossListMode, current, pl.SongCount(), e.shuffle.order, e.shuffle.cursor)
	if !finished {
		if e.inListMode == Random {
			e.shuffle.cursor = cursor
		}
		return e.play(plIdx, next, DecisionPlay)
	}

	switch e.crossListMode {
	case ListLoop:
		if e.inListMode == Random {
			e.regenerate(pl, -1, "list_loop")
			return e.play(plIdx, e.shuffle.order[0], DecisionPlay)
		}
		return e.play(plIdx, 0, DecisionPlay)
	case Advance:
		target := (plIdx + 1) % e.store.Count()
		e.switchPlaylist(target)
		return e.selectFirstSong(target)
	case SingleLoop:
		return e.play(plIdx, max(current, 0), DecisionPlay)
	default:
		return e.stop()
	}
}

// switchPlaylist is the first phase of Advance: viewed and playing move to
// target and subscribers are notified before any song is selected.
func (e *Engine) switchPlaylist(target int) {
	pl, _ := e.store.Playlist(target)
	e.viewedID = pl.ID
	e.playingID = pl.ID
	e.songIndex = -1
	e.songPath = ""
	zlog.Debug().Msgf("playback: advancing to playlist %d (%s)", target, pl.Name)
	e.notify(Event{Type: EventPlaylistSwitched, PlaylistIndex: target, SongIndex: -1})
}

// selectFirstSong is the second phase of Advance.
func (e *Engine) selectFirstSong(target int) Decision {
	pl, _ := e.store.Playlist(target)
	if pl.SongCount() == 0 {
		return e.stop()
	}
	first := 0
	if e.inListMode == Random {
		e.regenerate(pl, -1, "advance")
		first = e.shuffle.order[0]
	}
	return e.play(target, first, DecisionSwitch)
}

// play makes the song at (plIdx, songIdx) the playing song.
func (e *Engine) play(plIdx, songIdx int, kind DecisionKind) Decision {
	pl, ok := e.store.Playlist(plIdx)
	if !ok {
		return e.stop()
	}
	sg, ok := pl.Song(songIdx)
	if !ok {
		return e.stop()
	}

	e.playingID = pl.ID
	e.songIndex = songIdx
	e.songPath = sg.FilePath
	e.state = StatePlaying

	metrics.DecisionsTotal.WithLabelValues(kind.String()).Inc()
	zlog.Debug().Msgf("playback: %s playlist=%d song=%d title=%s", kind, plIdx, songIdx, sg.Title)
	e.notify(Event{Type: EventSongStarted, PlaylistIndex: plIdx, SongIndex: songIdx, Song: &sg})

	return Decision{Kind: kind, PlaylistIndex: plIdx, SongIndex: songIdx, Song: sg}
}

// stop stops playback. The playing cursor is kept so PlayPause can resume it.
func (e *Engine) stop() Decision {
	e.state = StateStopped
	metrics.DecisionsTotal.WithLabelValues(DecisionStop.String()).Inc()
	zlog.Debug().Msg("playback: stop")
	e.notify(Event{Type: EventPlaybackStopped, PlaylistIndex: -1, SongIndex: -1})
	return stopDecision()
}

// clearPlaying stops playback and forgets the playing song.
func (e *Engine) clearPlaying() {
	e.playingID = ""
	e.songIndex = -1
	e.songPath = ""
	e.shuffle.reset()
	e.state = StateStopped
	e.notify(Event{Type: EventPlaybackStopped, PlaylistIndex: -1, SongIndex: -1})
}

// afterSongsChanged rebuilds the shuffle if the playing playlist changed
// under Random and notifies subscribers.
func (e *Engine) afterSongsChanged(index int, reason string) {
	pl, _ := e.store.Playlist(index)
	if e.inListMode == Random && pl.ID == e.playingID {
		current := e.currentIndexIn(pl)
		e.regenerate(pl, current, reason)
		if current < 0 {
			e.shuffle.cursor = -1
		}
	}
	e.notify(Event{Type: EventSongsChanged, PlaylistIndex: index, SongIndex: -1})
}

// regenerate builds a new shuffle order for pl anchored at anchor.
func (e *Engine) regenerate(pl *playlist.Playlist, anchor int, reason string) {
	if pl == nil {
		e.shuffle.reset()
		return
	}
	e.shuffle.build(pl, e.shuffler, anchor)
	metrics.ShuffleRegenerationsTotal.WithLabelValues(reason).Inc()
	zlog.Debug().Msgf("playback: new shuffle order (%s): %v", reason, e.shuffle.order)
}

// sequencePlaylist returns the playlist sequencing operates on: the playing
// one, or the viewed one when nothing is playing.
func (e *Engine) sequencePlaylist() (*playlist.Playlist, int) {
	if e.playingID != "" {
		if idx := e.store.IndexOf(e.playingID); idx >= 0 {
			pl, _ := e.store.Playlist(idx)
			return pl, idx
		}
	}
	idx := e.ViewedIndex()
	pl, ok := e.store.Playlist(idx)
	if !ok {
		return nil, -1
	}
	return pl, idx
}

// currentIndexIn returns the playing song index if pl is the playing playlist, else -1.
func (e *Engine) currentIndexIn(pl *playlist.Playlist) int {
	if pl == nil || pl.ID != e.playingID {
		return -1
	}
	return e.songIndex
}

func (e *Engine) notify(ev Event) {
	if e.notifier == nil {
		return
	}
	ev.State = e.state
	ev.InListMode = e.inListMode
	ev.CrossListMode = e.crossListMode
	e.notifier.Notify(ev)
}

// descending validates indices against count and returns them unique, in
// descending order.
func descending(indices []int, count int) ([]int, error) {
	for _, idx := range indices {
		if idx < 0 || idx >= count {
			return nil, errors.Wrapf(library.ErrInvalidIndex, "index %d", idx)
		}
	}
	desc := lo.Uniq(indices)
	slices.Sort(desc)
	slices.Reverse(desc)
	return desc, nil
}
