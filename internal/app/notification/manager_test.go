package notification

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/oldplayer/internal/app/library"
	"github.com/osa030/oldplayer/internal/app/playback"
	"github.com/osa030/oldplayer/internal/domain/song"
)

func TestManager_BroadcastInOrder(t *testing.T) {
	m := NewManager()

	var got []string
	m.Subscribe(SubscriberFunc(func(n Notification) error {
		got = append(got, "first")
		return nil
	}))
	m.Subscribe(SubscriberFunc(func(n Notification) error {
		got = append(got, "second")
		return errors.New("boom")
	}))
	m.Subscribe(SubscriberFunc(func(n Notification) error {
		got = append(got, "third")
		return nil
	}))

	seq := m.Broadcast(playback.Event{Type: playback.EventSongStarted})

	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, []string{"first", "second", "third"}, got, "a failing subscriber does not stop delivery")
}

func TestManager_SequenceNumbers(t *testing.T) {
	m := NewManager()

	var seqs []uint64
	m.Subscribe(SubscriberFunc(func(n Notification) error {
		seqs = append(seqs, n.SequenceNo)
		return nil
	}))

	for range 3 {
		m.Broadcast(playback.Event{})
	}
	assert.Equal(t, []uint64{1, 2, 3}, seqs)
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()

	calls := 0
	var id string
	id = m.Subscribe(SubscriberFunc(func(n Notification) error {
		calls++
		m.Unsubscribe(id)
		return nil
	}))
	require.Equal(t, 1, m.SubscriberCount())

	m.Broadcast(playback.Event{})
	m.Broadcast(playback.Event{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_Send(t *testing.T) {
	m := NewManager()

	var got []playback.EventType
	id := m.Subscribe(SubscriberFunc(func(n Notification) error {
		got = append(got, n.Event.Type)
		return nil
	}))
	m.Subscribe(SubscriberFunc(func(n Notification) error {
		t.Fatal("only the addressed subscriber receives Send")
		return nil
	}))

	require.NoError(t, m.Send(id, playback.Event{Type: playback.EventModeChanged}))
	require.NoError(t, m.Send("unknown", playback.Event{}))
	assert.Equal(t, []playback.EventType{playback.EventModeChanged}, got)

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}

func TestManager_AsEngineNotifier(t *testing.T) {
	store := library.New()
	store.AddPlaylist("second")
	require.NoError(t, store.AddSongs(0, []song.Song{song.New("/a.mp3")}))
	require.NoError(t, store.AddSongs(1, []song.Song{song.New("/b.mp3")}))

	m := NewManager()
	var got []playback.EventType
	m.Subscribe(SubscriberFunc(func(n Notification) error {
		got = append(got, n.Event.Type)
		return nil
	}))

	e := playback.NewEngine(store, playback.Config{CrossListMode: playback.Advance}, playback.WithNotifier(m))
	_, err := e.SelectSong(0)
	require.NoError(t, err)
	e.OnSongEnded()

	assert.Equal(t, []playback.EventType{
		playback.EventSongStarted,
		playback.EventPlaylistSwitched,
		playback.EventSongStarted,
	}, got)
}
