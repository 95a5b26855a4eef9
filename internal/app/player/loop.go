// Package player runs the playback event loop.
package player

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/app/metadata"
	"github.com/osa030/oldplayer/internal/app/notification"
	"github.com/osa030/oldplayer/internal/app/playback"
	"github.com/osa030/oldplayer/internal/infra/settings"
)

// ErrStopped is returned when a command is posted to a loop that is not running.
var ErrStopped = errors.New("player loop stopped")

// Config represents loop configuration.
type Config struct {
	LibraryPath string // Playlists file; empty disables saving
	StatePath   string // Resume state file; empty disables saving
	AutoSave    bool   // Save playlists after every change
}

// command is a unit of work executed on the loop goroutine.
type command struct {
	fn   func(*playback.Engine) error
	done chan error
}

// Loop owns the engine and serializes every call into it.
// The engine and its store are only touched from the goroutine running Run.
type Loop struct {
	engine   *playback.Engine
	notifier *notification.Manager
	resolver metadata.Resolver
	config   Config

	commands chan command
	running  chan struct{}

	ctx     context.Context
	dirty   bool
	volume  int
	pending sync.WaitGroup
}

// Option configures a Loop.
type Option func(*Loop)

// WithResolver enables metadata resolution for started songs.
func WithResolver(r metadata.Resolver) Option {
	return func(l *Loop) {
		l.resolver = r
	}
}

// WithVolume sets the volume that is saved with the resume state.
func WithVolume(volume int) Option {
	return func(l *Loop) {
		l.volume = volume
	}
}

// New creates a loop around engine. notifier must be the engine's notifier.
func New(engine *playback.Engine, notifier *notification.Manager, config Config, opts ...Option) *Loop {
	l := &Loop{
		engine:   engine,
		notifier: notifier,
		config:   config,
		commands: make(chan command),
		running:  make(chan struct{}),
		volume:   settings.Default().Volume,
	}
	for _, opt := range opts {
		opt(l)
	}
	notifier.Subscribe(notification.SubscriberFunc(l.onEvent))
	return l
}

// Run processes commands until ctx is cancelled. On exit the playlists and
// the resume state are saved.
func (l *Loop) Run(ctx context.Context) error {
	l.ctx = ctx
	close(l.running)
	zlog.Info().Msg("player: loop started")

	for {
		select {
		case <-ctx.Done():
			l.pending.Wait()
			err := l.shutdown()
			zlog.Info().Msg("player: loop stopped")
			return err
		case cmd := <-l.commands:
			err := cmd.fn(l.engine)
			l.autoSave()
			cmd.done <- err
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func(*playback.Engine) error) error {
	select {
	case <-l.running:
	case <-ctx.Done():
		return ctx.Err()
	}

	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case l.commands <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ctx.Done():
		return ErrStopped
	}

	select {
	case err := <-cmd.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// decide runs a decision-producing engine call on the loop.
func (l *Loop) decide(ctx context.Context, fn func(*playback.Engine) (playback.Decision, error)) (playback.Decision, error) {
	var d playback.Decision
	err := l.Do(ctx, func(e *playback.Engine) error {
		var err error
		d, err = fn(e)
		return err
	})
	return d, err
}

// SongEnded reports that the media engine finished the current song.
func (l *Loop) SongEnded(ctx context.Context) (playback.Decision, error) {
	return l.decide(ctx, func(e *playback.Engine) (playback.Decision, error) {
		return e.OnSongEnded(), nil
	})
}

// Next skips to the next song.
func (l *Loop) Next(ctx context.Context) (playback.Decision, error) {
	return l.decide(ctx, func(e *playback.Engine) (playback.Decision, error) {
		return e.Next(), nil
	})
}

// PlayPause toggles playback.
func (l *Loop) PlayPause(ctx context.Context) (playback.Decision, error) {
	return l.decide(ctx, func(e *playback.Engine) (playback.Decision, error) {
		return e.PlayPause(), nil
	})
}

// SelectSong plays a song of the viewed playlist.
func (l *Loop) SelectSong(ctx context.Context, index int) (playback.Decision, error) {
	return l.decide(ctx, func(e *playback.Engine) (playback.Decision, error) {
		return e.SelectSong(index)
	})
}

// Restore resumes the position saved in state. Invalid indices are ignored.
func (l *Loop) Restore(ctx context.Context, state *settings.State) (playback.Decision, error) {
	return l.decide(ctx, func(e *playback.Engine) (playback.Decision, error) {
		if in, ok := playback.ParseInListMode(state.InListMode); ok {
			e.SetInListMode(in)
		}
		if cross, ok := playback.ParseCrossListMode(state.CrossListMode); ok {
			e.SetCrossListMode(cross)
		}
		l.volume = state.Volume
		if !state.HasPosition() {
			return playback.Decision{Kind: playback.DecisionStop, PlaylistIndex: -1, SongIndex: -1}, nil
		}
		return e.Restore(state.LastPlaylistIndex, state.LastSongIndex), nil
	})
}

// SetVolume records the volume for the resume state.
func (l *Loop) SetVolume(ctx context.Context, volume int) error {
	return l.Do(ctx, func(*playback.Engine) error {
		l.volume = min(max(volume, 0), 100)
		return nil
	})
}

// onEvent runs synchronously on the loop goroutine while the engine notifies.
func (l *Loop) onEvent(n notification.Notification) error {
	switch n.Event.Type {
	case playback.EventPlaylistsChanged, playback.EventSongsChanged, playback.EventMetadataUpdated:
		l.dirty = true
	case playback.EventSongStarted:
		if ref, ok := l.engine.CurrentRef(); ok {
			l.resolve(ref)
		}
	}
	return nil
}

// resolve looks up metadata off the loop and posts the result back.
func (l *Loop) resolve(ref playback.SongRef) {
	if l.resolver == nil || l.ctx == nil {
		return
	}
	ctx := l.ctx
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		md, err := l.resolver.Resolve(ctx, ref.FilePath)
		if err != nil {
			zlog.Debug().Msgf("player: no metadata for %s: %v", ref.FilePath, err)
			return
		}

		err = l.post(ctx, func(e *playback.Engine) error {
			err := e.ApplyMetadata(ref, md)
			if errors.Is(err, playback.ErrStaleMetadata) {
				return nil
			}
			return err
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Warn().Err(err).Msgf("player: failed to apply metadata: path=%s", ref.FilePath)
		}
	}()
}

// post queues fn without waiting for its result.
func (l *Loop) post(ctx context.Context, fn func(*playback.Engine) error) error {
	cmd := command{fn: fn, done: make(chan error, 1)}
	select {
	case l.commands <- cmd:
		return <-cmd.done
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) autoSave() {
	if !l.dirty || !l.config.AutoSave || l.config.LibraryPath == "" {
		return
	}
	if err := l.engine.Store().Save(l.config.LibraryPath); err != nil {
		zlog.Error().Err(err).Msgf("player: failed to save playlists: path=%s", l.config.LibraryPath)
		return
	}
	l.dirty = false
}

// snapshot returns the resume state for the current position.
func (l *Loop) snapshot() *settings.State {
	s := settings.Default()
	if plIdx, songIdx, ok := l.engine.Playing(); ok {
		s.LastPlaylistIndex = plIdx
		s.LastSongIndex = songIdx
	}
	s.InListMode = l.engine.InListMode().String()
	s.CrossListMode = l.engine.CrossListMode().String()
	s.Volume = l.volume
	return s
}

func (l *Loop) shutdown() error {
	var result error
	if l.dirty && l.config.LibraryPath != "" {
		if err := l.engine.Store().Save(l.config.LibraryPath); err != nil {
			result = errors.Wrap(err, "failed to save playlists")
		} else {
			l.dirty = false
		}
	}
	if l.config.StatePath != "" {
		if err := l.snapshot().Save(l.config.StatePath); err != nil {
			result = errors.CombineErrors(result, errors.Wrap(err, "failed to save resume state"))
		}
	}
	return result
}
