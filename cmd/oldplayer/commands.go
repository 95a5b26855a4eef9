package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/app/metadata"
	"github.com/osa030/oldplayer/internal/app/notification"
	"github.com/osa030/oldplayer/internal/app/playback"
	"github.com/osa030/oldplayer/internal/app/player"
	"github.com/osa030/oldplayer/internal/domain/song"
	"github.com/osa030/oldplayer/internal/infra/config"
	"github.com/osa030/oldplayer/internal/infra/settings"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func listPlaylists(cfg *config.Config) error {
	store, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	state := settings.Load(cfg.State.Path)

	t := newTable()
	t.AppendHeader(table.Row{"", "#", "Name", "Songs"})
	for i, pl := range store.Playlists() {
		marker := ""
		if i == state.LastPlaylistIndex {
			marker = text.FgGreen.Sprint("▶")
		}
		t.AppendRow(table.Row{marker, i, pl.Name, pl.SongCount()})
	}
	t.Render()
	return nil
}

func listSongs(cfg *config.Config, index int) error {
	store, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	pl, ok := store.Playlist(index)
	if !ok {
		return errors.Newf("no playlist %d (have %d)", index, store.Count())
	}
	state := settings.Load(cfg.State.Path)

	fmt.Printf("%s\n", text.Bold.Sprint(pl.Name))
	t := newTable()
	t.AppendHeader(table.Row{"", "#", "Title", "Artist", "File"})
	for i, sg := range pl.Songs() {
		marker := ""
		if index == state.LastPlaylistIndex && i == state.LastSongIndex {
			marker = text.FgGreen.Sprint("▶")
		}
		t.AppendRow(table.Row{marker, i, sg.Title, sg.Artist, sg.FilePath})
	}
	t.Render()
	return nil
}

// mutate applies fn to an engine over the library and saves the result.
// The saved resume position is loaded into the engine first, so edits shift
// it the same way they would during playback, and written back afterwards.
func mutate(cfg *config.Config, fn func(*playback.Engine) error) error {
	store, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	state := settings.Load(cfg.State.Path)
	engine, _ := newEngine(cfg, store, state)
	if state.HasPosition() {
		engine.SetPosition(state.LastPlaylistIndex, state.LastSongIndex)
	}

	// Keep whatever succeeded before an error, e.g. a partial batch removal
	opErr := fn(engine)
	if err := store.Save(cfg.Library.Path); err != nil {
		return errors.CombineErrors(opErr, err)
	}
	if err := savePosition(cfg, state, engine); err != nil {
		return errors.CombineErrors(opErr, err)
	}
	return opErr
}

// savePosition writes the engine's current song back to the resume state.
// A saved position that no longer resolves is cleared.
func savePosition(cfg *config.Config, state *settings.State, engine *playback.Engine) error {
	if !state.HasPosition() {
		return nil
	}
	plIdx, songIdx, _ := engine.Playing()
	if plIdx == state.LastPlaylistIndex && songIdx == state.LastSongIndex {
		return nil
	}
	zlog.Debug().Msgf("oldplayer: resume position moved: %d:%d -> %d:%d",
		state.LastPlaylistIndex, state.LastSongIndex, plIdx, songIdx)
	state.LastPlaylistIndex, state.LastSongIndex = plIdx, songIdx
	return state.Save(cfg.State.Path)
}

// resolverFromConfig returns the metadata chain, or nil when resolution is disabled.
func resolverFromConfig(cfg *config.Config) (metadata.Resolver, error) {
	if !cfg.Metadata.Enabled {
		return nil, nil
	}
	return metadata.NewChainFromConfig(cfg.Metadata)
}

func addSongs(cfg *config.Config, index int, files []string) error {
	resolver, err := resolverFromConfig(cfg)
	if err != nil {
		return err
	}

	songs := make([]song.Song, 0, len(files))
	for _, f := range files {
		sg := song.New(f)
		if resolver != nil {
			if md, err := resolver.Resolve(context.Background(), f); err == nil {
				sg.Merge(md)
			}
		}
		songs = append(songs, sg)
	}

	return mutate(cfg, func(e *playback.Engine) error {
		if err := e.AddSongs(index, songs); err != nil {
			return err
		}
		fmt.Printf("Added %d songs\n", len(songs))
		return nil
	})
}

func showTags(cfg *config.Config, files []string) error {
	resolver, err := metadata.NewChainFromConfig(cfg.Metadata)
	if err != nil {
		return err
	}

	t := newTable()
	t.AppendHeader(table.Row{"File", "Title", "Artist", "Album"})
	for _, f := range files {
		md, err := resolver.Resolve(context.Background(), f)
		if err != nil {
			t.AppendRow(table.Row{f, text.FgHiBlack.Sprint(err.Error()), "", ""})
			continue
		}
		t.AppendRow(table.Row{f, md.Title, md.Artist, md.Album})
	}
	t.Render()
	return nil
}

func modes(cfg *config.Config, in, cross string) error {
	state := settings.Load(cfg.State.Path)
	if in == "" && cross == "" {
		fmt.Printf("in-list:    %s\n", state.InListMode)
		fmt.Printf("cross-list: %s\n", state.CrossListMode)
		return nil
	}
	if in != "" {
		state.InListMode = in
	}
	if cross != "" {
		state.CrossListMode = cross
	}
	return state.Save(cfg.State.Path)
}

type simulateOptions struct {
	count    int
	playlist int
	song     int
	in       string
	cross    string
	events   bool
}

// simulate drives the player loop with song-ended events instead of audio.
func simulate(cfg *config.Config, opts simulateOptions) error {
	store, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	state := settings.Load(cfg.State.Path)
	engine, notifier := newEngine(cfg, store, state)

	if opts.events {
		notifier.Subscribe(notification.SubscriberFunc(func(n notification.Notification) error {
			fmt.Printf("  %s #%d %s playlist=%d song=%d\n",
				text.FgHiBlack.Sprint("event"), n.SequenceNo, n.Event.Type, n.Event.PlaylistIndex, n.Event.SongIndex)
			return nil
		}))
	}

	var loopOpts []player.Option
	resolver, err := resolverFromConfig(cfg)
	if err != nil {
		return err
	}
	if resolver != nil {
		loopOpts = append(loopOpts, player.WithResolver(resolver))
	}
	loop := player.New(engine, notifier, player.Config{
		LibraryPath: cfg.Library.Path,
		StatePath:   cfg.State.Path,
		AutoSave:    cfg.Library.AutoSave,
	}, loopOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
	}()

	if err := startSimulation(ctx, loop, state, cfg.Playback.Resume, opts); err != nil {
		stop()
		<-errCh
		return err
	}

	for i := 0; i < opts.count; i++ {
		d, err := loop.SongEnded(ctx)
		if err != nil {
			break
		}
		printDecision(i+1, d)
		if d.Kind == playback.DecisionStop {
			break
		}
	}

	stop()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		zlog.Warn().Msg("player loop did not stop in time")
		return nil
	}
}

// startSimulation selects the first song: explicit flags win over the resume state.
func startSimulation(ctx context.Context, loop *player.Loop, state *settings.State, resume bool, opts simulateOptions) error {
	if opts.in != "" {
		state.InListMode = opts.in
	}
	if opts.cross != "" {
		state.CrossListMode = opts.cross
	}
	if opts.playlist >= 0 {
		state.LastPlaylistIndex, state.LastSongIndex = opts.playlist, opts.song
	} else if !resume {
		state.LastPlaylistIndex, state.LastSongIndex = 0, 0
	}
	if !state.HasPosition() {
		state.LastPlaylistIndex, state.LastSongIndex = 0, 0
	}

	d, err := loop.Restore(ctx, state)
	if err != nil {
		return err
	}
	printDecision(0, d)
	return nil
}

func printDecision(step int, d playback.Decision) {
	label := text.FgGreen.Sprint(d.Kind.String())
	switch d.Kind {
	case playback.DecisionStop:
		label = text.FgHiRed.Sprint(d.Kind.String())
	case playback.DecisionSwitch:
		label = text.FgYellow.Sprint(d.Kind.String())
	}
	if !d.IsPlay() {
		fmt.Printf("%3d %s\n", step, label)
		return
	}
	fmt.Printf("%3d %s [%d:%d] %s - %s\n", step, label, d.PlaylistIndex, d.SongIndex, d.Song.Artist, d.Song.Title)
}
