// Package main provides the oldplayer CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/app/library"
	"github.com/osa030/oldplayer/internal/app/notification"
	"github.com/osa030/oldplayer/internal/app/playback"
	"github.com/osa030/oldplayer/internal/infra/config"
	"github.com/osa030/oldplayer/internal/infra/logger"
	"github.com/osa030/oldplayer/internal/infra/metrics"
	"github.com/osa030/oldplayer/internal/infra/settings"
)

var (
	app        = kingpin.New("oldplayer", "oldplayer playlist and playback tool")
	configPath = app.Flag("config", "Path to config file").Default(defaultConfigPath()).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// playlists command
	playlistsCmd = app.Command("playlists", "List playlists").Alias("ls").Default()

	// songs command
	songsCmd      = app.Command("songs", "List the songs of a playlist")
	songsPlaylist = songsCmd.Arg("playlist", "Playlist index").Default("0").Int()

	// add-playlist command
	addPlaylistCmd  = app.Command("add-playlist", "Create a playlist")
	addPlaylistName = addPlaylistCmd.Arg("name", "Playlist name").Default("").String()

	// remove-playlist command
	removePlaylistCmd     = app.Command("remove-playlist", "Remove playlists")
	removePlaylistIndices = removePlaylistCmd.Arg("playlist", "Playlist indices").Required().Ints()

	// rename-playlist command
	renamePlaylistCmd   = app.Command("rename-playlist", "Rename a playlist")
	renamePlaylistIndex = renamePlaylistCmd.Arg("playlist", "Playlist index").Required().Int()
	renamePlaylistName  = renamePlaylistCmd.Arg("name", "New name").Default("").String()

	// clear command
	clearCmd      = app.Command("clear", "Remove every song of a playlist")
	clearPlaylist = clearCmd.Arg("playlist", "Playlist index").Required().Int()

	// add command
	addCmd      = app.Command("add", "Add audio files to a playlist")
	addPlaylist = addCmd.Arg("playlist", "Playlist index").Required().Int()
	addFiles    = addCmd.Arg("files", "Audio files").Required().ExistingFiles()

	// remove command
	removeCmd      = app.Command("remove", "Remove songs from a playlist")
	removePlaylist = removeCmd.Arg("playlist", "Playlist index").Required().Int()
	removeIndices  = removeCmd.Arg("songs", "Song indices").Required().Ints()

	// sort-playlists command
	sortPlaylistsCmd = app.Command("sort-playlists", "Sort playlists by name")

	// sort-songs command
	sortSongsCmd      = app.Command("sort-songs", "Sort the songs of a playlist by title")
	sortSongsPlaylist = sortSongsCmd.Arg("playlist", "Playlist index").Required().Int()

	// tags command
	tagsCmd   = app.Command("tags", "Show resolved metadata of audio files")
	tagsFiles = tagsCmd.Arg("files", "Audio files").Required().ExistingFiles()

	// modes command
	modesCmd   = app.Command("modes", "Show or change the saved playback modes")
	modesIn    = modesCmd.Flag("in", "In-list mode (sequential, random)").Enum("sequential", "random")
	modesCross = modesCmd.Flag("cross", "Cross-list mode (stop, list_loop, single_loop, advance)").Enum("stop", "list_loop", "single_loop", "advance")

	// simulate command
	simulateCmd      = app.Command("simulate", "Play through the library without audio and print each decision")
	simulateCount    = simulateCmd.Flag("count", "Number of song-ended events").Short('n').Default("10").Int()
	simulatePlaylist = simulateCmd.Flag("playlist", "Playlist to start from").Default("-1").Int()
	simulateSong     = simulateCmd.Flag("song", "Song to start from").Default("0").Int()
	simulateIn       = simulateCmd.Flag("in", "In-list mode").Enum("sequential", "random")
	simulateCross    = simulateCmd.Flag("cross", "Cross-list mode").Enum("stop", "list_loop", "single_loop", "advance")
	simulateEvents   = simulateCmd.Flag("events", "Print engine events").Bool()
)

func defaultConfigPath() string {
	dir, err := config.DefaultDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger; command-line flags override the config
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
	}
	if cfg.Log.File != "" {
		loggerConfig.Output = cfg.Log.File
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closeLog()

	if err := run(command, cfg); err != nil {
		zlog.Error().Msgf("%s failed: %v", command, err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

// run executes a command. Using a separate function ensures deferred
// metrics output happens even when the command fails.
func run(command string, cfg *config.Config) error {
	if cfg.Metrics.Textfile != "" {
		defer func() {
			if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				zlog.Warn().Err(err).Msg("failed to write metrics")
			}
		}()
	}

	switch command {
	case playlistsCmd.FullCommand():
		return listPlaylists(cfg)
	case songsCmd.FullCommand():
		return listSongs(cfg, *songsPlaylist)
	case addPlaylistCmd.FullCommand():
		return mutate(cfg, func(e *playback.Engine) error {
			idx := e.AddPlaylist(*addPlaylistName)
			fmt.Printf("Created playlist %d\n", idx)
			return nil
		})
	case removePlaylistCmd.FullCommand():
		return mutate(cfg, func(e *playback.Engine) error {
			return e.RemovePlaylists(*removePlaylistIndices)
		})
	case renamePlaylistCmd.FullCommand():
		return mutate(cfg, func(e *playback.Engine) error {
			return e.RenamePlaylist(*renamePlaylistIndex, *renamePlaylistName)
		})
	case clearCmd.FullCommand():
		return mutate(cfg, func(e *playback.Engine) error {
			return e.ClearPlaylist(*clearPlaylist)
		})
	case addCmd.FullCommand():
		return addSongs(cfg, *addPlaylist, *addFiles)
	case removeCmd.FullCommand():
		return mutate(cfg, func(e *playback.Engine) error {
			return e.RemoveSongs(*removePlaylist, *removeIndices)
		})
	case sortPlaylistsCmd.FullCommand():
		return mutate(cfg, func(e *playback.Engine) error {
			e.SortPlaylists()
			return nil
		})
	case sortSongsCmd.FullCommand():
		return mutate(cfg, func(e *playback.Engine) error {
			return e.SortSongs(*sortSongsPlaylist)
		})
	case tagsCmd.FullCommand():
		return showTags(cfg, *tagsFiles)
	case modesCmd.FullCommand():
		return modes(cfg, *modesIn, *modesCross)
	case simulateCmd.FullCommand():
		return simulate(cfg, simulateOptions{
			count:    *simulateCount,
			playlist: *simulatePlaylist,
			song:     *simulateSong,
			in:       *simulateIn,
			cross:    *simulateCross,
			events:   *simulateEvents,
		})
	}
	return nil
}

// openLibrary loads the playlist store configured in cfg.
func openLibrary(cfg *config.Config) (*library.Store, error) {
	locale, err := cfg.Library.LocaleTag()
	if err != nil {
		return nil, err
	}
	return library.Load(cfg.Library.Path,
		library.WithDefaultPlaylistName(cfg.Library.DefaultPlaylistName),
		library.WithLocale(locale),
	), nil
}

// engineConfig picks the initial modes: the saved ones when resuming, else the configured ones.
func engineConfig(cfg *config.Config, state *settings.State) playback.Config {
	in, cross := cfg.Playback.InListMode, cfg.Playback.CrossListMode
	if cfg.Playback.Resume {
		in, cross = state.InListMode, state.CrossListMode
	}
	inMode, _ := playback.ParseInListMode(in)
	crossMode, _ := playback.ParseCrossListMode(cross)
	return playback.Config{InListMode: inMode, CrossListMode: crossMode}
}

// newEngine builds an engine over store that reports to a fresh notification manager.
func newEngine(cfg *config.Config, store *library.Store, state *settings.State) (*playback.Engine, *notification.Manager) {
	notifier := notification.NewManager()
	engine := playback.NewEngine(store, engineConfig(cfg, state), playback.WithNotifier(notifier))
	return engine, notifier
}
