package library

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/domain/playlist"
	"github.com/osa030/oldplayer/internal/domain/song"
	"github.com/osa030/oldplayer/internal/infra/metrics"
)

// CorruptSuffix is appended to the name of a playlists file that could not be parsed.
const CorruptSuffix = ".corrupt"

// persistedPlaylist is the on-disk form of a playlist.
// Album and duration are not persisted.
type persistedPlaylist struct {
	Name  string          `json:"name"`
	Songs []persistedSong `json:"songs"`
}

type persistedSong struct {
	FilePath string `json:"filePath"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
}

// Load reads the store from path.
// A missing or malformed file is never fatal: the store falls back to a
// single empty default playlist. A malformed file is moved aside to
// path+CorruptSuffix so that the next Save does not destroy it.
func Load(path string, opts ...Option) *Store {
	s := newStore(opts...)

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			zlog.Warn().Err(err).Msgf("library: failed to read playlists file, starting empty: path=%s", path)
		} else {
			zlog.Info().Msgf("library: no playlists file, starting empty: path=%s", path)
		}
		metrics.StoreLoadsTotal.WithLabelValues("missing").Inc()
		s.ensureDefault()
		return s
	}

	var persisted []persistedPlaylist
	if err := json.Unmarshal(data, &persisted); err != nil {
		zlog.Warn().Err(err).Msgf("library: playlists file is malformed, starting empty: path=%s", path)
		metrics.StoreLoadsTotal.WithLabelValues("corrupt").Inc()
		backupCorrupt(path)
		s.ensureDefault()
		return s
	}

	for _, pp := range persisted {
		pl := playlist.New(pp.Name)
		songs := make([]song.Song, 0, len(pp.Songs))
		for _, ps := range pp.Songs {
			sg := song.New(ps.FilePath)
			sg.Merge(song.Metadata{Title: ps.Title, Artist: ps.Artist})
			songs = append(songs, sg)
		}
		pl.AddSongs(songs)
		s.playlists = append(s.playlists, pl)
	}

	metrics.StoreLoadsTotal.WithLabelValues("ok").Inc()
	s.ensureDefault()
	zlog.Debug().Msgf("library: loaded %d playlists from %s", len(s.playlists), path)
	return s
}

// Save writes the store to path.
// The file is written to a temporary sibling and renamed into place, so a
// failed write leaves both the previous file and the in-memory store intact.
func (s *Store) Save(path string) error {
	err := s.save(path)
	if err != nil {
		metrics.StoreSavesTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.StoreSavesTotal.WithLabelValues("ok").Inc()
	return nil
}

func (s *Store) save(path string) error {
	persisted := make([]persistedPlaylist, 0, len(s.playlists))
	for _, pl := range s.playlists {
		pp := persistedPlaylist{
			Name:  pl.Name,
			Songs: make([]persistedSong, 0, pl.SongCount()),
		}
		for _, sg := range pl.Songs() {
			pp.Songs = append(pp.Songs, persistedSong{
				FilePath: sg.FilePath,
				Title:    sg.Title,
				Artist:   sg.Artist,
			})
		}
		persisted = append(persisted, pp)
	}

	data, err := json.MarshalIndent(persisted, "", "    ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal playlists")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	tmp, err := os.CreateTemp(dir, ".playlists-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary playlists file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to write playlists file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "failed to close playlists file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to replace playlists file %s", path)
	}

	zlog.Debug().Msgf("library: saved %d playlists to %s", len(s.playlists), path)
	return nil
}

// backupCorrupt moves a malformed playlists file aside.
func backupCorrupt(path string) {
	backup := path + CorruptSuffix
	if err := os.Rename(path, backup); err != nil {
		zlog.Error().Err(err).Msgf("library: failed to back up malformed playlists file: path=%s", path)
		return
	}
	zlog.Warn().Msgf("library: malformed playlists file moved to %s", backup)
}
