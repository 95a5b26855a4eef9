package metadata

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/dhowden/tag"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/domain/song"
)

type TagResolverConfig struct {
	// Use the album artist when the track artist is empty.
	AlbumArtistFallback bool `yaml:"album_artist_fallback" mapstructure:"album_artist_fallback" default:"true"`
}

// TagResolver reads embedded ID3/MP4/FLAC/OGG tags.
type TagResolver struct {
	config *TagResolverConfig
}

// NewTagResolver creates a new TagResolver.
func NewTagResolver(settings map[string]any) (*TagResolver, error) {
	var config TagResolverConfig
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	zlog.Debug().Msgf("tag resolver config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &TagResolver{config: &config}, nil
}

// Resolve implements Resolver.
func (r *TagResolver) Resolve(ctx context.Context, path string) (song.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return song.Metadata{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return song.Metadata{}, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return song.Metadata{}, nil
		}
		return song.Metadata{}, errors.Wrapf(err, "failed to read tags of %s", path)
	}

	md := song.Metadata{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
	}
	if md.Artist == "" && r.config.AlbumArtistFallback {
		md.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	return md, nil
}

// Name returns the resolver type.
func (r *TagResolver) Name() string {
	return "tag"
}
