package metadata

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/domain/song"
)

type FilenameResolverConfig struct {
	Separator   string `yaml:"separator" mapstructure:"separator" default:" - " validate:"required"`
	ArtistFirst bool   `yaml:"artist_first" mapstructure:"artist_first" default:"true"`
}

// FilenameResolver splits file names like "Artist - Title.mp3".
type FilenameResolver struct {
	config *FilenameResolverConfig
}

// NewFilenameResolver creates a new FilenameResolver.
func NewFilenameResolver(settings map[string]any) (*FilenameResolver, error) {
	var config FilenameResolverConfig
	if err := defaults.Set(&config); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := mapstructure.Decode(settings, &config); err != nil {
		return nil, errors.Wrap(err, "failed to decode settings")
	}
	zlog.Debug().Msgf("filename resolver config: %+v", config)
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}
	return &FilenameResolver{config: &config}, nil
}

// Resolve implements Resolver. A name without the separator yields nothing.
func (r *FilenameResolver) Resolve(_ context.Context, path string) (song.Metadata, error) {
	name := song.TitleFromPath(path)
	left, right, ok := strings.Cut(name, r.config.Separator)
	if !ok {
		return song.Metadata{}, nil
	}
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if left == "" || right == "" {
		return song.Metadata{}, nil
	}
	if r.config.ArtistFirst {
		return song.Metadata{Artist: left, Title: right}, nil
	}
	return song.Metadata{Title: left, Artist: right}, nil
}

// Name returns the resolver type.
func (r *FilenameResolver) Name() string {
	return "filename"
}
