// Package metadata resolves song tags outside the playback control flow.
package metadata

import (
	"context"

	"github.com/osa030/oldplayer/internal/domain/song"
)

// Resolver looks up metadata for an audio file.
// Implementations return empty fields for anything they cannot determine.
type Resolver interface {
	// Resolve reads metadata for the file at path.
	Resolve(ctx context.Context, path string) (song.Metadata, error)

	// Name returns the resolver type (used in config).
	Name() string
}
