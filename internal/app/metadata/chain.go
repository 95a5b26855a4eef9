package metadata

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/domain/song"
)

// ErrNotFound is returned when no resolver produced any field.
var ErrNotFound = errors.New("no metadata found")

// ResolverWithMetadata wraps a resolver with its metadata.
type ResolverWithMetadata struct {
	Resolver    Resolver
	DisplayName string
}

// Chain asks every resolver in order and merges their answers.
// Fields from earlier resolvers win.
type Chain struct {
	resolvers []ResolverWithMetadata
	timeout   time.Duration
}

// NewChain creates a new resolver chain. A zero timeout means none.
func NewChain(resolvers []ResolverWithMetadata, timeout time.Duration) *Chain {
	return &Chain{
		resolvers: resolvers,
		timeout:   timeout,
	}
}

// Resolve implements Resolver.
func (c *Chain) Resolve(ctx context.Context, path string) (song.Metadata, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var result song.Metadata
	for i, rm := range c.resolvers {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "metadata resolution aborted")
		}

		md, err := rm.Resolver.Resolve(ctx, path)
		if err != nil {
			zlog.Warn().Msgf("metadata: resolver failed, trying next: resolver=%s path=%s error=%v", rm.DisplayName, path, err)
			continue
		}
		if md.IsEmpty() {
			zlog.Debug().Msgf("metadata: resolver returned nothing: index=%d resolver=%s path=%s", i+1, rm.DisplayName, path)
			continue
		}

		result = result.Fill(md)
		if result.Title != "" && result.Artist != "" && result.Album != "" {
			break
		}
	}

	if result.IsEmpty() {
		return result, ErrNotFound
	}
	return result, nil
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return "resolver_chain"
}
