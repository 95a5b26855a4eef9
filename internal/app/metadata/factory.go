package metadata

import (
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/oldplayer/internal/infra/config"
)

// NewChainFromConfig creates a resolver chain from configuration.
// Without configured resolvers the chain reads tags, then falls back to the file name.
func NewChainFromConfig(cfg config.MetadataConfig) (*Chain, error) {
	rcfgs := cfg.Resolvers
	if len(rcfgs) == 0 {
		rcfgs = []config.ResolverConfig{
			{Type: "tag", DisplayName: "tags"},
			{Type: "filename", DisplayName: "file name"},
		}
	}

	var resolvers []ResolverWithMetadata
	for i, rcfg := range rcfgs {
		var resolver Resolver
		var err error
		zlog.Debug().Msgf("creating metadata resolver: index=%d type=%s settings=%+v", i+1, rcfg.Type, rcfg.Settings)
		switch rcfg.Type {
		case "tag":
			resolver, err = NewTagResolver(rcfg.Settings)

		case "filename":
			resolver, err = NewFilenameResolver(rcfg.Settings)

		default:
			return nil, errors.Newf("unsupported resolver type: %s (resolver index %d)", rcfg.Type, i)
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to create resolver (index %d, type %s)", i, rcfg.Type)
		}

		name := rcfg.DisplayName
		if name == "" {
			name = rcfg.Type
		}
		resolvers = append(resolvers, ResolverWithMetadata{
			Resolver:    resolver,
			DisplayName: name,
		})
	}

	return NewChain(resolvers, time.Duration(cfg.TimeoutMs)*time.Millisecond), nil
}
