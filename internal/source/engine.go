package source

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/bridge-geocode/internal/fetcher"
	"github.com/sells-group/bridge-geocode/internal/refindex"
)

// Engine builds every registered source concurrently.
type Engine struct {
	fetcher fetcher.Fetcher
	reg     *Registry
}

// NewEngine creates a build engine.
func NewEngine(f fetcher.Fetcher, reg *Registry) *Engine {
	return &Engine{fetcher: f, reg: reg}
}

// Build returns one index per registered source in priority order. A source
// that fails to build contributes an empty index and a warning; only
// cancellation of ctx is returned as an error.
func (e *Engine) Build(ctx context.Context) ([]*refindex.Index, error) {
	log := zap.L().With(zap.String("component", "source.engine"))

	sources := e.reg.All()
	indices := make([]*refindex.Index, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sources {
		g.Go(func() error {
			sLog := log.With(zap.String("source", s.Name()))
			start := time.Now()

			ix, err := s.Build(gctx, e.fetcher)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				sLog.Warn("source unavailable, continuing without it", zap.Error(err))
				ix = refindex.New(s.Label())
			}
			if ix == nil {
				ix = refindex.New(s.Label())
			}

			sLog.Info("index built",
				zap.Int("entries", ix.Len()),
				zap.Duration("elapsed", time.Since(start)),
			)
			indices[i] = ix
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return indices, nil
}
