package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/config"
	"github.com/sells-group/bridge-geocode/internal/doccache"
	"github.com/sells-group/bridge-geocode/internal/fetcher"
	"github.com/sells-group/bridge-geocode/internal/refindex"
	"github.com/sells-group/bridge-geocode/internal/source"
)

// newFetcher builds the HTTP fetcher, wrapped in the document cache when
// enabled. The returned func releases the cache.
func newFetcher(ctx context.Context, c *config.Config) (fetcher.Fetcher, func(), error) {
	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  c.Fetch.UserAgent,
		Timeout:    time.Duration(c.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: c.Fetch.MaxRetries,
		RatePerSec: c.Fetch.RatePerSec,
	})
	if !c.Cache.Enabled {
		return httpFetcher, func() {}, nil
	}

	cache, err := doccache.Open(c.Cache.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := cache.Migrate(ctx); err != nil {
		cache.Close() //nolint:errcheck
		return nil, nil, err
	}
	ttl := time.Duration(c.Cache.TTLHours) * time.Hour
	closeCache := func() {
		if err := cache.Close(); err != nil {
			zap.L().Warn("close document cache", zap.Error(err))
		}
	}
	return doccache.NewCachingFetcher(httpFetcher, cache, ttl), closeCache, nil
}

// newRegistry registers the enabled sources, highest priority first.
func newRegistry(c *config.Config) *source.Registry {
	reg := source.NewRegistry()
	if c.Wikipedia.Enabled {
		reg.Register(source.NewWikipedia(source.WikipediaOptions{
			BaseURL:     c.Wikipedia.BaseURL,
			Segments:    c.Wikipedia.Segments,
			TableClass:  c.Wikipedia.TableClass,
			Concurrency: c.Wikipedia.Concurrency,
		}))
	}
	if c.Geoportal.Enabled {
		reg.Register(source.NewGeoportal(source.GeoportalOptions{
			Location:     c.Geoportal.Location,
			NameProperty: c.Geoportal.NameProperty,
			IDProperty:   c.Geoportal.IDProperty,
		}))
	}
	return reg
}

// buildIndices validates the configuration and builds every enabled index.
func buildIndices(ctx context.Context, c *config.Config) ([]*refindex.Index, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	f, closeFetcher, err := newFetcher(ctx, c)
	if err != nil {
		return nil, eris.Wrap(err, "init fetcher")
	}
	defer closeFetcher()

	indices, err := source.NewEngine(f, newRegistry(c)).Build(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "build indices")
	}
	return indices, nil
}
