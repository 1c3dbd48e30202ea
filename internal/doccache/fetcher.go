package doccache

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bridge-geocode/internal/fetcher"
)

// CachingFetcher serves documents from a Cache while they are younger than
// the TTL and revalidates older copies with the inner fetcher. When the
// network fails a stale copy is returned in place of the error.
type CachingFetcher struct {
	inner fetcher.Fetcher
	cache *Cache
	ttl   time.Duration
}

// NewCachingFetcher wraps inner with cache.
func NewCachingFetcher(inner fetcher.Fetcher, cache *Cache, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{inner: inner, cache: cache, ttl: ttl}
}

// Fetch returns the document for url from the cache or the network.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) (*fetcher.Document, error) {
	log := zap.L().With(zap.String("component", "doccache"), zap.String("url", url))

	cached, err := f.cache.Get(ctx, url)
	if err != nil {
		log.Warn("cache read failed", zap.Error(err))
		cached = nil
	}
	if cached != nil && f.cache.now().Sub(cached.FetchedAt) < f.ttl {
		log.Debug("cache hit")
		return cached.Doc, nil
	}

	var etag string
	if cached != nil {
		etag = cached.Doc.ETag
	}

	doc, changed, err := f.inner.FetchIfChanged(ctx, url, etag)
	if err != nil {
		if cached != nil {
			log.Warn("fetch failed, using stale cached copy", zap.Error(err))
			return cached.Doc, nil
		}
		return nil, err
	}

	if !changed {
		if cached == nil {
			return nil, eris.Errorf("doccache: %s reported unchanged without a cached copy", url)
		}
		if err := f.cache.Touch(ctx, url); err != nil {
			log.Warn("cache touch failed", zap.Error(err))
		}
		log.Debug("cache revalidated")
		return cached.Doc, nil
	}

	if err := f.cache.Put(ctx, doc); err != nil {
		log.Warn("cache write failed", zap.Error(err))
	}
	return doc, nil
}

// FetchIfChanged returns (nil, false, nil) when the current document carries
// the given ETag.
func (f *CachingFetcher) FetchIfChanged(ctx context.Context, url string, etag string) (*fetcher.Document, bool, error) {
	doc, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, false, err
	}
	if etag != "" && doc.ETag == etag {
		return nil, false, nil
	}
	return doc, true, nil
}
