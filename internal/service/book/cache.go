package book

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/entity"
)

type PageCache interface {
	Get(ctx context.Context, url string) (*entity.FetchResult, error)
	Save(ctx context.Context, url string, res *entity.FetchResult) error
}

// CachedFetcher serves pages from the cache and stores every page it had to fetch.
// Cache failures are logged and never fail a fetch.
type CachedFetcher struct {
	f     Fetcher
	cache PageCache
	log   *slog.Logger
}

func NewCachedFetcher(f Fetcher, cache PageCache, log *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		f:     f,
		cache: cache,
		log:   log.With(slog.String("item", "CachedFetcher")),
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, target entity.FetchTarget) (*entity.FetchResult, error) {
	log := c.log.With(slog.String("url", target.URL))

	res, err := c.cache.Get(ctx, target.URL)
	if err == nil {
		log.Debug("Cache hit")

		return res, nil
	}

	if !errors.Is(err, common.ErrPageNotFound) {
		log.Warn("Cannot read cache", slog.Any("error", err))
	}

	res, err = c.f.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Save(ctx, target.URL, res); err != nil {
		log.Warn("Cannot save to cache", slog.Any("error", err))
	}

	return res, nil
}
