package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/andybalholm/cascadia"
	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/config"
	"github.com/jgivc/saidl/internal/entity"
	"github.com/jgivc/saidl/internal/extractor"
)

// TableOfContents fetches the index page and turns every anchor into a target,
// in document order. Relative links are resolved against the index page.
func TableOfContents(ctx context.Context, f Fetcher, p PageExtractor, cfg *config.TOCConfig, log *slog.Logger) ([]entity.FetchTarget, error) {
	log = log.With(slog.String("op", "TableOfContents"), slog.String("url", cfg.BaseURL))

	var scope cascadia.Selector
	if cfg.TOCSelector != "" {
		var err error
		if scope, err = extractor.Compile(cfg.TOCSelector); err != nil {
			return nil, fmt.Errorf("toc selector: %w", err)
		}
	}

	res, err := f.Fetch(ctx, entity.FetchTarget{Index: 0, URL: cfg.BaseURL})
	if err != nil {
		return nil, fmt.Errorf("cannot fetch table of contents: %w", err)
	}

	doc, err := p.Document(res)
	if err != nil {
		return nil, err
	}

	links := extractor.Links(doc, scope, cfg.VoidSub)
	if len(links) < 1 {
		return nil, fmt.Errorf("%w: %s", common.ErrNoTargets, cfg.BaseURL)
	}

	urls := make([]string, 0, len(links))
	for _, link := range links {
		u, err := resolve(res.URL, link)
		if err != nil {
			return nil, err
		}

		urls = append(urls, u)
	}

	log.Info("Table of contents", slog.Int("count", len(urls)))

	return entity.NewTargets(urls), nil
}
