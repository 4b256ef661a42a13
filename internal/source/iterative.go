package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/config"
	"github.com/jgivc/saidl/internal/entity"
	"github.com/jgivc/saidl/internal/extractor"
)

/*
Iterate fetches BaseURL, extracts its chapter and follows the next link until the
page whose URL equals StopURL has been processed. The stop page is included.
A page without a usable next link before StopURL is a configuration error.
*/
func Iterate(ctx context.Context, f Fetcher, p PageExtractor, cfg *config.IterationConfig, log *slog.Logger) ([]entity.Chapter, error) {
	log = log.With(slog.String("op", "Iterate"))

	next, err := extractor.Compile(cfg.NextSelector)
	if err != nil {
		return nil, fmt.Errorf("next selector: %w", err)
	}

	var (
		chapters []entity.Chapter
		visited  = make(map[string]struct{})
		current  = cfg.BaseURL
	)

	for index := 0; ; index++ {
		visited[current] = struct{}{}

		res, err := f.Fetch(ctx, entity.FetchTarget{Index: index, URL: current})
		if err != nil {
			return chapters, fmt.Errorf("cannot fetch page %d: %w", index, err)
		}

		doc, err := p.Document(res)
		if err != nil {
			return chapters, err
		}

		chapters = append(chapters, p.Chapter(doc))

		if current == cfg.StopURL {
			log.Info("Stop page reached", slog.String("url", current), slog.Int("count", len(chapters)))

			return chapters, nil
		}

		href, ok := extractor.Href(doc, next)
		if ok && extractor.IsDeadLink(href) {
			href, ok = cfg.VoidSub, cfg.VoidSub != ""
		}

		if !ok || strings.TrimSpace(href) == "" {
			return chapters, fmt.Errorf("%w: %s", common.ErrMissingNextLink, current)
		}

		base := current
		if cfg.RelativeBase != "" {
			base = cfg.RelativeBase
		}

		nextURL, err := resolve(base, strings.TrimSpace(href))
		if err != nil {
			return chapters, err
		}

		if _, seen := visited[nextURL]; seen {
			return chapters, fmt.Errorf("%w: %s -> %s", common.ErrLinkCycle, current, nextURL)
		}

		log.Debug("Next page", slog.String("from", current), slog.String("to", nextURL))
		current = nextURL
	}
}
