// Package book collects the chapters of a web novel and packages them.
package book

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/config"
	"github.com/jgivc/saidl/internal/entity"
	"github.com/jgivc/saidl/internal/scheduler"
	"github.com/jgivc/saidl/internal/source"
)

type Fetcher interface {
	Fetch(ctx context.Context, target entity.FetchTarget) (*entity.FetchResult, error)
}

type PageExtractor interface {
	source.PageExtractor
	Extract(res *entity.FetchResult) (entity.Chapter, error)
}

type Packager interface {
	Write(name string, chapters []entity.Chapter) (string, error)
}

type BookService struct {
	f   Fetcher
	ex  PageExtractor
	p   Packager
	log *slog.Logger
}

func NewBookService(f Fetcher, ex PageExtractor, p Packager, log *slog.Logger) *BookService {
	return &BookService{
		f:   f,
		ex:  ex,
		p:   p,
		log: log.With(slog.String("item", "BookService")),
	}
}

// Chapters enumerates the pages selected by flow and extracts one chapter per page.
// The iterative flow discovers pages one by one and ignores mode.
func (s *BookService) Chapters(ctx context.Context, flow *config.Flow, mode scheduler.Mode) ([]entity.Chapter, error) {
	var (
		targets []entity.FetchTarget
		err     error
	)

	switch flow.Mode {
	case config.FlowIter:
		return source.Iterate(ctx, s.f, s.ex, flow.Iter, s.log)
	case config.FlowTOC:
		targets, err = source.TableOfContents(ctx, s.f, s.ex, flow.TOC, s.log)
	case config.FlowNum:
		targets, err = source.Numeric(flow.Num)
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownFlow, flow.Mode)
	}

	if err != nil {
		return nil, err
	}

	sch := scheduler.New[entity.Chapter](mode, s.log)

	return sch.Run(ctx, targets, func(ctx context.Context, target entity.FetchTarget) (entity.Chapter, error) {
		res, err := s.f.Fetch(ctx, target)
		if err != nil {
			return entity.Chapter{}, err
		}

		return s.ex.Extract(res)
	})
}

// Build collects the chapters and hands them to the packager, returning the written path.
func (s *BookService) Build(ctx context.Context, name string, flow *config.Flow, mode scheduler.Mode) (string, error) {
	log := s.log.With(slog.String("book", name), slog.String("flow", string(flow.Mode)))

	chapters, err := s.Chapters(ctx, flow, mode)
	if err != nil {
		log.Error("Cannot collect chapters", slog.Any("error", err))

		return "", fmt.Errorf("cannot collect chapters: %w", err)
	}

	log.Info("Chapters collected", slog.Int("count", len(chapters)))

	path, err := s.p.Write(name, chapters)
	if err != nil {
		log.Error("Cannot package book", slog.Any("error", err))

		return "", err
	}

	return path, nil
}
