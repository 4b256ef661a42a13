// Package scheduler runs one function per fetch target, one at a time or all at
// once, and returns the results in enumeration order.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jgivc/saidl/internal/entity"
)

const (
	Sequential Mode = iota
	Parallel
)

type Mode int

func (m Mode) String() string {
	switch m {
	case Sequential:
		return "Sequential"
	case Parallel:
		return "Parallel"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func ModeOf(multiThread bool) Mode {
	if multiThread {
		return Parallel
	}

	return Sequential
}

type Func[T any] func(ctx context.Context, target entity.FetchTarget) (T, error)

type Scheduler[T any] struct {
	mode Mode
	log  *slog.Logger
}

func New[T any](mode Mode, log *slog.Logger) *Scheduler[T] {
	return &Scheduler[T]{
		mode: mode,
		log:  log.With(slog.String("item", "Scheduler"), slog.String("mode", mode.String())),
	}
}

/*
Run executes fn for every target and returns the results indexed by target.Index.
Sequential mode stops at the first failure. Parallel mode starts one goroutine per
target, waits for all of them and joins the failures in index order.
On error the returned slice holds whatever succeeded, zero values elsewhere.
*/
func (s *Scheduler[T]) Run(ctx context.Context, targets []entity.FetchTarget, fn Func[T]) ([]T, error) {
	ordered, err := arrange(targets)
	if err != nil {
		return nil, err
	}

	s.log.Info("Run", slog.Int("count", len(ordered)))

	if s.mode == Parallel {
		return s.runParallel(ctx, ordered, fn)
	}

	return s.runSequential(ctx, ordered, fn)
}

func (s *Scheduler[T]) runSequential(ctx context.Context, targets []entity.FetchTarget, fn Func[T]) ([]T, error) {
	results := make([]T, len(targets))

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := fn(ctx, target)
		if err != nil {
			s.log.Error("Target failed, stop", slog.Int("index", target.Index), slog.String("url", target.URL), slog.Any("error", err))

			return results, fmt.Errorf("target %d (%s): %w", target.Index, target.URL, err)
		}

		results[target.Index] = res
	}

	return results, nil
}

func (s *Scheduler[T]) runParallel(ctx context.Context, targets []entity.FetchTarget, fn Func[T]) ([]T, error) {
	var (
		results = make([]T, len(targets))
		errs    = make([]error, len(targets))
		wg      sync.WaitGroup
	)

	wg.Add(len(targets))
	for _, target := range targets {
		go func(target entity.FetchTarget) {
			defer wg.Done()

			res, err := fn(ctx, target)
			if err != nil {
				s.log.Error("Target failed", slog.Int("index", target.Index), slog.String("url", target.URL), slog.Any("error", err))
				errs[target.Index] = fmt.Errorf("target %d (%s): %w", target.Index, target.URL, err)

				return
			}

			results[target.Index] = res
		}(target)
	}

	wg.Wait()

	return results, errors.Join(errs...)
}

// arrange places every target into the slot named by its index.
func arrange(targets []entity.FetchTarget) ([]entity.FetchTarget, error) {
	ordered := make([]entity.FetchTarget, len(targets))
	seen := make([]bool, len(targets))

	for _, target := range targets {
		if target.Index < 0 || target.Index >= len(targets) {
			return nil, fmt.Errorf("target index %d out of range [0, %d)", target.Index, len(targets))
		}

		if seen[target.Index] {
			return nil, fmt.Errorf("duplicate target index %d", target.Index)
		}

		seen[target.Index] = true
		ordered[target.Index] = target
	}

	return ordered, nil
}
