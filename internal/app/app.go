package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/jgivc/saidl/internal/adapter/epubadapter"
	"github.com/jgivc/saidl/internal/adapter/ffmpeg"
	"github.com/jgivc/saidl/internal/config"
	"github.com/jgivc/saidl/internal/extractor"
	"github.com/jgivc/saidl/internal/fetcher"
	"github.com/jgivc/saidl/internal/header"
	"github.com/jgivc/saidl/internal/repository/page"
	"github.com/jgivc/saidl/internal/scheduler"
	"github.com/jgivc/saidl/internal/service/book"
	"github.com/jgivc/saidl/internal/service/media"
	"github.com/jgivc/saidl/internal/util"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
)

const bookOutDir = "."

type App struct {
	cfg *config.Config
	fs  afero.Fs
	log *slog.Logger
}

func New(cfg *config.Config) (*App, error) {
	return NewWithFS(cfg, afero.NewOsFs(), os.Stderr)
}

func NewWithFS(cfg *config.Config, fs afero.Fs, w io.Writer) (*App, error) {
	log, err := newLogger(cfg.LogLevel, w)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg: cfg,
		fs:  fs,
		log: log.With(slog.String("run_id", uuid.NewString())),
	}, nil
}

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	lo := &slog.HandlerOptions{}
	switch level {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	return slog.New(slog.NewTextHandler(w, lo)), nil
}

// RunBook builds the e-book described by the book section and returns its path.
func (a *App) RunBook(ctx context.Context) (string, error) {
	if err := a.cfg.Validate(); err != nil {
		return "", err
	}

	if err := a.cfg.Book.Validate(); err != nil {
		return "", err
	}

	f, err := a.newFetcher()
	if err != nil {
		return "", err
	}

	var bf book.Fetcher = f
	if a.cfg.Cache.RedisURL != "" {
		rdb, err := a.newRedisClient(ctx)
		if err != nil {
			return "", err
		}
		defer rdb.Close()

		bf = book.NewCachedFetcher(f, page.NewPageRepository(rdb, a.cfg.Cache.TTL, a.log), a.log)
	}

	ex, err := extractor.New(a.cfg.Book.TitleSelector, a.cfg.Book.ContentSelector, a.log)
	if err != nil {
		return "", err
	}

	pk := epubadapter.NewEpubAdapterWithFS(a.fs, epubadapter.Options{
		Author:     a.cfg.Book.Author,
		ChapterNum: a.cfg.Book.ChapterNum,
		Preface:    a.cfg.Book.Preface,
		OutDir:     bookOutDir,
	}, a.log)

	srv := book.NewBookService(bf, ex, pk, a.log)

	return srv.Build(ctx, a.cfg.Book.Name, &a.cfg.Book.Flow, scheduler.ModeOf(a.cfg.Book.MultiThread))
}

// RunMedia downloads the playlist of the media section and returns the muxed file name.
func (a *App) RunMedia(ctx context.Context) (string, error) {
	if err := a.cfg.Validate(); err != nil {
		return "", err
	}

	if err := a.cfg.Media.Validate(); err != nil {
		return "", err
	}

	f, err := a.newFetcher()
	if err != nil {
		return "", err
	}

	mc := &a.cfg.Media
	srv := media.NewMediaService(a.fs, f, ffmpeg.NewMuxer(mc.FFmpeg, a.log), a.log)

	return srv.DownloadPlaylist(ctx, mc.Input, media.Options{
		PNG:     mc.PNG,
		Keep:    mc.Keep,
		Output:  mc.Output,
		Ext:     mc.Ext,
		WorkDir: mc.WorkDir,
		Mode:    scheduler.ModeOf(mc.MultiThread),
	})
}

func (a *App) newFetcher() (*fetcher.Fetcher, error) {
	headers, err := a.readHeaders()
	if err != nil {
		return nil, err
	}

	hc := &a.cfg.HTTP

	return fetcher.New(fetcher.Options{
		Headers:   headers,
		HTTP2:     hc.H2,
		Timeout:   hc.Timeout,
		RateLimit: hc.RateLimit,
		Policy: fetcher.RetryPolicy{
			MaxRetries: hc.Retry,
			Backoff:    hc.RetryBackoff,
			Delay:      hc.Delay,
		},
	}, a.log)
}

func (a *App) readHeaders() (http.Header, error) {
	if a.cfg.HTTP.HeadersFile == "" {
		return http.Header{}, nil
	}

	lines, err := util.ReadLines(a.fs, a.cfg.HTTP.HeadersFile)
	if err != nil {
		return nil, err
	}

	headers, err := header.Parse(lines)
	if err != nil {
		a.log.Error("Cannot parse headers", slog.String("path", a.cfg.HTTP.HeadersFile), slog.Any("error", err))

		return nil, err
	}

	a.log.Info("Headers loaded", slog.Int("count", len(headers)))

	return headers, nil
}

func (a *App) newRedisClient(ctx context.Context) (*redis.Client, error) {
	opt, err := redis.ParseURL(a.cfg.Cache.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("cannot parse redis url: %w", err)
	}

	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()

		return nil, fmt.Errorf("cannot connect to redis: %w", err)
	}

	return rdb, nil
}
