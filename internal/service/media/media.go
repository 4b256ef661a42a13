// Package media downloads the fragments of a stream playlist and joins them
// into a single file.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jgivc/saidl/internal/common"
	"github.com/jgivc/saidl/internal/entity"
	"github.com/jgivc/saidl/internal/scheduler"
	"github.com/jgivc/saidl/internal/storage/workspace"
	"github.com/jgivc/saidl/internal/util"
	"github.com/spf13/afero"
)

const (
	SignatureLen  = 8
	DefaultOutExt = ".mp4"
)

type Fetcher interface {
	Fetch(ctx context.Context, target entity.FetchTarget) (*entity.FetchResult, error)
}

type Muxer interface {
	Mux(ctx context.Context, manifest, output string) error
}

type Options struct {
	PNG     bool // Payloads carry an image signature that has to be stripped
	Keep    bool
	Output  string
	Ext     string
	WorkDir string
	Mode    scheduler.Mode
}

type MediaService struct {
	fs  afero.Fs
	f   Fetcher
	m   Muxer
	now func() time.Time
	log *slog.Logger
}

func NewMediaService(fs afero.Fs, f Fetcher, m Muxer, log *slog.Logger) *MediaService {
	return &MediaService{
		fs:  fs,
		f:   f,
		m:   m,
		now: time.Now,
		log: log.With(slog.String("item", "MediaService")),
	}
}

// StripSignature drops the image signature prepended to a disguised fragment.
func StripSignature(data []byte) ([]byte, error) {
	if len(data) < SignatureLen {
		return nil, fmt.Errorf("%w: got %d bytes", common.ErrShortPayload, len(data))
	}

	return data[SignatureLen:], nil
}

// DownloadPlaylist reads fragment URLs from a playlist file and downloads them.
func (s *MediaService) DownloadPlaylist(ctx context.Context, path string, opts Options) (string, error) {
	lines, err := util.ReadLines(s.fs, path)
	if err != nil {
		return "", err
	}

	return s.Download(ctx, util.FilterLinks(lines), opts)
}

// Download fetches every link into a fresh workspace, writes the manifest and
// runs the muxer. Nothing is muxed when any fragment fails. The workspace is
// removed afterwards unless opts.Keep is set.
func (s *MediaService) Download(ctx context.Context, links []string, opts Options) (string, error) {
	if len(links) == 0 {
		return "", common.ErrNoTargets
	}

	log := s.log.With(slog.Int("fragments", len(links)), slog.String("mode", opts.Mode.String()))

	ws, err := workspace.New(s.fs, opts.WorkDir, s.now(), s.log)
	if err != nil {
		return "", err
	}

	if !opts.Keep {
		defer ws.Remove()
	}

	sch := scheduler.New[string](opts.Mode, s.log)
	names, err := sch.Run(ctx, entity.NewTargets(links), func(ctx context.Context, target entity.FetchTarget) (string, error) {
		return s.fragment(ctx, ws, target, opts)
	})
	if err != nil {
		log.Error("Download failed", slog.Any("error", err))

		return "", err
	}

	manifest, err := ws.WriteManifest(names)
	if err != nil {
		return "", err
	}

	output := opts.Output
	if output == "" {
		output = ws.Stamp() + DefaultOutExt
	}

	if err := s.m.Mux(ctx, manifest, output); err != nil {
		return "", err
	}

	log.Info("Done", slog.String("output", output))

	return output, nil
}

func (s *MediaService) fragment(ctx context.Context, ws *workspace.Workspace, target entity.FetchTarget, opts Options) (string, error) {
	res, err := s.f.Fetch(ctx, target)
	if err != nil {
		return "", err
	}

	data := res.Body
	if opts.PNG {
		if data, err = StripSignature(data); err != nil {
			return "", fmt.Errorf("%s: %w", target.URL, err)
		}
	}

	name, err := ws.WriteFragment(target.Index, opts.Ext, data)
	if err != nil {
		return "", err
	}

	s.log.Debug("Fragment saved", slog.String("path", filepath.Join(ws.Dir(), name)), slog.Int("size", len(data)))

	return name, nil
}
