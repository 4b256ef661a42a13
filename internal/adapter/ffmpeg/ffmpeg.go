// Package ffmpeg joins downloaded fragments with an external muxer.
package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/jgivc/saidl/internal/common"
)

const DefaultBinary = "ffmpeg"

type Muxer struct {
	binary string
	log    *slog.Logger
}

func NewMuxer(binary string, log *slog.Logger) *Muxer {
	if binary == "" {
		binary = DefaultBinary
	}

	return &Muxer{
		binary: binary,
		log:    log.With(slog.String("item", "Muxer")),
	}
}

// Args returns the muxer arguments for a concat manifest.
func Args(manifest, output string) []string {
	return []string{"-f", "concat", "-safe", "0", "-i", manifest, "-c", "copy", output}
}

// Mux concatenates the fragments listed in manifest into output. A non-zero
// exit status is reported as ErrMuxingFailure.
func (m *Muxer) Mux(ctx context.Context, manifest, output string) error {
	args := Args(manifest, output)
	log := m.log.With(slog.String("output", output))
	log.Info("Mux", slog.String("cmd", m.binary+" "+strings.Join(args, " ")))

	out, err := exec.CommandContext(ctx, m.binary, args...).CombinedOutput()
	if len(out) > 0 {
		log.Debug("Muxer output", slog.String("output", string(out)))
	}

	if err != nil {
		log.Error("Muxing failed", slog.Any("error", err))

		return fmt.Errorf("%w: %s: %w", common.ErrMuxingFailure, m.binary, err)
	}

	return nil
}
