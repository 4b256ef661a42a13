// Package workspace manages the temporary directory holding downloaded fragments
// and the concat manifest handed to the muxer.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jgivc/saidl/internal/common"
	"github.com/spf13/afero"
)

const (
	DirPrefix        = "saidl-output"
	ManifestFileName = "list.txt"

	manifestLinePrefix = "file ./"
	dirPerm            = 0755
	filePerm           = 0644
)

type Workspace struct {
	fs    afero.Fs
	dir   string
	stamp string
	log   *slog.Logger
}

// New creates a fresh directory named after now under root.
func New(fs afero.Fs, root string, now time.Time, log *slog.Logger) (*Workspace, error) {
	stamp := strconv.FormatInt(now.UnixMilli(), 10)
	dir := filepath.Join(root, DirPrefix+stamp)

	if err := fs.Mkdir(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("cannot create workspace %s: %w", dir, err)
	}

	w := &Workspace{
		fs:    fs,
		dir:   dir,
		stamp: stamp,
		log:   log.With(slog.String("item", "Workspace"), slog.String("dir", dir)),
	}
	w.log.Info("Created")

	return w, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Stamp is the timestamp part of the directory name.
func (w *Workspace) Stamp() string {
	return w.stamp
}

func FragmentName(index int, ext string) string {
	return fmt.Sprintf("%d.%s", index, ext)
}

// WriteFragment stores data as <index>.<ext>. Every index is written once.
func (w *Workspace) WriteFragment(index int, ext string, data []byte) (string, error) {
	name := FragmentName(index, ext)
	if err := w.writeOnce(filepath.Join(w.dir, name), data); err != nil {
		return "", err
	}

	return name, nil
}

// WriteManifest writes the concat list, one "file ./<name>" line per fragment in the given order.
func (w *Workspace) WriteManifest(names []string) (string, error) {
	var buf bytes.Buffer
	for _, name := range names {
		buf.WriteString(manifestLinePrefix)
		buf.WriteString(name)
		buf.WriteByte('\n')
	}

	path := filepath.Join(w.dir, ManifestFileName)
	if err := w.writeOnce(path, buf.Bytes()); err != nil {
		return "", err
	}

	return path, nil
}

func (w *Workspace) Remove() error {
	if err := w.fs.RemoveAll(w.dir); err != nil {
		w.log.Error("Cannot remove", slog.Any("error", err))

		return fmt.Errorf("cannot remove workspace %s: %w", w.dir, err)
	}

	w.log.Info("Removed")

	return nil
}

func (w *Workspace) writeOnce(path string, data []byte) error {
	if exists, _ := afero.Exists(w.fs, path); exists {
		return fmt.Errorf("%w: %s", common.ErrFragmentExists, path)
	}

	f, err := w.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", common.ErrFragmentExists, path)
		}

		return fmt.Errorf("cannot create file %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("cannot write file %s: %w", path, err)
	}

	return f.Close()
}
