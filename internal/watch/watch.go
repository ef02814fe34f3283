// Package watch reruns an import when its save file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/Hansen-L/TTS-Exporter/internal/logging"
)

// DefaultDebounce is how long the file must stay quiet before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches one file. The parent directory is watched so that atomic
// rename-over saves are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *log.Logger
	fs       *fsnotify.Watcher
}

// New starts watching path's directory. A debounce <= 0 means DefaultDebounce.
func New(path string, debounce time.Duration, l *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch: %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, debounce: debounce, log: logging.OrDiscard(l), fs: fs}, nil
}

// Run calls onChange after each burst of writes to the file, until ctx is done or the
// watcher is closed. Errors from onChange are logged; the watch continues.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context) error) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(e.Name) != w.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug("save changed", "path", e.Name, "op", e.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watch error", "err", err)

		case <-timer.C:
			w.log.Info("rebuilding", "save", w.path)
			if err := onChange(ctx); err != nil {
				w.log.Error("rebuild failed", "err", err)
			}
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
