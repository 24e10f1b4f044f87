// Package watch rebuilds the corpus when study files change in a directory.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"learnquick/internal/extract"
	"learnquick/internal/service"
)

// DefaultDebounce coalesces the bursts of events editors and copies produce.
const DefaultDebounce = 500 * time.Millisecond

// IngestFunc rebuilds the corpus from paths.
type IngestFunc func(ctx context.Context, paths []string) (service.BuildStats, error)

// Watcher rebuilds the whole corpus from every supported file in dir after a change.
type Watcher struct {
	dir      string
	ingest   IngestFunc
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher. debounce <= 0 selects DefaultDebounce.
func New(dir string, ingest IngestFunc, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, ingest: ingest, debounce: debounce, logger: logger}
}

// Files lists the supported files in the watched directory in name order.
func (w *Watcher) Files() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !extract.Supported(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(w.dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// Sync rebuilds the corpus from the current directory contents. An empty
// directory is not an error; the previous corpus stays active.
func (w *Watcher) Sync(ctx context.Context) error {
	files, err := w.Files()
	if err != nil {
		return fmt.Errorf("watch: list %s: %w", w.dir, err)
	}
	if len(files) == 0 {
		w.logger.Info("watch dir has no study files", "dir", w.dir)
		return nil
	}
	stats, err := w.ingest(ctx, files)
	if err != nil {
		return fmt.Errorf("watch: rebuild: %w", err)
	}
	w.logger.Info("corpus rebuilt from watch dir", "files", len(files), "snapshot", stats.SnapshotID, "chunks", stats.ChunkCount)
	return nil
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", w.dir, err)
	}
	w.logger.Info("watching directory", "dir", w.dir)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !extract.Supported(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("watch event", "event", event.String())
				timer.Reset(w.debounce)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "err", err)
		case <-timer.C:
			if err := w.Sync(ctx); err != nil {
				w.logger.Warn("rebuild after change failed", "err", err)
			}
		}
	}
}
