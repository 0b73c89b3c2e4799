package knowledge

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rcliao/arcana/internal/logging"
	"github.com/rcliao/arcana/internal/model"
)

// Watcher re-reads a corpus file whenever it changes and hands the parsed
// entries to a callback. The parent directory is watched so editors that
// replace the file on save are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *logging.Logger
}

// NewWatcher creates a watcher for path.
func NewWatcher(path string, log *logging.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: 200 * time.Millisecond,
		log:      logging.OrNop(log).With("component", "corpus-watch", "path", path),
	}
}

// Run blocks until ctx is done. Parse errors and callback errors are logged
// and the watch continues.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, []model.KnowledgeEntry) error) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			w.reload(ctx, onChange)
		}
	}
}

func (w *Watcher) reload(ctx context.Context, onChange func(context.Context, []model.KnowledgeEntry) error) {
	entries, err := ReadCorpusFile(w.path)
	if err != nil {
		w.log.Warn("corpus reload failed", "error", err)
		return
	}
	if err := onChange(ctx, entries); err != nil {
		w.log.Warn("corpus apply failed", "error", err)
		return
	}
	w.log.Info("corpus reloaded", "entries", len(entries))
}
