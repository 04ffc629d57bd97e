package localcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher surfaces widget-made writes to the cache directory as store events.
// It is a best-effort signal: the widget may write through channels the
// watcher misses, which is why the reconciler keeps a periodic scan as the
// correctness backstop.
type Watcher struct {
	store  *Store
	fsw    *fsnotify.Watcher
	logger *slog.Logger
}

// NewWatcher creates a watcher over the store's cache directory.
func NewWatcher(store *Store, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(store.Dir()); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching cache dir: %w", err)
	}
	return &Watcher{store: store, fsw: fsw, logger: logger}, nil
}

// Run forwards filesystem events until the context is canceled. The store's
// own writes also pass through here; subscribers may see the same change
// twice, which reconciliation absorbs via its turn-count cache.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("cache watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	key := filepath.Base(event.Name)
	if _, ok := w.store.ProjectID(key); !ok {
		return
	}

	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.store.Notify(Event{Key: key, Deleted: true})
		return
	}
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
		return
	}

	value, found, err := w.store.Get(key)
	if err != nil {
		w.logger.Warn("reading changed cache entry", "key", key, "error", err)
		return
	}
	if !found {
		// Written and removed before we could read it.
		return
	}
	w.store.Notify(Event{Key: key, Value: value})
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	if err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		return err
	}
	return nil
}
