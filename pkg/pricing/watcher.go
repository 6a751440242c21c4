package pricing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the price table when its source file changes.
// Changes are debounced so editors that write in multiple steps trigger a
// single reload. Watch mode is opt-in; by default the table is only re-read
// on explicit Reload.
type Watcher struct {
	table    *Table
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce *debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherConfig contains configuration for the price table watcher.
type WatcherConfig struct {
	// DebounceInterval is the time to wait after a change event before
	// reloading (default: 200ms).
	DebounceInterval time.Duration
}

// NewWatcher creates a watcher for the table's source file.
func NewWatcher(table *Table, cfg WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if table.path == "" {
		return nil, fmt.Errorf("price table has no source file to watch")
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default().With("component", "pricing.watcher")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		table:    table,
		watcher:  fsw,
		logger:   logger,
		debounce: newDebouncer(cfg.DebounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks processing change events until the context is cancelled or
// Stop is called. Reload failures keep the previous table and are logged.
func (w *Watcher) Watch(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	// Watch the containing directory: editors replace files by rename,
	// which drops a watch on the file itself.
	dir := filepath.Dir(w.table.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	w.logger.Info("price table watcher started", "path", w.table.path)

	target := filepath.Clean(w.table.path)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("price table watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("price table watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.debounce.trigger(func() {
				if err := w.table.Reload(); err != nil {
					w.logger.Error("price table reload failed, previous table kept", "error", err)
					return
				}
				w.logger.Info("price table reloaded", "path", w.table.path, "models", len(w.table.Models()))
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("price table watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.stop()
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// debouncer coalesces bursts of change events into a single callback.
type debouncer struct {
	interval time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	callback func()
	stopCh   chan struct{}
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.callback = callback
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		select {
		case <-d.stopCh:
			return
		default:
		}
		d.mu.Lock()
		cb := d.callback
		d.mu.Unlock()
		if cb != nil {
			cb()
		}
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	close(d.stopCh)
	if d.timer != nil {
		d.timer.Stop()
	}
}
