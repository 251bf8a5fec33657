package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher wraps fsnotify to watch files and emit debounced change notifications.
// Parent directories are watched rather than the files themselves so that
// editors which replace a file through rename are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    map[string]bool
	events   chan struct{}
	errors   chan error
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	watching bool
}

// NewWatcher creates a new file watcher for the specified paths
func NewWatcher(ctx context.Context, paths ...string) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}

	watched := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		watched[abs] = true
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	watcherCtx, cancel := context.WithCancel(ctx)

	return &Watcher{
		watcher: fsw,
		paths:   watched,
		events:  make(chan struct{}, 1),
		errors:  make(chan error, 1),
		ctx:     watcherCtx,
		cancel:  cancel,
	}, nil
}

// Start begins watching the configured paths. Bursts of changes closer
// together than debounce produce a single event.
func (w *Watcher) Start(debounce time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watching {
		return fmt.Errorf("watcher already started")
	}

	dirs := make(map[string]bool)
	for path := range w.paths {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	w.watching = true
	go w.processEvents(debounce)

	return nil
}

// processEvents handles fsnotify events and applies debouncing. The debounce
// timer is owned by this goroutine.
func (w *Watcher) processEvents(debounce time.Duration) {
	defer close(w.events)
	defer close(w.errors)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.isWatchedFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			select {
			case w.events <- struct{}{}:
			default:
				// event already pending
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			case <-w.ctx.Done():
				return
			}
		}
	}
}

func (w *Watcher) isWatchedFile(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return w.paths[abs]
}

// Events returns the channel for receiving debounced file change notifications.
// It is closed when the watcher stops.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Errors returns the channel for receiving watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and cleans up resources
func (w *Watcher) Stop() error {
	w.cancel()
	return w.watcher.Close()
}
