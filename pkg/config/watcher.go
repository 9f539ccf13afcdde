package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/romdo/go-debounce"

	"github.com/compozy/traincfg/pkg/logger"
)

const maxDebounceFactor = 5

// Watcher reports changes to individual files. Bursts of events for the same
// file are coalesced into a single callback.
//
// The parent directory is watched rather than the file so that editors that
// save by renaming a temporary file over the original keep being tracked.
type Watcher struct {
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	log       logger.Logger
	callbacks []func(path string)
	mu        sync.RWMutex
	// watched maps absolute file paths to their debounced notifier.
	watched   map[string]*watchedFile
	dirs      map[string]int
	stopCh    chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

type watchedFile struct {
	ctx    context.Context
	notify func()
	cancel func()
}

// NewWatcher creates a new file watcher. A zero debounce notifies on every
// event.
func NewWatcher(ctx context.Context, debounceWait time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher:   fsWatcher,
		debounce:  debounceWait,
		log:       logger.FromContext(ctx).With("component", "watcher"),
		callbacks: make([]func(string), 0),
		watched:   make(map[string]*watchedFile),
		dirs:      make(map[string]int),
		stopCh:    make(chan struct{}),
	}, nil
}

// Watch starts watching path until ctx is canceled or the watcher is closed.
func (w *Watcher) Watch(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	dir := filepath.Dir(absPath)

	w.mu.Lock()
	if _, ok := w.watched[absPath]; ok {
		w.mu.Unlock()
		return nil
	}
	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("failed to watch file: %w", err)
		}
	}
	w.dirs[dir]++
	w.watched[absPath] = w.newWatchedFile(ctx, absPath)
	w.mu.Unlock()

	if done := ctx.Done(); done != nil {
		go func(p string, done <-chan struct{}) {
			select {
			case <-done:
			case <-w.stopCh:
			}
			w.unwatch(p)
		}(absPath, done)
	}
	w.startOnce.Do(func() {
		go w.handleEvents()
	})
	w.log.Debug("watching file", "path", absPath)
	return nil
}

func (w *Watcher) newWatchedFile(ctx context.Context, path string) *watchedFile {
	fire := func() { w.notifyCallbacks(path) }
	if w.debounce <= 0 {
		return &watchedFile{ctx: ctx, notify: fire, cancel: func() {}}
	}
	notify, cancel := debounce.NewWithMaxWait(w.debounce, maxDebounceFactor*w.debounce, fire)
	return &watchedFile{ctx: ctx, notify: notify, cancel: cancel}
}

func (w *Watcher) unwatch(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	file, ok := w.watched[path]
	if !ok {
		return
	}
	file.cancel()
	delete(w.watched, path)
	dir := filepath.Dir(path)
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	if err := w.watcher.Remove(dir); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
		w.log.Debug("failed to stop watching directory", "dir", dir, "error", err)
	}
}

// OnChange registers a callback invoked with the absolute path of a changed
// file.
func (w *Watcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, callback)
}

// handleEvents processes file system events until the watcher is closed.
func (w *Watcher) handleEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.mu.RLock()
			file, stillWatched := w.watched[filepath.Clean(event.Name)]
			w.mu.RUnlock()
			if !stillWatched || file.ctx.Err() != nil {
				continue
			}
			file.notify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.log.Error("file watcher error", "error", err)
			}
		}
	}
}

// notifyCallbacks invokes all registered callbacks.
func (w *Watcher) notifyCallbacks(path string) {
	w.mu.RLock()
	callbacks := make([]func(string), len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()
	for _, callback := range callbacks {
		if callback != nil {
			callback(path)
		}
	}
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var closeErr error
	w.closeOnce.Do(func() {
		close(w.stopCh)
		w.mu.Lock()
		for _, file := range w.watched {
			file.cancel()
		}
		w.mu.Unlock()
		if err := w.watcher.Close(); err != nil {
			closeErr = fmt.Errorf("failed to close watcher: %w", err)
		}
	})
	return closeErr
}
